package e2etests

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// knownCommands is the registry of all snapkit commands that should be tested.
// Subcommands use space-separated format (e.g., "config get").
var knownCommands = map[string]bool{
	"run":             true,
	"update":          true,
	"create":          true,
	"list":            true,
	"init":            true,
	"export":          true,
	"import":          true,
	"watch":           true,
	"version":         true,
	"config get":      true,
	"config set":      true,
	"config list":     true,
	"config unset":    true,
	"config validate": true,
}

// ignoredCommands are commands discovered via --help that we intentionally skip.
var ignoredCommands = map[string]bool{
	"help":       true,
	"completion": true,
}

// commandLinePattern matches "  <command>  <description>" in help output.
var commandLinePattern = regexp.MustCompile(`^\s{2}(\S+)\s{2,}`)

// DiscoverCommands runs snapkit --help and each command's --help to find all
// available commands. Returns the discovered commands missing from
// knownCommands.
func DiscoverCommands(r *Runner) ([]string, error) {
	discovered := make(map[string]bool)

	result := r.RunRaw("--help")
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("snapkit --help failed: %s", result.Stderr)
	}

	for _, cmd := range parseCommandsFromHelp(result.Stdout) {
		if ignoredCommands[cmd] {
			continue
		}
		sub := r.RunRaw(cmd, "--help")
		if sub.ExitCode != 0 {
			return nil, fmt.Errorf("snapkit %s --help failed: %s", cmd, sub.Stderr)
		}
		subs := parseCommandsFromHelp(sub.Stdout)
		if len(subs) == 0 {
			discovered[cmd] = true
			continue
		}
		for _, s := range subs {
			discovered[cmd+" "+s] = true
		}
	}

	var unknown []string
	for cmd := range discovered {
		if !knownCommands[cmd] {
			unknown = append(unknown, cmd)
		}
	}
	sort.Strings(unknown)
	return unknown, nil
}

// parseCommandsFromHelp extracts command names from the "Available Commands:"
// section of cobra help output.
func parseCommandsFromHelp(helpOutput string) []string {
	var commands []string
	inCommandSection := false

	for _, line := range strings.Split(helpOutput, "\n") {
		if strings.HasPrefix(line, "Available Commands:") {
			inCommandSection = true
			continue
		}
		if !inCommandSection {
			continue
		}
		if strings.TrimSpace(line) == "" {
			break
		}
		if matches := commandLinePattern.FindStringSubmatch(line); len(matches) > 1 {
			commands = append(commands, matches[1])
		}
	}

	return commands
}
