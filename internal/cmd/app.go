// Package cmd implements the snapkit command-line interface.
package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"snapkit/internal/casestore"
	"snapkit/internal/casestore/filesystem"
	"snapkit/internal/compare"
	"snapkit/internal/config"
	"snapkit/internal/evaluator"
	"snapkit/internal/model"
	"snapkit/internal/snapshot"

	"golang.org/x/term"
)

// App holds application state shared across commands.
type App struct {
	Storage     casestore.Store
	Evaluator   evaluator.Evaluator
	Comparator  *compare.Comparator
	ConfigStore config.Store
	Paths       config.Paths
	Settings    config.Settings
	Logger      *slog.Logger
	Out         io.Writer
	Err         io.Writer
	JSON        bool // output in JSON format
}

// newApp wires the store, evaluator and comparator described by settings.
func newApp(paths config.Paths, store config.Store, settings config.Settings) *App {
	return &App{
		Storage:     filesystem.New(settings.SnapshotsDir),
		Evaluator:   newEvaluator(paths, settings),
		Comparator:  &compare.Comparator{AbsTol: settings.AbsTol, RelTol: settings.RelTol, Ignore: settings.Ignore},
		ConfigStore: store,
		Paths:       paths,
		Settings:    settings,
	}
}

// newEvaluator returns the configured external command, or the built-in
// model when none is configured.
func newEvaluator(paths config.Paths, settings config.Settings) evaluator.Evaluator {
	if settings.EvaluatorCommand == "" {
		return model.Model{}
	}
	return evaluator.ShellCommand(settings.EvaluatorCommand, paths.Root, settings.EvaluatorTimeout)
}

// Runner returns a snapshot runner over the app's store.
func (a *App) Runner() *snapshot.Runner {
	return &snapshot.Runner{
		Store:      a.Storage,
		Evaluator:  a.Evaluator,
		Comparator: a.Comparator,
		Jobs:       a.Settings.Jobs,
		Logger:     a.Logger,
	}
}

// prepareStorage repairs interrupted writes before the store is used. A
// store whose root does not exist yet is left alone unless create is set.
func (a *App) prepareStorage(ctx context.Context, create bool) error {
	if !create {
		if fs, ok := a.Storage.(*filesystem.FilesystemStorage); ok {
			if _, err := os.Stat(fs.Root()); os.IsNotExist(err) {
				return nil
			}
		}
	}
	return a.Storage.Init(ctx)
}

// SuccessColor returns the string wrapped in green ANSI codes if stdout is a terminal,
// otherwise returns the string unchanged.
func (a *App) SuccessColor(s string) string {
	return a.color("\033[32m", s)
}

// WarnColor returns the string wrapped in orange ANSI codes if stdout is a terminal,
// otherwise returns the string unchanged.
func (a *App) WarnColor(s string) string {
	return a.color("\033[38;5;214m", s)
}

// FailColor returns the string wrapped in red ANSI codes if stdout is a terminal,
// otherwise returns the string unchanged.
func (a *App) FailColor(s string) string {
	return a.color("\033[31m", s)
}

func (a *App) color(code, s string) string {
	if f, ok := a.Out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return code + s + "\033[0m"
	}
	return s
}
