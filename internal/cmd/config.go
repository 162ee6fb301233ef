package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"snapkit/internal/config"
	"snapkit/internal/config/yamlstore"
	"snapkit/internal/configservice"

	"github.com/spf13/cobra"
)

// newConfigCmd creates the config command with subcommands.
func newConfigCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage snapkit configuration settings.

Configuration is stored as flat key-value pairs in snapkit.yaml at the
project root. SNAPKIT_* environment variables override stored values for a
single invocation and are never written back.

Subcommands:
  get       Get a configuration value
  set       Set a configuration value
  list      List all configuration values
  unset     Remove a configuration value
  validate  Validate configuration`,
	}

	cmd.AddCommand(newConfigGetCmd(provider))
	cmd.AddCommand(newConfigSetCmd(provider))
	cmd.AddCommand(newConfigListCmd(provider))
	cmd.AddCommand(newConfigUnsetCmd(provider))
	cmd.AddCommand(newConfigValidateCmd(provider))

	return cmd
}

// configApp returns an App holding only the config store. Unlike
// provider.Get it does not validate the stored values, so a broken
// snapkit.yaml can still be inspected and repaired.
func configApp(provider *AppProvider) (*App, error) {
	if provider.app != nil {
		return provider.app, nil
	}
	paths, err := configservice.ResolvePaths(provider.RootPath)
	if err != nil {
		return nil, &UsageError{Err: err}
	}
	store, err := yamlstore.New(paths.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	config.ApplyEnvOverrides(store)

	out := provider.Out
	if out == nil {
		out = os.Stdout
	}
	return &App{
		ConfigStore: store,
		Paths:       paths,
		Out:         out,
		Err:         provider.errOut(),
		JSON:        provider.JSONOutput || envBool(os.Getenv(config.EnvJSON)),
	}, nil
}

// effectiveValue returns the stored value for key, falling back to its default.
func effectiveValue(s config.Store, key string) (value string, ok bool, isDefault bool) {
	if v, ok := s.Get(key); ok {
		return v, true, false
	}
	if v, ok := config.DefaultValues()[key]; ok {
		return v, true, true
	}
	return "", false, false
}

// newConfigGetCmd creates the "config get" subcommand.
func newConfigGetCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get the value of a configuration key.

Prints the bare value if the key is set or has a default, or "key (not set)"
otherwise.

Examples:
  snapkit config get compare.atol
  snapkit config get evaluator.command`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := configApp(provider)
			if err != nil {
				return err
			}

			key := args[0]
			value, ok, isDefault := effectiveValue(app.ConfigStore, key)

			if app.JSON {
				return json.NewEncoder(app.Out).Encode(map[string]interface{}{
					"key":     key,
					"value":   value,
					"set":     ok && !isDefault,
					"default": isDefault,
				})
			}

			if ok {
				fmt.Fprintln(app.Out, value)
			} else {
				fmt.Fprintf(app.Out, "%s (not set)\n", key)
			}
			return nil
		},
	}

	return cmd
}

// newConfigSetCmd creates the "config set" subcommand.
func newConfigSetCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration key to a value.

Values for core keys are validated before they are written.

Examples:
  snapkit config set compare.atol 1e-6
  snapkit config set evaluator.command "./bin/model"
  snapkit config set run.jobs 4`,
		Args: usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := configApp(provider)
			if err != nil {
				return err
			}

			key, value := args[0], args[1]
			if err := config.ValidateValue(key, value); err != nil {
				return &UsageError{Err: err}
			}
			if err := app.ConfigStore.Set(key, value); err != nil {
				return fmt.Errorf("setting config: %w", err)
			}

			if app.JSON {
				return json.NewEncoder(app.Out).Encode(map[string]string{
					"key":   key,
					"value": value,
				})
			}
			fmt.Fprintf(app.Out, "Set %s = %s\n", key, value)
			return nil
		},
	}

	return cmd
}

// newConfigListCmd creates the "config list" subcommand.
func newConfigListCmd(provider *AppProvider) *cobra.Command {
	var showDefaults bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `List configuration values sorted by key.

With --defaults, core keys that are not set are listed with their default
values.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := configApp(provider)
			if err != nil {
				return err
			}

			all := app.ConfigStore.All()
			if showDefaults {
				for k, v := range config.DefaultValues() {
					if _, ok := all[k]; !ok {
						all[k] = v
					}
				}
			}

			if app.JSON {
				return json.NewEncoder(app.Out).Encode(all)
			}

			if len(all) == 0 {
				fmt.Fprintln(app.Out, "No configuration values set")
				return nil
			}
			for _, k := range sortedKeys(all) {
				fmt.Fprintf(app.Out, "%s = %s\n", k, all[k])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showDefaults, "defaults", false, "Include default values for unset core keys")

	return cmd
}

// newConfigUnsetCmd creates the "config unset" subcommand.
func newConfigUnsetCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a configuration value",
		Long: `Remove a key from snapkit.yaml. Core keys fall back to their defaults.

Examples:
  snapkit config unset evaluator.command`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := configApp(provider)
			if err != nil {
				return err
			}

			key := args[0]
			if err := app.ConfigStore.Unset(key); err != nil {
				return fmt.Errorf("unsetting config: %w", err)
			}

			if app.JSON {
				return json.NewEncoder(app.Out).Encode(map[string]string{
					"key":    key,
					"status": "unset",
				})
			}
			fmt.Fprintf(app.Out, "Unset %s\n", key)
			return nil
		},
	}

	return cmd
}

// newConfigValidateCmd creates the "config validate" subcommand.
func newConfigValidateCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		Long: `Check every core key for a valid value and list unknown keys.

Exits 2 if any value is invalid. Unknown keys are reported but allowed.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := configApp(provider)
			if err != nil {
				return err
			}

			var unknown []string
			for _, k := range sortedKeys(app.ConfigStore.All()) {
				if !config.IsKnownKey(k) {
					unknown = append(unknown, k)
				}
			}
			verr := config.Validate(app.ConfigStore)

			if app.JSON {
				result := map[string]interface{}{
					"valid":   verr == nil,
					"unknown": unknown,
				}
				if verr != nil {
					result["error"] = verr.Error()
				}
				if err := json.NewEncoder(app.Out).Encode(result); err != nil {
					return err
				}
				return verr
			}

			for _, k := range unknown {
				fmt.Fprintf(app.Out, "%s unknown key %s\n", app.WarnColor("warning:"), k)
			}
			if verr != nil {
				return verr
			}
			fmt.Fprintln(app.Out, app.SuccessColor("Configuration is valid"))
			return nil
		},
	}

	return cmd
}

// sortedKeys returns the keys of m in sorted order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
