// File: cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/gridpoint/internal/config"
	"github.com/xkilldash9x/gridpoint/internal/observability"
)

type contextKey string

const configKey contextKey = "config"

// envPrefix namespaces every environment override, e.g. GRIDPOINT_GRID_ROWS.
const envPrefix = "GRIDPOINT"

const dotEnvFile = ".env"

// NewRootCommand builds a fresh command tree with its own viper instance, so
// repeated executions (tests, embedding) never share flag or config state.
func NewRootCommand() *cobra.Command {
	var cfgFile string
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "gridpoint",
		Short: "Gridpoint turns a goal into one confirmed click using a vision model.",
		Long: `Gridpoint captures the screen, numbers it with a grid, asks a vision model
which cell serves the goal, and clicks that cell's center only after a human
approves it.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.SetDefaults(v)
			if err := bindFlags(cmd, v); err != nil {
				return err
			}

			if err := initializeConfig(cfgFile, v); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "gridpoint"})
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("Starting gridpoint", zap.String("version", Version))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./gridpoint.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s version %s\n" .Name .Version}}`)

	rootCmd.AddCommand(newClickCmd())
	rootCmd.AddCommand(newGridCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the command tree against os.Args. Errors are logged here;
// callers only decide the exit code.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			observability.GetLogger().Warn("Command aborted", zap.Error(err))
		} else {
			observability.GetLogger().Error("Command execution failed", zap.Error(err))
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		observability.Sync()
		return err
	}
	observability.Sync()
	return nil
}

// initializeConfig reads the config file (if any) and wires environment overrides.
func initializeConfig(cfgFile string, v *viper.Viper) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("gridpoint")
		v.SetConfigType("yaml")
	}

	// A .env file next to the working directory may carry secrets such as
	// GRIDPOINT_MODEL_API_KEY. Variables already set in the environment win.
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error reading %s: %w", dotEnvFile, err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// configKeyAnnotation marks a flag as an override for one or more config keys.
const configKeyAnnotation = "gridpoint_config_keys"

// overrideFlag registers flag name as an override of keys. The binding
// itself happens in bindFlags, for the command that actually runs.
func overrideFlag(flags *pflag.FlagSet, name string, keys ...string) {
	_ = flags.SetAnnotation(name, configKeyAnnotation, keys)
}

// bindFlags binds the running command's override flags into v. Viper only
// prefers a bound flag over the config file and environment when it was set.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		for _, key := range f.Annotations[configKeyAnnotation] {
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = fmt.Errorf("failed to bind flag --%s: %w", f.Name, err)
			}
		}
	})
	return bindErr
}

// configFrom returns the validated config stored by the root command.
func configFrom(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}
