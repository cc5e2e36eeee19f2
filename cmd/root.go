// -- cmd/root.go --
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/config"
	"github.com/xkilldash9x/pagekit/internal/observability"
)

type contextKey string

const configKey contextKey = "config"

// rootFlags holds the persistent flags of one command tree.
type rootFlags struct {
	cfgFile string
}

// flagKeys maps persistent flags onto configuration keys. A flag only
// overrides the key when it is set on the command line.
var flagKeys = map[string]string{
	"browser":   "browser",
	"headless":  "headless",
	"grid":      "grid",
	"close":     "close",
	"log-level": "logger.level",
}

// NewRootCmd builds the pagekit command tree. Every call returns an
// independent tree, so tests can run them side by side.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "pagekit",
		Short:         "pagekit checks and configures browser sessions for UI automation.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if err := bindFlags(cmd.Root().PersistentFlags(), v); err != nil {
				return err
			}
			cfg, err := config.Load(v, flags.cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("Starting pagekit", zap.String("version", Version))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}
	cmd.SetVersionTemplate(`{{printf "%s version %s\n" .Name .Version}}`)
	// Command lookup must already know --version takes no value.
	cmd.InitDefaultVersionFlag()

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.cfgFile, "config", "c", "", "config file (default is ./"+config.DefaultPropertiesFile+")")
	pf.String("browser", "", "browser to drive (CHROME, FIREFOX, EDGE, OPERA)")
	pf.Bool("headless", false, "run the browser without a window")
	pf.Bool("grid", false, "connect to the grid instead of launching a browser")
	pf.Bool("close", true, "release sessions when the command ends")
	pf.String("log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newCheckCmd())
	return cmd
}

func bindFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("binding --%s: %w", flag, err)
		}
	}
	return nil
}

// configFrom returns the configuration resolved by the root command.
func configFrom(ctx context.Context) (config.Config, error) {
	cfg, ok := ctx.Value(configKey).(config.Config)
	if !ok {
		return config.Config{}, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}

// Execute runs the command tree against os.Args.
func Execute(ctx context.Context) error {
	err := NewRootCmd().ExecuteContext(ctx)
	if err != nil {
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
	}
	observability.Sync()
	return err
}
