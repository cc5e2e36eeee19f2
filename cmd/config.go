package cmd

import (
	"fmt"
	"sort"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/pagekit/internal/config"
)

var settingsAPI = jsoniter.Config{SortMapKeys: true, EscapeHTML: false}.Froze()

func newConfigCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		Long: `Print the configuration after defaults, the config file, the environment
and command line flags have been applied, one key=value pair per line in the
same syntax as options.properties.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd.Context())
			if err != nil {
				return err
			}
			s := settings(cfg)
			if asJSON {
				out, err := settingsAPI.MarshalIndent(s, "", "  ")
				if err != nil {
					return fmt.Errorf("encoding configuration: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", k, s[k])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print a JSON object instead")
	return cmd
}

// settings flattens cfg into the keys it is configured by.
func settings(cfg config.Config) map[string]string {
	return map[string]string{
		"browser":                 cfg.Browser.String(),
		"headless":                strconv.FormatBool(cfg.Headless),
		"grid":                    strconv.FormatBool(cfg.Grid),
		"close":                   strconv.FormatBool(cfg.Close),
		"grid_url.chromium":       cfg.GridURL.Chromium,
		"grid_url.firefox":        cfg.GridURL.Firefox,
		"grid_connect_timeout":    cfg.GridConnectTimeout.String(),
		"viewport.width":          strconv.Itoa(cfg.Viewport.Width),
		"viewport.height":         strconv.Itoa(cfg.Viewport.Height),
		"wait.timeout":            cfg.Wait.Timeout.String(),
		"wait.poll_interval":      cfg.Wait.PollInterval.String(),
		"wait.probe_timeout":      cfg.Wait.ProbeTimeout.String(),
		"wait.keystroke_interval": cfg.Wait.KeystrokeInterval.String(),
		"logger.level":            cfg.Logger.Level,
		"logger.format":           cfg.Logger.Format,
		"logger.log_file":         cfg.Logger.LogFile,
	}
}
