package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soyeahso/hookmount/internal/config"
	"github.com/soyeahso/hookmount/internal/logging"
)

var (
	cfgFile  string
	logLevel string

	// loaded before every command
	paths config.Paths
	cfg   config.Config
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hookmount",
		Short: "hookmount: mount handlers on named extension points",
		Long: "hookmount discovers hook declarations, mounts Lua and Go handlers on " +
			"named extension points from HCL manifests, and fires them.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}

			cfg, err = config.Load(paths.Config)
			if err != nil {
				return err
			}
			cfg.Resolve(paths)
			if issues := config.Validate(&cfg); len(issues) > 0 {
				msgs := make([]string, len(issues))
				for i, issue := range issues {
					msgs[i] = issue.String()
				}
				return fmt.Errorf("invalid config %s: %s", paths.Config, strings.Join(msgs, "; "))
			}

			level := logLevel
			if level == "" {
				level = cfg.Logging.Level
			}
			log = logging.NewStyled(cfg.Logging.ConsoleStyle, level)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.hookmount/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newHooksCmd())
	cmd.AddCommand(newFireCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
