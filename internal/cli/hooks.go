package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soyeahso/hookmount/internal/hook"
)

func newHooksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hooks [manifest.hcl]",
		Short: "List the handlers a manifest mounts, per extension point",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path, explicit := manifestArg(args)

			s, err := openSession(cfg, out, log, sessionOptions{})
			if err != nil {
				return err
			}
			defer s.close()

			if _, err := s.apply(path, explicit, cfg.Hooks.DefaultPriority); err != nil {
				return err
			}

			names := s.bus.Hooks()
			if len(names) == 0 {
				fmt.Fprintln(out, "No hooks mounted.")
				return nil
			}
			for _, name := range names {
				fmt.Fprintf(out, "%s\n", name)
				for _, e := range s.bus.Entries(name) {
					fmt.Fprintf(out, "  %-8s %-40s args=%d\n", hook.FormatPriority(e.Priority), e.Label, e.Arity)
				}
			}
			return nil
		},
	}
}

// manifestArg returns the manifest named on the command line, or the
// configured default.
func manifestArg(args []string) (string, bool) {
	if len(args) > 0 {
		return args[0], true
	}
	return cfg.Hooks.Manifest, false
}
