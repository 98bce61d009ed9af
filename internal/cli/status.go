package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/soyeahso/hookmount/internal/builtin"
	"github.com/soyeahso/hookmount/internal/hook"
	"github.com/soyeahso/hookmount/internal/manifest"
	"github.com/soyeahso/hookmount/internal/store"
	"github.com/soyeahso/hookmount/internal/version"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show hookmount status and configuration summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (commit %s)\n\n", version.Short(), version.Commit)

			fmt.Fprintf(out, "Config:   %s%s\n", paths.Config, missingMark(paths.Config))
			fmt.Fprintf(out, "Manifest: %s%s\n", cfg.Hooks.Manifest, missingMark(cfg.Hooks.Manifest))
			fmt.Fprintf(out, "Scripts:  %s%s\n", cfg.Hooks.ScriptsDir, missingMark(cfg.Hooks.ScriptsDir))
			fmt.Fprintf(out, "Store:    %s%s\n", cfg.Store.Path, missingMark(cfg.Store.Path))
			fmt.Fprintln(out)

			fmt.Fprintf(out, "Default priority: %s\n", hook.FormatPriority(cfg.Hooks.DefaultPriority))
			fmt.Fprintf(out, "Record firings:   %v\n", cfg.Store.RecordFirings)
			if cfg.Store.TablePrefix != "" {
				fmt.Fprintf(out, "Table prefix:     %s\n", cfg.Store.TablePrefix)
			}

			catalog, err := builtin.Catalog(nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Classes:          %v\n", catalog.Names())

			if _, err := os.Stat(cfg.Hooks.Manifest); err == nil {
				m, err := manifest.Load(cfg.Hooks.Manifest, cfg.Hooks.DefaultPriority)
				if err != nil {
					fmt.Fprintf(out, "Manifest error:   %v\n", err)
				} else {
					fmt.Fprintf(out, "Manifest:         %d hook(s), %d binding(s), %d class mount(s)\n",
						len(m.Hooks), len(m.Bindings), len(m.Mounts))
				}
			}

			if _, err := os.Stat(cfg.Store.Path); err == nil {
				db, err := store.Open(cfg.Store.Path, log, store.WithTablePrefix(cfg.Store.TablePrefix))
				if err != nil {
					fmt.Fprintf(out, "Store error:      %v\n", err)
					return nil
				}
				defer db.Close()
				n, err := store.NewJournal(db).Count("")
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Firings recorded: %d\n", n)
			}
			return nil
		},
	}
}

func missingMark(path string) string {
	if path == "" {
		return " (unset)"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return " (missing)"
	}
	return ""
}
