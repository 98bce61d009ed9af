package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/hookmount/internal/store"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit int
		prune time.Duration
	)

	cmd := &cobra.Command{
		Use:   "history [hook]",
		Short: "Show recently recorded firings",
		Long: "History lists the newest recorded firings, optionally of one hook. " +
			"With --prune it instead deletes firings older than the given age.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			var name string
			if len(args) > 0 {
				name = args[0]
			}

			db, err := store.Open(cfg.Store.Path, log, store.WithTablePrefix(cfg.Store.TablePrefix))
			if err != nil {
				return err
			}
			defer db.Close()

			journal := store.NewJournal(db)
			if prune > 0 {
				removed, err := journal.Prune(time.Now().Add(-prune))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Pruned %d firing(s) older than %s.\n", removed, prune)
				return nil
			}

			firings, err := journal.Recent(name, limit)
			if err != nil {
				return err
			}
			if len(firings) == 0 {
				fmt.Fprintln(out, "No firings recorded.")
				return nil
			}

			for _, f := range firings {
				line := fmt.Sprintf("%s  %s  %-24s handlers=%d  [%s]",
					f.ID[:8],
					f.FiredAt.Local().Format(time.DateTime),
					f.Hook,
					f.Handlers,
					strings.Join(f.Args, ", "))
				if f.Error != "" {
					line += "  error: " + f.Error
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of firings to show")
	cmd.Flags().DurationVar(&prune, "prune", 0, "delete firings older than this age (e.g. 720h) instead of listing")
	return cmd
}
