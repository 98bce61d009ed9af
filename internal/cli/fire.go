package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soyeahso/hookmount/internal/config"
)

func newFireCmd() *cobra.Command {
	var (
		manifestPath string
		filter       bool
		noRecord     bool
	)

	cmd := &cobra.Command{
		Use:   "fire <hook> [args...]",
		Short: "Mount a manifest and fire one extension point",
		Long: "Fire runs every handler mounted on <hook> in priority order. As an " +
			"action, handler errors are logged and the rest still run. With --filter " +
			"the first argument is the value threaded through the handlers and the " +
			"final value is printed.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			name := args[0]
			values := make([]any, len(args)-1)
			for i, a := range args[1:] {
				values[i] = config.ParseValue(a)
			}

			path, explicit := cfg.Hooks.Manifest, false
			if manifestPath != "" {
				path, explicit = manifestPath, true
			}

			record := cfg.Store.RecordFirings && !noRecord
			s, err := openSession(cfg, out, log, sessionOptions{withStore: true, record: record})
			if err != nil {
				return err
			}
			defer s.close()

			if _, err := s.apply(path, explicit, cfg.Hooks.DefaultPriority); err != nil {
				return err
			}

			if !filter {
				ran := s.bus.Do(name, values...)
				if err := s.complete(name, ran, nil); err != nil {
					return err
				}
				fmt.Fprintf(out, "Fired %s: %d handler(s)\n", name, ran)
				return nil
			}

			var value any
			if len(values) > 0 {
				value, values = values[0], values[1:]
			}
			handlers := s.bus.Count(name)
			result, fireErr := s.bus.Apply(name, value, values...)
			if err := s.complete(name, handlers, fireErr); err != nil {
				return err
			}
			if fireErr != nil {
				return fireErr
			}
			return printValue(out, result)
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "manifest to mount (default from config)")
	cmd.Flags().BoolVar(&filter, "filter", false, "fire as a filter and print the resulting value")
	cmd.Flags().BoolVar(&noRecord, "no-record", false, "do not record the firing in the journal")
	return cmd
}
