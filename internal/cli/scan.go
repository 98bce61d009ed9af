package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soyeahso/hookmount/internal/docscan"
	"github.com/soyeahso/hookmount/internal/hook"
)

func newScanCmd() *cobra.Command {
	var typeName string

	cmd := &cobra.Command{
		Use:   "scan <file.go>...",
		Short: "List hook declarations in Go source files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			found := 0
			for _, path := range args {
				methods, err := docscan.ParseFile(path)
				if err != nil {
					return err
				}
				for _, d := range docscan.Declarations(methods, cfg.Hooks.DefaultPriority) {
					if typeName != "" && d.Type != typeName {
						continue
					}
					fmt.Fprintf(out, "%-32s %-28s %-20s %s\n",
						fmt.Sprintf("%s:%d", d.Pos.Filename, d.Pos.Line),
						d.Type+"."+d.Name,
						d.Hook,
						hook.FormatPriority(d.Priority))
					found++
				}
			}
			if found == 0 {
				fmt.Fprintln(out, "No hook declarations found.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&typeName, "type", "", "only report methods of this receiver type")
	return cmd
}
