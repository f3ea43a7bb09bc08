package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrWong99/seedkit/internal/app"
)

func (c *cli) typesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List entity types and the seeds registered for them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := app.BuildCatalog(c.cfg)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tSEEDS")
			for _, t := range catalog.Types() {
				var names []string
				for _, f := range catalog.Factories(t) {
					names = append(names, f.Name)
				}
				fmt.Fprintf(tw, "%s\t%s\n", t, strings.Join(names, ", "))
			}
			return tw.Flush()
		},
	}
}
