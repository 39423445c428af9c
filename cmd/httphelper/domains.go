package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newDomainsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "domains",
		Short: "List registered domain aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ALIAS\tORIGIN")
			for _, alias := range a.helper.Domains().Aliases() {
				o, _ := a.helper.DomainURL(alias)
				fmt.Fprintf(w, "%s\t%s\n", alias, o)
			}
			if o, ok := a.helper.BaseURL(); ok {
				fmt.Fprintf(w, "(global)\t%s\n", o)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\nbase url: %s\ndynamic domain: %t\n", a.settings.BaseURL, a.helper.IsDynamicDomain())
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "httphelper %s (commit %s)\n", version, commit)
		},
	}
}
