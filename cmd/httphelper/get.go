package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/handiism/httphelper/internal/api"
	"github.com/handiism/httphelper/internal/endpoint"
)

func newGetCommand(opts *options) *cobra.Command {
	var showBody bool

	cmd := &cobra.Command{
		Use:   "get [1-4|name|all]...",
		Short: "Send demo requests",
		Long: `Send one or more demo requests. Requests are selected by number,
by endpoint name, or with 'all' (the default).

  1  getRequest1  static base URL
  2  getRequest2  alias '` + api.DomainGitHub + `'
  3  getRequest3  alias '` + api.DomainGoogle + `', 15s timeouts
  4  getRequest4  alias '` + api.DomainDynamic + `'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eps, err := selectRequests(args)
			if err != nil {
				return err
			}

			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}

			results := a.manager.RunRequests(cmd.Context(), eps)

			out := a.out
			failed := 0
			for _, res := range results {
				if res.Err != nil {
					failed++
					continue
				}
				if showBody {
					fmt.Fprintf(out, "\n== %s\n%s\n", res.Endpoint.Name, res.Body)
				}
			}

			if err := cmd.Context().Err(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d requests failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showBody, "body", false, "Print response bodies")

	return cmd
}

// selectRequests maps command arguments to demo endpoints.
func selectRequests(args []string) ([]*endpoint.Endpoint, error) {
	if len(args) == 0 {
		return api.Requests(), nil
	}

	var eps []*endpoint.Endpoint
	for _, arg := range args {
		if strings.EqualFold(arg, "all") {
			eps = append(eps, api.Requests()...)
			continue
		}
		ep, err := api.Lookup(arg)
		if err != nil {
			return nil, err
		}
		eps = append(eps, ep)
	}
	return eps, nil
}
