package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errTestFailed = errors.New("connection to gerrit failed")

func newTestCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "test",
		Short:   "Check that the endpoint answers with the configured credentials.",
		Args:    cobra.NoArgs,
		PreRunE: loadOptions(e),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !e.client.Test(cmd.Context(), e.opts.Endpoint, e.opts.Credentials) {
				fmt.Fprintln(e.out, statusFailed.Sprint("Connection to Gerrit failed."))
				return errTestFailed
			}
			fmt.Fprintln(e.out, votePositive.Sprint("Connection to Gerrit succeeded."))
			return nil
		},
	}
}
