package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/gerritwatch/internal/domain/model"
)

// errSomeFailed is returned when at least one change could not be queried.
var errSomeFailed = errors.New("some changes could not be queried")

func newQueryCommand(e *env) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "query <change-id>...",
		Short: "Show status and votes of one or more changes.",
		Long: `Show status, Verified, and Code-Review votes of one or more changes.
A change id may be a change number, a Change-Id, or a project~branch~Change-Id triplet.`,
		Args:    cobra.MinimumNArgs(1),
		PreRunE: loadOptions(e),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, e, args, concurrency)
		},
	}

	cmd.Flags().IntVarP(&concurrency, "jobs", "j", 4, "number of changes queried at once")
	return cmd
}

func runQuery(cmd *cobra.Command, e *env, ids []string, concurrency int) error {
	results := make([]model.QueryResult, len(ids))
	errs := make([]error, len(ids))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(concurrency, 1))
	for i, id := range ids {
		g.Go(func() error {
			results[i], errs[i] = e.client.Query(ctx, e.opts, id)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i, id := range ids {
		if errs[i] != nil {
			failed++
			fmt.Fprintf(e.out, "%-10s %s\n", id, statusFailed.Sprint(errs[i].Error()))
			continue
		}
		if results[i].Kind == model.ResultError {
			failed++
		}
		printResult(e.out, id, results[i])
	}

	fmt.Fprintln(e.out, faint.Sprintf("%s from %s", english.Plural(len(ids), "change", ""), e.opts.Endpoint))

	if failed > 0 {
		return fmt.Errorf("%d of %d: %w", failed, len(ids), errSomeFailed)
	}
	return nil
}
