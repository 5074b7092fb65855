package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	gerritadapter "github.com/ericfisherdev/gerritwatch/internal/adapter/driven/gerrit"
)

func newLabelsCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "labels <file.json>...",
		Short: "Summarize saved change-detail responses.",
		Long: `Summarize change-detail JSON saved from {endpoint}/changes/{id}/detail.
Use - to read from standard input. The )]}' guard prefix may be left in place.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if err := summarizeFile(e.out, cmd.InOrStdin(), path); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func summarizeFile(out io.Writer, stdin io.Reader, path string) error {
	var (
		body []byte
		err  error
	)
	if path == "-" {
		body, err = io.ReadAll(stdin)
	} else {
		body, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	change, err := gerritadapter.ParseChangeDetail(body)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	printChange(out, change)
	return nil
}
