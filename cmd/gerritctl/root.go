package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	gerritadapter "github.com/ericfisherdev/gerritwatch/internal/adapter/driven/gerrit"
	"github.com/ericfisherdev/gerritwatch/internal/domain/model"
	"github.com/ericfisherdev/gerritwatch/internal/domain/port/driven"
)

const defaultConfigName = "gerritctl.yaml"

// env carries the state shared by every subcommand.
type env struct {
	out        io.Writer
	configPath string
	endpoint   string
	noColor    bool

	opts   model.Options
	client driven.GerritClient
}

func newRootCommand(out io.Writer) *cobra.Command {
	e := &env{out: out}

	cmd := &cobra.Command{
		Use:          "gerritctl",
		Short:        "Query Gerrit change status from the terminal.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if e.noColor {
				color.NoColor = true
			}
		},
	}
	cmd.SetOut(out)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&e.configPath, "config", "c", "", "YAML options file (default $XDG_CONFIG_HOME/gerritwatch/"+defaultConfigName+")")
	flags.StringVar(&e.endpoint, "endpoint", "", "Gerrit endpoint, overrides the options file")
	flags.BoolVar(&e.noColor, "no-color", false, "disable coloured output")

	cmd.AddCommand(newQueryCommand(e))
	cmd.AddCommand(newTestCommand(e))
	cmd.AddCommand(newLabelsCommand(e))

	return cmd
}

// loadOptions is the PreRunE of subcommands that talk to a server.
func loadOptions(e *env) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, _ []string) error {
		path := e.configPath
		explicit := path != ""
		if !explicit {
			path = defaultConfigPath()
		}

		opts, err := readOptionsFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist) && !explicit:
			opts = model.DefaultOptions()
		case err != nil:
			return err
		}

		if e.endpoint != "" {
			opts.Endpoint = e.endpoint
		}
		if opts.Credentials.Password == "" {
			opts.Credentials.Password = os.Getenv("GERRITWATCH_PASSWORD")
		}
		if opts.Endpoint == "" {
			return fmt.Errorf("no gerrit endpoint: set endpoint in %s or pass --endpoint", path)
		}

		e.opts = opts
		if e.client == nil {
			e.client = gerritadapter.NewClient()
		}
		return nil
	}
}

// readOptionsFile parses a YAML options file. Missing fields keep their defaults.
func readOptionsFile(path string) (model.Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Options{}, fmt.Errorf("read options file: %w", err)
	}

	opts := model.DefaultOptions()
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return model.Options{}, fmt.Errorf("parse options file %s: %w", path, err)
	}
	return opts, nil
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(dir, "gerritwatch", defaultConfigName)
}
