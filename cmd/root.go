package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/agentic-research/confedit/api"
	"github.com/agentic-research/confedit/internal/actions"
	"github.com/agentic-research/confedit/internal/pipeline"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
)

// newHost builds the runner host for a command. Tests replace it.
var newHost = func(out io.Writer) *actions.Host {
	return actions.NewHost(out, osfs.New("/"))
}

type options struct {
	file        string
	path        string
	value       string
	write       bool
	output      string
	format      string
	syntax      string
	patchOutput string
}

var rootCmd = newRootCmd()

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "confedit",
		Short: "Read and update values in TOML, JSON, YAML and HCL configuration files",
		Long: `confedit reads a configuration file, resolves a path expression in it and
optionally replaces the value found there. Every flag falls back to the
matching INPUT_<NAME> environment variable, so the binary runs unchanged as a
GitHub Actions step.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			host := newHost(cmd.OutOrStdout())
			in, err := collectInputs(cmd, opts, host)
			if err != nil {
				return err
			}
			return runAction(cmd.Context(), host, in)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "Configuration file to read (INPUT_FILE)")
	f.StringVarP(&opts.path, "path", "p", "", "Path expression addressing the value (INPUT_PATH)")
	f.StringVarP(&opts.value, "value", "v", "", "Replacement value, parsed as a JSON literal when possible (INPUT_VALUE)")
	f.BoolVarP(&opts.write, "write", "w", false, "Write the updated document to disk (INPUT_WRITE)")
	f.StringVarP(&opts.output, "output", "o", "", "Write to this file instead of --file (INPUT_OUTPUT)")
	f.StringVar(&opts.format, "format", "", "Document format: toml, json, yaml or hcl; default by extension (INPUT_FORMAT)")
	f.StringVar(&opts.syntax, "syntax", "", "Path syntax: jsonpath or jq (INPUT_SYNTAX)")
	f.StringVar(&opts.patchOutput, "patch-output", "", "Write a JSON Patch describing the edit to this file (INPUT_PATCH_OUTPUT)")
	return cmd
}

// collectInputs reads every input once: a flag set on the command line wins,
// otherwise the INPUT_ variable is used.
func collectInputs(cmd *cobra.Command, opts *options, host *actions.Host) (api.Inputs, error) {
	str := func(flag, input, val string) string {
		if cmd.Flags().Changed(flag) {
			return val
		}
		return host.Input(input)
	}

	in := api.Inputs{
		File:        str("file", "file", opts.file),
		Path:        str("path", "path", opts.path),
		Value:       str("value", "value", opts.value),
		Output:      str("output", "output", opts.output),
		Format:      str("format", "format", opts.format),
		Syntax:      str("syntax", "syntax", opts.syntax),
		PatchOutput: str("patch-output", "patch_output", opts.patchOutput),
	}

	if cmd.Flags().Changed("write") {
		in.Write = opts.write
	} else {
		w, err := host.BoolInput("write")
		if err != nil {
			return in, err
		}
		in.Write = w
	}

	if in.File == "" {
		return in, pipeline.ErrMissingFile
	}
	for _, p := range []*string{&in.File, &in.Output, &in.PatchOutput} {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return in, fmt.Errorf("resolve path %s: %w", *p, err)
		}
		*p = abs
	}
	return in, nil
}

func runAction(ctx context.Context, host *actions.Host, in api.Inputs) error {
	log := host.Logger()
	log.Info("Processing File", "file", in.File)

	res, err := pipeline.Run(ctx, pipeline.Deps{FS: host.FS, Logger: log, Groups: host}, in)
	if err != nil {
		return err
	}

	if res.Resolution.First() != nil {
		log.Info("Parsed Value", "value", res.Outputs.Value)
	}
	if res.Mutation != nil {
		log.Info("Updated Value", "value", res.Mutation.Value.Text(), "locations", res.Mutation.Written())
	}
	if res.WrittenTo != "" {
		log.Info("Writing to File", "file", res.WrittenTo)
	}

	log.Info("Setting Outputs")
	for _, kv := range res.Outputs.Pairs() {
		if err := host.SetOutput(kv[0], kv[1]); err != nil {
			return err
		}
	}
	log.Info("Finished Success")
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		actions.NewHost(os.Stdout, nil).SetFailed(err)
		os.Exit(1)
	}
}
