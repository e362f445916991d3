package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/fieldprompts/internal/core"
	"github.com/spf13/cobra"
)

type ingestOptions struct {
	apply   bool
	preview bool
	verbose bool
	source  string
}

func newPreviewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "preview <file>",
		Short: "Classify an export into new and existing prompts without writing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExport(cmd, args[0], ingestOptions{})
		},
	}
}

func newIngestCmd(a *app) *cobra.Command {
	var opts ingestOptions

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Insert the new prompts of an export (dry-run unless --apply)",
		Long: `
Reads the export, normalizes it and inserts every prompt whose
(Area, Sub Area, Field) is not stored yet. Stored prompts are never
overwritten. Without --apply only the preview is reported.

A JSON summary is printed to stdout. Records that fail are listed in the
summary and do not change the exit code.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExport(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.apply, "apply", false, "apply changes to the database (default is dry-run)")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "also report the preview when applying")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "print one line per applied record to stderr")
	cmd.Flags().StringVar(&opts.source, "source", "", "source name recorded in the run history (default: file name)")
	return cmd
}

func (a *app) runExport(cmd *cobra.Command, path string, opts ingestOptions) error {
	var svcOpts []core.Option
	if opts.verbose {
		svcOpts = append(svcOpts, core.WithRecordObserver(a.printRecord))
	}
	svc := a.service(svcOpts...)

	f, err := os.Open(path)
	if err != nil {
		return withCode(exitUsage, err)
	}
	defer f.Close()

	raw, err := core.ReadRecords(f, svc.MaxFileSize())
	if err != nil {
		return classified(fmt.Errorf("%s: %w", path, err))
	}

	source := opts.source
	if source == "" {
		source = filepath.Base(path)
	}

	report, err := svc.Run(cmd.Context(), source, raw, core.RunOptions{
		Apply:   opts.apply,
		Preview: opts.preview,
	})
	if report != nil {
		if perr := a.printJSON(report); perr != nil && err == nil {
			err = perr
		}
	}
	return classified(err)
}

func (a *app) printRecord(res core.RecordResult) {
	if res.Err != nil {
		fmt.Fprintf(a.stderr, "%-16s %s (%s: %v)\n", res.Outcome, res.Record.Key, res.Kind, res.Err)
		return
	}
	fmt.Fprintf(a.stderr, "%-16s %s\n", res.Outcome, res.Record.Key)
}
