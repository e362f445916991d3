package main

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/fieldprompts/internal/core"
	"github.com/spf13/cobra"
)

func newSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create the prompt tables and indexes if missing",
		Long: `
Every command ensures the schema on start; this command does only that, for
provisioning a database ahead of the first import.
`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.service().EnsureSchema(cmd.Context()); err != nil {
				return classified(err)
			}
			fmt.Fprintln(a.stderr, "schema ready")
			return nil
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print table-wide prompt statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := a.service().Stats(cmd.Context())
			if err != nil {
				return classified(err)
			}
			return a.printJSON(stats)
		},
	}
}

func newAreasCmd(a *app) *cobra.Command {
	var area, subArea string

	cmd := &cobra.Command{
		Use:   "areas",
		Short: "List areas, the sub areas of --area, or the prompts of --area/--sub-area",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := a.service()
			ctx := cmd.Context()

			var (
				out any
				err error
			)
			switch {
			case area == "" && subArea != "":
				return withCode(exitUsage, errors.New("--sub-area requires --area"))
			case area == "":
				out, err = svc.Areas(ctx)
			case subArea == "":
				out, err = svc.SubAreas(ctx, area)
			default:
				out, err = svc.Prompts(ctx, area, subArea)
			}
			if err != nil {
				return classified(err)
			}
			return a.printJSON(out)
		},
	}

	cmd.Flags().StringVar(&area, "area", "", "list the sub areas of this area")
	cmd.Flags().StringVar(&subArea, "sub-area", "", "with --area, list the prompts of this sub area")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent ingest runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runs, err := a.service().History(cmd.Context(), limit)
			if err != nil {
				return classified(err)
			}
			return a.printJSON(runs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", core.DefaultHistoryLimit, "number of runs to show")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var (
		id     int64
		key    core.Key
		prompt string
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Replace the text of one stored prompt",
		Long: `
Addresses the prompt either by --id or by --area, --sub-area and --field.
The text is trimmed; an unchanged text is not written.
`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			byKey := key.Area != "" || key.SubArea != "" || key.Field != ""
			switch {
			case id != 0 && byKey:
				return withCode(exitUsage, errors.New("use either --id or --area/--sub-area/--field"))
			case id == 0 && (key.Area == "" || key.SubArea == "" || key.Field == ""):
				return withCode(exitUsage, errors.New("--id or all of --area, --sub-area and --field are required"))
			case !cmd.Flags().Changed("prompt"):
				return withCode(exitUsage, errors.New("--prompt is required"))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := a.service()

			var (
				changed bool
				err     error
			)
			if id != 0 {
				changed, err = svc.UpdatePrompt(cmd.Context(), id, prompt)
			} else {
				changed, err = svc.UpdatePromptByKey(cmd.Context(), key, prompt)
			}
			if err != nil {
				if errors.Is(err, core.ErrPromptNotFound) {
					return withCode(exitInput, err)
				}
				return classified(err)
			}
			return a.printJSON(map[string]bool{"changed": changed})
		},
	}

	flags := cmd.Flags()
	flags.Int64Var(&id, "id", 0, "prompt id")
	flags.StringVar(&key.Area, "area", "", "area of the prompt")
	flags.StringVar(&key.SubArea, "sub-area", "", "sub area of the prompt")
	flags.StringVar(&key.Field, "field", "", "field of the prompt")
	flags.StringVar(&prompt, "prompt", "", "new prompt text")
	return cmd
}
