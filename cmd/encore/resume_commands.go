package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"encore/internal/resume"
)

func newResumeCommand(ctx *commandContext) *cobra.Command {
	resumeCmd := &cobra.Command{
		Use:   "resume",
		Short: "Inspect and manage stored resume points",
	}

	resumeCmd.AddCommand(newResumeListCommand(ctx))
	resumeCmd.AddCommand(newResumeShowCommand(ctx))
	resumeCmd.AddCommand(newResumeClearCommand(ctx))

	return resumeCmd
}

func withStore(ctx *commandContext, fn func(*resume.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := resume.Open(cfg)
	if err != nil {
		return fmt.Errorf("open resume store: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func newResumeListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored resume points",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, func(store *resume.Store) error {
				records, err := store.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("list resume points: %w", err)
				}

				if asJSON {
					return printJSON(cmd, records)
				}

				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No resume points stored")
					return nil
				}
				fmt.Fprintln(out, resumeTable(records))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print resume points as JSON")
	return cmd
}

func newResumeShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <key>",
		Short: "Show the best resume match for a content key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, func(store *resume.Store) error {
				pos, ok, err := store.GetBest(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("look up resume point: %w", err)
				}
				out := cmd.OutOrStdout()
				if !ok || pos <= 0 {
					fmt.Fprintln(out, "No resume point; playback starts from the beginning")
					return nil
				}
				fmt.Fprintf(out, "Resume at %s\n", pos.Round(time.Second))
				return nil
			})
		},
	}
}

func newResumeClearCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear [key]",
		Short: "Clear resume points",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("provide a key or use --all")
			}
			return withStore(ctx, func(store *resume.Store) error {
				out := cmd.OutOrStdout()
				if all {
					removed, err := store.DeleteAll(cmd.Context())
					if err != nil {
						return fmt.Errorf("clear resume points: %w", err)
					}
					fmt.Fprintf(out, "Removed %d resume point(s)\n", removed)
					return nil
				}
				if err := store.Delete(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("clear resume point: %w", err)
				}
				fmt.Fprintf(out, "Removed resume point for %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Remove every stored resume point")
	return cmd
}
