package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"encore/internal/media"
	"encore/internal/playrun"
	"encore/internal/session"
)

func newPlayCommand(ctx *commandContext) *cobra.Command {
	var (
		season      int
		episode     int
		showID      string
		imdbID      string
		title       string
		resumeAt    time.Duration
		noResume    bool
		callbackURL string
		jsonResult  bool
		followNext  bool
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:   "play <url>",
		Short: "Play a content URL to completion",
		Long: "Play streams the given URL through the configured engine, recovering from " +
			"transient errors and persisting resume points. Episodic content advances " +
			"to the next episode when a channel for that is available.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			opts := playrun.Options{
				LogLevel:    logLevel,
				CallbackURL: callbackURL,
				WantResult:  jsonResult,
				FollowNext:  followNext,
				Request: session.Request{
					ContentURL: args[0],
					ResumeHint: resumeAt,
					NoResume:   noResume,
					Hints: media.Hints{
						ShowID:  showID,
						IMDBID:  imdbID,
						Season:  season,
						Episode: episode,
						Title:   title,
					},
				},
			}

			outcome, err := playrun.Run(cmd.Context(), cfg, opts)
			if err != nil {
				return err
			}

			if jsonResult {
				return printJSON(cmd, outcome)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session %s ended: %s\n", outcome.SessionID, outcome.Reason)
			if outcome.Result != nil {
				fmt.Fprintf(out, "Position %s of %s\n",
					time.Duration(outcome.Result.PositionMS)*time.Millisecond,
					time.Duration(outcome.Result.DurationMS)*time.Millisecond,
				)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&season, "season", 0, "Season number for episodic content")
	cmd.Flags().IntVar(&episode, "episode", 0, "Episode number for episodic content")
	cmd.Flags().StringVar(&showID, "show-id", "", "Catalog show identifier")
	cmd.Flags().StringVar(&imdbID, "imdb-id", "", "IMDB identifier")
	cmd.Flags().StringVar(&title, "title", "", "Title hint used for catalog lookups")
	cmd.Flags().DurationVar(&resumeAt, "resume-at", 0, "Start position, overriding the stored resume point")
	cmd.Flags().BoolVar(&noResume, "no-resume", false, "Start from the beginning")
	cmd.Flags().StringVar(&callbackURL, "callback-url", "", "Orchestrator callback endpoint for this run")
	cmd.Flags().BoolVar(&jsonResult, "json", false, "Print the terminal outcome as JSON")
	cmd.Flags().BoolVar(&followNext, "follow", false, "Keep playing resolved next episodes")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	return cmd
}
