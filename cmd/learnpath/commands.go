package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/terra-clan/learnpath/internal/config"
	"github.com/terra-clan/learnpath/internal/janitor"
	"github.com/terra-clan/learnpath/internal/models"
	"github.com/terra-clan/learnpath/internal/storage"
	"github.com/terra-clan/learnpath/pkg/client"
)

// selectionFlags name the hobby+level pair a command works on
type selectionFlags struct {
	hobby string
	level string
}

func (f *selectionFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.hobby, "hobby", "", "hobby id (e.g. chess)")
	cmd.Flags().StringVar(&f.level, "level", "", "level id (e.g. casual)")
	_ = cmd.MarkFlagRequired("hobby")
	_ = cmd.MarkFlagRequired("level")
}

// withPath opens a short-lived session on the selection, loads its learning
// path and closes the session once fn returns
func withPath(ctx context.Context, c *client.Client, sel *selectionFlags, fn func(id string, loaded *models.LoadPathResponse) error) error {
	session, err := c.CreateSession(ctx, models.CreateSessionRequest{HobbyID: sel.hobby, LevelID: sel.level})
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer func() {
		if err := c.DeleteSession(context.WithoutCancel(ctx), session.ID); err != nil {
			slog.Debug("failed to close session", "session_id", session.ID, "error", err)
		}
	}()

	loaded, err := c.LoadPath(ctx, session.ID)
	if err != nil {
		if client.IsCode(err, "generation_failed") {
			return errors.New("could not generate a learning path right now, please try again")
		}
		return fmt.Errorf("failed to load learning path: %w", err)
	}
	return fn(session.ID, loaded)
}

func levelsCmd(remote *remoteFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "levels <hobby>",
		Short: "List the levels available for a hobby",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			levels, err := remote.client().ListLevels(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, l := range levels {
				tag := ""
				if l.Custom {
					tag = " [custom]"
				}
				fmt.Fprintf(out, "- %s  %s (%s)%s\n  %s\n", l.ID, l.Name, l.TimeCommitment, tag, l.Description)
			}
			return nil
		},
	}

	cmd.AddCommand(levelsAddCmd(remote))
	return cmd
}

func levelsAddCmd(remote *remoteFlags) *cobra.Command {
	var in models.LevelInput

	cmd := &cobra.Command{
		Use:   "add <hobby>",
		Short: "Author a custom level for a hobby",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := remote.client().AddLevel(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added level %s (%s)\n", level.Name, level.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "level name")
	cmd.Flags().StringVar(&in.Description, "description", "", "short description (under 100 characters)")
	cmd.Flags().StringVar(&in.TimeCommitment, "time", "", "time commitment (e.g. 4 hrs/week)")
	cmd.Flags().StringVar(&in.Icon, "icon", "", "icon name")
	return cmd
}

func pathCmd(remote *remoteFlags) *cobra.Command {
	sel := &selectionFlags{}

	cmd := &cobra.Command{
		Use:   "path",
		Short: "Show the learning path of a hobby and level",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPath(cmd.Context(), remote.client(), sel, func(_ string, loaded *models.LoadPathResponse) error {
				printPath(cmd.OutOrStdout(), loaded.Path, loaded.Progress, loaded.Summary)
				return nil
			})
		},
	}

	sel.bind(cmd)
	return cmd
}

func progressCmd(remote *remoteFlags) *cobra.Command {
	sel := &selectionFlags{}
	var (
		completed bool
		skipped   bool
		progress  float64
	)

	cmd := &cobra.Command{
		Use:   "progress <technique-id>",
		Short: "Update progress on a technique",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch models.ProgressPatch
			if cmd.Flags().Changed("completed") {
				patch.Completed = &completed
			}
			if cmd.Flags().Changed("skipped") {
				patch.Skipped = &skipped
			}
			if cmd.Flags().Changed("progress") {
				patch.Progress = &progress
			}
			if patch.IsEmpty() {
				return errors.New("set at least one of --completed, --skipped or --progress")
			}

			c := remote.client()
			return withPath(cmd.Context(), c, sel, func(id string, _ *models.LoadPathResponse) error {
				session, err := c.UpdateProgress(cmd.Context(), id, args[0], patch)
				if err != nil {
					return err
				}
				printPath(cmd.OutOrStdout(), session.Path, session.Progress, session.Summary)
				return nil
			})
		},
	}

	sel.bind(cmd)
	cmd.Flags().BoolVar(&completed, "completed", false, "mark the technique completed")
	cmd.Flags().BoolVar(&skipped, "skipped", false, "mark the technique skipped")
	cmd.Flags().Float64Var(&progress, "progress", 0, "partial progress between 0 and 1")
	return cmd
}

func contentCmd(remote *remoteFlags) *cobra.Command {
	sel := &selectionFlags{}
	var raw bool

	cmd := &cobra.Command{
		Use:   "content <technique-id>",
		Short: "Show the study guide of a technique",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := remote.client()
			return withPath(cmd.Context(), c, sel, func(id string, _ *models.LoadPathResponse) error {
				content, err := c.GetContent(cmd.Context(), id, args[0])
				if err != nil {
					return err
				}
				out, err := renderMarkdown(content.Markdown, raw)
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), out)
				return err
			})
		},
	}

	sel.bind(cmd)
	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown without terminal rendering")
	return cmd
}

func purgeCmd(remote *remoteFlags) *cobra.Command {
	var viaServer bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete cached entries written under superseded key schemas",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				result *models.PurgeResult
				err    error
			)
			if viaServer {
				result, err = remote.client().Purge(cmd.Context())
			} else {
				result, err = purgeLocal(cmd.Context())
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d legacy entries (%s)\n", result.Deleted, strings.Join(result.Prefixes, ", "))
			return nil
		},
	}

	cmd.Flags().BoolVar(&viaServer, "remote", false, "ask the server to purge instead of opening the store directly")
	return cmd
}

// purgeLocal opens the configured store directly
func purgeLocal(ctx context.Context) (*models.PurgeResult, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	setupLogging(cfg)

	store, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return janitor.Purge(ctx, store)
}

var statusMarks = map[models.ProgressStatus]string{
	models.ProgressNotStarted: "[ ]",
	models.ProgressInProgress: "[~]",
	models.ProgressCompleted:  "[x]",
	models.ProgressSkipped:    "[-]",
}

func printPath(out io.Writer, path models.LearningPath, progress models.ProgressMap, summary models.ProgressSummary) {
	for _, t := range path {
		entry := progress[t.ID]
		fmt.Fprintf(out, "%s %s. %s  (difficulty %d, %s)\n", statusMarks[entry.Status()], t.ID, t.Name, t.Difficulty, t.TimeToMaster)
		if entry.Status() == models.ProgressInProgress {
			fmt.Fprintf(out, "      %.0f%% done\n", entry.Progress*100)
		}
		if len(t.Prerequisites) > 0 {
			fmt.Fprintf(out, "      requires: %s\n", strings.Join(t.Prerequisites, ", "))
		}
	}
	fmt.Fprintf(out, "\n%d/%d completed (%.0f%%), %d skipped\n", summary.Completed, summary.Total, summary.Ratio*100, summary.Skipped)
}
