package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cutroom/internal/access"
	"cutroom/internal/catalog"
	"cutroom/internal/config"
	"cutroom/internal/ipc"
	"cutroom/internal/pipeline"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var title, description string
	var move bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a video file into the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve source path: %w", err)
			}
			return ctx.withAccess(func(acc access.Access) error {
				video, err := acc.ImportVideo(cmd.Context(), pipeline.ImportRequest{
					SourcePath:  source,
					Title:       title,
					Description: description,
					Move:        move,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported video #%d %q (%s, %s)\n",
					video.ID, video.Title, formatSeconds(video.Duration), formatBytes(video.Filesize))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Title (defaults to the file name)")
	cmd.Flags().StringVar(&description, "description", "", "Optional description")
	cmd.Flags().BoolVar(&move, "move", false, "Move the file instead of copying it")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := ipc.ParseStatuses(statusFlags)
			if err != nil {
				return err
			}
			return ctx.withAccess(func(acc access.Access) error {
				videos, err := acc.ListVideos(cmd.Context(), statuses)
				if err != nil {
					return err
				}
				if jsonOutput {
					if videos == nil {
						videos = []*catalog.Video{}
					}
					return writeJSON(cmd, videos)
				}
				if len(videos) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No videos")
					return nil
				}
				table := renderTable(
					[]column{numericCol("ID"), col("Title"), col("Status"), numericCol("Duration"), numericCol("Size"), col("Updated")},
					buildVideoRows(videos),
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by status (uploaded, processing, ready)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func buildVideoRows(videos []*catalog.Video) [][]string {
	rows := make([][]string, 0, len(videos))
	for _, video := range videos {
		if video == nil {
			continue
		}
		rows = append(rows, []string{
			strconv.FormatInt(video.ID, 10),
			truncate(video.Title, 40),
			statusLabel(string(video.Status)),
			formatSeconds(video.Duration),
			formatBytes(video.Filesize),
			formatTime(video.UpdatedAt),
		})
	}
	return rows
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <video-id>",
		Short: "Show a video and its edits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseVideoID(args[0])
			if err != nil {
				return err
			}
			return ctx.withAccess(func(acc access.Access) error {
				detail, err := acc.GetVideo(cmd.Context(), id)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, detail)
				}
				out := cmd.OutOrStdout()
				video := detail.Video
				fmt.Fprintf(out, "Video #%d: %s\n", video.ID, video.Title)
				if video.Description != "" {
					fmt.Fprintf(out, "  Description: %s\n", video.Description)
				}
				fmt.Fprintf(out, "  Status:      %s\n", statusLabel(string(video.Status)))
				fmt.Fprintf(out, "  File:        %s\n", video.Filepath)
				fmt.Fprintf(out, "  Duration:    %s\n", formatSeconds(video.Duration))
				fmt.Fprintf(out, "  Size:        %s\n", formatBytes(video.Filesize))
				fmt.Fprintf(out, "  Created:     %s\n", formatTime(video.CreatedAt))
				fmt.Fprintf(out, "  Updated:     %s\n", formatTime(video.UpdatedAt))
				if len(detail.Edits) == 0 {
					fmt.Fprintln(out, "\nNo edits")
					return nil
				}
				fmt.Fprintln(out)
				table := renderTable(
					[]column{numericCol("ID"), col("Type"), col("Range"), col("Text"), col("Status"), col("Output / Error")},
					buildEditRows(detail.Edits),
				)
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func buildEditRows(edits []*catalog.Edit) [][]string {
	rows := make([][]string, 0, len(edits))
	for _, edit := range edits {
		if edit == nil {
			continue
		}
		rows = append(rows, []string{
			strconv.FormatInt(edit.ID, 10),
			string(edit.Type),
			formatRange(edit.Params),
			truncate(edit.Params.Text, 24),
			statusLabel(string(edit.Status)),
			truncate(editOutcome(edit), 60),
		})
	}
	return rows
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var allowOriginal bool

	cmd := &cobra.Command{
		Use:   "export <video-id> <destination>",
		Short: "Copy a rendered video out of the data directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseVideoID(args[0])
			if err != nil {
				return err
			}
			dest, err := config.ExpandPath(strings.TrimSpace(args[1]))
			if err != nil {
				return fmt.Errorf("resolve destination: %w", err)
			}
			return ctx.withAccess(func(acc access.Access) error {
				result, err := acc.Export(cmd.Context(), id, dest, allowOriginal)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported video #%d to %s (%s)\n", id, result.Destination, formatBytes(result.Bytes))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&allowOriginal, "original", false, "Export the original upload when the video has not been rendered")
	return cmd
}
