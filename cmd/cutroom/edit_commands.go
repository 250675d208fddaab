package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cutroom/internal/access"
	"cutroom/internal/catalog"
)

type rangeFlags struct {
	start float64
	end   float64
}

func (r *rangeFlags) bind(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&r.start, "start", 0, "Range start in seconds")
	cmd.Flags().Float64Var(&r.end, "end", 0, "Range end in seconds")
	_ = cmd.MarkFlagRequired("end")
}

func newTrimCommand(ctx *commandContext) *cobra.Command {
	var r rangeFlags

	cmd := &cobra.Command{
		Use:   "trim <video-id>",
		Short: "Cut a video down to a time range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return submitEdit(ctx, cmd, args[0], catalog.EditTrim, catalog.EditParams{StartTime: r.start, EndTime: r.end})
		},
	}
	r.bind(cmd)
	return cmd
}

func newSubtitleCommand(ctx *commandContext) *cobra.Command {
	var r rangeFlags
	var text string

	cmd := &cobra.Command{
		Use:   "subtitle <video-id>",
		Short: "Burn a subtitle into a video over a time range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return submitEdit(ctx, cmd, args[0], catalog.EditSubtitle, catalog.EditParams{StartTime: r.start, EndTime: r.end, Text: text})
		},
	}
	r.bind(cmd)
	cmd.Flags().StringVar(&text, "text", "", "Subtitle text")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func submitEdit(ctx *commandContext, cmd *cobra.Command, arg string, kind catalog.EditType, params catalog.EditParams) error {
	id, err := parseVideoID(arg)
	if err != nil {
		return err
	}
	return ctx.withAccess(func(acc access.Access) error {
		edit, err := acc.SubmitEdit(cmd.Context(), id, kind, params)
		out := cmd.OutOrStdout()
		if err != nil {
			if edit != nil {
				fmt.Fprintf(out, "Edit #%d (%s %s) failed\n", edit.ID, kind, formatRange(params))
			}
			return err
		}
		fmt.Fprintf(out, "Edit #%d (%s %s) completed: %s\n", edit.ID, kind, formatRange(edit.Params), edit.OutputPath)
		return nil
	})
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "render <video-id>",
		Short: "Apply every completed edit to the video in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseVideoID(args[0])
			if err != nil {
				return err
			}
			return ctx.withAccess(func(acc access.Access) error {
				video, err := acc.Render(cmd.Context(), id)
				if err != nil {
					return err
				}
				if video == nil {
					return errors.New("render returned no video")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rendered video #%d: %s (%s, %s)\n",
					video.ID, video.Filepath, formatSeconds(video.Duration), formatBytes(video.Filesize))
				return nil
			})
		},
	}
}
