package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cutroom/internal/access"
	"cutroom/internal/daemon"
	"cutroom/internal/deps"
	"cutroom/internal/ipc"
	"cutroom/internal/pipeline"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, dependency, directory, and catalog status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			socket := ctx.socketPath()
			var acc access.Access
			var daemonDetail string
			if client, dialErr := ipc.Dial(socket); dialErr == nil {
				defer client.Close()
				acc = access.NewIPCAccess(client)
			} else {
				daemonDetail = wrapDialError(dialErr, socket).Error()
				logger := ctx.logger()
				p, err := pipeline.Open(cfg, logger)
				if err != nil {
					return err
				}
				defer p.Close()
				acc = access.NewPipelineAccess(cfg, p, logger)
			}

			status, err := acc.Status(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			writeStatus(out, status, socket, daemonDetail)
			if ctx.configPath != "" {
				line := ctx.configPath
				if !ctx.configSeen {
					line += " (not found; defaults in use)"
				}
				fmt.Fprintf(out, "\nConfig: %s\n", line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func writeStatus(out io.Writer, status daemon.Status, socket, daemonDetail string) {
	r := newReport(out)
	r.section("Daemon")
	if status.Running {
		r.line("Daemon", levelOK, fmt.Sprintf("Running (pid %d)", status.PID))
		r.line("Started", levelInfo, formatTime(status.StartedAt))
	} else {
		detail := "Not running"
		if daemonDetail != "" {
			detail = daemonDetail
		}
		r.line("Daemon", levelInfo, detail)
	}
	r.line("Socket", levelInfo, socket)
	r.line("Catalog", levelInfo, status.DBPath)

	r.section("Dependencies")
	for _, dep := range status.Dependencies {
		label, lvl, detail := dependencyLine(dep)
		r.line(label, lvl, detail)
	}

	r.section("Directories")
	for _, result := range status.Preflight {
		lvl := levelOK
		if !result.Passed {
			lvl = levelError
		}
		r.line(result.Name, lvl, result.Detail)
	}

	r.section("Catalog")
	rows := buildCountRows(status.Stats.Videos, status.Stats.Edits)
	if len(rows) == 0 {
		r.text("  Catalog is empty")
		return
	}
	r.text(renderTable([]column{col("Record"), col("Status"), numericCol("Count")}, rows))
}

func dependencyLine(dep deps.Status) (string, level, string) {
	if dep.Available {
		detail := dep.Command
		if dep.Detail != "" {
			detail = dep.Detail
		}
		return dep.Name, levelOK, detail
	}
	lvl := levelError
	if dep.Optional {
		lvl = levelWarn
	}
	detail := strings.TrimSpace(dep.Detail)
	if detail == "" {
		detail = "Not available"
	}
	return dep.Name, lvl, detail
}

func buildCountRows[V, E ~string](videos map[V]int, edits map[E]int) [][]string {
	var rows [][]string
	rows = appendCountRows(rows, "Video", videos)
	rows = appendCountRows(rows, "Edit", edits)
	return rows
}

func appendCountRows[K ~string](rows [][]string, record string, counts map[K]int) [][]string {
	keys := make([]string, 0, len(counts))
	for key, n := range counts {
		if n > 0 {
			keys = append(keys, string(key))
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		rows = append(rows, []string{record, statusLabel(key), strconv.Itoa(counts[K(key)])})
	}
	return rows
}
