// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/trinity/internal/consensus"
	"github.com/tomtom215/trinity/internal/models"
)

// replayChunk matches the server's per-request batch limit.
const replayChunk = 500

func newEventsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Work with tally change events",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "replay <file>",
		Short: "Send recorded change events through consensus detection",
		Long: `Replay reads change events and posts them to /api/v1/events/tally.

The file may hold a JSON array of events, an object with a "records"
array, or one event per line. Use "-" for stdin. Replaying is safe: the
detector ignores events for groups that already reached consensus.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			events, err := parseEvents(data)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No events.")
				return nil
			}

			total := consensus.BatchResult{Counts: map[consensus.OutcomeKind]int{}}
			client := ctx.client()
			for start := 0; start < len(events); start += replayChunk {
				end := min(start+replayChunk, len(events))
				var res consensus.BatchResult
				body := map[string]any{"records": events[start:end]}
				if err := client.do(cmd.Context(), http.MethodPost, "/api/v1/events/tally", body, &res); err != nil {
					return fmt.Errorf("events %d-%d: %w", start, end-1, err)
				}
				total.Outcomes = append(total.Outcomes, res.Outcomes...)
				for k, v := range res.Counts {
					total.Counts[k] += v
				}
			}
			if ctx.json {
				return writeJSON(cmd, total)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderOutcomes(total))
			return nil
		},
	})
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		var buf bytes.Buffer
		_, err := buf.ReadFrom(cmd.InOrStdin())
		return buf.Bytes(), err
	}
	return os.ReadFile(path)
}

// parseEvents accepts an array, a {"records": [...]} object, or NDJSON.
func parseEvents(data []byte) ([]models.ChangeEvent, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	switch trimmed[0] {
	case '[':
		var events []models.ChangeEvent
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, fmt.Errorf("parse event array: %w", err)
		}
		return events, nil
	case '{':
		var batch struct {
			Records []models.ChangeEvent `json:"records"`
		}
		if err := json.Unmarshal(trimmed, &batch); err == nil && batch.Records != nil {
			return batch.Records, nil
		}
	}

	var events []models.ChangeEvent
	sc := bufio.NewScanner(bytes.NewReader(trimmed))
	sc.Buffer(make([]byte, 64*1024), 4<<20)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var ev models.ChangeEvent
		if err := json.Unmarshal(text, &ev); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, errors.New("no events found")
	}
	return events, nil
}

func renderOutcomes(res consensus.BatchResult) string {
	rows := make([][]string, len(res.Outcomes))
	for i, o := range res.Outcomes {
		rows[i] = []string{strconv.Itoa(i + 1), o.EventID, o.GroupID, o.ItemID, string(o.Kind), o.Error}
	}
	out := renderTable(
		[]string{"#", "Event", "Group", "Item", "Outcome", "Error"},
		rows,
		[]columnAlignment{alignRight},
	)

	kinds := make([]string, 0, len(res.Counts))
	for k := range res.Counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	summary := make([][]string, len(kinds))
	for i, k := range kinds {
		summary[i] = []string{k, strconv.Itoa(res.Counts[consensus.OutcomeKind(k)])}
	}
	return out + "\n" + renderTable([]string{"Outcome", "Count"}, summary, []columnAlignment{alignLeft, alignRight})
}
