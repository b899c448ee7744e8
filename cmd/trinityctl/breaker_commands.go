// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tomtom215/trinity/internal/circuitbreaker"
)

func newBreakerCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "breaker",
		Short: "Inspect or reset the catalog circuit breaker",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show breaker state and counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var st circuitbreaker.Status
			if err := ctx.client().do(cmd.Context(), http.MethodGet, "/api/v1/admin/circuit-breaker", nil, &st); err != nil {
				return err
			}
			return printBreaker(cmd, ctx, st)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Force the breaker CLOSED",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var st circuitbreaker.Status
			if err := ctx.client().do(cmd.Context(), http.MethodPost, "/api/v1/admin/circuit-breaker/reset", nil, &st); err != nil {
				return err
			}
			if !ctx.json {
				fmt.Fprintln(cmd.OutOrStdout(), "Breaker reset.")
			}
			return printBreaker(cmd, ctx, st)
		},
	})
	return cmd
}

func printBreaker(cmd *cobra.Command, ctx *commandContext, st circuitbreaker.Status) error {
	if ctx.json {
		return writeJSON(cmd, st)
	}
	last := "-"
	if st.LastFailureAt != nil {
		last = st.LastFailureAt.Local().Format("2006-01-02 15:04:05")
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Name", "State", "Failures", "Successes", "Last failure"},
		[][]string{{st.Name, string(st.State), strconv.FormatUint(uint64(st.FailureCount), 10),
			strconv.FormatUint(uint64(st.SuccessCount), 10), last}},
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
	return nil
}
