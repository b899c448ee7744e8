// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomtom215/trinity/internal/models"
)

func newGroupCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Create or inspect voting groups",
	}

	var members int
	create := &cobra.Command{
		Use:   "create <group-id>",
		Short: "Seed a group in VOTING",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"group_id": args[0], "member_count": members}
			var st models.GroupConsensusState
			if err := ctx.client().do(cmd.Context(), http.MethodPost, "/api/v1/admin/groups", body, &st); err != nil {
				return err
			}
			return printGroup(cmd, ctx, st)
		},
	}
	create.Flags().IntVar(&members, "members", 2, "Number of members that must agree")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "show <group-id>",
		Short: "Show a group's consensus state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var st models.GroupConsensusState
			if err := ctx.client().do(cmd.Context(), http.MethodGet, groupPath(args[0], ""), nil, &st); err != nil {
				return err
			}
			return printGroup(cmd, ctx, st)
		},
	})
	return cmd
}

func newVoteCommand(ctx *commandContext) *cobra.Command {
	var item, voter, choice string
	cmd := &cobra.Command{
		Use:   "vote <group-id>",
		Short: "Record one vote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{"item_id": item, "voter_id": voter, "choice": strings.ToUpper(choice)}
			var resp struct {
				EventID   string             `json:"event_id"`
				Published bool               `json:"published"`
				Tally     *models.TallyImage `json:"tally"`
				Outcome   *struct {
					Kind string `json:"outcome"`
				} `json:"outcome"`
			}
			if err := ctx.client().do(cmd.Context(), http.MethodPost, groupPath(args[0], "/votes"), body, &resp); err != nil {
				return err
			}
			if ctx.json {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Event:  %s\n", resp.EventID)
			if resp.Tally != nil {
				fmt.Fprintf(out, "Tally:  yes=%d no=%d skip=%d\n", resp.Tally.YesCount, resp.Tally.NoCount, resp.Tally.SkipCount)
			}
			switch {
			case resp.Published:
				fmt.Fprintln(out, "Result: published to the tally stream")
			case resp.Outcome != nil:
				fmt.Fprintf(out, "Result: %s\n", resp.Outcome.Kind)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&item, "item", "", "Item external id")
	cmd.Flags().StringVar(&voter, "voter", "", "Voter id")
	cmd.Flags().StringVar(&choice, "choice", "YES", "YES, NO or SKIP")
	_ = cmd.MarkFlagRequired("item")
	_ = cmd.MarkFlagRequired("voter")
	return cmd
}

func printGroup(cmd *cobra.Command, ctx *commandContext, st models.GroupConsensusState) error {
	if ctx.json {
		return writeJSON(cmd, st)
	}
	agreed := st.AgreedItemID
	if agreed == "" {
		agreed = "-"
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Group", "Members", "Status", "Agreed item", "Updated"},
		[][]string{{st.GroupID, strconv.Itoa(st.MemberCount), string(st.Status), agreed,
			st.UpdatedAt.Local().Format("2006-01-02 15:04:05")}},
		[]columnAlignment{alignLeft, alignRight},
	))
	return nil
}
