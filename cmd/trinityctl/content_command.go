// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomtom215/trinity/internal/catalog"
	"github.com/tomtom215/trinity/internal/contentcache"
	"github.com/tomtom215/trinity/internal/models"
)

type contentBody struct {
	MediaType  string   `json:"media_type"`
	GenreIDs   []int    `json:"genre_ids,omitempty"`
	Genres     []string `json:"genres,omitempty"`
	ExcludeIDs []string `json:"exclude_ids,omitempty"`
	Count      int      `json:"count"`
}

func newContentCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Request candidate items",
	}

	var body contentBody
	var genres []string
	get := &cobra.Command{
		Use:   "get <group-id>",
		Short: "Fetch candidates for a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body.GenreIDs, body.Genres = splitGenres(genres)
			var items []models.CandidateItem
			if err := ctx.client().do(cmd.Context(), http.MethodPost, groupPath(args[0], "/content"), body, &items); err != nil {
				return err
			}
			if ctx.json {
				return writeJSON(cmd, items)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No items.")
				return nil
			}
			mt, _ := models.ParseMediaType(body.MediaType)
			fmt.Fprintln(cmd.OutOrStdout(), renderItems(mt, items))
			return nil
		},
	}
	get.Flags().StringVar(&body.MediaType, "media-type", "MOVIE", "MOVIE or TV")
	get.Flags().StringSliceVar(&genres, "genre", nil, "Genre name or id, repeatable (max 2)")
	get.Flags().StringSliceVar(&body.ExcludeIDs, "exclude", nil, "External id to exclude, repeatable")
	get.Flags().IntVar(&body.Count, "count", 10, "Number of items")
	cmd.AddCommand(get, newBatchStatusCommand(ctx), newBatchResetCommand(ctx))
	return cmd
}

// splitGenres separates numeric ids from names; the server resolves names
// for the media type.
func splitGenres(values []string) (ids []int, names []string) {
	for _, v := range values {
		if id, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			ids = append(ids, id)
			continue
		}
		names = append(names, v)
	}
	return ids, names
}

type batchFlags struct {
	mediaType string
	genres    []string
}

func (f *batchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.mediaType, "media-type", "MOVIE", "MOVIE or TV")
	cmd.Flags().StringSliceVar(&f.genres, "genre", nil, "Genre name or id, repeatable (max 2)")
}

func (f *batchFlags) path(groupID string) string {
	q := url.Values{}
	q.Set("media_type", f.mediaType)
	ids, names := splitGenres(f.genres)
	if len(ids) > 0 {
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = strconv.Itoa(id)
		}
		q.Set("genre_ids", strings.Join(parts, ","))
	}
	if len(names) > 0 {
		q.Set("genres", strings.Join(names, ","))
	}
	return "/api/v1/admin/groups/" + url.PathEscape(groupID) + "/content?" + q.Encode()
}

func newBatchStatusCommand(ctx *commandContext) *cobra.Command {
	var flags batchFlags
	cmd := &cobra.Command{
		Use:   "status <group-id>",
		Short: "Show the stored content batch for a group and filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var st contentcache.BatchStatus
			if err := ctx.client().do(cmd.Context(), http.MethodGet, flags.path(args[0]), nil, &st); err != nil {
				return err
			}
			if ctx.json {
				return writeJSON(cmd, st)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Group", "Signature", "Remaining", "Size", "Fetched", "Expires"},
				[][]string{{st.GroupID, st.Signature, strconv.Itoa(st.Remaining), strconv.Itoa(st.Size),
					st.FetchedAt.Local().Format("2006-01-02 15:04:05"), st.ExpiresAt.Local().Format("2006-01-02 15:04:05")}},
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newBatchResetCommand(ctx *commandContext) *cobra.Command {
	var flags batchFlags
	cmd := &cobra.Command{
		Use:   "reset <group-id>",
		Short: "Drop the stored content batch so the next request refills",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.client().do(cmd.Context(), http.MethodDelete, flags.path(args[0]), nil, nil); err != nil {
				return err
			}
			if !ctx.json {
				fmt.Fprintln(cmd.OutOrStdout(), "Content batch dropped.")
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func renderItems(mt models.MediaType, items []models.CandidateItem) string {
	rows := make([][]string, len(items))
	for i, it := range items {
		genres := make([]string, len(it.Genres))
		for j, g := range it.Genres {
			genres[j] = catalog.GenreName(mt, g)
		}
		title := it.Title
		if it.Synthetic {
			title += " *"
		}
		rows[i] = []string{strconv.Itoa(i + 1), it.ExternalID, title, strconv.Itoa(int(it.Tier)), strings.Join(genres, ",")}
	}
	return renderTable(
		[]string{"#", "ID", "Title", "Tier", "Genres"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	)
}
