// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/tomtom215/trinity/internal/models"
)

type genre struct {
	id      int
	english string
	aliases []string // lowercased, accents stripped
}

// TMDB genre lists for /discover/movie and /discover/tv. The TV list merges
// several movie genres into one id (Action and Adventure become 10759).
var (
	movieGenres = []genre{
		{28, "action", []string{"accion"}},
		{12, "adventure", []string{"aventura"}},
		{16, "animation", []string{"animacion"}},
		{35, "comedy", []string{"comedia"}},
		{80, "crime", []string{"crimen"}},
		{99, "documentary", []string{"documental"}},
		{18, "drama", nil},
		{10751, "family", []string{"familia"}},
		{14, "fantasy", []string{"fantasia"}},
		{36, "history", []string{"historia"}},
		{27, "horror", []string{"terror"}},
		{10402, "music", []string{"musica"}},
		{9648, "mystery", []string{"misterio"}},
		{10749, "romance", []string{"romantica"}},
		{878, "science fiction", []string{"sci-fi", "ciencia ficcion"}},
		{53, "thriller", []string{"suspense"}},
		{10752, "war", []string{"guerra"}},
		{37, "western", nil},
	}
	tvGenres = []genre{
		{10759, "action & adventure", []string{"action", "accion", "adventure", "aventura", "accion y aventura"}},
		{16, "animation", []string{"animacion"}},
		{35, "comedy", []string{"comedia"}},
		{80, "crime", []string{"crimen"}},
		{99, "documentary", []string{"documental"}},
		{18, "drama", nil},
		{10751, "family", []string{"familia"}},
		{10762, "kids", []string{"infantil"}},
		{9648, "mystery", []string{"misterio"}},
		{10763, "news", []string{"noticias"}},
		{10764, "reality", nil},
		{10765, "sci-fi & fantasy", []string{"sci-fi", "science fiction", "ciencia ficcion", "fantasy", "fantasia"}},
		{10766, "soap", []string{"telenovela"}},
		{10767, "talk", []string{"entrevistas"}},
		{10768, "war & politics", []string{"war", "guerra", "politics", "politica"}},
		{37, "western", nil},
	}
)

// movieToTV maps movie genre ids that TMDB files under a different TV id.
var movieToTV = map[int]int{
	28:    10759,
	12:    10759,
	878:   10765,
	14:    10765,
	10752: 10768,
}

type genreTable struct {
	ids   map[string]int
	names map[int]string
}

func newGenreTable(genres []genre) genreTable {
	t := genreTable{ids: map[string]int{}, names: map[int]string{}}
	for _, g := range genres {
		t.ids[g.english] = g.id
		t.names[g.id] = g.english
		for _, a := range g.aliases {
			t.ids[a] = g.id
		}
	}
	return t
}

var (
	movieTable = newGenreTable(movieGenres)
	tvTable    = newGenreTable(tvGenres)
)

func tableFor(mt models.MediaType) genreTable {
	if mt == models.MediaTV {
		return tvTable
	}
	return movieTable
}

// normalizeGenreName lowercases and strips accents ("Acción" -> "accion").
func normalizeGenreName(name string) string {
	decomposed := norm.NFD.String(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range decomposed {
		if r >= 0x300 && r <= 0x36f { // combining diacritical marks
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// LookupGenre resolves a genre name or numeric id for the media type.
// Numeric ids pass through unchecked.
func LookupGenre(mt models.MediaType, name string) (int, bool) {
	if id, err := strconv.Atoi(strings.TrimSpace(name)); err == nil && id > 0 {
		return id, true
	}
	id, ok := tableFor(mt).ids[normalizeGenreName(name)]
	return id, ok
}

// ParseGenres resolves every entry or reports the first unknown one.
func ParseGenres(mt models.MediaType, names []string) ([]int, error) {
	ids := make([]int, 0, len(names))
	for _, n := range names {
		id, ok := LookupGenre(mt, n)
		if !ok {
			return nil, fmt.Errorf("unknown %s genre %q", strings.ToLower(string(mt)), n)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// GenreName returns the English display name for a TMDB genre id.
func GenreName(mt models.MediaType, id int) string {
	if name, ok := tableFor(mt).names[id]; ok {
		return cases.Title(language.English).String(name)
	}
	return strconv.Itoa(id)
}

// TVGenreIDs rewrites movie genre ids to their TV equivalents, dropping
// duplicates the merge creates. Other ids are kept as given.
func TVGenreIDs(ids []int) []int {
	out := make([]int, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if tv, ok := movieToTV[id]; ok {
			id = tv
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
