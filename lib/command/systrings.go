// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"

	"github.com/tcgref/tcgref/lib/alert"
	"github.com/tcgref/tcgref/lib/refdata"
)

// MaxSystringResults caps the systrings reply.
const MaxSystringResults = 10

// Match ranks, best first.
const (
	rankValue = iota
	rankExact
	rankSubstring
	rankFuzzy
)

type systringMatch struct {
	systring refdata.Systring
	rank     int
	score    int
	index    int
}

// SearchSystrings returns the system strings matching query, best
// first. A numeric query matches values exactly. Names match
// case-insensitively, whole or partial; fuzzy matches rank last.
func SearchSystrings(systrings refdata.Systrings, query string) []refdata.Systring {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	value, valueErr := strconv.ParseInt(query, 0, 64)
	folded := strings.ToLower(query)
	pattern := []rune(folded)
	slab := util.MakeSlab(16*1024, 2048)

	var matches []systringMatch
	for index, systring := range systrings {
		match := systringMatch{systring: systring, index: index}
		name := strings.ToLower(systring.Name)
		switch {
		case valueErr == nil && systring.Value == value:
			match.rank = rankValue
		case name == folded:
			match.rank = rankExact
		case strings.Contains(name, folded):
			match.rank = rankSubstring
		default:
			chars := util.ToChars([]byte(systring.Name))
			result, _ := algo.FuzzyMatchV2(false, true, true, &chars, pattern, false, slab)
			if result.Start < 0 || result.Score <= 0 {
				continue
			}
			match.rank = rankFuzzy
			match.score = result.Score
		}
		matches = append(matches, match)
	}

	slices.SortStableFunc(matches, func(a, b systringMatch) int {
		if a.rank != b.rank {
			return cmp.Compare(a.rank, b.rank)
		}
		if a.score != b.score {
			return cmp.Compare(b.score, a.score)
		}
		return cmp.Compare(a.index, b.index)
	})
	results := make([]refdata.Systring, len(matches))
	for index, match := range matches {
		results[index] = match.systring
	}
	return results
}

func searchSystrings(ctx context.Context, request *Request) (*refdata.Update, error) {
	if request.Args == "" {
		return nil, alert.Userf("Usage: `%s%s`", request.Prefix, request.Command.Syntax)
	}
	results := SearchSystrings(request.Snapshot.Systrings, request.Args)
	if len(results) == 0 {
		return nil, request.Reply(ctx, fmt.Sprintf("No system strings match `%s`.", request.Args))
	}

	var builder strings.Builder
	for _, systring := range results[:min(len(results), MaxSystringResults)] {
		fmt.Fprintf(&builder, "- %s `%d` (0x%x): %s\n", systring.Kind, systring.Value, systring.Value, systring.Name)
	}
	if len(results) > MaxSystringResults {
		fmt.Fprintf(&builder, "\n%d more results not shown.", len(results)-MaxSystringResults)
	}
	return nil, request.Reply(ctx, builder.String())
}
