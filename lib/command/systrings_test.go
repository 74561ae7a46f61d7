// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"strings"
	"testing"

	"github.com/tcgref/tcgref/lib/alert"
	"github.com/tcgref/tcgref/lib/refdata"
)

var sampleSystrings = refdata.Systrings{
	{Kind: "system", Value: 20, Name: "Draw Phase"},
	{Kind: "system", Value: 21, Name: "Standby Phase"},
	{Kind: "system", Value: 1000, Name: "Draw"},
	{Kind: "victory", Value: 1, Name: "Exodia"},
	{Kind: "setname", Value: 0x54, Name: "Gagaga"},
	{Kind: "counter", Value: 0x1, Name: "Spell Counter"},
}

func names(systrings []refdata.Systring) []string {
	result := make([]string, len(systrings))
	for index, systring := range systrings {
		result[index] = systring.Name
	}
	return result
}

func TestSearchSystrings(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		// Exact before partial, partial in table order.
		{"draw", []string{"Draw", "Draw Phase"}},
		{"PHASE", []string{"Draw Phase", "Standby Phase"}},
		// Numeric queries match values, hex included.
		{"0x54", []string{"Gagaga"}},
		{"1000", []string{"Draw"}},
		{"", nil},
	}
	for _, test := range tests {
		got := names(SearchSystrings(sampleSystrings, test.query))
		if strings.Join(got, "|") != strings.Join(test.want, "|") {
			t.Errorf("SearchSystrings(%q) = %q, want %q", test.query, got, test.want)
		}
	}
}

func TestSearchSystringsFuzzyRanksLast(t *testing.T) {
	got := names(SearchSystrings(sampleSystrings, "spcnt"))
	if len(got) == 0 || got[0] != "Spell Counter" {
		t.Errorf("fuzzy search = %q, want Spell Counter first", got)
	}
	if got := SearchSystrings(sampleSystrings, "zzqx"); len(got) != 0 {
		t.Errorf("nonsense query matched %q", names(got))
	}
}

func TestSystringsCommand(t *testing.T) {
	registry, messenger := newTestRegistry(t, BuiltinConfig{})
	snapshot := refdata.Merge(refdata.Empty(), &refdata.Update{Systrings: &sampleSystrings})

	run(t, registry, publicRoom, visitor, "!systrings exodia", snapshot)
	if body := messenger.last(t).content.Body; body != "- victory `1` (0x1): Exodia\n" {
		t.Errorf("reply = %q", body)
	}

	run(t, registry, publicRoom, visitor, "!systrings qqqq", snapshot)
	if body := messenger.last(t).content.Body; body != "No system strings match `qqqq`." {
		t.Errorf("no-match reply = %q", body)
	}

	result := run(t, registry, publicRoom, visitor, "!systrings", snapshot)
	report := alert.FromError(result.Err())
	if report == nil || report.User != "Usage: `!systrings <query>`" || report.Developer != "" {
		t.Errorf("missing query report = %+v", report)
	}
}
