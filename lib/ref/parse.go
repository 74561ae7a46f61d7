// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// grammar is the shape shared by Matrix identifiers: a sigil, an opaque
// local part and, for most kinds, a ":server" suffix.
type grammar struct {
	noun   string
	sigil  byte
	server bool
}

var (
	roomGrammar  = grammar{noun: "room ID", sigil: '!', server: true}
	userGrammar  = grammar{noun: "user ID", sigil: '@', server: true}
	eventGrammar = grammar{noun: "event ID", sigil: '$'}
)

// split checks raw against the grammar and returns its two halves.
// server is empty for grammars without a server part.
func (g grammar) split(raw string) (local, server string, err error) {
	switch {
	case raw == "":
		return "", "", fmt.Errorf("empty %s", g.noun)
	case raw[0] != g.sigil:
		return "", "", fmt.Errorf("%s must start with '%c': %q", g.noun, g.sigil, raw)
	}
	if !g.server {
		if len(raw) == 1 {
			return "", "", fmt.Errorf("%s has no content after '%c': %q", g.noun, g.sigil, raw)
		}
		return raw[1:], "", nil
	}
	local, server, found := strings.Cut(raw[1:], ":")
	switch {
	case !found:
		return "", "", fmt.Errorf("%s missing ':server' suffix: %q", g.noun, raw)
	case local == "":
		return "", "", fmt.Errorf("%s has empty local part: %q", g.noun, raw)
	case server == "":
		return "", "", fmt.Errorf("%s has empty server name: %q", g.noun, raw)
	}
	return local, server, nil
}

func mustParse[T any](function, raw string, parse func(string) (T, error)) T {
	value, err := parse(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.%s(%q): %v", function, raw, err))
	}
	return value
}

// unmarshalText decodes into target, treating empty input as the zero
// value.
func unmarshalText[T any](data []byte, target *T, parse func(string) (T, error)) error {
	if len(data) == 0 {
		var zero T
		*target = zero
		return nil
	}
	parsed, err := parse(string(data))
	if err != nil {
		return err
	}
	*target = parsed
	return nil
}
