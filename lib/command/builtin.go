// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/tcgref/tcgref/lib/alert"
	"github.com/tcgref/tcgref/lib/refdata"
)

// FallbackCardName is the help example when the card table is empty.
const FallbackCardName = "Silhouhatte Rabbit"

// Alert listing bounds for the alerts command.
const (
	DefaultAlertCount = 5
	MaxAlertCount     = 25
)

// Reloader reloads the whole dataset. *dataset.Loader satisfies it.
type Reloader interface {
	Reload(ctx context.Context) (*refdata.Update, error)
}

// BuiltinConfig supplies the collaborators of the built-in commands.
// A nil Reloader or Journal makes the corresponding command answer
// that the feature is unavailable.
type BuiltinConfig struct {
	Reloader Reloader
	Journal  alert.Journal
	// PicsSource names the entry of the dataset's image sources that
	// status reports as the default. Empty omits the line.
	PicsSource string
}

// Builtins returns the built-in commands.
func Builtins(config BuiltinConfig) []Command {
	return []Command{
		{
			Name:        "help",
			Syntax:      "help",
			Description: "Basic information about the bot.",
			Execute:     help,
		},
		{
			Name:        "commands",
			Syntax:      "commands",
			Description: "List the available commands.",
			Aliases:     []string{"cmds"},
			Execute:     list,
		},
		{
			Name:        "systrings",
			Syntax:      "systrings <query>",
			Description: "Search system strings by name or value. Name matches are case-insensitive and can be partial.",
			Aliases:     []string{"strings"},
			Execute:     searchSystrings,
		},
		{
			Name:        "status",
			Syntax:      "status",
			Description: "Show what the loaded dataset contains.",
			Execute:     status(config.PicsSource),
		},
		{
			Name:        "reload",
			Syntax:      "reload",
			Description: "Reload the whole dataset from its source.",
			DevOnly:     true,
			Execute:     reload(config.Reloader),
		},
		{
			Name:        "alerts",
			Syntax:      "alerts [count]",
			Description: fmt.Sprintf("Show the most recent alerts (default %d, at most %d).", DefaultAlertCount, MaxAlertCount),
			DevOnly:     true,
			Execute:     alerts(config.Journal),
		},
	}
}

func help(ctx context.Context, request *Request) (*refdata.Update, error) {
	message := fmt.Sprintf("View a list of commands by typing `%scommands`.\n\nSearch cards inside messages using curly braces, e.g. `{%s}`.",
		request.Prefix, sampleCardName(request.Snapshot.Babel))
	return nil, request.Reply(ctx, message)
}

func sampleCardName(babel refdata.Babel) string {
	if len(babel) == 0 {
		return FallbackCardName
	}
	if name := babel[rand.IntN(len(babel))].Name; name != "" {
		return name
	}
	return FallbackCardName
}

func list(ctx context.Context, request *Request) (*refdata.Update, error) {
	var builder strings.Builder
	builder.WriteString("Available commands:\n\n")
	for _, command := range request.Visible() {
		syntax := command.Syntax
		if syntax == "" {
			syntax = command.Name
		}
		fmt.Fprintf(&builder, "- `%s%s`: %s", request.Prefix, syntax, command.Description)
		if len(command.Aliases) > 0 {
			fmt.Fprintf(&builder, " (also `%s`)", strings.Join(command.Aliases, "`, `"))
		}
		builder.WriteByte('\n')
	}
	return nil, request.Reply(ctx, builder.String())
}

func status(picsSource string) func(context.Context, *Request) (*refdata.Update, error) {
	return func(ctx context.Context, request *Request) (*refdata.Update, error) {
		snapshot := request.Snapshot
		updated := "never"
		if !snapshot.UpdatedAt.IsZero() {
			updated = snapshot.UpdatedAt.UTC().Format(time.RFC3339)
		}
		message := fmt.Sprintf("Dataset revision %d, last updated %s.\n\n"+
			"- %d cards\n- %d banlists\n- %d system strings\n- %d constants (%d bit names)\n- %d shortcuts\n- %d beta ids, %d Konami ids",
			snapshot.Revision, updated,
			len(snapshot.Babel), len(snapshot.Banlists), len(snapshot.Systrings),
			len(snapshot.Yard.Constants), snapshot.BitNames.Len(), len(snapshot.Shortcuts),
			len(snapshot.BetaIDs), len(snapshot.KonamiIDs))
		if picsSource != "" {
			if url, ok := snapshot.Pics.Sources[picsSource]; ok {
				message += fmt.Sprintf("\n- images from %s (%s)", picsSource, url)
			} else {
				message += fmt.Sprintf("\n- images from %s (not defined in the dataset)", picsSource)
			}
		}
		return nil, request.Reply(ctx, message)
	}
}

func reload(reloader Reloader) func(context.Context, *Request) (*refdata.Update, error) {
	return func(ctx context.Context, request *Request) (*refdata.Update, error) {
		if reloader == nil {
			return nil, alert.Userf("Reloading is not available in this deployment.")
		}
		update, err := reloader.Reload(ctx)
		if err != nil {
			return nil, fmt.Errorf("reloading dataset: %w", err)
		}
		// A lost reply does not invalidate the reload.
		if err := request.Reply(ctx, fmt.Sprintf("Reloaded %s.", update.Fields())); err != nil {
			request.registry.logger.Warn("reload reply failed", "error", err)
		}
		return update, nil
	}
}

func alerts(journal alert.Journal) func(context.Context, *Request) (*refdata.Update, error) {
	return func(ctx context.Context, request *Request) (*refdata.Update, error) {
		if journal == nil {
			return nil, alert.Userf("The alert journal is disabled.")
		}
		count := DefaultAlertCount
		if request.Args != "" {
			parsed, err := strconv.Atoi(request.Args)
			if err != nil || parsed < 1 {
				return nil, alert.Userf("Usage: `%s%s`", request.Prefix, request.Command.Syntax)
			}
			count = min(parsed, MaxAlertCount)
		}

		entries, err := journal.Recent(ctx, count)
		if err != nil {
			return nil, fmt.Errorf("reading alert journal: %w", err)
		}
		if len(entries) == 0 {
			return nil, request.Reply(ctx, "No alerts recorded.")
		}

		var builder strings.Builder
		for _, entry := range entries {
			summary, _, _ := strings.Cut(entry.Developer, "\n")
			if summary == "" {
				summary = entry.User
			}
			fmt.Fprintf(&builder, "- `%s` %s: %s: %s\n",
				entry.Time.UTC().Format(time.RFC3339), entry.Kind, entry.Name, summary)
		}
		return nil, request.Reply(ctx, builder.String())
	}
}
