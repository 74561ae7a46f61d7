// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode"

	"github.com/tcgref/tcgref/lib/alert"
	"github.com/tcgref/tcgref/lib/dispatch"
	"github.com/tcgref/tcgref/lib/ref"
	"github.com/tcgref/tcgref/lib/refdata"
	"github.com/tcgref/tcgref/messaging"
)

// RestrictedMessage is the reply to a non-developer invoking a
// developer-only command.
const RestrictedMessage = "This command is only available to developers."

// Command is one chat command.
type Command struct {
	Name        string
	Syntax      string
	Description string
	Aliases     []string
	DevOnly     bool
	// Execute runs the command. A returned update is merged into the
	// reference context; an error is routed as a failure, with
	// *alert.Report errors keeping their user message.
	Execute func(ctx context.Context, request *Request) (*refdata.Update, error)
}

// Request is one command invocation.
type Request struct {
	// Origin is shared with the dispatch loop, which fills in its ID.
	Origin   *alert.Origin
	Command  *Command
	Args     string
	Prefix   string
	IsDev    bool
	Snapshot *refdata.Context

	registry *Registry
}

// Reply sends markdown as a reply to the invoking message.
func (r *Request) Reply(ctx context.Context, markdown string) error {
	content := messaging.NewMarkdownMessage(markdown).InReply(r.Origin.EventID)
	if _, err := r.registry.messenger.SendMessage(ctx, r.Origin.RoomID, content); err != nil {
		return fmt.Errorf("replying to %s in %s: %w", r.Origin.EventID, r.Origin.RoomID, err)
	}
	return nil
}

// Visible returns the commands the requester may run, in
// registration order.
func (r *Request) Visible() []*Command {
	return r.registry.visible(r.IsDev)
}

// DevPolicy decides who counts as a developer.
type DevPolicy struct {
	Admin ref.UserID
	Room  ref.RoomID
	// Users maps a display label to a developer's user ID.
	Users map[string]ref.UserID
}

// IsDev reports whether sender, speaking in room, is a developer.
func (p DevPolicy) IsDev(sender ref.UserID, room ref.RoomID) bool {
	if !p.Admin.IsZero() && sender == p.Admin {
		return true
	}
	if !p.Room.IsZero() && room == p.Room {
		return true
	}
	for _, user := range p.Users {
		if user == sender {
			return true
		}
	}
	return false
}

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	Prefix    string
	Dev       DevPolicy
	Messenger alert.Messenger
	Logger    *slog.Logger
}

// Registry holds the commands and parses invocations.
type Registry struct {
	prefix    string
	dev       DevPolicy
	messenger alert.Messenger
	logger    *slog.Logger

	ordered []*Command
	byName  map[string]*Command
}

// NewRegistry creates an empty Registry. Panics if Prefix is empty or
// Messenger is nil.
func NewRegistry(config RegistryConfig) *Registry {
	if config.Prefix == "" {
		panic("command.NewRegistry: Prefix is required")
	}
	if config.Messenger == nil {
		panic("command.NewRegistry: Messenger is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Registry{
		prefix:    config.Prefix,
		dev:       config.Dev,
		messenger: config.Messenger,
		logger:    config.Logger.With("component", "command"),
		byName:    make(map[string]*Command),
	}
}

// Prefix returns the command prefix.
func (r *Registry) Prefix() string { return r.prefix }

// Register adds command. Names and aliases are case-insensitive and
// must be unique across the registry.
func (r *Registry) Register(command Command) error {
	if command.Name == "" || command.Execute == nil {
		return fmt.Errorf("command %q: name and Execute are required", command.Name)
	}
	registered := &command
	keys := append([]string{command.Name}, command.Aliases...)
	for _, key := range keys {
		if _, exists := r.byName[strings.ToLower(key)]; exists {
			return fmt.Errorf("command %q: name %q is already registered", command.Name, key)
		}
	}
	for _, key := range keys {
		r.byName[strings.ToLower(key)] = registered
	}
	r.ordered = append(r.ordered, registered)
	return nil
}

// MustRegister is Register for static command tables.
func (r *Registry) MustRegister(commands ...Command) {
	for _, command := range commands {
		if err := r.Register(command); err != nil {
			panic(err)
		}
	}
}

// Lookup finds a command by name or alias.
func (r *Registry) Lookup(name string) (*Command, bool) {
	command, ok := r.byName[strings.ToLower(name)]
	return command, ok
}

// Commands returns every command in registration order.
func (r *Registry) Commands() []*Command {
	return slices.Clone(r.ordered)
}

func (r *Registry) visible(isDev bool) []*Command {
	var commands []*Command
	for _, command := range r.ordered {
		if !command.DevOnly || isDev {
			commands = append(commands, command)
		}
	}
	return commands
}

// Parse splits a message body into a command name and its arguments.
// ok is false when body does not start with the prefix or names
// nothing.
func (r *Registry) Parse(body string) (name, args string, ok bool) {
	rest, found := strings.CutPrefix(body, r.prefix)
	if !found || rest == "" || unicode.IsSpace(rune(rest[0])) {
		return "", "", false
	}
	end := strings.IndexFunc(rest, unicode.IsSpace)
	if end < 0 {
		return strings.ToLower(rest), "", true
	}
	return strings.ToLower(rest[:end]), strings.TrimSpace(rest[end:]), true
}

// Invocation is a parsed command message ready for the dispatch loop.
type Invocation struct {
	Origin  *alert.Origin
	Handler dispatch.Handler
}

// Match parses a message event in room. ok is false for messages that
// are not invocations of a registered command.
func (r *Registry) Match(roomID ref.RoomID, event messaging.Event) (Invocation, bool) {
	body, isText := event.TextBody()
	if !isText {
		return Invocation{}, false
	}
	name, args, ok := r.Parse(body)
	if !ok {
		return Invocation{}, false
	}
	command, found := r.Lookup(name)
	if !found {
		r.logger.Debug("unknown command", "name", name, "sender", event.Sender)
		return Invocation{}, false
	}

	origin := &alert.Origin{
		Kind:    alert.KindCommand,
		Name:    command.Name,
		RoomID:  roomID,
		EventID: event.EventID,
		Sender:  event.Sender,
	}
	isDev := r.dev.IsDev(event.Sender, roomID)
	handler := func(ctx context.Context, snapshot *refdata.Context) dispatch.Result {
		if command.DevOnly && !isDev {
			r.logger.Info("restricted command refused", "command", command.Name, "sender", event.Sender)
			return dispatch.Failure(&alert.Report{User: RestrictedMessage})
		}
		request := &Request{
			Origin:   origin,
			Command:  command,
			Args:     args,
			Prefix:   r.prefix,
			IsDev:    isDev,
			Snapshot: snapshot,
			registry: r,
		}
		update, err := command.Execute(ctx, request)
		if err != nil {
			return dispatch.Failure(err)
		}
		return dispatch.Success(update)
	}
	return Invocation{Origin: origin, Handler: handler}, true
}
