// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/tcgref/tcgref/lib/alert"
	"github.com/tcgref/tcgref/lib/ref"
	"github.com/tcgref/tcgref/lib/refdata"
	"github.com/tcgref/tcgref/lib/testutil"
	"github.com/tcgref/tcgref/messaging"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type routed struct {
	report *alert.Report
	origin *alert.Origin
}

type recordingRouter struct {
	reports chan routed
}

func (r *recordingRouter) Route(_ context.Context, report *alert.Report, origin *alert.Origin) {
	r.reports <- routed{report: report, origin: origin}
}

type harness struct {
	loop    *Loop
	store   *refdata.Store
	applied chan refdata.FieldSet
}

// startLoop runs a loop until the test ends.
func startLoop(t *testing.T, router Router) *harness {
	t.Helper()
	store := refdata.NewStore(nil, nil)
	applied := make(chan refdata.FieldSet, 64)
	loop := NewLoop(Config{
		Store:  store,
		Router: router,
		Logger: slog.New(slog.DiscardHandler),
		OnApply: func(_ *refdata.Context, update *refdata.Update) {
			applied <- update.Fields()
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		loop.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		testutil.RequireClosed(t, stopped, 5*time.Second, "dispatch loop did not stop")
	})
	return &harness{loop: loop, store: store, applied: applied}
}

func fieldHandler(field refdata.Field) Handler {
	return func(_ context.Context, _ *refdata.Context) Result {
		update := &refdata.Update{}
		switch field {
		case refdata.FieldBabel:
			update.Babel = &refdata.Babel{{ID: 1, Name: "Pot of Greed"}}
		case refdata.FieldYard:
			update.Yard = &refdata.Yard{Constants: []refdata.Constant{{Name: "TYPE_SPELL", Enum: "type", Value: 2}}}
		case refdata.FieldSystrings:
			update.Systrings = &refdata.Systrings{{Kind: "system", Value: 1, Name: "Draw"}}
		case refdata.FieldBanlists:
			update.Banlists = &refdata.Banlists{{Name: "TCG", Cards: map[int64]int64{1: 0}}}
		case refdata.FieldBetaIDs:
			update.BetaIDs = &refdata.BetaIDs{100: 1}
		case refdata.FieldKonamiIDs:
			update.KonamiIDs = &refdata.KonamiIDs{1: {OCG: 4007}}
		case refdata.FieldShortcuts:
			update.Shortcuts = &refdata.Shortcuts{"pog": "pot of greed"}
		case refdata.FieldPics:
			update.Pics = &refdata.Pics{Sources: map[string]string{"default": "https://pics.example"}}
		}
		return Success(update)
	}
}

func TestConcurrentDisjointUpdatesAllApplied(t *testing.T) {
	h := startLoop(t, &recordingRouter{reports: make(chan routed, 8)})
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, field := range refdata.AllFields {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-h.loop.Invoke(ctx, &alert.Origin{Kind: alert.KindEvent, Name: field.String()}, fieldHandler(field))
		}()
	}
	wg.Wait()

	var seen refdata.FieldSet
	for range refdata.AllFields {
		fields := testutil.RequireReceive(t, h.applied, 5*time.Second, "waiting for apply")
		if fields.Intersects(seen) {
			t.Errorf("field set %v applied twice", fields)
		}
		seen |= fields
	}
	if seen != refdata.Fields(refdata.AllFields...) {
		t.Fatalf("applied fields = %v, want all", seen)
	}

	snapshot := h.store.Snapshot()
	if snapshot.Revision != uint64(len(refdata.AllFields)) {
		t.Errorf("Revision = %d, want %d", snapshot.Revision, len(refdata.AllFields))
	}
	if len(snapshot.Babel) != 1 || snapshot.Shortcuts["pog"] != "pot of greed" || snapshot.KonamiIDs[1].OCG != 4007 {
		t.Errorf("snapshot missing updates: %+v", snapshot)
	}
	if name, _ := snapshot.BitNames.Name("type", 2); name != "Spell" {
		t.Errorf("BitNames not rebuilt: Name(type, 2) = %q", name)
	}
}

func TestResultsAppliedInArrivalOrder(t *testing.T) {
	h := startLoop(t, &recordingRouter{reports: make(chan routed, 1)})
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		babel := refdata.Babel{{ID: 1, Name: name}}
		if err := h.loop.Submit(ctx, nil, Success(&refdata.Update{Babel: &babel})); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	for range 3 {
		testutil.RequireReceive(t, h.applied, 5*time.Second, "waiting for apply")
	}
	if got := h.store.Snapshot().Babel[0].Name; got != "third" {
		t.Errorf("final card name = %q, want third", got)
	}
}

func TestSuccessWithoutUpdateIsNoop(t *testing.T) {
	router := &recordingRouter{reports: make(chan routed, 1)}
	h := startLoop(t, router)
	ctx := context.Background()

	<-h.loop.Invoke(ctx, nil, func(context.Context, *refdata.Context) Result { return Success(nil) })
	<-h.loop.Invoke(ctx, nil, func(context.Context, *refdata.Context) Result { return Success(&refdata.Update{}) })
	// A trailing update proves the earlier results were consumed.
	<-h.loop.Invoke(ctx, nil, fieldHandler(refdata.FieldPics))

	fields := testutil.RequireReceive(t, h.applied, 5*time.Second, "waiting for apply")
	if fields != refdata.Fields(refdata.FieldPics) {
		t.Errorf("first applied fields = %v, want {pics}", fields)
	}
	if revision := h.store.Snapshot().Revision; revision != 1 {
		t.Errorf("Revision = %d, want 1", revision)
	}
	testutil.RequireNoReceive(t, router.reports, 50*time.Millisecond, "no-op result was routed")
}

func TestFailureIsolation(t *testing.T) {
	messenger := &fakeMessenger{}
	operatorRoom := ref.MustParseRoomID("!ops:example.org")
	router := alert.NewRouter(alert.RouterConfig{
		Messenger:    messenger,
		OperatorRoom: operatorRoom,
		Logger:       slog.New(slog.DiscardHandler),
	})
	h := startLoop(t, router)
	ctx := context.Background()

	failing := func(context.Context, *refdata.Context) Result {
		return Failure(&alert.Report{Developer: "X"})
	}
	<-h.loop.Invoke(ctx, &alert.Origin{Kind: alert.KindEvent, Name: "a"}, failing)
	<-h.loop.Invoke(ctx, &alert.Origin{Kind: alert.KindEvent, Name: "b"}, fieldHandler(refdata.FieldBetaIDs))

	testutil.RequireReceive(t, h.applied, 5*time.Second, "B's update was not applied")
	if got := h.store.Snapshot().BetaIDs[100]; got != 1 {
		t.Errorf("BetaIDs[100] = %d, want 1", got)
	}

	// A's failure was taken off the intake before B's update.
	operator := messenger.messagesTo(operatorRoom)
	if len(operator) != 1 {
		t.Fatalf("operator room got %d alerts, want 1", len(operator))
	}
	if !strings.Contains(operator[0], "Encountered while processing event: a") {
		t.Errorf("operator alert = %q", operator[0])
	}
}

func TestWebhookFailureAnswersReasonRoom(t *testing.T) {
	messenger := &fakeMessenger{}
	operatorRoom := ref.MustParseRoomID("!ops:example.org")
	requestRoom := ref.MustParseRoomID("!requests:example.org")
	router := alert.NewRouter(alert.RouterConfig{
		Messenger:    messenger,
		OperatorRoom: operatorRoom,
		Logger:       slog.New(slog.DiscardHandler),
	})
	h := startLoop(t, router)

	failing := func(context.Context, *refdata.Context) Result {
		return Failure(&alert.Report{
			Developer: "cards/a.json: invalid JSON",
			User:      "The card fix you pushed could not be parsed.",
			Reason:    &alert.Origin{Kind: alert.KindCommand, Name: "reload", RoomID: requestRoom},
		})
	}
	<-h.loop.Invoke(context.Background(), &alert.Origin{Kind: alert.KindWebhook, Name: "cards"}, failing)
	// A later update is applied only after the failure was routed.
	<-h.loop.Invoke(context.Background(), nil, fieldHandler(refdata.FieldShortcuts))
	testutil.RequireReceive(t, h.applied, 5*time.Second, "waiting for apply")

	if got := messenger.messagesTo(requestRoom); len(got) != 1 || got[0] != "The card fix you pushed could not be parsed." {
		t.Errorf("request room messages = %q", got)
	}
	if got := messenger.messagesTo(operatorRoom); len(got) != 1 || !strings.Contains(got[0], "webhook: cards") {
		t.Errorf("operator room messages = %q", got)
	}
}

func TestPanicBecomesDeveloperFailure(t *testing.T) {
	router := &recordingRouter{reports: make(chan routed, 1)}
	h := startLoop(t, router)

	origin := &alert.Origin{Kind: alert.KindCommand, Name: "help"}
	h.loop.Invoke(context.Background(), origin, func(context.Context, *refdata.Context) Result {
		panic("index out of range")
	})

	got := testutil.RequireReceive(t, router.reports, 5*time.Second, "panic was not routed")
	if !strings.HasPrefix(got.report.Developer, "panic: index out of range") {
		t.Errorf("developer message = %q", got.report.Developer)
	}
	if got.report.User != "" {
		t.Errorf("user message = %q, want empty (router defaults it)", got.report.User)
	}
	if got.origin != origin || origin.ID == "" {
		t.Errorf("origin = %+v, want the invoking origin with an id", got.origin)
	}
}

func TestPlainErrorRoutedAsDeveloperOnly(t *testing.T) {
	router := &recordingRouter{reports: make(chan routed, 1)}
	h := startLoop(t, router)

	h.loop.Invoke(context.Background(), nil, func(context.Context, *refdata.Context) Result {
		return Failure(errors.New("github: 502"))
	})

	got := testutil.RequireReceive(t, router.reports, 5*time.Second, "failure was not routed")
	if got.report.Developer != "github: 502" || got.report.User != "" {
		t.Errorf("report = %+v", got.report)
	}
}

func TestHandlerSeesPublishedSnapshot(t *testing.T) {
	h := startLoop(t, &recordingRouter{reports: make(chan routed, 1)})
	ctx := context.Background()

	<-h.loop.Invoke(ctx, nil, fieldHandler(refdata.FieldShortcuts))
	testutil.RequireReceive(t, h.applied, 5*time.Second, "waiting for apply")

	seen := make(chan string, 1)
	<-h.loop.Invoke(ctx, nil, func(_ context.Context, snapshot *refdata.Context) Result {
		seen <- snapshot.Shortcuts["pog"]
		return Success(nil)
	})
	if got := testutil.RequireReceive(t, seen, time.Second); got != "pot of greed" {
		t.Errorf("handler saw shortcut %q, want pot of greed", got)
	}
}

func TestSubmitRespectsContext(t *testing.T) {
	loop := NewLoop(Config{
		Store:     refdata.NewStore(nil, nil),
		Router:    &recordingRouter{},
		Logger:    slog.New(slog.DiscardHandler),
		QueueSize: 1,
	})
	ctx, cancel := context.WithCancel(context.Background())
	if err := loop.Submit(ctx, nil, Success(nil)); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	cancel()
	if err := loop.Submit(ctx, nil, Success(nil)); !errors.Is(err, context.Canceled) {
		t.Errorf("Submit on full intake after cancel = %v, want context.Canceled", err)
	}
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent map[ref.RoomID][]string
}

func (m *fakeMessenger) SendMessage(_ context.Context, roomID ref.RoomID, content messaging.MessageContent) (ref.EventID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sent == nil {
		m.sent = make(map[ref.RoomID][]string)
	}
	m.sent[roomID] = append(m.sent[roomID], content.Body)
	return ref.MustParseEventID("$sent"), nil
}

func (m *fakeMessenger) messagesTo(roomID ref.RoomID) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent[roomID]...)
}
