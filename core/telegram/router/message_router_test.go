package router

import (
	"testing"

	tg "github.com/sylni/helpbot/core/telegram"
	"github.com/sylni/helpbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// fakeContext implements the slice of tele.Context the text route
// touches. Remaining methods come from the embedded nil interface and
// must stay unused.
type fakeContext struct {
	tele.Context
	text   string
	sender *tele.User
	store  map[string]any
}

func newFakeContext(text string, senderID int64) *fakeContext {
	return &fakeContext{
		text:   text,
		sender: &tele.User{ID: senderID},
		store:  make(map[string]any),
	}
}

func (c *fakeContext) Text() string       { return c.text }
func (c *fakeContext) Sender() *tele.User { return c.sender }
func (c *fakeContext) Chat() *tele.Chat {
	return &tele.Chat{ID: c.sender.ID, Type: tele.ChatPrivate}
}
func (c *fakeContext) Update() tele.Update { return tele.Update{ID: 1} }
func (c *fakeContext) Get(k string) any    { return c.store[k] }
func (c *fakeContext) Set(k string, v any) { c.store[k] = v }

func textRouteHandler(t *testing.T, reg *tg.Registry, opts TextOptions) tele.HandlerFunc {
	t.Helper()
	routes := TextRoutes(reg, opts)
	if len(routes) != 1 {
		t.Fatalf("text routes = %d, want 1", len(routes))
	}
	return routes[0].Handler
}

func TestTextRouteGatesOperatorOnlyCommands(t *testing.T) {
	reg := tg.NewRegistry()
	var commandRuns, primaryRuns int
	reg.RegisterCommand("/blocked_list", commands.Command{
		Handler:      func(tele.Context) error { commandRuns++; return nil },
		Description:  "list",
		OperatorOnly: true,
	})

	handler := textRouteHandler(t, reg, TextOptions{
		Operators: map[int64]struct{}{7: {}},
		Primary:   func(tele.Context) error { primaryRuns++; return nil },
	})

	if err := handler(newFakeContext("blocked_list", 4242)); err != nil {
		t.Fatalf("non-operator dispatch: %v", err)
	}
	if commandRuns != 0 {
		t.Fatal("operator-only command ran for a non-operator")
	}
	if primaryRuns != 1 {
		t.Fatal("the text did not fall through to the conversation handler")
	}

	if err := handler(newFakeContext("blocked_list", 7)); err != nil {
		t.Fatalf("operator dispatch: %v", err)
	}
	if commandRuns != 1 {
		t.Fatal("operator could not run the command as plain text")
	}
	if primaryRuns != 1 {
		t.Fatal("operator command leaked into the conversation handler")
	}
}

func TestTextRouteRunsPublicCommands(t *testing.T) {
	reg := tg.NewRegistry()
	var helpRuns int
	reg.RegisterCommand("/help", commands.Command{
		Handler:     func(tele.Context) error { helpRuns++; return nil },
		Description: "help",
	})

	handler := textRouteHandler(t, reg, TextOptions{
		Primary: func(tele.Context) error { return nil },
	})

	if err := handler(newFakeContext("help", 4242)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if helpRuns != 1 {
		t.Fatal("public command was not dispatched from plain text")
	}
}
