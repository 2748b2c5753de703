package telegram

import (
	"testing"

	"github.com/sylni/helpbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noopHandler(tele.Context) error { return nil }

func TestRegisterCommandValidation(t *testing.T) {
	reg := NewRegistry()

	reg.RegisterCommand("/ok", commands.Command{Handler: noopHandler, Description: "ok"})
	reg.RegisterCommand("missing_slash", commands.Command{Handler: noopHandler, Description: "x"})
	reg.RegisterCommand("/nohandler", commands.Command{Description: "x"})
	reg.RegisterCommand("/nodesc", commands.Command{Handler: noopHandler})
	reg.RegisterCommand("/ok", commands.Command{Handler: noopHandler, Description: "duplicate"})

	if got := len(reg.Commands()); got != 1 {
		t.Fatalf("registered commands = %d, want 1", got)
	}
	if reg.Commands()["/ok"].Description != "ok" {
		t.Fatal("duplicate registration overwrote the original")
	}
}

func TestLookupCommandAliases(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/blocked_list", commands.Command{
		Handler:     noopHandler,
		Description: "list",
		Aliases:     []string{"blocked"},
	})

	key, _, ok := reg.LookupCommand("/blocked_list")
	if !ok || key != "/blocked_list" {
		t.Fatalf("direct lookup = %q, %v", key, ok)
	}
	key, _, ok = reg.LookupCommand("/blocked")
	if !ok || key != "/blocked_list" {
		t.Fatalf("alias lookup = %q, %v", key, ok)
	}
	key, _, ok = reg.LookupCommand("/Blocked_List")
	if !ok || key != "/blocked_list" {
		t.Fatalf("mixed-case lookup = %q, %v", key, ok)
	}
	if _, _, ok := reg.LookupCommand("/unknown"); ok {
		t.Fatal("unknown command resolved")
	}
}

func TestListCommandsHidesOperatorOnly(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noopHandler, Description: "start"})
	reg.RegisterCommand("/block", commands.Command{Handler: noopHandler, Description: "block", OperatorOnly: true})
	reg.RegisterCommand("/debug", commands.Command{Handler: noopHandler, Description: "debug", Hidden: true})

	visible := reg.ListCommands(true)
	if len(visible) != 1 || visible[0].Text != "/start" {
		t.Fatalf("visible commands = %+v", visible)
	}
	if got := len(reg.ListCommands(false)); got != 3 {
		t.Fatalf("all commands = %d, want 3", got)
	}
}
