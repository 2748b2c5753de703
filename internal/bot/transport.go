// Package bot wires the conversation engine, the message router, and
// the storage layer onto the Telegram transport.
package bot

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/sylni/helpbot/core/telegram/keyboard"
	"github.com/sylni/helpbot/internal/conversation"
	"github.com/sylni/helpbot/internal/messages"

	tele "gopkg.in/telebot.v4"
)

// Transport adapts a telebot instance to the routing transport
// interface. The bot handle is bound once the runtime has started;
// sends before binding fail rather than panic.
type Transport struct {
	bot atomic.Pointer[tele.Bot]
}

// Bind attaches the live bot instance.
func (t *Transport) Bind(b *tele.Bot) {
	t.bot.Store(b)
}

func (t *Transport) resolve() (*tele.Bot, error) {
	b := t.bot.Load()
	if b == nil {
		return nil, fmt.Errorf("transport: bot not bound")
	}
	return b, nil
}

// SendTo delivers an HTML message to the chat with the mapped keyboard.
func (t *Transport) SendTo(_ context.Context, chatID int64, text string, kb conversation.Keyboard) error {
	b, err := t.resolve()
	if err != nil {
		return err
	}
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML}
	if rm := Markup(kb); rm != nil {
		opts.ReplyMarkup = rm
	}
	_, err = b.Send(tele.ChatID(chatID), text, opts)
	return err
}

// ForwardTo forwards the original message, keeping the sender header.
func (t *Transport) ForwardTo(_ context.Context, chatID int64, raw any) error {
	b, err := t.resolve()
	if err != nil {
		return err
	}
	msg, ok := raw.(*tele.Message)
	if !ok {
		return fmt.Errorf("transport: cannot forward %T", raw)
	}
	_, err = b.Forward(tele.ChatID(chatID), msg)
	return err
}

// CopyTo re-sends the message content without the sender header, so
// operator replies reach the help-seeker without exposing the operator.
func (t *Transport) CopyTo(_ context.Context, chatID int64, raw any) error {
	b, err := t.resolve()
	if err != nil {
		return err
	}
	msg, ok := raw.(*tele.Message)
	if !ok {
		return fmt.Errorf("transport: cannot copy %T", raw)
	}
	_, err = b.Copy(tele.ChatID(chatID), msg)
	return err
}

// Markup maps an engine keyboard selector to concrete reply markup.
func Markup(kb conversation.Keyboard) *tele.ReplyMarkup {
	switch kb {
	case conversation.KbRemove:
		return keyboard.RemoveKeyboard()
	case conversation.KbMenu:
		return keyboard.ReplyButtons(messages.MenuRows...)
	case conversation.KbYesNo:
		return keyboard.ReplyButtons([]string{messages.BtnYes, messages.BtnNo})
	}
	return nil
}
