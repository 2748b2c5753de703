package bot

import (
	"errors"
	"fmt"

	"github.com/sylni/helpbot/core/logger"
	tghelpers "github.com/sylni/helpbot/core/telegram/helpers"
	"github.com/sylni/helpbot/internal/conversation"
	"github.com/sylni/helpbot/internal/errs"
	"github.com/sylni/helpbot/internal/messages"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// eventFrom converts an inbound telebot message into an engine event.
func eventFrom(c tele.Context) conversation.Event {
	msg := c.Message()
	ev := conversation.Event{Raw: msg}
	if chat := c.Chat(); chat != nil {
		ev.ChatID = chat.ID
	}
	if msg != nil && msg.Text != "" {
		ev.Text = msg.Text
		ev.IsText = true
	}
	return ev
}

// isPrivate restricts the intake flow to one-on-one chats.
func isPrivate(c tele.Context) bool {
	chat := c.Chat()
	return chat != nil && chat.Type == tele.ChatPrivate
}

// handleText routes non-command text into the conversation engine.
func (a *App) handleText(c tele.Context) error {
	if !isPrivate(c) {
		return nil
	}
	if a.IsOperator(c.Sender().ID) {
		// Operator text that is not a reply has no recipient.
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	return a.engine.HandleText(ctx, eventFrom(c))
}

// handleMedia routes non-text messages into the conversation engine.
func (a *App) handleMedia(c tele.Context) error {
	if !isPrivate(c) {
		return nil
	}
	if a.IsOperator(c.Sender().ID) {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	return a.engine.HandleMedia(ctx, eventFrom(c))
}

// interceptOperatorReply delivers an operator's reply to the
// help-seeker referenced by the replied-to notification. It consumes
// the update for every operator reply, reporting delivery problems
// back to the operator instead of guessing a recipient.
func (a *App) interceptOperatorReply(c tele.Context) (bool, error) {
	msg := c.Message()
	if msg == nil || msg.ReplyTo == nil {
		return false, nil
	}
	if !a.IsOperator(c.Sender().ID) {
		return false, nil
	}

	replied := msg.ReplyTo.Text
	if replied == "" {
		replied = msg.ReplyTo.Caption
	}

	ctx := tghelpers.BuildContext(c)
	caseID, err := a.router.DeliverReply(ctx, replied, msg)
	if err == nil {
		return true, tghelpers.ReplyHTML(c, fmt.Sprintf(messages.ReplyDelivered, caseID))
	}

	var notFound *errs.NotFoundError
	var denied *errs.AccessDeniedError
	switch {
	case errors.As(err, &notFound):
		return true, tghelpers.ReplyHTML(c, messages.ReplyNoRecipient)
	case errors.As(err, &denied):
		return true, tghelpers.ReplyHTML(c, fmt.Sprintf(messages.ReplyBlockedRecipient, caseID))
	default:
		logger.Error(ctx, "bot", "reply.delivery_failed",
			slog.String("case_id", caseID),
			slog.String("err", err.Error()),
		)
		return true, tghelpers.ReplyHTML(c, fmt.Sprintf(messages.ReplyDeliveryFailed, caseID))
	}
}

// onLimited notifies a throttled sender once per rejected message.
func (a *App) onLimited(c tele.Context) error {
	seconds := int(a.limiter.Period().Seconds())
	return tghelpers.SendHTML(c, fmt.Sprintf(messages.ThrottledFmt, seconds))
}
