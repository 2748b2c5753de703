// Package routing binds inbound and outbound messages to the correct
// case and operator: help-seeker messages broadcast to every operator
// with an embedded case reference, operator replies resolve that
// reference back to the help-seeker's chat.
package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sylni/helpbot/core/logger"
	"github.com/sylni/helpbot/internal/conversation"
	"github.com/sylni/helpbot/internal/errs"
	"github.com/sylni/helpbot/internal/storage"
	"log/slog"
)

// Transport is the outbound slice of the chat transport the router
// needs: direct sends, forwards, and copies addressed by chat identity.
type Transport interface {
	SendTo(ctx context.Context, chatID int64, text string, kb conversation.Keyboard) error
	ForwardTo(ctx context.Context, chatID int64, raw any) error
	CopyTo(ctx context.Context, chatID int64, raw any) error
}

// CaseLookup resolves a case reference back to its record.
type CaseLookup interface {
	ByCaseID(ctx context.Context, caseID string) (storage.Case, error)
}

// AccessCheck gates deliveries toward help-seekers.
type AccessCheck interface {
	IsBlocked(ctx context.Context, caseID string) (bool, error)
}

// Router performs all forwarding between help-seekers and operators.
type Router struct {
	transport Transport
	cases     CaseLookup
	access    AccessCheck
	operators []int64
}

// New builds a Router broadcasting to the given operator identities.
func New(transport Transport, cases CaseLookup, access AccessCheck, operators []int64) *Router {
	return &Router{
		transport: transport,
		cases:     cases,
		access:    access,
		operators: operators,
	}
}

// Send delivers a direct reply to a help-seeker.
func (r *Router) Send(ctx context.Context, chatID int64, text string, kb conversation.Keyboard) error {
	return r.transport.SendTo(ctx, chatID, text, kb)
}

// NotifyOperators broadcasts a notification to every operator. Each
// delivery is independent: a failure toward one operator is logged and
// does not block the rest. An error is returned only when no operator
// could be reached.
func (r *Router) NotifyOperators(ctx context.Context, caseID string, text string) error {
	body := text + "\n\n" + CaseRefLine(caseID)
	return r.broadcast(ctx, caseID, func(operatorID int64) error {
		return r.transport.SendTo(ctx, operatorID, body, conversation.KbNone)
	})
}

// ForwardToOperators forwards the original message to every operator,
// followed by a notification carrying the case reference and context
// note so replies can be routed back.
func (r *Router) ForwardToOperators(ctx context.Context, caseID string, ev conversation.Event, note string) error {
	notification := forwardNotification(caseID, note)
	return r.broadcast(ctx, caseID, func(operatorID int64) error {
		if err := r.transport.ForwardTo(ctx, operatorID, ev.Raw); err != nil {
			return err
		}
		return r.transport.SendTo(ctx, operatorID, notification, conversation.KbNone)
	})
}

// DeliverReply routes an operator's reply back to the help-seeker whose
// case is referenced in the replied-to message. It returns the resolved
// case id. An unresolvable reference or a blocked recipient yields an
// error and nothing is delivered; the router never guesses a recipient.
func (r *Router) DeliverReply(ctx context.Context, repliedText string, raw any) (string, error) {
	caseID, ok := ParseCaseRef(repliedText)
	if !ok {
		return "", &errs.NotFoundError{}
	}

	c, err := r.cases.ByCaseID(ctx, caseID)
	if err != nil {
		return caseID, err
	}

	blocked, err := r.access.IsBlocked(ctx, caseID)
	if err != nil {
		return caseID, fmt.Errorf("block check: %w", err)
	}
	if blocked {
		return caseID, &errs.AccessDeniedError{CaseID: caseID}
	}

	if err := r.transport.CopyTo(ctx, c.ChatID, raw); err != nil {
		return caseID, &errs.DeliveryError{Recipient: c.ChatID, Err: err}
	}
	return caseID, nil
}

// broadcast runs deliver for every operator, logging individual
// failures without aborting the rest.
func (r *Router) broadcast(ctx context.Context, caseID string, deliver func(operatorID int64) error) error {
	var failed []error
	for _, operatorID := range r.operators {
		if err := deliver(operatorID); err != nil {
			derr := &errs.DeliveryError{Recipient: operatorID, Err: err}
			logger.Warn(ctx, "routing", "broadcast.delivery_failed",
				slog.String("case_id", caseID),
				slog.Int64("operator_id", operatorID),
				slog.String("err", err.Error()),
			)
			failed = append(failed, derr)
		}
	}
	if len(failed) == len(r.operators) && len(failed) > 0 {
		return errors.Join(failed...)
	}
	return nil
}

// caseRefMarker is the plain-text marker preceding the case id in
// forwarded notifications. Telegram strips HTML tags from received
// text, so the parser matches on the plain form.
const caseRefMarker = "Справа: "

// CaseRefLine renders the case reference line embedded into every
// operator notification.
func CaseRefLine(caseID string) string {
	return "📋 <b>Справа:</b> <code>" + caseID + "</code>"
}

// ParseCaseRef recovers the case id from a previously forwarded
// notification's text.
func ParseCaseRef(text string) (string, bool) {
	idx := strings.Index(text, caseRefMarker)
	if idx < 0 {
		return "", false
	}
	rest := text[idx+len(caseRefMarker):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	caseID := strings.TrimSpace(rest)
	if caseID == "" {
		return "", false
	}
	return caseID, true
}

func forwardNotification(caseID, note string) string {
	b := strings.Builder{}
	b.WriteString("<b>Повідомлення від користувача</b>\n")
	b.WriteString(CaseRefLine(caseID))
	if note != "" {
		b.WriteString("\n📝 <b>Контекст:</b> <i>")
		b.WriteString(note)
		b.WriteString("</i>")
	}
	return b.String()
}
