package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sylni/helpbot/internal/conversation"
	"github.com/sylni/helpbot/internal/errs"
	"github.com/sylni/helpbot/internal/storage"
)

type fakeTransport struct {
	sent      map[int64][]string
	forwarded map[int64]int
	copied    map[int64]int
	failSends map[int64]error
	failCopy  error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		sent:      make(map[int64][]string),
		forwarded: make(map[int64]int),
		copied:    make(map[int64]int),
		failSends: make(map[int64]error),
	}
}

func (t *fakeTransport) SendTo(_ context.Context, chatID int64, text string, _ conversation.Keyboard) error {
	if err := t.failSends[chatID]; err != nil {
		return err
	}
	t.sent[chatID] = append(t.sent[chatID], text)
	return nil
}

func (t *fakeTransport) ForwardTo(_ context.Context, chatID int64, _ any) error {
	if err := t.failSends[chatID]; err != nil {
		return err
	}
	t.forwarded[chatID]++
	return nil
}

func (t *fakeTransport) CopyTo(_ context.Context, chatID int64, _ any) error {
	if t.failCopy != nil {
		return t.failCopy
	}
	t.copied[chatID]++
	return nil
}

type fakeCases struct {
	byID map[string]storage.Case
}

func (f *fakeCases) ByCaseID(_ context.Context, caseID string) (storage.Case, error) {
	c, ok := f.byID[caseID]
	if !ok {
		return storage.Case{}, &errs.NotFoundError{CaseID: caseID}
	}
	return c, nil
}

type fakeAccess struct {
	blocked map[string]bool
}

func (f *fakeAccess) IsBlocked(_ context.Context, caseID string) (bool, error) {
	return f.blocked[caseID], nil
}

func TestParseCaseRef(t *testing.T) {
	// Telegram strips the HTML entities before the text reaches the
	// parser, so the replied-to message carries the plain form.
	plain := "Повідомлення від користувача\n📋 Справа: 01/01/2025 1\n📝 Контекст: щось"
	got, ok := ParseCaseRef(plain)
	if !ok || got != "01/01/2025 1" {
		t.Fatalf("ParseCaseRef = %q, %v", got, ok)
	}
	if got, ok := ParseCaseRef("Справа: 05/03/2025 12"); !ok || got != "05/03/2025 12" {
		t.Fatalf("ParseCaseRef last-line ref = %q, %v", got, ok)
	}
	if _, ok := ParseCaseRef("no reference here"); ok {
		t.Fatal("parsed a reference from unrelated text")
	}
	if _, ok := ParseCaseRef("Справа: \nnext"); ok {
		t.Fatal("parsed an empty reference")
	}
}

func TestNotifyOperatorsBroadcastIsIndependent(t *testing.T) {
	tr := newFakeTransport()
	tr.failSends[2] = fmt.Errorf("rejected")
	r := New(tr, &fakeCases{}, &fakeAccess{}, []int64{1, 2, 3})

	if err := r.NotifyOperators(context.Background(), "01/01/2025 1", "text"); err != nil {
		t.Fatalf("NotifyOperators: %v", err)
	}
	if len(tr.sent[1]) != 1 || len(tr.sent[3]) != 1 {
		t.Fatal("delivery to healthy operators was blocked by a single failure")
	}
	if len(tr.sent[2]) != 0 {
		t.Fatal("failed operator unexpectedly received the message")
	}
}

func TestNotifyOperatorsAllFailed(t *testing.T) {
	tr := newFakeTransport()
	tr.failSends[1] = fmt.Errorf("down")
	tr.failSends[2] = fmt.Errorf("down")
	r := New(tr, &fakeCases{}, &fakeAccess{}, []int64{1, 2})

	if err := r.NotifyOperators(context.Background(), "c", "text"); err == nil {
		t.Fatal("expected an error when no operator could be reached")
	}
}

func TestForwardToOperatorsIncludesReference(t *testing.T) {
	tr := newFakeTransport()
	r := New(tr, &fakeCases{}, &fakeAccess{}, []int64{7})

	ev := conversation.Event{ChatID: 100, Raw: struct{}{}}
	if err := r.ForwardToOperators(context.Background(), "02/02/2025 9", ev, "Контекст"); err != nil {
		t.Fatalf("ForwardToOperators: %v", err)
	}
	if tr.forwarded[7] != 1 {
		t.Fatal("original message was not forwarded")
	}
	note := tr.sent[7][0]
	if !strings.Contains(note, "02/02/2025 9") || !strings.Contains(note, "Контекст") {
		t.Fatalf("notification missing reference or note: %q", note)
	}
}

func TestDeliverReply(t *testing.T) {
	tr := newFakeTransport()
	cases := &fakeCases{byID: map[string]storage.Case{
		"01/01/2025 1": {CaseID: "01/01/2025 1", ChatID: 555},
	}}
	access := &fakeAccess{blocked: map[string]bool{}}
	r := New(tr, cases, access, []int64{1})

	caseID, err := r.DeliverReply(context.Background(), "📋 Справа: 01/01/2025 1", "raw")
	if err != nil {
		t.Fatalf("DeliverReply: %v", err)
	}
	if caseID != "01/01/2025 1" || tr.copied[555] != 1 {
		t.Fatalf("reply not delivered: case=%q copies=%d", caseID, tr.copied[555])
	}
}

func TestDeliverReplyUnresolvableReference(t *testing.T) {
	tr := newFakeTransport()
	r := New(tr, &fakeCases{byID: map[string]storage.Case{}}, &fakeAccess{}, []int64{1})

	_, err := r.DeliverReply(context.Background(), "just some text", "raw")
	var nf *errs.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if len(tr.copied) != 0 {
		t.Fatal("delivery attempted despite unresolvable reference")
	}
}

func TestDeliverReplyBlockedRecipient(t *testing.T) {
	tr := newFakeTransport()
	cases := &fakeCases{byID: map[string]storage.Case{
		"c1": {CaseID: "c1", ChatID: 9},
	}}
	access := &fakeAccess{blocked: map[string]bool{"c1": true}}
	r := New(tr, cases, access, []int64{1})

	_, err := r.DeliverReply(context.Background(), "Справа: c1", "raw")
	var denied *errs.AccessDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected AccessDeniedError, got %v", err)
	}
	if tr.copied[9] != 0 {
		t.Fatal("delivered to a blocked recipient")
	}
}
