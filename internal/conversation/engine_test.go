package conversation

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sylni/helpbot/internal/messages"
	"github.com/sylni/helpbot/internal/storage"
)

type fakeCases struct {
	byChat map[int64]string
	fields map[string]any
	fail   error
}

func newFakeCases() *fakeCases {
	return &fakeCases{byChat: make(map[int64]string), fields: make(map[string]any)}
}

func (f *fakeCases) ResolveOrCreate(_ context.Context, chatID int64) (storage.Case, bool, error) {
	if f.fail != nil {
		return storage.Case{}, false, f.fail
	}
	if id, ok := f.byChat[chatID]; ok {
		return storage.Case{CaseID: id, ChatID: chatID}, false, nil
	}
	id := fmt.Sprintf("01/01/2025 %d", len(f.byChat)+1)
	f.byChat[chatID] = id
	return storage.Case{CaseID: id, ChatID: chatID}, true, nil
}

func (f *fakeCases) SetField(_ context.Context, caseID, column string, value any) error {
	f.fields[caseID+"/"+column] = value
	return nil
}

type fakeAccess struct {
	blocked map[string]bool
}

func (f *fakeAccess) IsBlocked(_ context.Context, caseID string) (bool, error) {
	return f.blocked[caseID], nil
}

type sent struct {
	chatID int64
	text   string
	kb     Keyboard
}

type fakeOut struct {
	sent     []sent
	notified []string
	forwards []string
}

func (f *fakeOut) Send(_ context.Context, chatID int64, text string, kb Keyboard) error {
	f.sent = append(f.sent, sent{chatID, text, kb})
	return nil
}

func (f *fakeOut) ForwardToOperators(_ context.Context, caseID string, _ Event, note string) error {
	f.forwards = append(f.forwards, caseID+"/"+note)
	return nil
}

func (f *fakeOut) NotifyOperators(_ context.Context, _ string, text string) error {
	f.notified = append(f.notified, text)
	return nil
}

func (f *fakeOut) last(t *testing.T) sent {
	t.Helper()
	if len(f.sent) == 0 {
		t.Fatal("nothing was sent")
	}
	return f.sent[len(f.sent)-1]
}

func at(hour int) func() time.Time {
	return func() time.Time {
		return time.Date(2025, 1, 1, hour, 0, 0, 0, time.UTC)
	}
}

func newTestEngine(t *testing.T, hour int) (*Engine, *fakeCases, *fakeAccess, *fakeOut) {
	t.Helper()
	cases := newFakeCases()
	access := &fakeAccess{blocked: make(map[string]bool)}
	out := &fakeOut{}
	eng := NewEngine(Options{
		Cases:       cases,
		Access:      access,
		Out:         out,
		FormTimeout: time.Hour,
		Clock:       at(hour),
	})
	return eng, cases, access, out
}

func textEv(chatID int64, text string) Event {
	return Event{ChatID: chatID, Text: text, IsText: true}
}

func mediaEv(chatID int64) Event {
	return Event{ChatID: chatID, Raw: struct{}{}}
}

func mustMode(t *testing.T, eng *Engine, chatID int64, want Mode) {
	t.Helper()
	mode, _ := eng.Manager().Snapshot(chatID)
	if mode != want {
		t.Fatalf("mode = %q, want %q", mode, want)
	}
}

func mustStep(t *testing.T, eng *Engine, chatID int64, want Step) {
	t.Helper()
	_, step := eng.Manager().Snapshot(chatID)
	if step != want {
		t.Fatalf("step = %v, want %v", step, want)
	}
}

func TestStartDuringHoursShowsMenu(t *testing.T) {
	eng, _, _, out := newTestEngine(t, 12)

	if err := eng.HandleStart(context.Background(), textEv(1, "/start")); err != nil {
		t.Fatalf("HandleStart: %v", err)
	}
	mustMode(t, eng, 1, ModeAutomated)
	if len(out.sent) != 2 || out.sent[0].text != messages.MainOnline || out.sent[1].text != messages.Menu {
		t.Fatalf("unexpected greeting sequence: %+v", out.sent)
	}
	if out.sent[1].kb != KbMenu {
		t.Fatalf("menu keyboard not attached: %v", out.sent[1].kb)
	}
	if len(out.notified) != 1 {
		t.Fatalf("new chat notification count = %d", len(out.notified))
	}
}

func TestStartOutOfHoursAsksUrgent(t *testing.T) {
	eng, _, _, out := newTestEngine(t, 23)

	if err := eng.HandleStart(context.Background(), textEv(1, "/start")); err != nil {
		t.Fatalf("HandleStart: %v", err)
	}
	mustMode(t, eng, 1, ModeUrgentDecision)
	if got := out.last(t); got.text != messages.MainOffline || got.kb != KbYesNo {
		t.Fatalf("unexpected offline greeting: %+v", got)
	}
}

func TestStartRepeatedDoesNotRenotify(t *testing.T) {
	eng, _, _, out := newTestEngine(t, 12)

	ctx := context.Background()
	if err := eng.HandleStart(ctx, textEv(1, "/start")); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleStart(ctx, textEv(1, "/start")); err != nil {
		t.Fatal(err)
	}
	if len(out.notified) != 1 {
		t.Fatalf("operators notified %d times for one identity", len(out.notified))
	}
}

func TestBlockedIdentityOnlyGetsRefusal(t *testing.T) {
	eng, cases, access, out := newTestEngine(t, 12)

	ctx := context.Background()
	if err := eng.HandleStart(ctx, textEv(1, "/start")); err != nil {
		t.Fatal(err)
	}
	access.blocked[cases.byChat[1]] = true
	out.sent = nil

	if err := eng.HandleText(ctx, textEv(1, "1️⃣ Отримати допомогу")); err != nil {
		t.Fatal(err)
	}
	if got := out.last(t); got.text != messages.Blocked {
		t.Fatalf("blocked identity got %q", got.text)
	}
	mustMode(t, eng, 1, ModeAutomated)
}

func TestMenuChoiceStartsForm(t *testing.T) {
	eng, _, _, out := newTestEngine(t, 12)

	ctx := context.Background()
	if err := eng.HandleStart(ctx, textEv(1, "/start")); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleText(ctx, textEv(1, "1️⃣ Отримати допомогу")); err != nil {
		t.Fatal(err)
	}
	mustMode(t, eng, 1, ModeForm)
	mustStep(t, eng, 1, StepName)
	if got := out.last(t); got.text != messages.AskName {
		t.Fatalf("first question = %q", got.text)
	}
}

func TestMenuUnknownChoiceRepeatsMenu(t *testing.T) {
	eng, _, _, out := newTestEngine(t, 12)

	ctx := context.Background()
	if err := eng.HandleStart(ctx, textEv(1, "/start")); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleText(ctx, textEv(1, "щось незрозуміле")); err != nil {
		t.Fatal(err)
	}
	mustMode(t, eng, 1, ModeAutomated)
	if got := out.last(t); got.text != messages.Menu {
		t.Fatalf("expected menu re-prompt, got %q", got.text)
	}
}

func TestMediaChoiceTakesSingleMessage(t *testing.T) {
	eng, _, _, out := newTestEngine(t, 12)

	ctx := context.Background()
	if err := eng.HandleStart(ctx, textEv(1, "/start")); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleText(ctx, textEv(1, "5️⃣ Представник організації/медіа")); err != nil {
		t.Fatal(err)
	}
	mustMode(t, eng, 1, ModeMediaIntake)

	if err := eng.HandleText(ctx, textEv(1, "Ми хочемо допомогти")); err != nil {
		t.Fatal(err)
	}
	mustMode(t, eng, 1, ModeManual)
	if len(out.forwards) != 1 || !strings.Contains(out.forwards[0], noteMedia) {
		t.Fatalf("forwards = %v", out.forwards)
	}
	if got := out.last(t); got.text != messages.Forwarded {
		t.Fatalf("confirmation = %q", got.text)
	}
}

func TestThirdPartyIntakeRequiresText(t *testing.T) {
	eng, _, _, out := newTestEngine(t, 12)

	ctx := context.Background()
	if err := eng.HandleStart(ctx, textEv(1, "/start")); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleText(ctx, textEv(1, "6️⃣ Допомога іншим")); err != nil {
		t.Fatal(err)
	}
	mustMode(t, eng, 1, ModeThirdPartyIntake)

	if err := eng.HandleMedia(ctx, mediaEv(1)); err != nil {
		t.Fatal(err)
	}
	mustMode(t, eng, 1, ModeThirdPartyIntake)
	if got := out.last(t); got.text != messages.NeedText {
		t.Fatalf("expected text requirement, got %q", got.text)
	}

	if err := eng.HandleText(ctx, textEv(1, "Моїй подрузі потрібна допомога")); err != nil {
		t.Fatal(err)
	}
	mustMode(t, eng, 1, ModeManual)
}

func TestIntakeBackReturnsToMenu(t *testing.T) {
	eng, _, _, out := newTestEngine(t, 12)

	ctx := context.Background()
	if err := eng.HandleStart(ctx, textEv(1, "/start")); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleText(ctx, textEv(1, "5️⃣")); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleText(ctx, textEv(1, "Назад")); err != nil {
		t.Fatal(err)
	}
	mustMode(t, eng, 1, ModeAutomated)
	if got := out.last(t); got.text != messages.Menu || got.kb != KbMenu {
		t.Fatalf("expected menu after back, got %+v", got)
	}
}

// startedForm drives a fresh conversation into form mode at the name step.
func startedForm(t *testing.T, hour int) (*Engine, *fakeCases, *fakeOut) {
	t.Helper()
	eng, cases, _, out := newTestEngine(t, hour)
	ctx := context.Background()
	if err := eng.HandleStart(ctx, textEv(1, "/start")); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleText(ctx, textEv(1, "1️⃣")); err != nil {
		t.Fatal(err)
	}
	mustMode(t, eng, 1, ModeForm)
	return eng, cases, out
}

func TestFormAgeValidation(t *testing.T) {
	eng, cases, out := startedForm(t, 12)
	ctx := context.Background()

	if err := eng.HandleText(ctx, textEv(1, "Олена")); err != nil {
		t.Fatal(err)
	}
	mustStep(t, eng, 1, StepAge)

	for _, bad := range []string{"abc", "0", "121", "-5", ""} {
		if err := eng.HandleText(ctx, textEv(1, bad)); err != nil {
			t.Fatalf("HandleText(%q): %v", bad, err)
		}
		mustStep(t, eng, 1, StepAge)
		if got := out.last(t); got.text != messages.NeedAgeNumber {
			t.Fatalf("age %q: notice = %q", bad, got.text)
		}
	}

	if err := eng.HandleText(ctx, textEv(1, "34")); err != nil {
		t.Fatal(err)
	}
	mustStep(t, eng, 1, StepLocation)
	caseID := cases.byChat[1]
	if got := cases.fields[caseID+"/age"]; got != 34 {
		t.Fatalf("persisted age = %v", got)
	}
	if got := out.last(t); got.text != messages.AskLocation {
		t.Fatalf("next prompt = %q", got.text)
	}
}

func TestFormMediaDuringTextStepReprompts(t *testing.T) {
	eng, _, out := startedForm(t, 12)

	if err := eng.HandleMedia(context.Background(), mediaEv(1)); err != nil {
		t.Fatal(err)
	}
	mustMode(t, eng, 1, ModeForm)
	mustStep(t, eng, 1, StepName)
	if got := out.last(t); got.text != messages.NeedNameText {
		t.Fatalf("notice = %q", got.text)
	}
}

func TestFormCompletionHandsOverToManual(t *testing.T) {
	eng, cases, out := startedForm(t, 12)
	ctx := context.Background()

	answers := []string{"Олена", "34", "Київ", "Обстріл житлового будинку", "Психологічна", "Потрібна <термінова> розмова"}
	for _, a := range answers {
		if err := eng.HandleText(ctx, textEv(1, a)); err != nil {
			t.Fatalf("HandleText(%q): %v", a, err)
		}
	}
	mustMode(t, eng, 1, ModeManual)

	if len(out.notified) != 2 {
		t.Fatalf("operator notifications = %d, want new chat + summary", len(out.notified))
	}
	summary := out.notified[1]
	for _, want := range []string{"Олена", "34", "Київ", "Психологічна"} {
		if !strings.Contains(summary, want) {
			t.Fatalf("summary missing %q:\n%s", want, summary)
		}
	}
	if strings.Contains(summary, "<термінова>") {
		t.Fatal("summary carries unescaped markup")
	}
	if !strings.Contains(summary, "&lt;термінова&gt;") {
		t.Fatalf("summary lost the escaped description:\n%s", summary)
	}
	caseID := cases.byChat[1]
	if got := cases.fields[caseID+"/description"]; got != "Потрібна <термінова> розмова" {
		t.Fatalf("persisted description = %v", got)
	}
	if got := out.last(t); got.text != messages.FormDone {
		t.Fatalf("completion message = %q", got.text)
	}
}

func TestFormBackAbandonsToMenu(t *testing.T) {
	eng, _, out := startedForm(t, 12)

	if err := eng.HandleText(context.Background(), textEv(1, "назад")); err != nil {
		t.Fatal(err)
	}
	mustMode(t, eng, 1, ModeAutomated)
	if got := out.last(t); got.text != messages.Menu {
		t.Fatalf("expected menu, got %q", got.text)
	}
}

func TestManualModeForwardsEverything(t *testing.T) {
	eng, _, _, out := newTestEngine(t, 12)
	ctx := context.Background()

	if err := eng.HandleStart(ctx, textEv(1, "/start")); err != nil {
		t.Fatal(err)
	}
	conv := eng.Manager().Get(1)
	conv.Mode = ModeManual

	if err := eng.HandleText(ctx, textEv(1, "Дякую за допомогу")); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleMedia(ctx, mediaEv(1)); err != nil {
		t.Fatal(err)
	}
	if len(out.forwards) != 2 {
		t.Fatalf("forwards = %v", out.forwards)
	}
	if got := out.last(t); got.text != messages.MediaForwarded {
		t.Fatalf("media confirmation = %q", got.text)
	}
	mustMode(t, eng, 1, ModeManual)
}

func TestUrgentYesShowsResources(t *testing.T) {
	eng, _, _, out := newTestEngine(t, 23)
	ctx := context.Background()

	if err := eng.HandleStart(ctx, textEv(1, "/start")); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleText(ctx, textEv(1, "Так")); err != nil {
		t.Fatal(err)
	}
	mustMode(t, eng, 1, ModeUrgentContinue)

	var sawResources, sawContinue bool
	for _, s := range out.sent {
		if s.text == messages.UrgentResources {
			sawResources = true
		}
		if s.text == messages.UrgentContinue {
			sawContinue = true
		}
	}
	if !sawResources || !sawContinue {
		t.Fatalf("urgent sequence incomplete: resources=%v continue=%v", sawResources, sawContinue)
	}
}

func TestUrgentNoStartsForm(t *testing.T) {
	eng, _, _, _ := newTestEngine(t, 23)
	ctx := context.Background()

	if err := eng.HandleStart(ctx, textEv(1, "/start")); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleText(ctx, textEv(1, "Ні")); err != nil {
		t.Fatal(err)
	}
	mustMode(t, eng, 1, ModeForm)
	mustStep(t, eng, 1, StepName)
}

func TestUrgentContinueNoClears(t *testing.T) {
	eng, _, _, out := newTestEngine(t, 23)
	ctx := context.Background()

	if err := eng.HandleStart(ctx, textEv(1, "/start")); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleText(ctx, textEv(1, "так")); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleText(ctx, textEv(1, "ні")); err != nil {
		t.Fatal(err)
	}
	mustMode(t, eng, 1, ModeIdle)
	if got := out.last(t); got.text != messages.Cancelled {
		t.Fatalf("expected cancellation, got %q", got.text)
	}
}

func TestUrgentContinueTimesOutToCancelled(t *testing.T) {
	eng, _, _, out := newTestEngine(t, 23)
	ctx := context.Background()

	if err := eng.HandleStart(ctx, textEv(1, "/start")); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleText(ctx, textEv(1, "так")); err != nil {
		t.Fatal(err)
	}
	mustMode(t, eng, 1, ModeUrgentContinue)

	conv := eng.Manager().Get(1)
	conv.lock()
	gen := conv.timerGen
	conv.unlock()
	if gen == 0 {
		t.Fatal("no inactivity timer armed on entering urgent continue")
	}
	eng.onTimeout(1, gen)

	mustMode(t, eng, 1, ModeIdle)
	if got := out.last(t); got.text != messages.Cancelled {
		t.Fatalf("expected cancellation after silence, got %q", got.text)
	}
}

func TestUrgentTimerInvalidatedWhenFormStarts(t *testing.T) {
	eng, _, _, _ := newTestEngine(t, 23)
	ctx := context.Background()

	if err := eng.HandleStart(ctx, textEv(1, "/start")); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleText(ctx, textEv(1, "так")); err != nil {
		t.Fatal(err)
	}
	conv := eng.Manager().Get(1)
	conv.lock()
	urgentGen := conv.timerGen
	conv.unlock()

	if err := eng.HandleText(ctx, textEv(1, "так")); err != nil {
		t.Fatal(err)
	}
	mustMode(t, eng, 1, ModeForm)

	// The urgent timer must not survive into form mode.
	eng.onTimeout(1, urgentGen)
	mustMode(t, eng, 1, ModeForm)
	mustStep(t, eng, 1, StepName)
}

func TestTimeoutAsksToContinue(t *testing.T) {
	eng, _, out := startedForm(t, 12)
	conv := eng.Manager().Get(1)

	conv.lock()
	gen := conv.timerGen
	conv.unlock()
	eng.onTimeout(1, gen)

	mustMode(t, eng, 1, ModeContinueDecision)
	if got := out.last(t); got.text != messages.ContinuePrompt || got.kb != KbYesNo {
		t.Fatalf("continue prompt = %+v", got)
	}
}

func TestStaleTimerIsIgnored(t *testing.T) {
	eng, _, _ := startedForm(t, 12)
	conv := eng.Manager().Get(1)

	conv.lock()
	stale := conv.timerGen - 1
	conv.unlock()
	eng.onTimeout(1, stale)

	mustMode(t, eng, 1, ModeForm)
	mustStep(t, eng, 1, StepName)
}

func TestContinueDecisionYesResumesAtPendingStep(t *testing.T) {
	eng, _, out := startedForm(t, 12)
	ctx := context.Background()

	if err := eng.HandleText(ctx, textEv(1, "Олена")); err != nil {
		t.Fatal(err)
	}
	conv := eng.Manager().Get(1)
	conv.lock()
	gen := conv.timerGen
	conv.unlock()
	eng.onTimeout(1, gen)
	mustMode(t, eng, 1, ModeContinueDecision)

	if err := eng.HandleText(ctx, textEv(1, "Продовжити")); err != nil {
		t.Fatal(err)
	}
	mustMode(t, eng, 1, ModeForm)
	mustStep(t, eng, 1, StepAge)
	if got := out.last(t); got.text != messages.AskAge {
		t.Fatalf("resume prompt = %q", got.text)
	}
}

func TestContinueDecisionNoClearsForm(t *testing.T) {
	eng, _, out := startedForm(t, 12)
	ctx := context.Background()

	conv := eng.Manager().Get(1)
	conv.lock()
	gen := conv.timerGen
	conv.unlock()
	eng.onTimeout(1, gen)

	if err := eng.HandleText(ctx, textEv(1, "Ні")); err != nil {
		t.Fatal(err)
	}
	mustMode(t, eng, 1, ModeIdle)
	if got := out.last(t); got.text != messages.FormCancelled {
		t.Fatalf("expected form cancellation, got %q", got.text)
	}
}

func TestContinueDecisionAnswerCountsAsFormInput(t *testing.T) {
	eng, cases, _ := startedForm(t, 12)
	ctx := context.Background()

	conv := eng.Manager().Get(1)
	conv.lock()
	gen := conv.timerGen
	conv.unlock()
	eng.onTimeout(1, gen)
	mustMode(t, eng, 1, ModeContinueDecision)

	// A late answer to the pending name question is applied, not lost.
	if err := eng.HandleText(ctx, textEv(1, "Олена")); err != nil {
		t.Fatal(err)
	}
	mustMode(t, eng, 1, ModeForm)
	mustStep(t, eng, 1, StepAge)
	caseID := cases.byChat[1]
	if got := cases.fields[caseID+"/name"]; got != "Олена" {
		t.Fatalf("persisted name = %v", got)
	}
}

func TestCancelClearsActiveConversation(t *testing.T) {
	eng, _, out := startedForm(t, 12)
	ctx := context.Background()

	if err := eng.HandleCancel(ctx, textEv(1, "/cancel")); err != nil {
		t.Fatal(err)
	}
	mustMode(t, eng, 1, ModeIdle)
	if got := out.last(t); got.text != messages.Cancelled {
		t.Fatalf("expected cancellation, got %q", got.text)
	}
}

func TestCancelWhenIdleIsSilent(t *testing.T) {
	eng, _, _, out := newTestEngine(t, 12)

	if err := eng.HandleCancel(context.Background(), textEv(1, "/cancel")); err != nil {
		t.Fatal(err)
	}
	if len(out.sent) != 0 {
		t.Fatalf("idle cancel produced output: %+v", out.sent)
	}
}

func TestIdleTextIsIgnored(t *testing.T) {
	eng, _, _, out := newTestEngine(t, 12)

	if err := eng.HandleText(context.Background(), textEv(1, "привіт")); err != nil {
		t.Fatal(err)
	}
	if len(out.sent) != 0 {
		t.Fatalf("idle text produced output: %+v", out.sent)
	}
	mustMode(t, eng, 1, ModeIdle)
}

func TestStoreFailureSendsNotice(t *testing.T) {
	eng, cases, _, out := newTestEngine(t, 12)
	cases.fail = fmt.Errorf("db down")

	err := eng.HandleText(context.Background(), textEv(1, "привіт"))
	if err == nil {
		t.Fatal("expected the store failure to propagate")
	}
	if got := out.last(t); got.text != messages.InternalError {
		t.Fatalf("user notice = %q", got.text)
	}
}

func TestConversationsAreIndependent(t *testing.T) {
	eng, _, _, _ := newTestEngine(t, 12)
	ctx := context.Background()

	if err := eng.HandleStart(ctx, textEv(1, "/start")); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleText(ctx, textEv(1, "1️⃣")); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleStart(ctx, textEv(2, "/start")); err != nil {
		t.Fatal(err)
	}
	mustMode(t, eng, 1, ModeForm)
	mustMode(t, eng, 2, ModeAutomated)
}
