package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sylni/helpbot/core/logger"
	tgformat "github.com/sylni/helpbot/core/telegram/format"
	"github.com/sylni/helpbot/internal/errs"
	"github.com/sylni/helpbot/internal/messages"
	"github.com/sylni/helpbot/internal/storage"
	"log/slog"
)

// Keyboard selects the reply markup attached to an outbound message.
// The transport adapter maps these to concrete Telegram keyboards.
type Keyboard int

const (
	// KbNone leaves the current keyboard untouched.
	KbNone Keyboard = iota
	// KbRemove hides the reply keyboard.
	KbRemove
	// KbMenu shows the six-option intake menu.
	KbMenu
	// KbYesNo shows the yes/no decision keyboard.
	KbYesNo
)

// Event is one inbound message, decoupled from the transport. Raw
// carries the transport message so the router can forward or copy it
// without the engine inspecting its content.
type Event struct {
	ChatID int64
	Text   string
	IsText bool
	Raw    any
}

// CaseStore is the slice of the Case Record Store the engine needs.
type CaseStore interface {
	ResolveOrCreate(ctx context.Context, chatID int64) (storage.Case, bool, error)
	SetField(ctx context.Context, caseID, column string, value any) error
}

// AccessStore exposes the block check of the Identity & Access Store.
type AccessStore interface {
	IsBlocked(ctx context.Context, caseID string) (bool, error)
}

// Outbound abstracts everything the engine sends: direct replies to
// the help-seeker and broadcasts to the operators.
type Outbound interface {
	Send(ctx context.Context, chatID int64, text string, kb Keyboard) error
	// ForwardToOperators forwards the original message to every
	// operator with a notification note referencing the case.
	ForwardToOperators(ctx context.Context, caseID string, ev Event, note string) error
	// NotifyOperators broadcasts a text notification referencing the
	// case to every operator.
	NotifyOperators(ctx context.Context, caseID string, text string) error
}

// Options configures an Engine. Zero durations fall back to defaults;
// tests set them explicitly to keep scripted pacing instant.
type Options struct {
	Manager *Manager
	Cases   CaseStore
	Access  AccessStore
	Out     Outbound

	// OpenHour..CloseHour (inclusive, local time) is the operating
	// window of the coordinators.
	OpenHour  int
	CloseHour int

	// FormTimeout is the inactivity window before the continue prompt.
	FormTimeout time.Duration
	// UrgentPause separates the hotline resources from the follow-up
	// question in the urgent flow.
	UrgentPause time.Duration
	// IntroPause separates the form intro from the first question.
	IntroPause time.Duration
	// StepPause separates an accepted answer from the next question.
	StepPause time.Duration

	Clock func() time.Time
}

// Engine drives all mode transitions. It is the only writer of
// conversation state; every entry point serializes on the per-identity
// conversation lock.
type Engine struct {
	m      *Manager
	cases  CaseStore
	access AccessStore
	out    Outbound
	opts   Options
}

// NewEngine builds an Engine, applying defaults for unset options.
func NewEngine(opts Options) *Engine {
	if opts.Manager == nil {
		opts.Manager = NewManager()
	}
	if opts.OpenHour == 0 && opts.CloseHour == 0 {
		opts.OpenHour, opts.CloseHour = 9, 20
	}
	if opts.FormTimeout <= 0 {
		opts.FormTimeout = 180 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Engine{
		m:      opts.Manager,
		cases:  opts.Cases,
		access: opts.Access,
		out:    opts.Out,
		opts:   opts,
	}
}

// Manager exposes the conversation map, mainly for diagnostics.
func (e *Engine) Manager() *Manager { return e.m }

// HandleStart processes /start from a help-seeker: resolves the case,
// notifies operators about a brand new one, and enters either the menu
// or the out-of-hours urgent decision.
func (e *Engine) HandleStart(ctx context.Context, ev Event) error {
	conv := e.m.Get(ev.ChatID)
	conv.lock()
	defer conv.unlock()

	blocked, err := e.ensureCase(ctx, conv, true)
	if err != nil {
		return e.sendFailureNotice(ctx, conv, err)
	}
	if blocked {
		return e.out.Send(ctx, conv.ChatID, messages.Blocked, KbNone)
	}

	hour := e.opts.Clock().Hour()
	if hour >= e.opts.OpenHour && hour <= e.opts.CloseHour {
		e.transition(ctx, conv, ModeAutomated)
		if err := e.out.Send(ctx, conv.ChatID, messages.MainOnline, KbMenu); err != nil {
			return err
		}
		return e.out.Send(ctx, conv.ChatID, messages.Menu, KbMenu)
	}

	e.transition(ctx, conv, ModeUrgentDecision)
	return e.out.Send(ctx, conv.ChatID, messages.MainOffline, KbYesNo)
}

// HandleCancel clears the conversation in any state, cancelling the
// pending timer and interrupting scripted delays mid-sequence.
func (e *Engine) HandleCancel(ctx context.Context, ev Event) error {
	conv := e.m.Get(ev.ChatID)
	conv.interruptPacing()
	conv.lock()
	defer conv.unlock()

	blocked, err := e.ensureCase(ctx, conv, false)
	if err != nil {
		return e.sendFailureNotice(ctx, conv, err)
	}
	if blocked {
		return e.out.Send(ctx, conv.ChatID, messages.Blocked, KbNone)
	}
	if conv.Mode == ModeIdle {
		return nil
	}
	e.reset(ctx, conv)
	return e.out.Send(ctx, conv.ChatID, messages.Cancelled, KbRemove)
}

// HandleText dispatches a text message through the mode's guard chain.
func (e *Engine) HandleText(ctx context.Context, ev Event) error {
	conv := e.m.Get(ev.ChatID)
	conv.lock()
	defer conv.unlock()

	blocked, err := e.ensureCase(ctx, conv, false)
	if err != nil {
		return e.sendFailureNotice(ctx, conv, err)
	}
	if blocked {
		return e.out.Send(ctx, conv.ChatID, messages.Blocked, KbNone)
	}

	switch conv.Mode {
	case ModeIdle:
		logger.Debug(ctx, "conversation", "idle.ignored",
			slog.Int64("chat_id", conv.ChatID),
		)
		return nil
	case ModeAutomated:
		return e.handleMenuChoice(ctx, conv, ev)
	case ModeUrgentDecision:
		return e.handleUrgentDecision(ctx, conv, ev)
	case ModeUrgentContinue:
		return e.handleUrgentContinue(ctx, conv, ev)
	case ModeForm:
		if isBack(ev.Text) {
			e.reset(ctx, conv)
			e.transition(ctx, conv, ModeAutomated)
			return e.out.Send(ctx, conv.ChatID, messages.Menu, KbMenu)
		}
		return e.formAnswer(ctx, conv, ev.Text)
	case ModeContinueDecision:
		return e.handleContinueDecision(ctx, conv, ev)
	case ModeMediaIntake:
		return e.handleSingleIntake(ctx, conv, ev, noteMedia)
	case ModeThirdPartyIntake:
		return e.handleSingleIntake(ctx, conv, ev, noteThirdParty)
	case ModeManual:
		return e.out.ForwardToOperators(ctx, conv.CaseID, ev, noteManual)
	}
	return nil
}

// HandleMedia dispatches a non-text message. Media follows the same
// routing rules as text where forwarding applies; form steps and
// decisions require text and re-prompt instead.
func (e *Engine) HandleMedia(ctx context.Context, ev Event) error {
	conv := e.m.Get(ev.ChatID)
	conv.lock()
	defer conv.unlock()

	blocked, err := e.ensureCase(ctx, conv, false)
	if err != nil {
		return e.sendFailureNotice(ctx, conv, err)
	}
	if blocked {
		return e.out.Send(ctx, conv.ChatID, messages.Blocked, KbNone)
	}

	switch conv.Mode {
	case ModeManual:
		if err := e.out.ForwardToOperators(ctx, conv.CaseID, ev, noteMediaPayload); err != nil {
			return err
		}
		return e.out.Send(ctx, conv.ChatID, messages.MediaForwarded, KbNone)
	case ModeMediaIntake:
		return e.handleSingleIntake(ctx, conv, ev, noteMedia)
	case ModeForm:
		return e.out.Send(ctx, conv.ChatID, conv.Step.emptyNotice(), KbNone)
	case ModeIdle:
		return nil
	default:
		return e.out.Send(ctx, conv.ChatID, messages.NeedText, KbNone)
	}
}

// Operator notification context notes.
const (
	noteMedia        = "Представник організації/медіа"
	noteThirdParty   = "Допомога іншим"
	noteManual       = "Повідомлення з ручного режиму"
	noteMediaPayload = "Медіа повідомлення"
)

func (e *Engine) handleMenuChoice(ctx context.Context, conv *Conversation, ev Event) error {
	text := ev.Text
	switch {
	case strings.Contains(text, "5️⃣"):
		e.transition(ctx, conv, ModeMediaIntake)
		return e.out.Send(ctx, conv.ChatID, messages.MediaContact, KbRemove)
	case strings.Contains(text, "6️⃣"):
		e.transition(ctx, conv, ModeThirdPartyIntake)
		return e.out.Send(ctx, conv.ChatID, messages.ThirdPartyPrompt, KbRemove)
	case strings.Contains(text, "1️⃣"), strings.Contains(text, "2️⃣"),
		strings.Contains(text, "3️⃣"), strings.Contains(text, "4️⃣"):
		return e.startForm(ctx, conv)
	case isBack(text):
		// Already at the menu.
		return nil
	default:
		return e.out.Send(ctx, conv.ChatID, messages.Menu, KbMenu)
	}
}

func (e *Engine) handleUrgentDecision(ctx context.Context, conv *Conversation, ev Event) error {
	switch {
	case isYes(ev.Text):
		if err := e.out.Send(ctx, conv.ChatID, messages.UrgentResources, KbRemove); err != nil {
			return err
		}
		e.transition(ctx, conv, ModeUrgentContinue)
		e.armTimer(conv)
		pctx, done := conv.pacingContext(ctx)
		defer done()
		if err := e.pause(pctx, e.opts.UrgentPause); err != nil {
			return nil
		}
		if conv.Mode != ModeUrgentContinue {
			return nil
		}
		return e.out.Send(ctx, conv.ChatID, messages.UrgentContinue, KbYesNo)
	case isNo(ev.Text):
		return e.startForm(ctx, conv)
	default:
		return e.out.Send(ctx, conv.ChatID, messages.MainOffline, KbYesNo)
	}
}

func (e *Engine) handleUrgentContinue(ctx context.Context, conv *Conversation, ev Event) error {
	switch {
	case isYes(ev.Text):
		if err := e.out.Send(ctx, conv.ChatID, messages.MainOnline, KbRemove); err != nil {
			return err
		}
		return e.startForm(ctx, conv)
	case isNo(ev.Text):
		e.reset(ctx, conv)
		return e.out.Send(ctx, conv.ChatID, messages.Cancelled, KbRemove)
	default:
		return e.out.Send(ctx, conv.ChatID, messages.UrgentContinue, KbYesNo)
	}
}

// startForm enters form mode at the first question, with the scripted
// intro pacing. The pacing is cancellable; an interrupted sequence just
// stops, /cancel takes care of the state.
func (e *Engine) startForm(ctx context.Context, conv *Conversation) error {
	conv.bumpTimer()
	e.transition(ctx, conv, ModeForm)
	conv.Step = StepName

	if err := e.out.Send(ctx, conv.ChatID, messages.FormIntro, KbRemove); err != nil {
		return err
	}
	pctx, done := conv.pacingContext(ctx)
	defer done()
	if err := e.pause(pctx, e.opts.IntroPause); err != nil {
		return nil
	}
	if conv.Mode != ModeForm {
		return nil
	}
	if err := e.out.Send(ctx, conv.ChatID, StepName.Prompt(), KbRemove); err != nil {
		return err
	}
	e.armTimer(conv)
	return nil
}

// formAnswer applies a form step's validation/transition logic to the
// input. Malformed input re-prompts and leaves mode, step, and timer
// untouched.
func (e *Engine) formAnswer(ctx context.Context, conv *Conversation, text string) error {
	value, err := conv.Step.validate(text)
	if err != nil {
		var ve *errs.ValidationError
		if errors.As(err, &ve) {
			logger.Debug(ctx, "conversation", "form.invalid",
				slog.Int64("chat_id", conv.ChatID),
				slog.String("step", conv.Step.String()),
			)
			return e.out.Send(ctx, conv.ChatID, ve.Notice, KbNone)
		}
		return err
	}

	if err := e.cases.SetField(ctx, conv.CaseID, conv.Step.Column(), value); err != nil {
		logger.Error(ctx, "conversation", "form.persist_failed",
			slog.Int64("chat_id", conv.ChatID),
			slog.String("step", conv.Step.String()),
			slog.String("err", err.Error()),
		)
		return e.sendFailureNotice(ctx, conv, err)
	}
	conv.Answers.Set(conv.Step, value)
	conv.Mode = ModeForm

	next, ok := conv.Step.Next()
	if !ok {
		return e.finishForm(ctx, conv)
	}

	conv.bumpTimer()
	conv.Step = next
	logger.Debug(ctx, "conversation", "form.advance",
		slog.Int64("chat_id", conv.ChatID),
		slog.String("step", next.String()),
	)

	pctx, done := conv.pacingContext(ctx)
	defer done()
	if err := e.pause(pctx, e.opts.StepPause); err != nil {
		return nil
	}
	if conv.Mode != ModeForm || conv.Step != next {
		return nil
	}
	if err := e.out.Send(ctx, conv.ChatID, next.Prompt(), KbRemove); err != nil {
		return err
	}
	e.armTimer(conv)
	return nil
}

// finishForm commits the completed record, notifies every operator with
// the full case summary, and hands the conversation over to manual mode.
func (e *Engine) finishForm(ctx context.Context, conv *Conversation) error {
	conv.bumpTimer()
	summary := formSummary(conv.Answers)
	if err := e.out.NotifyOperators(ctx, conv.CaseID, summary); err != nil {
		logger.Error(ctx, "conversation", "form.notify_failed",
			slog.Int64("chat_id", conv.ChatID),
			slog.String("err", err.Error()),
		)
	}
	e.transition(ctx, conv, ModeManual)
	return e.out.Send(ctx, conv.ChatID, messages.FormDone, KbRemove)
}

func (e *Engine) handleContinueDecision(ctx context.Context, conv *Conversation, ev Event) error {
	switch {
	case isNo(ev.Text):
		e.reset(ctx, conv)
		return e.out.Send(ctx, conv.ChatID, messages.FormCancelled, KbRemove)
	case isYes(ev.Text):
		conv.Mode = ModeForm
		conv.Step = conv.Answers.FirstUnset()
		logger.Debug(ctx, "conversation", "form.resume",
			slog.Int64("chat_id", conv.ChatID),
			slog.String("step", conv.Step.String()),
		)
		if err := e.out.Send(ctx, conv.ChatID, conv.Step.Prompt(), KbRemove); err != nil {
			return err
		}
		e.armTimer(conv)
		return nil
	default:
		// A slow answer to the pending question must not be lost:
		// fall through to that step's validation and transition.
		return e.formAnswer(ctx, conv, ev.Text)
	}
}

// handleSingleIntake forwards a single intake message to the operators
// and hands the chat over to manual mode. "back" aborts to the menu.
func (e *Engine) handleSingleIntake(ctx context.Context, conv *Conversation, ev Event, note string) error {
	if ev.IsText && isBack(ev.Text) {
		e.transition(ctx, conv, ModeAutomated)
		return e.out.Send(ctx, conv.ChatID, messages.Menu, KbMenu)
	}
	if note == noteThirdParty && (!ev.IsText || strings.TrimSpace(ev.Text) == "") {
		return e.out.Send(ctx, conv.ChatID, messages.NeedText, KbNone)
	}
	if err := e.out.ForwardToOperators(ctx, conv.CaseID, ev, note); err != nil {
		return err
	}
	e.transition(ctx, conv, ModeManual)
	return e.out.Send(ctx, conv.ChatID, messages.Forwarded, KbNone)
}

// armTimer starts the single inactivity timer for the conversation,
// cancelling any prior one. Must be called with the conversation locked.
func (e *Engine) armTimer(conv *Conversation) {
	gen := conv.bumpTimer()
	chatID := conv.ChatID
	conv.timer = time.AfterFunc(e.opts.FormTimeout, func() {
		e.onTimeout(chatID, gen)
	})
}

// onTimeout runs when the inactivity timer fires. A timer that finds
// the state already advanced (generation mismatch) no-ops rather than
// applying a stale transition.
func (e *Engine) onTimeout(chatID int64, gen uint64) {
	conv := e.m.Get(chatID)
	conv.lock()
	defer conv.unlock()

	if conv.timerGen != gen {
		return
	}

	ctx := logger.Background()
	switch conv.Mode {
	case ModeForm:
		conv.timer = nil
		e.transition(ctx, conv, ModeContinueDecision)
		_ = e.out.Send(ctx, chatID, messages.ContinuePrompt, KbYesNo)
	case ModeUrgentContinue:
		e.reset(ctx, conv)
		_ = e.out.Send(ctx, chatID, messages.Cancelled, KbRemove)
	}
}

// ensureCase resolves the chat's case record and block status, creating
// the case on first contact. When notifyNew is set, operators are told
// about a freshly created case.
func (e *Engine) ensureCase(ctx context.Context, conv *Conversation, notifyNew bool) (blocked bool, err error) {
	c, created, err := e.cases.ResolveOrCreate(ctx, conv.ChatID)
	if err != nil {
		return false, fmt.Errorf("resolve case: %w", err)
	}
	conv.CaseID = c.CaseID

	if created && notifyNew {
		if err := e.out.NotifyOperators(ctx, c.CaseID, newChatNotification); err != nil {
			logger.Warn(ctx, "conversation", "new_chat.notify_failed",
				slog.String("case_id", c.CaseID),
				slog.String("err", err.Error()),
			)
		}
	}

	blocked, err = e.access.IsBlocked(ctx, c.CaseID)
	if err != nil {
		return false, fmt.Errorf("block check: %w", err)
	}
	return blocked, nil
}

const newChatNotification = `🆕 <b>Нове звернення створено</b>`

// transition moves the conversation to the target mode and logs it.
func (e *Engine) transition(ctx context.Context, conv *Conversation, to Mode) {
	from := conv.Mode
	conv.Mode = to
	logger.Debug(ctx, "conversation", "mode.transition",
		slog.Int64("chat_id", conv.ChatID),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
}

// reset clears the conversation back to idle.
func (e *Engine) reset(ctx context.Context, conv *Conversation) {
	conv.reset()
	logger.Debug(ctx, "conversation", "conversation.cleared",
		slog.Int64("chat_id", conv.ChatID),
	)
}

// pause waits for the scripted delay or until the pacing context is
// cancelled by /cancel.
func (e *Engine) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// sendFailureNotice converts a store failure into a user-visible
// message; infrastructure errors never propagate as process-fatal.
func (e *Engine) sendFailureNotice(ctx context.Context, conv *Conversation, cause error) error {
	_ = e.out.Send(ctx, conv.ChatID, messages.InternalError, KbNone)
	return cause
}

func formSummary(a Answers) string {
	esc := tgformat.EscapeHTML
	return fmt.Sprintf(`📋 <b>Форма заповнена:</b>

👤 <b>Ім'я:</b> %s
📅 <b>Вік:</b> %d
📍 <b>Місцезнаходження:</b> %s
🔍 <b>Деталі події:</b> %s
🆘 <b>Тип допомоги:</b> %s
📝 <b>Опис:</b> <i>%s</i>`,
		esc(a.Name), a.Age, esc(a.Location), esc(a.EventDetails),
		esc(a.HelpType), esc(a.Description))
}

func isYes(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "так", "yes", "продовжити":
		return true
	}
	return false
}

func isNo(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "ні", "no":
		return true
	}
	return false
}

func isBack(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "назад", "back":
		return true
	}
	return false
}
