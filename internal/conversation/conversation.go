// Package conversation owns the per-identity finite state machine of
// the intake bot: the conversation mode, the pending form step, the
// inactivity timeout, and the accumulated form answers.
package conversation

import (
	"context"
	"sync"
	"time"
)

// Mode is the top-level conversation state. A conversation has exactly
// one mode at any instant; mode transitions are driven only by the
// Engine.
type Mode string

const (
	// ModeIdle means no active conversation.
	ModeIdle Mode = "idle"
	// ModeAutomated shows the menu and waits for a selection.
	ModeAutomated Mode = "automated"
	// ModeUrgentDecision waits for the out-of-hours urgent yes/no.
	ModeUrgentDecision Mode = "urgent_decision"
	// ModeUrgentContinue waits for the second yes/no after the
	// hotline resources were shown.
	ModeUrgentContinue Mode = "urgent_continue"
	// ModeForm walks through the intake questions step by step.
	ModeForm Mode = "form"
	// ModeMediaIntake takes a single message from an organisation or
	// media representative.
	ModeMediaIntake Mode = "media_intake"
	// ModeThirdPartyIntake takes a single message about help for
	// somebody else.
	ModeThirdPartyIntake Mode = "third_party_intake"
	// ModeManual forwards everything to the operators.
	ModeManual Mode = "manual"
	// ModeContinueDecision waits for the answer to the "continue?"
	// prompt after the form inactivity timeout fired.
	ModeContinueDecision Mode = "continue_decision"
)

// Conversation is the live routing/state context for one chat identity.
// The embedded mutex serializes all event handling for the identity:
// no two inbound messages for the same chat are processed concurrently,
// while different chats stay fully independent.
type Conversation struct {
	mu sync.Mutex

	ChatID  int64
	CaseID  string
	Mode    Mode
	Step    Step
	Answers Answers

	// timerGen versions the inactivity timer. A fired timer whose
	// generation no longer matches must no-op instead of applying a
	// stale transition.
	timerGen uint64
	timer    *time.Timer

	// pacing lets /cancel interrupt scripted delays mid-sequence
	// without waiting for the serialization lock.
	pacingMu     sync.Mutex
	pacingCancel context.CancelFunc
}

// lock acquires the per-identity serialization lock.
func (c *Conversation) lock() { c.mu.Lock() }

func (c *Conversation) unlock() { c.mu.Unlock() }

// bumpTimer invalidates any outstanding timer and returns the next
// generation. Must be called with the conversation locked.
func (c *Conversation) bumpTimer() uint64 {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.timerGen++
	return c.timerGen
}

// reset clears the conversation back to idle and invalidates timers.
// Must be called with the conversation locked.
func (c *Conversation) reset() {
	c.bumpTimer()
	c.Mode = ModeIdle
	c.Step = StepName
	c.Answers = Answers{}
}

// pacingContext installs a fresh cancellable context for scripted
// delays and returns it together with its cancel func.
func (c *Conversation) pacingContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	c.pacingMu.Lock()
	c.pacingCancel = cancel
	c.pacingMu.Unlock()
	return ctx, func() {
		cancel()
		c.pacingMu.Lock()
		if c.pacingCancel != nil {
			c.pacingCancel = nil
		}
		c.pacingMu.Unlock()
	}
}

// interruptPacing cancels an in-flight scripted delay sequence, if any.
// Safe to call without holding the serialization lock.
func (c *Conversation) interruptPacing() {
	c.pacingMu.Lock()
	cancel := c.pacingCancel
	c.pacingCancel = nil
	c.pacingMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Manager hands out conversation records addressed by chat identity.
type Manager struct {
	mu    sync.Mutex
	convs map[int64]*Conversation
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{convs: make(map[int64]*Conversation)}
}

// Get returns the conversation for the chat, creating an idle one if
// none exists yet.
func (m *Manager) Get(chatID int64) *Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[chatID]
	if !ok {
		c = &Conversation{ChatID: chatID, Mode: ModeIdle}
		m.convs[chatID] = c
	}
	return c
}

// Snapshot returns the current mode and step for diagnostics and tests.
func (m *Manager) Snapshot(chatID int64) (Mode, Step) {
	c := m.Get(chatID)
	c.lock()
	defer c.unlock()
	return c.Mode, c.Step
}
