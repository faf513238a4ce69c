package app

import (
	"strconv"

	"github.com/sirupsen/logrus"
)

// Timer counts elapsed seconds for a session and checkpoints the count so a
// reload on the same device resumes instead of restarting at zero.
// Ticks are delivered by the owner's event loop; Timer never schedules itself.
type Timer struct {
	store   PersistedStore
	key     string
	every   int
	log     logrus.FieldLogger
	elapsed int
	pending int
	running bool
	closed  bool
}

// NewTimer reads the checkpoint for quizSlug once. A missing or unreadable
// checkpoint starts the count at zero.
func NewTimer(store PersistedStore, quizSlug string, every int, log logrus.FieldLogger) *Timer {
	if every <= 0 {
		every = 5
	}
	t := &Timer{store: store, key: timerKey(quizSlug), every: every, log: log}
	raw, ok, err := store.Get(t.key)
	if err != nil {
		log.WithError(err).Debug("timer checkpoint unavailable, starting from zero")
		return t
	}
	if ok {
		if n, err := strconv.Atoi(string(raw)); err == nil && n > 0 {
			t.elapsed = n
		}
	}
	return t
}

func (t *Timer) Start() {
	if t.closed {
		return
	}
	t.running = true
}

func (t *Timer) Stop() {
	t.running = false
}

func (t *Timer) Running() bool {
	return t.running
}

func (t *Timer) Elapsed() int {
	return t.elapsed
}

// Tick advances the counter by one second while running and writes a
// checkpoint every `every` ticks. It reports whether the counter moved.
func (t *Timer) Tick() bool {
	if !t.running || t.closed {
		return false
	}
	t.elapsed++
	t.pending++
	if t.pending >= t.every {
		t.checkpoint()
	}
	return true
}

// Close stops the counter and forces a final checkpoint. Later calls are no-ops.
func (t *Timer) Close() {
	if t.closed {
		return
	}
	t.running = false
	t.checkpoint()
	t.closed = true
}

func (t *Timer) checkpoint() {
	t.pending = 0
	if err := t.store.Set(t.key, []byte(strconv.Itoa(t.elapsed))); err != nil {
		t.log.WithError(err).Debug("timer checkpoint skipped")
	}
}
