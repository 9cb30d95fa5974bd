// internal/services/ledger.go
package services

import (
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/tracelink/provenance-backend/internal/database"
	"github.com/tracelink/provenance-backend/internal/ledger"
)

// Ledger is the shared core every component service mutates through. It
// enforces the execution model: one global writer lock so no two mutating
// operations interleave, the circuit-breaker check at the single entry point,
// and one transaction per operation so every mutation is all-or-nothing.
// Events staged during an operation are delivered only after the transaction
// commits.
type Ledger struct {
	db     *gorm.DB
	clock  ledger.Clock
	sink   ledger.Sink
	halted atomic.Bool
	mu     sync.Mutex

	transitionsMu sync.RWMutex
	transitions   ledger.TransitionValidator
}

func NewLedger(db *gorm.DB, clock ledger.Clock, sink ledger.Sink, transitions ledger.TransitionValidator) *Ledger {
	if clock == nil {
		clock = ledger.SystemClock()
	}
	if sink == nil {
		sink = ledger.NopSink
	}
	if transitions == nil {
		transitions = ledger.PermissiveTransitions{}
	}
	return &Ledger{
		db:          db,
		clock:       clock,
		sink:        sink,
		transitions: transitions,
	}
}

func (l *Ledger) DB() *gorm.DB { return l.db }

func (l *Ledger) Now() time.Time { return l.clock.Now() }

func (l *Ledger) Halted() bool { return l.halted.Load() }

func (l *Ledger) SetHalted(halted bool) { l.halted.Store(halted) }

func (l *Ledger) ValidateTransition(from, to ledger.ProductState) error {
	l.transitionsMu.RLock()
	v := l.transitions
	l.transitionsMu.RUnlock()
	return v.Validate(from, to)
}

// SetTransitions swaps the transition validator at runtime. In-flight
// operations keep the validator they started with.
func (l *Ledger) SetTransitions(v ledger.TransitionValidator) {
	if v == nil {
		v = ledger.PermissiveTransitions{}
	}
	l.transitionsMu.Lock()
	l.transitions = v
	l.transitionsMu.Unlock()
}

// Mutate runs one mutating ledger operation. The emit callback stages events;
// they reach the sink only if the transaction commits.
func (l *Ledger) Mutate(fn func(tx *gorm.DB, emit func(ledger.Event)) error) error {
	return l.run(true, fn, nil)
}

// MutateUnguarded is Mutate without the halt check, for the administrative
// operations that must stay available while the breaker is engaged.
func (l *Ledger) MutateUnguarded(fn func(tx *gorm.DB, emit func(ledger.Event)) error) error {
	return l.run(false, fn, nil)
}

// MutateUnguardedThen is MutateUnguarded with a committed hook that runs while
// the writer lock is still held. Used for in-memory state that must become
// visible before any queued operation passes the entry gate, such as the halt
// flag.
func (l *Ledger) MutateUnguardedThen(fn func(tx *gorm.DB, emit func(ledger.Event)) error, committed func()) error {
	return l.run(false, fn, committed)
}

func (l *Ledger) run(guarded bool, fn func(tx *gorm.DB, emit func(ledger.Event)) error, committed func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if guarded && l.halted.Load() {
		return ledger.ErrSystemHalted
	}

	var staged []ledger.Event
	err := database.WithTransaction(l.db, func(tx *gorm.DB) error {
		return fn(tx, func(e ledger.Event) {
			staged = append(staged, e)
		})
	})
	if err != nil {
		return err
	}

	if committed != nil {
		committed()
	}

	for _, e := range staged {
		l.sink.Emit(e)
	}
	return nil
}
