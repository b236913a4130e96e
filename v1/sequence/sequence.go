package sequence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Sequence tracks a conversation expecting one correlated message per step.
//
// Every step moves from Pending to Completed or Skipped exactly once. A
// required step that is passed over by a later trigger, or still pending
// when the sequence expires, aborts the sequence and skips every pending
// step. Aborted never reverts, and no step completes after it is set.
type Sequence struct {
	id    uuid.UUID
	steps []Step
	index map[string]int

	mu        sync.Mutex
	status    []Status
	completed []StepResult
	skipped   []StepResult
	aborted   bool

	tasks    errgroup.Group
	done     chan struct{}
	doneOnce sync.Once

	now func() time.Time
}

// New creates a sequence with a random id.
func New(steps ...Step) (*Sequence, error) {
	return NewWithID(uuid.New(), steps...)
}

// NewWithID creates a sequence correlated by id.
func NewWithID(id uuid.UUID, steps ...Step) (*Sequence, error) {
	index := make(map[string]int, len(steps))
	for i, st := range steps {
		if st.Name == "" {
			return nil, fmt.Errorf("%w: step %d has no name", ErrInvalidStep, i)
		}
		if _, dup := index[st.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate step %q", ErrInvalidStep, st.Name)
		}
		index[st.Name] = i
	}

	s := &Sequence{
		id:     id,
		steps:  append([]Step(nil), steps...),
		index:  index,
		status: make([]Status, len(steps)),
		done:   make(chan struct{}),
		now:    time.Now,
	}
	if len(steps) == 0 {
		s.finish()
	}
	return s, nil
}

// ID returns the correlation id of the sequence.
func (s *Sequence) ID() uuid.UUID { return s.id }

// Steps returns the configured steps.
func (s *Sequence) Steps() []Step {
	return append([]Step(nil), s.steps...)
}

// Trigger records the arrival of message for the named step.
//
// Pending optional steps ordered before it are skipped. A pending required
// step ordered before it aborts the sequence instead, and the triggered step
// is skipped with the rest. Triggers are expected in step order; a required
// step whose message is merely late is treated as missing. The step's
// handler is started in the handler task group with ctx.
func (s *Sequence) Trigger(ctx context.Context, name string, message any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.index[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStep, name)
	}
	if s.aborted {
		return ErrAborted
	}
	if s.status[idx] != Pending {
		return fmt.Errorf("%w: %q is %s", ErrStepNotPending, name, s.status[idx])
	}

	for i := 0; i < idx; i++ {
		if s.status[i] != Pending {
			continue
		}
		if !s.steps[i].Optional {
			s.abortLocked()
			return nil
		}
		s.skipLocked(i)
	}

	step := s.steps[idx]
	s.status[idx] = Completed
	s.completed = append(s.completed, StepResult{
		Name:    step.Name,
		Status:  Completed,
		Message: message,
		At:      s.now(),
	})

	if step.Handler != nil {
		handler := step.Handler
		s.tasks.Go(func() error {
			if err := handler(ctx, message); err != nil {
				return fmt.Errorf("step %q: %w", step.Name, err)
			}
			return nil
		})
	}

	if step.AbortsExecution {
		s.abortLocked()
		return nil
	}
	s.finishIfSettledLocked()
	return nil
}

// Expire ends the wait for outstanding steps. Pending optional steps are
// skipped; a pending required step aborts the sequence.
func (s *Sequence) Expire() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.aborted {
		return
	}
	for i := range s.steps {
		if s.status[i] == Pending && !s.steps[i].Optional {
			s.abortLocked()
			return
		}
	}
	for i := range s.steps {
		if s.status[i] == Pending {
			s.skipLocked(i)
		}
	}
	s.finishIfSettledLocked()
}

// Done is closed once every step has left the pending state or the
// sequence aborted.
func (s *Sequence) Done() <-chan struct{} { return s.done }

// Wait blocks until the sequence is done and every started handler has
// returned, or ctx is done. The returned error is the first handler error.
func (s *Sequence) Wait(ctx context.Context) (ExecutionState, error) {
	select {
	case <-s.done:
	case <-ctx.Done():
		return s.State(), ctx.Err()
	}

	settled := make(chan error, 1)
	go func() { settled <- s.tasks.Wait() }()

	select {
	case err := <-settled:
		return s.State(), err
	case <-ctx.Done():
		return s.State(), ctx.Err()
	}
}

// State returns a snapshot of the execution state.
func (s *Sequence) State() ExecutionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return ExecutionState{
		ID:        s.id,
		Completed: append([]StepResult(nil), s.completed...),
		Skipped:   append([]StepResult(nil), s.skipped...),
		Aborted:   s.aborted,
	}
}

// StatusOf returns the status of the named step.
func (s *Sequence) StatusOf(name string) (Status, bool) {
	idx, ok := s.index[name]
	if !ok {
		return Pending, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status[idx], true
}

func (s *Sequence) skipLocked(i int) {
	s.status[i] = Skipped
	s.skipped = append(s.skipped, StepResult{
		Name:   s.steps[i].Name,
		Status: Skipped,
		At:     s.now(),
	})
}

func (s *Sequence) abortLocked() {
	s.aborted = true
	for i := range s.steps {
		if s.status[i] == Pending {
			s.skipLocked(i)
		}
	}
	s.finish()
}

func (s *Sequence) finishIfSettledLocked() {
	for _, st := range s.status {
		if st == Pending {
			return
		}
	}
	s.finish()
}

func (s *Sequence) finish() {
	s.doneOnce.Do(func() { close(s.done) })
}
