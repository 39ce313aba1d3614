package systems

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrTaskPanic wraps a panic recovered from a task step.
var ErrTaskPanic = errors.New("task panicked")

// Yield tells the Scheduler when a task wants to run again.
type Yield struct {
	Wake float64 // simulation time to resume at; anything <= now resumes next frame
	Done bool
}

// NextFrame suspends the task until the next scheduler update.
func NextFrame() Yield { return Yield{} }

// Sleep suspends the task for d seconds of simulation time.
func Sleep(now, d float64) Yield { return Yield{Wake: now + d} }

// Finish completes the task.
func Finish() Yield { return Yield{Done: true} }

// Task is a cooperative sequence. Each Step runs until the next suspension
// point and reports when to resume. A non-nil error ends the task.
type Task interface {
	Step(now float64) (Yield, error)
}

// TaskFunc adapts a function to Task.
type TaskFunc func(now float64) (Yield, error)

// Step calls f.
func (f TaskFunc) Step(now float64) (Yield, error) { return f(now) }

type scheduledTask struct {
	name string
	task Task
	wake float64
	done func(error)
}

// Scheduler steps cooperative tasks on the simulation thread.
// Each task is stepped at most once per Update, so a task that yields
// NextFrame resumes on the following tick.
type Scheduler struct {
	tasks   []*scheduledTask
	pending []*scheduledTask
	logger  *slog.Logger

	stepped int
	failed  int
}

// NewScheduler creates an empty scheduler.
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{logger: logger}
}

// Go schedules t to take its first step on the next Update.
// done, if non-nil, is called once when the task finishes or fails.
func (s *Scheduler) Go(name string, t Task, done func(error)) {
	s.pending = append(s.pending, &scheduledTask{name: name, task: t, done: done})
}

// Update steps every task whose wake time has arrived.
// Tasks scheduled during Update start on the next call.
func (s *Scheduler) Update(now float64) {
	if len(s.pending) > 0 {
		s.tasks = append(s.tasks, s.pending...)
		s.pending = nil
	}

	current := s.tasks
	kept := current[:0]
	for _, st := range current {
		if st.wake > now {
			kept = append(kept, st)
			continue
		}

		y, err := s.step(st, now)
		s.stepped++
		if err != nil {
			s.failed++
			s.logger.Error("task_failed", "task", st.name, "error", err)
			s.finish(st, err)
			continue
		}
		if y.Done {
			s.finish(st, nil)
			continue
		}
		st.wake = y.Wake
		kept = append(kept, st)
	}
	for i := len(kept); i < len(current); i++ {
		current[i] = nil
	}
	s.tasks = kept
}

// step runs one task step, converting a panic into an error.
func (s *Scheduler) step(st *scheduledTask, now float64) (y Yield, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrTaskPanic, st.name, r)
		}
	}()
	return st.task.Step(now)
}

func (s *Scheduler) finish(st *scheduledTask, err error) {
	if st.done == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task_done_callback_panicked", "task", st.name, "panic", r)
		}
	}()
	st.done(err)
}

// Len returns the number of running and pending tasks.
func (s *Scheduler) Len() int {
	return len(s.tasks) + len(s.pending)
}

// Failed returns the number of tasks that ended with an error.
func (s *Scheduler) Failed() int {
	return s.failed
}

// Clear drops every task without calling done callbacks.
func (s *Scheduler) Clear() {
	s.tasks = nil
	s.pending = nil
}
