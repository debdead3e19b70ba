// Package scheduler decides once, at startup, how background work such as a
// data refresh is dispatched.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
)

// Strategy is the fixed dispatch mode chosen at startup.
type Strategy int

const (
	// Immediate runs each task inline on the caller's goroutine.
	Immediate Strategy = iota
	// Idle queues tasks to a single background worker.
	Idle
)

func (s Strategy) String() string {
	switch s {
	case Idle:
		return "idle"
	case Immediate:
		return "immediate"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("scheduler: closed")

const queueSize = 16

// Detect maps a configured mode to a strategy. "auto" picks Idle when more
// than one CPU is available.
func Detect(mode string, numCPU int) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		if numCPU > 1 {
			return Idle, nil
		}
		return Immediate, nil
	case "idle":
		return Idle, nil
	case "immediate":
		return Immediate, nil
	default:
		return Immediate, fmt.Errorf("invalid scheduling mode %q (allowed: auto, idle, immediate)", mode)
	}
}

// DetectRuntime is Detect with the CPU count of this process.
func DetectRuntime(mode string) (Strategy, error) {
	return Detect(mode, runtime.NumCPU())
}

// Scheduler dispatches tasks according to its strategy.
type Scheduler struct {
	strategy Strategy
	logger   *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan func()
	done   chan struct{}
}

func New(strategy Strategy, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{strategy: strategy, logger: logger, done: make(chan struct{})}
	if strategy == Idle {
		s.queue = make(chan func(), queueSize)
		go s.worker()
	} else {
		close(s.done)
	}
	return s
}

func (s *Scheduler) Strategy() Strategy {
	return s.strategy
}

// Submit runs task now (Immediate) or queues it (Idle). When the queue is
// full Submit waits for room or for ctx.
func (s *Scheduler) Submit(ctx context.Context, task func()) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	if s.strategy == Immediate {
		s.run(task)
		return nil
	}
	select {
	case s.queue <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work and waits for queued tasks to finish.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	if s.queue != nil {
		close(s.queue)
	}
	s.mu.Unlock()
	<-s.done
}

func (s *Scheduler) worker() {
	defer close(s.done)
	for task := range s.queue {
		s.run(task)
	}
}

func (s *Scheduler) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled task panicked", "panic", r, "strategy", s.strategy.String())
		}
	}()
	task()
}
