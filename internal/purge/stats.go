package purge

import (
	"context"
	"errors"
	"sync"
	"time"
)

// errDeleterGone is returned by WaitDrained when the deleter stopped before draining.
var errDeleterGone = errors.New("deleter stopped")

// Resolution is the final state of one forwarded message.
type Resolution int

const (
	// Deleted: the delete request succeeded.
	Deleted Resolution = iota
	// Failed: the message could not be deleted (403, other 4xx, transport error).
	Failed
	// Skipped: the message was already gone (404).
	Skipped
	// Abandoned: the run was cancelled before the message was handled.
	Abandoned
)

func (r Resolution) String() string {
	switch r {
	case Deleted:
		return "deleted"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return "abandoned"
	}
}

// Progress is a point-in-time copy of the run counters.
type Progress struct {
	Deleted   int
	Failed    int
	Skipped   int
	InProcess int
	Batches   int
	Found     int
}

// Remaining returns forwarded messages without a final outcome yet.
func (p Progress) Remaining() int {
	return max(p.Found-p.Deleted-p.Failed-p.Skipped, 0)
}

// Stats holds the counters shared by the lister and the deleter.
// Every method takes the single mutex for a point update; no lock is held
// across I/O or sleeps.
type Stats struct {
	mu        sync.Mutex
	deleted   int
	failed    int
	skipped   int
	inProcess int
	batches   int
	found     int
	startTime time.Time

	// drained is closed when inProcess drops to zero
	drained chan struct{}
}

// NewStats creates counters for a run started at start.
func NewStats(start time.Time) *Stats {
	drained := make(chan struct{})
	close(drained)
	return &Stats{
		startTime: start,
		drained:   drained,
	}
}

// StartTime returns the run start.
func (s *Stats) StartTime() time.Time {
	return s.startTime
}

// RecordPage counts a fetched non-empty page.
func (s *Stats) RecordPage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches++
}

// BeginBatch publishes n messages as in process. Called by the lister right
// before forwarding them.
func (s *Stats) BeginBatch(n int) {
	if n <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inProcess == 0 {
		s.drained = make(chan struct{})
	}
	s.inProcess += n
	s.found += n
}

// Resolve records the outcome of one message and releases it from in-process.
func (s *Stats) Resolve(r Resolution) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch r {
	case Deleted:
		s.deleted++
	case Failed:
		s.failed++
	case Skipped:
		s.skipped++
	}

	// saturating: never below zero
	if s.inProcess > 0 {
		s.inProcess--
		if s.inProcess == 0 {
			close(s.drained)
		}
	}
}

// InProcess returns the number of forwarded messages without an outcome.
func (s *Stats) InProcess() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inProcess
}

// Snapshot returns a copy of all counters.
func (s *Stats) Snapshot() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Progress{
		Deleted:   s.deleted,
		Failed:    s.failed,
		Skipped:   s.skipped,
		InProcess: s.inProcess,
		Batches:   s.batches,
		Found:     s.found,
	}
}

// WaitDrained blocks until no message is in process. It wakes on the drain
// signal and re-checks every poll interval. It returns errDeleterGone if gone
// is closed first, or ctx.Err() on cancellation.
func (s *Stats) WaitDrained(ctx context.Context, poll time.Duration, gone <-chan struct{}) error {
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		s.mu.Lock()
		if s.inProcess == 0 {
			s.mu.Unlock()
			return nil
		}
		drained := s.drained
		s.mu.Unlock()

		select {
		case <-drained:
		case <-ticker.C:
		case <-gone:
			if s.InProcess() == 0 {
				return nil
			}
			return errDeleterGone
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
