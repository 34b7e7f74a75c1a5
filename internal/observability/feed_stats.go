package observability

import (
	"sync/atomic"
	"time"
)

// FeedStats tracks the live feed loop in-process so its health endpoint can
// report progress without scraping Prometheus.
type FeedStats struct {
	ticks    atomic.Uint64
	inserted atomic.Uint64
	failed   atomic.Uint64

	lastSuccess atomic.Int64 // unix nanos
	durationMax atomic.Int64
}

func NewFeedStats() *FeedStats {
	return &FeedStats{}
}

func (s *FeedStats) ObserveTick(d time.Duration, err error) {
	s.ticks.Add(1)
	if err != nil {
		s.failed.Add(1)
	} else {
		s.inserted.Add(1)
		s.lastSuccess.Store(time.Now().UnixNano())
	}

	ns := d.Nanoseconds()
	for {
		curr := s.durationMax.Load()

		if ns <= curr {
			return
		}

		if s.durationMax.CompareAndSwap(curr, ns) {
			return
		}
	}
}

type FeedSnapshot struct {
	Ticks       uint64        `json:"ticks"`
	Inserted    uint64        `json:"inserted"`
	Failed      uint64        `json:"failed"`
	LastSuccess *time.Time    `json:"lastSuccess,omitempty"`
	MaxDuration time.Duration `json:"maxDurationNs"`
}

func (s *FeedStats) Snapshot() FeedSnapshot {
	snap := FeedSnapshot{
		Ticks:       s.ticks.Load(),
		Inserted:    s.inserted.Load(),
		Failed:      s.failed.Load(),
		MaxDuration: time.Duration(s.durationMax.Load()),
	}

	if ns := s.lastSuccess.Load(); ns > 0 {
		t := time.Unix(0, ns).UTC()
		snap.LastSuccess = &t
	}

	return snap
}
