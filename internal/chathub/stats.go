package chathub

import (
	"coursechat/backend/internal/storage"
	"errors"
	"log"
	"sync/atomic"
)

// Stats tracks relay and persistence counters.
type Stats struct {
	FramesRelayed   uint64
	FramesDropped   uint64
	RemoteFrames    uint64
	Persisted       uint64
	MissingChannel  uint64
	InvalidPayloads uint64
	StoreFailures   uint64
}

// StatsSnapshot is a point-in-time copy of Stats plus the registry size.
type StatsSnapshot struct {
	Rooms           int    `json:"rooms"`
	Connections     int    `json:"connections"`
	FramesRelayed   uint64 `json:"frames_relayed"`
	FramesDropped   uint64 `json:"frames_dropped"`
	RemoteFrames    uint64 `json:"remote_frames"`
	Persisted       uint64 `json:"persisted"`
	MissingChannel  uint64 `json:"missing_channel"`
	InvalidPayloads uint64 `json:"invalid_payloads"`
	StoreFailures   uint64 `json:"store_failures"`
}

func (s *Stats) snapshot() StatsSnapshot {
	return StatsSnapshot{
		FramesRelayed:   atomic.LoadUint64(&s.FramesRelayed),
		FramesDropped:   atomic.LoadUint64(&s.FramesDropped),
		RemoteFrames:    atomic.LoadUint64(&s.RemoteFrames),
		Persisted:       atomic.LoadUint64(&s.Persisted),
		MissingChannel:  atomic.LoadUint64(&s.MissingChannel),
		InvalidPayloads: atomic.LoadUint64(&s.InvalidPayloads),
		StoreFailures:   atomic.LoadUint64(&s.StoreFailures),
	}
}

// Observer receives the outcome of every persistence attempt. It is the only
// consumer of a Result; nothing flows back to the broadcast path.
type Observer interface {
	Observe(Result)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Result)

func (f ObserverFunc) Observe(r Result) { f(r) }

// MultiObserver fans a Result out to several observers in order.
type MultiObserver []Observer

func (m MultiObserver) Observe(r Result) {
	for _, o := range m {
		o.Observe(r)
	}
}

// LogObserver logs persistence failures and counts outcomes.
type LogObserver struct {
	stats *Stats
}

func NewLogObserver(stats *Stats) *LogObserver {
	return &LogObserver{stats: stats}
}

func (o *LogObserver) Observe(r Result) {
	switch {
	case r.Err == nil:
		atomic.AddUint64(&o.stats.Persisted, 1)
	case errors.Is(r.Err, storage.ErrChannelNotFound):
		atomic.AddUint64(&o.stats.MissingChannel, 1)
		log.Printf("WARNING: No channel for room %s, message not persisted", r.Topic)
	case errors.Is(r.Err, ErrMalformedPayload), errors.Is(r.Err, ErrInvalidPayload):
		atomic.AddUint64(&o.stats.InvalidPayloads, 1)
		log.Printf("WARNING: Skipping persistence in room %s: %v", r.Topic, r.Err)
	default:
		atomic.AddUint64(&o.stats.StoreFailures, 1)
		log.Printf("ERROR: Failed to persist message in room %s: %v", r.Topic, r.Err)
	}
}
