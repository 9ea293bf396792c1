// Package cdc implements the change-data-capture bus of spec §4.8: a
// bounded, single-producer/single-consumer channel carrying schedule
// mutations from ScheduleService to SchedulerLoop, so the scheduler's
// in-memory working set can invalidate itself instead of polling the
// schedule table every tick.
//
// Modeled on petabytecl-gaz/eventbus's doc/package shape (a typed event,
// a bus with a logger, publish/consume halves), simplified from eventbus's
// general per-subscriber pub/sub to the single bounded channel the spec
// calls for: one writer, one reader, capacity 8, drained non-blockingly by
// the reader every scheduler tick.
package cdc

import "log/slog"

// EventKind discriminates the three schedule mutations the bus carries.
type EventKind int

const (
	Insert EventKind = iota
	Update
	Delete
)

func (k EventKind) String() string {
	switch k {
	case Insert:
		return "Insert"
	case Update:
		return "Update"
	case Delete:
		return "Delete"
	default:
		return "Unknown"
	}
}

// Event announces a mutation to the schedule table. ScheduleID is always
// set; Kind distinguishes insert/update (where the caller only cares that a
// reload is due — the scheduler always reloads the full table rather than
// applying a per-row patch, per spec §9 "CDC channel") from delete.
type Event struct {
	Kind       EventKind
	ScheduleID int64
}

// capacity is the bus's fixed channel size (spec §4.8).
const capacity = 8

// Bus is the bounded SPSC channel. Publish is used by ScheduleService;
// TryDrain is used by SchedulerLoop.
type Bus struct {
	ch     chan Event
	logger *slog.Logger
}

// New creates a Bus with the fixed capacity of spec §4.8.
func New(logger *slog.Logger) *Bus {
	return &Bus{
		ch:     make(chan Event, capacity),
		logger: logger.With(slog.String("component", "cdc.Bus")),
	}
}

// Publish sends an event to the bus. It blocks if the channel is full
// rather than dropping the event, per spec §4.8's recommended
// block-with-timeout policy — here a plain blocking send, which preserves
// the "reload on change" correctness guarantee as long as the consumer
// drains at least once per its tick interval (SchedulerLoop does, every 1s,
// well under the producer's rate in normal operation).
func (b *Bus) Publish(kind EventKind, scheduleID int64) {
	b.ch <- Event{Kind: kind, ScheduleID: scheduleID}
}

// TryDrain drains every currently queued event without blocking. It
// returns true if at least one event was drained, telling the caller to
// reload its working set (spec §4.7 step 1: "reload at most once per
// iteration regardless of how many events it drains").
func (b *Bus) TryDrain() bool {
	drained := false
	for {
		select {
		case evt := <-b.ch:
			drained = true
			b.logger.Debug("drained cdc event", slog.String("kind", evt.Kind.String()), slog.Int64("schedule_id", evt.ScheduleID))
		default:
			return drained
		}
	}
}
