package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/strikepoint/server/internal/game/encounter"
)

// LogStore is an in-memory encounter.LogStore.
type LogStore struct {
	mu     sync.Mutex
	events map[string][]*encounter.LogEvent
}

// NewLogStore creates an empty LogStore.
func NewLogStore() *LogStore {
	return &LogStore{events: make(map[string][]*encounter.LogEvent)}
}

// NextSeq returns one past the highest stored sequence for the session.
func (l *LogStore) NextSeq(ctx context.Context, combatID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	max := 0
	for _, ev := range l.events[combatID] {
		if ev.Seq > max {
			max = ev.Seq
		}
	}
	return max + 1, nil
}

// Append stores one event, rejecting duplicate (combat id, seq) pairs.
func (l *LogStore) Append(ctx context.Context, event *encounter.LogEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Seq < 1 {
		return fmt.Errorf("combat log seq must be >= 1, got %d", event.Seq)
	}
	for _, ev := range l.events[event.CombatID] {
		if ev.Seq == event.Seq {
			return encounter.ErrDuplicateLogSeq
		}
	}

	cp := *event
	l.events[event.CombatID] = append(l.events[event.CombatID], &cp)
	return nil
}

// List returns copies of the session's events in sequence order.
func (l *LogStore) List(ctx context.Context, combatID string) ([]*encounter.LogEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	events := l.events[combatID]
	out := make([]*encounter.LogEvent, len(events))
	for i, ev := range events {
		cp := *ev
		out[i] = &cp
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}
