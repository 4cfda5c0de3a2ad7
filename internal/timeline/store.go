// Package timeline maintains the append-only negotiation log for one
// deal view: newest-first ordering, cursor pagination toward older
// events, and coalescing of load triggers while a fetch is in flight.
package timeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/tgadmarket/miniapp/internal/models"
)

// Service is the slice of the marketplace API the store needs.
type Service interface {
	ListTimelineEvents(ctx context.Context, dealID int64, cursor *string, limit int) (*models.TimelinePage, error)
}

// Snapshot is an immutable view of the loaded log. Events are ordered
// newest first; older pages extend the tail.
type Snapshot struct {
	DealID  int64
	Events  []models.TimelineEvent
	HasMore bool
	Loading bool
}

type Store struct {
	service Service
	limit   int

	mu          sync.Mutex
	dealID      int64
	events      []models.TimelineEvent
	seen        map[string]struct{}
	nextCursor  *string
	inFlight    bool
	generation  uint64
	subscribers map[int]func(Snapshot)
	nextSubID   int
}

func NewStore(service Service, limit int) *Store {
	return &Store{
		service:     service,
		limit:       limit,
		seen:        make(map[string]struct{}),
		subscribers: make(map[int]func(Snapshot)),
	}
}

// Subscribe registers an observer called with a fresh snapshot after
// every state change. The returned function unsubscribes.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	events := make([]models.TimelineEvent, len(s.events))
	copy(events, s.events)
	return Snapshot{
		DealID:  s.dealID,
		Events:  events,
		HasMore: s.nextCursor != nil,
		Loading: s.inFlight,
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	snapshot := s.snapshotLocked()
	observers := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()
	for _, fn := range observers {
		fn(snapshot)
	}
}

// LoadInitial restarts the log for dealID and fetches the newest page.
// Any pages still in flight for a previous deal are dropped when they
// land: their generation no longer matches.
func (s *Store) LoadInitial(ctx context.Context, dealID int64) error {
	s.mu.Lock()
	s.dealID = dealID
	s.events = nil
	s.seen = make(map[string]struct{})
	s.nextCursor = nil
	s.generation++
	gen := s.generation
	s.inFlight = true
	s.mu.Unlock()
	s.notify()

	page, err := s.service.ListTimelineEvents(ctx, dealID, nil, s.limit)

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return nil
	}
	s.inFlight = false
	if err != nil {
		s.mu.Unlock()
		s.notify()
		return fmt.Errorf("loading timeline for deal %d: %w", dealID, err)
	}
	s.appendLocked(page)
	s.mu.Unlock()
	s.notify()
	return nil
}

// LoadOlder fetches the next older page. It is a no-op when the log is
// exhausted or a fetch is already in flight, so repeated sentinel
// triggers coalesce into at most one pending request.
func (s *Store) LoadOlder(ctx context.Context) error {
	s.mu.Lock()
	if s.inFlight || s.nextCursor == nil {
		s.mu.Unlock()
		return nil
	}
	cursor := *s.nextCursor
	dealID := s.dealID
	gen := s.generation
	s.inFlight = true
	s.mu.Unlock()
	s.notify()

	page, err := s.service.ListTimelineEvents(ctx, dealID, &cursor, s.limit)

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return nil
	}
	s.inFlight = false
	if err != nil {
		s.mu.Unlock()
		s.notify()
		return fmt.Errorf("loading older timeline events for deal %d: %w", dealID, err)
	}
	s.appendLocked(page)
	s.mu.Unlock()
	s.notify()
	return nil
}

// Prepend inserts a locally-produced event at the newest end, used for
// optimistic proposal echoes before the next server fetch.
func (s *Store) Prepend(event models.TimelineEvent) {
	s.mu.Lock()
	key := event.Identity()
	if _, dup := s.seen[key]; !dup {
		s.seen[key] = struct{}{}
		s.events = append([]models.TimelineEvent{event}, s.events...)
	}
	s.mu.Unlock()
	s.notify()
}

// appendLocked extends the tail with a page of older events, dropping
// anything already loaded. Loaded events are never reordered.
func (s *Store) appendLocked(page *models.TimelinePage) {
	for _, event := range page.Items {
		key := event.Identity()
		if _, dup := s.seen[key]; dup {
			continue
		}
		s.seen[key] = struct{}{}
		s.events = append(s.events, event)
	}
	s.nextCursor = page.NextCursor
}

// LatestProposalActor scans for the newest proposal event and returns
// its actor id, or false when no proposal exists yet.
func (s *Store) LatestProposalActor() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range s.events {
		if event.EventType == models.EventProposal && event.ActorID != nil {
			return *event.ActorID, true
		}
	}
	return 0, false
}

// LatestProposal returns the newest proposal event, if any.
func (s *Store) LatestProposal() (*models.TimelineEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].EventType == models.EventProposal {
			event := s.events[i]
			return &event, true
		}
	}
	return nil, false
}
