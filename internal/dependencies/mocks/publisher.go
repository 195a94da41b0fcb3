package mocks

import (
	"sync"

	"github.com/pairwise-games/stakeroom/internal/model"
	"github.com/pairwise-games/stakeroom/internal/stream"
)

// PublishedSnapshot is one recorded PublishSnapshots call
type PublishedSnapshot struct {
	Challenges []*model.Challenge
	Matches    []model.MatchView
}

// SentEvent is one recorded SendTo call
type SentEvent struct {
	ConnID model.ConnectionID
	Event  model.Event
}

// MockPublisher records published snapshots and directed events for testing
type MockPublisher struct {
	mu        sync.Mutex
	Snapshots []PublishedSnapshot
	Sent      []SentEvent
	Seeded    []model.ConnectionID
}

// Ensure MockPublisher implements Publisher
var _ stream.Publisher = (*MockPublisher)(nil)

// NewMockPublisher creates a new MockPublisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// PublishSnapshots records the snapshot broadcast
func (p *MockPublisher) PublishSnapshots(challenges []*model.Challenge, matches []model.MatchView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Snapshots = append(p.Snapshots, PublishedSnapshot{Challenges: challenges, Matches: matches})
}

// SendTo records the directed event
func (p *MockPublisher) SendTo(connID model.ConnectionID, event model.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Sent = append(p.Sent, SentEvent{ConnID: connID, Event: event})
}

// SendSnapshotTo records the seed target
func (p *MockPublisher) SendSnapshotTo(connID model.ConnectionID, challenges []*model.Challenge, matches []model.MatchView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Seeded = append(p.Seeded, connID)
}

// LastSnapshot returns the most recent snapshot broadcast, or nil
func (p *MockPublisher) LastSnapshot() *PublishedSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Snapshots) == 0 {
		return nil
	}
	s := p.Snapshots[len(p.Snapshots)-1]
	return &s
}

// EventsFor returns the directed events sent to a connection, by type
func (p *MockPublisher) EventsFor(connID model.ConnectionID, eventType model.EventType) []model.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var events []model.Event
	for _, sent := range p.Sent {
		if sent.ConnID == connID && sent.Event.Type == eventType {
			events = append(events, sent.Event)
		}
	}
	return events
}

// Reset clears all recorded calls
func (p *MockPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Snapshots = nil
	p.Sent = nil
	p.Seeded = nil
}
