package server

import (
	"context"
	"sync"

	pubevts "github.com/Niv-Kor/PlayerTwoServer/pkg/events"
)

var _ Publisher = &publisherMock{}

type publisherMock struct {
	publishSessionCreatedFunc func(ctx context.Context, event pubevts.SessionCreatedEvent) error
	publishPlayerJoinedFunc   func(ctx context.Context, event pubevts.PlayerJoinedEvent) error
	publishSessionStartedFunc func(ctx context.Context, event pubevts.SessionStartedEvent) error
	publishSessionEndedFunc   func(ctx context.Context, event pubevts.SessionEndedEvent) error

	mu      sync.Mutex
	created []pubevts.SessionCreatedEvent
	joined  []pubevts.PlayerJoinedEvent
	started []pubevts.SessionStartedEvent
	ended   []pubevts.SessionEndedEvent
}

func (m *publisherMock) PublishSessionCreated(ctx context.Context, event pubevts.SessionCreatedEvent) error {
	m.mu.Lock()
	m.created = append(m.created, event)
	m.mu.Unlock()

	if m.publishSessionCreatedFunc != nil {
		return m.publishSessionCreatedFunc(ctx, event)
	}
	return nil
}

func (m *publisherMock) PublishPlayerJoined(ctx context.Context, event pubevts.PlayerJoinedEvent) error {
	m.mu.Lock()
	m.joined = append(m.joined, event)
	m.mu.Unlock()

	if m.publishPlayerJoinedFunc != nil {
		return m.publishPlayerJoinedFunc(ctx, event)
	}
	return nil
}

func (m *publisherMock) PublishSessionStarted(ctx context.Context, event pubevts.SessionStartedEvent) error {
	m.mu.Lock()
	m.started = append(m.started, event)
	m.mu.Unlock()

	if m.publishSessionStartedFunc != nil {
		return m.publishSessionStartedFunc(ctx, event)
	}
	return nil
}

func (m *publisherMock) PublishSessionEnded(ctx context.Context, event pubevts.SessionEndedEvent) error {
	m.mu.Lock()
	m.ended = append(m.ended, event)
	m.mu.Unlock()

	if m.publishSessionEndedFunc != nil {
		return m.publishSessionEndedFunc(ctx, event)
	}
	return nil
}

func (m *publisherMock) createdEvents() []pubevts.SessionCreatedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]pubevts.SessionCreatedEvent(nil), m.created...)
}

func (m *publisherMock) joinedEvents() []pubevts.PlayerJoinedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]pubevts.PlayerJoinedEvent(nil), m.joined...)
}

func (m *publisherMock) startedEvents() []pubevts.SessionStartedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]pubevts.SessionStartedEvent(nil), m.started...)
}

func (m *publisherMock) endedEvents() []pubevts.SessionEndedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]pubevts.SessionEndedEvent(nil), m.ended...)
}
