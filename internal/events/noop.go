package events

import (
	"context"

	pubevts "github.com/Niv-Kor/PlayerTwoServer/pkg/events"
)

// NoopPublisher discards every event. It stands in for the AMQP publisher
// when no broker URL is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishSessionCreated(context.Context, pubevts.SessionCreatedEvent) error {
	return nil
}

func (NoopPublisher) PublishPlayerJoined(context.Context, pubevts.PlayerJoinedEvent) error {
	return nil
}

func (NoopPublisher) PublishSessionStarted(context.Context, pubevts.SessionStartedEvent) error {
	return nil
}

func (NoopPublisher) PublishSessionEnded(context.Context, pubevts.SessionEndedEvent) error {
	return nil
}
