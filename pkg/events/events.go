package events

import "time"

const (
	// Exchanges for session lifecycle events
	ExchangeSessionCreated = "session.created"
	ExchangePlayerJoined   = "session.player.joined"
	ExchangeSessionStarted = "session.started"
	ExchangeSessionEnded   = "session.ended"

	ContentType = "application/json"
)

// SessionCreatedEvent represents a new game session being opened.
type SessionCreatedEvent struct {
	SessionID string    `json:"session_id"`
	Game      string    `json:"game"`
	HostName  string    `json:"host_name"`
	Reserved  bool      `json:"reserved"`
	CreatedAt time.Time `json:"created_at"`
}

// PlayerJoinedEvent represents a player subscribing to a session.
type PlayerJoinedEvent struct {
	SessionID   string    `json:"session_id"`
	Game        string    `json:"game"`
	PlayerName  string    `json:"player_name"`
	PlayerCount int       `json:"current_player_count"`
	Players     []string  `json:"players"`
	JoinedAt    time.Time `json:"joined_at"`
}

// SessionStartedEvent represents a full session entering play.
type SessionStartedEvent struct {
	SessionID string    `json:"session_id"`
	Game      string    `json:"game"`
	Players   []string  `json:"players"`
	StartedAt time.Time `json:"started_at"`
}

// SessionEndedEvent represents a session leaving play, whether the game
// finished or a player disconnected.
type SessionEndedEvent struct {
	SessionID string    `json:"session_id"`
	Game      string    `json:"game"`
	State     string    `json:"state"`
	EndedAt   time.Time `json:"ended_at"`
}
