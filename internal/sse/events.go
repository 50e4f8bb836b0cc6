// Package sse implements Server-Sent Events for pushing collection and team
// choice changes to connected browsers and CLI clients.
package sse

import (
	"time"

	"github.com/gameshelf/gameshelf-server/internal/flags"
)

// EventType is the SSE event name written on the "event:" line.
type EventType string

const (
	// EventConnected is sent once when a stream opens.
	EventConnected EventType = "connected"
	// EventHeartbeat keeps idle connections alive.
	EventHeartbeat EventType = "heartbeat"
	// EventCollectionUpdated reports a favorite/owned toggle to the session that made it.
	EventCollectionUpdated EventType = "game_collection_updated"
	// EventTeamChoiceUpdated reports an editorial pick change to every client.
	EventTeamChoiceUpdated EventType = "team_choice_updated"
	// EventGameRemoved tells clients to drop a deleted game from their views.
	EventGameRemoved EventType = "game_removed"
	// EventSubmissionCreated is sent to admins when a user submits a game.
	EventSubmissionCreated EventType = "submission_created"
)

// Event is one queued SSE message. Data is written as the JSON payload;
// the routing fields never leave the server.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// SessionID, when set, restricts delivery to clients of that session.
	SessionID string `json:"-"`
	// UserID, when set, restricts delivery to that user's clients.
	UserID string `json:"-"`
	// AdminOnly restricts delivery to admin clients.
	AdminOnly bool `json:"-"`
}

// CollectionUpdatedData is the game_collection_updated payload.
type CollectionUpdatedData struct {
	GameID     int64      `json:"game_id"`
	ActionType flags.Type `json:"action_type"`
	IsActive   bool       `json:"is_active"`
}

// TeamChoiceUpdatedData is the team_choice_updated payload.
type TeamChoiceUpdatedData struct {
	GameID   int64 `json:"game_id"`
	IsActive bool  `json:"is_active"`
}

// GameRemovedData is the game_removed payload.
type GameRemovedData struct {
	GameID int64 `json:"game_id"`
}

// SubmissionCreatedData is the submission_created payload.
type SubmissionCreatedData struct {
	SubmissionID string `json:"submission_id"`
	GameID       int64  `json:"game_id"`
	Title        string `json:"title"`
	SubmittedBy  string `json:"submitted_by"`
}

// NewCollectionUpdatedEvent creates an event scoped to one session.
func NewCollectionUpdatedEvent(userID, sessionID string, gameID int64, t flags.Type, active bool) Event {
	return Event{
		Type:      EventCollectionUpdated,
		Timestamp: time.Now(),
		UserID:    userID,
		SessionID: sessionID,
		Data:      CollectionUpdatedData{GameID: gameID, ActionType: t, IsActive: active},
	}
}

// NewTeamChoiceUpdatedEvent creates an event for every client.
func NewTeamChoiceUpdatedEvent(gameID int64, active bool) Event {
	return Event{
		Type:      EventTeamChoiceUpdated,
		Timestamp: time.Now(),
		Data:      TeamChoiceUpdatedData{GameID: gameID, IsActive: active},
	}
}

// NewGameRemovedEvent creates an event for every client.
func NewGameRemovedEvent(gameID int64) Event {
	return Event{
		Type:      EventGameRemoved,
		Timestamp: time.Now(),
		Data:      GameRemovedData{GameID: gameID},
	}
}

// NewSubmissionCreatedEvent creates an admin-only event.
func NewSubmissionCreatedEvent(data SubmissionCreatedData) Event {
	return Event{
		Type:      EventSubmissionCreated,
		Timestamp: time.Now(),
		AdminOnly: true,
		Data:      data,
	}
}

// NewHeartbeatEvent creates a keepalive event.
func NewHeartbeatEvent() Event {
	return Event{
		Type:      EventHeartbeat,
		Timestamp: time.Now(),
		Data:      map[string]any{},
	}
}
