// Package hub implements the connection lifecycle controller for the
// broadcast hub: it sequences join, chat, and disconnect events against
// the session store and fans resulting events out to room members.
package hub

import (
	"encoding/json"
	"fmt"
)

// Event names on the transport channel.
const (
	// EventJoinRoom is sent by a client to declare its identity and room.
	EventJoinRoom = "join room"
	// EventChatMessage carries chat text in both directions.
	EventChatMessage = "chat message"
	// EventSystemMessage carries a human-readable join/leave announcement.
	EventSystemMessage = "system message"
	// EventUserList carries a full member-list snapshot, not a diff.
	EventUserList = "update user list"
)

// Envelope frames every event on the transport channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// JoinRequest is the client payload of a join room event.
type JoinRequest struct {
	Nickname string `json:"nickname"`
	Room     string `json:"room"`
}

// ChatMessage is the room-facing payload of a chat message event.
type ChatMessage struct {
	Nickname string `json:"nickname"`
	Message  string `json:"message"`
}

// UserList is the member snapshot broadcast on every membership change.
type UserList struct {
	RoomName string   `json:"roomName"`
	UserList []string `json:"userList"`
}

// encodeEvent marshals a payload and wraps it in an Envelope.
//
// Postcondition: Returns the serialized envelope or a non-nil error.
func encodeEvent(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s payload: %w", event, err)
	}
	raw, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return nil, fmt.Errorf("marshaling %s envelope: %w", event, err)
	}
	return raw, nil
}
