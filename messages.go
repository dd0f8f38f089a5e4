package main

import (
	"encoding/json"
	"strings"
)

func UnmarshalJSON[T any](data []byte) T {
	var parsed T
	json.Unmarshal(data, &parsed)
	return parsed
}

// DecodeJSON is the fallible sibling of UnmarshalJSON, used on inbound
// payloads where structurally invalid data must be rejected rather than
// flattened to a zero value.
func DecodeJSON[T any](data []byte) (T, error) {
	var parsed T
	err := json.Unmarshal(data, &parsed)
	return parsed, err
}

// Envelope is the wire shape for both directions:
// {"event": "...", "data": {...}}
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// VariantTTT routes the tic-tac-toe flavour of every event. The room and
// relay logic is identical for both games; the prefix is carried back onto
// reply and relay event names so each client only sees its own vocabulary.
const VariantTTT = "ttt-"

func SplitVariant(event string) (variant, name string) {
	if strings.HasPrefix(event, VariantTTT) {
		return VariantTTT, strings.TrimPrefix(event, VariantTTT)
	}
	return "", event
}

// Client → server payloads.

type CreateRoomMessage struct{}

type JoinRoomMessage struct {
	RoomID string `json:"roomId"`
}

type LeaveRoomMessage struct {
	RoomID string `json:"roomId"`
}

type GetRoomsMessage struct{}

type ReadyMessage struct{}

type MoveMessage struct {
	RoomID string `json:"roomId"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
}

type OfferMessage struct {
	RoomID string          `json:"roomId"`
	Offer  json.RawMessage `json:"offer"`
}

type AnswerMessage struct {
	RoomID string          `json:"roomId"`
	Answer json.RawMessage `json:"answer"`
}

type CandidateMessage struct {
	RoomID    string          `json:"roomId"`
	Candidate json.RawMessage `json:"candidate"`
}

type RestartGameMessage struct {
	RoomID string `json:"roomId"`
}

type RequestRestartMessage struct {
	RoomID string `json:"roomId"`
}

type RequestUndoMessage struct {
	RoomID string `json:"roomId"`
}

type AcceptUndoMessage struct {
	RoomID string `json:"roomId"`
}

type SurrenderMessage struct {
	RoomID string `json:"roomId"`
}

// Server → client payloads.

type WelcomePayload struct {
	PlayerID string `json:"playerId"`
}

type RoomCreatedPayload struct {
	RoomID string `json:"roomId"`
	IsHost bool   `json:"isHost"`
}

type RoomJoinedPayload struct {
	RoomID string `json:"roomId"`
	IsHost bool   `json:"isHost"`
}

type RoomErrorPayload struct {
	Message string `json:"message"`
}

type PlayerJoinedPayload struct {
	PlayerID string `json:"playerId"`
}

type PlayerLeftPayload struct {
	PlayerID string `json:"playerId"`
}

type GameStartPayload struct {
	PlayerColor int    `json:"playerColor"`
	OpponentID  string `json:"opponentId"`
}

type OpponentMovePayload struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type OfferRelayPayload struct {
	Offer json.RawMessage `json:"offer"`
	From  string          `json:"from"`
}

type AnswerRelayPayload struct {
	Answer json.RawMessage `json:"answer"`
	From   string          `json:"from"`
}

type CandidateRelayPayload struct {
	Candidate json.RawMessage `json:"candidate"`
	From      string          `json:"from"`
}

type RestartRequestPayload struct {
	From string `json:"from"`
}

type UndoRequestPayload struct {
	From string `json:"from"`
}

type SurrenderPayload struct {
	Winner int `json:"winner"`
}

type RejoinKeyPayload struct {
	Key string `json:"key"`
}
