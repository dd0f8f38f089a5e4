package main

import (
	"encoding/json"
	"errors"
	"net"
	"sync"

	"github.com/gobwas/ws/wsutil"
)

var (
	ErrUndefinedEvent = errors.New("undefined event")
	ErrMalformedData  = errors.New("malformed event data")
)

const sendQueueSize = 64

// Client wraps one upgraded websocket connection. A single writer goroutine
// drains the send queue, so outbound delivery order matches enqueue order.
type Client struct {
	id     string
	conn   net.Conn
	send   chan []byte
	mu     sync.Mutex
	closed bool
}

func NewClient(id string, conn net.Conn) *Client {
	c := &Client{
		id:   id,
		conn: conn,
		send: make(chan []byte, sendQueueSize),
	}
	go c.writeLoop()
	return c
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) writeLoop() {
	for msg := range c.send {
		if err := wsutil.WriteServerText(c.conn, msg); err != nil {
			c.conn.Close()
			return
		}
	}
	c.conn.Close()
}

// Send enqueues a named event. A full queue means the peer has stopped
// reading, so the connection is dropped rather than blocking the sender.
func (c *Client) Send(event string, data any) {
	var raw json.RawMessage
	if data != nil {
		raw, _ = json.Marshal(data)
	}
	encoded, _ := json.Marshal(Envelope{Event: event, Data: raw})
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- encoded:
	default:
		c.closed = true
		close(c.send)
	}
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ReadMessage blocks for the next inbound frame and returns one of the
// typed client → server message structs plus the game variant prefix the
// event arrived with. Unknown event names yield ErrUndefinedEvent and
// structurally invalid payloads yield ErrMalformedData.
func (c *Client) ReadMessage() (any, string, error) {
	msg, err := wsutil.ReadClientText(c.conn)
	if err != nil {
		return nil, "", err
	}
	envelope, err := DecodeJSON[Envelope](msg)
	if err != nil {
		return nil, "", ErrMalformedData
	}
	variant, name := SplitVariant(envelope.Event)
	var parsed any
	var decodeErr error
	switch name {
	case "create-room":
		parsed = CreateRoomMessage{}
	case "join-room":
		parsed, decodeErr = DecodeJSON[JoinRoomMessage](msgData(envelope))
	case "leave-room":
		parsed, decodeErr = DecodeJSON[LeaveRoomMessage](msgData(envelope))
	case "get-rooms":
		parsed = GetRoomsMessage{}
	case "ready-to-play":
		parsed = ReadyMessage{}
	case "make-move":
		parsed, decodeErr = DecodeJSON[MoveMessage](msgData(envelope))
	case "webrtc-offer":
		parsed, decodeErr = DecodeJSON[OfferMessage](msgData(envelope))
	case "webrtc-answer":
		parsed, decodeErr = DecodeJSON[AnswerMessage](msgData(envelope))
	case "ice-candidate":
		parsed, decodeErr = DecodeJSON[CandidateMessage](msgData(envelope))
	case "restart-game":
		parsed, decodeErr = DecodeJSON[RestartGameMessage](msgData(envelope))
	case "request-restart", "accept-restart":
		parsed, decodeErr = DecodeJSON[RequestRestartMessage](msgData(envelope))
	case "request-undo":
		parsed, decodeErr = DecodeJSON[RequestUndoMessage](msgData(envelope))
	case "accept-undo":
		parsed, decodeErr = DecodeJSON[AcceptUndoMessage](msgData(envelope))
	case "surrender":
		parsed, decodeErr = DecodeJSON[SurrenderMessage](msgData(envelope))
	default:
		return nil, variant, ErrUndefinedEvent
	}
	if decodeErr != nil {
		return nil, variant, ErrMalformedData
	}
	return parsed, variant, nil
}

func msgData(envelope Envelope) []byte {
	if envelope.Data == nil {
		return []byte("{}")
	}
	return envelope.Data
}

func (c *Client) SendWelcome() {
	c.Send("welcome", WelcomePayload{PlayerID: c.id})
}

func (c *Client) SendRoomCreated(variant, roomID string) {
	c.Send(variant+"room-created", RoomCreatedPayload{RoomID: roomID, IsHost: true})
}

func (c *Client) SendRoomJoined(variant, roomID string) {
	c.Send(variant+"room-joined", RoomJoinedPayload{RoomID: roomID, IsHost: false})
}

func (c *Client) SendRoomError(variant string, err error) {
	c.Send(variant+"room-error", RoomErrorPayload{Message: err.Error()})
}

func (c *Client) SendRoomList(rooms []RoomInfo) {
	c.Send("room-list", rooms)
}

func (c *Client) SendGameStart(variant string, color int, opponentID string) {
	c.Send(variant+"game-start", GameStartPayload{PlayerColor: color, OpponentID: opponentID})
}

func (c *Client) SendRejoinKey(key string) {
	c.Send("rejoin-key", RejoinKeyPayload{Key: key})
}
