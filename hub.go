package main

import (
	"errors"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Hub tracks every live connection and wires inbound events to the Store and
// to the other occupant of the sender's room.
type Hub struct {
	store   *Store
	rejoin  *RejoinJWT
	clients map[string]*Client
	lock    sync.RWMutex
}

func NewHub(store *Store, rejoin *RejoinJWT) *Hub {
	return &Hub{
		store:   store,
		rejoin:  rejoin,
		clients: make(map[string]*Client),
	}
}

func (h *Hub) register(c *Client) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.clients[c.ID()] = c
}

func (h *Hub) unregister(id string) {
	h.lock.Lock()
	defer h.lock.Unlock()
	delete(h.clients, id)
}

// BroadcastRoomList pushes the current snapshot to every connected client,
// room members or not.
func (h *Hub) BroadcastRoomList() {
	rooms := h.store.ListRooms()
	h.lock.RLock()
	defer h.lock.RUnlock()
	for _, client := range h.clients {
		client.SendRoomList(rooms)
	}
}

func (h *Hub) sendTo(ids []string, event string, data any) {
	h.lock.RLock()
	defer h.lock.RUnlock()
	for _, id := range ids {
		if client, ok := h.clients[id]; ok {
			client.Send(event, data)
		}
	}
}

// HandleConnection runs the full lifecycle of one websocket connection:
// register, optional rejoin, event loop, disconnect cleanup. It returns when
// the transport drops.
func (h *Hub) HandleConnection(conn net.Conn, remoteAddr, rejoinKey string) {
	client := NewClient(uuid.NewString(), conn)
	logger := GetConnLogger(remoteAddr, client.ID())
	h.register(client)
	logger.Connected()
	client.SendWelcome()

	if roomID := h.rejoin.RoomIDFromRejoinKey(rejoinKey); roomID != "" {
		if snapshot, err := h.store.JoinRoom(roomID, client.ID()); err == nil {
			client.SendRoomJoined(snapshot.Variant, snapshot.ID)
			h.issueRejoinKey(client, snapshot.ID)
			h.sendTo(snapshot.Opponents(client.ID()), snapshot.Variant+"player-joined", PlayerJoinedPayload{PlayerID: client.ID()})
			h.BroadcastRoomList()
			logger.RejoinedRoom(snapshot.ID)
		}
	}

	done := make(chan struct{})
	go h.rejoinKeyLoop(client, done)

	for {
		msg, variant, err := client.ReadMessage()
		if err != nil {
			if errors.Is(err, ErrUndefinedEvent) || errors.Is(err, ErrMalformedData) {
				client.SendRoomError(variant, err)
				continue
			}
			break
		}
		h.dispatch(client, variant, msg, logger)
	}

	close(done)
	h.disconnect(client, logger)
}

// rejoinKeyLoop refreshes the client's rejoin key while it occupies a room.
func (h *Hub) rejoinKeyLoop(client *Client, done chan struct{}) {
	ticker := time.NewTicker(rejoinKeySendFreq)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if snapshot, ok := h.store.GetPlayerRoom(client.ID()); ok {
				h.issueRejoinKey(client, snapshot.ID)
			}
		case <-done:
			return
		}
	}
}

func (h *Hub) issueRejoinKey(client *Client, roomID string) {
	key, err := h.rejoin.GenerateRejoinKey(roomID)
	if err != nil {
		return
	}
	client.SendRejoinKey(key)
}

// disconnect is the single cleanup path for both explicit close and abrupt
// drop. Safe to reach with the client never having entered a room.
func (h *Hub) disconnect(client *Client, logger ConnLogger) {
	h.unregister(client.ID())
	if snapshot, _, ok := h.store.LeaveRoom(client.ID()); ok {
		h.sendTo(snapshot.Members, snapshot.Variant+"player-left", PlayerLeftPayload{PlayerID: client.ID()})
		h.BroadcastRoomList()
		logger.LeftRoom(snapshot.ID)
	}
	client.Close()
	logger.Disconnected()
}

func (h *Hub) dispatch(client *Client, variant string, msg any, logger ConnLogger) {
	switch m := msg.(type) {
	case CreateRoomMessage:
		h.handleCreateRoom(client, variant, logger)
	case JoinRoomMessage:
		h.handleJoinRoom(client, variant, m.RoomID, logger)
	case LeaveRoomMessage:
		h.handleLeaveRoom(client, variant, logger)
	case GetRoomsMessage:
		client.SendRoomList(h.store.ListRooms())
	case ReadyMessage:
		h.handleReady(client, variant)
	case MoveMessage:
		h.relayToOpponents(client, variant, "opponent-move", OpponentMovePayload{Row: m.Row, Col: m.Col})
	case OfferMessage:
		h.relayToOpponents(client, variant, "webrtc-offer", OfferRelayPayload{Offer: m.Offer, From: client.ID()})
	case AnswerMessage:
		h.relayToOpponents(client, variant, "webrtc-answer", AnswerRelayPayload{Answer: m.Answer, From: client.ID()})
	case CandidateMessage:
		h.relayToOpponents(client, variant, "ice-candidate", CandidateRelayPayload{Candidate: m.Candidate, From: client.ID()})
	case RestartGameMessage:
		h.handleRestartGame(client, variant)
	case RequestRestartMessage:
		h.handleRequestRestart(client, variant)
	case RequestUndoMessage:
		h.handleRequestUndo(client, variant)
	case AcceptUndoMessage:
		h.handleAcceptUndo(client, variant)
	case SurrenderMessage:
		h.handleSurrender(client, variant)
	}
}

func (h *Hub) handleCreateRoom(client *Client, variant string, logger ConnLogger) {
	snapshot, err := h.store.CreateRoom(client.ID(), variant)
	if err != nil {
		client.SendRoomError(variant, err)
		logger.RoomError(err)
		return
	}
	client.SendRoomCreated(variant, snapshot.ID)
	h.issueRejoinKey(client, snapshot.ID)
	h.BroadcastRoomList()
	logger.CreatedRoom(snapshot.ID)
}

func (h *Hub) handleJoinRoom(client *Client, variant, roomID string, logger ConnLogger) {
	snapshot, err := h.store.JoinRoom(roomID, client.ID())
	if err != nil {
		client.SendRoomError(variant, err)
		logger.RoomError(err)
		return
	}
	client.SendRoomJoined(variant, snapshot.ID)
	h.issueRejoinKey(client, snapshot.ID)
	h.sendTo(snapshot.Opponents(client.ID()), snapshot.Variant+"player-joined", PlayerJoinedPayload{PlayerID: client.ID()})
	h.BroadcastRoomList()
	logger.JoinedRoom(snapshot.ID)
}

func (h *Hub) handleLeaveRoom(client *Client, variant string, logger ConnLogger) {
	snapshot, _, ok := h.store.LeaveRoom(client.ID())
	if !ok {
		client.SendRoomError(variant, ErrNotInRoom)
		return
	}
	h.sendTo(snapshot.Members, snapshot.Variant+"player-left", PlayerLeftPayload{PlayerID: client.ID()})
	h.BroadcastRoomList()
	logger.LeftRoom(snapshot.ID)
}

// handleReady gates game start on both members having signaled since the
// last restart. The color draw is fresh on every trigger.
func (h *Hub) handleReady(client *Client, variant string) {
	snapshot, start, err := h.store.MarkReady(client.ID())
	if err != nil {
		client.SendRoomError(variant, err)
		return
	}
	if !start {
		return
	}
	h.startGame(snapshot)
}

func (h *Hub) startGame(snapshot RoomSnapshot) {
	colors := drawColors()
	h.lock.RLock()
	defer h.lock.RUnlock()
	for i, member := range snapshot.Members {
		client, ok := h.clients[member]
		if !ok {
			continue
		}
		opponent := snapshot.Members[(i+1)%maxMembers]
		client.SendGameStart(snapshot.Variant, colors[i], opponent)
	}
	LogGameStarted(snapshot.ID)
}

// drawColors assigns 1 (black, first mover) and 2 (white) by a fresh fair
// draw on every call.
func drawColors() [maxMembers]int {
	colors := [maxMembers]int{1, 2}
	if rand.Intn(2) == 1 {
		colors[0], colors[1] = colors[1], colors[0]
	}
	return colors
}

func (h *Hub) handleRestartGame(client *Client, variant string) {
	snapshot, err := h.store.ResetReady(client.ID())
	if err != nil {
		client.SendRoomError(variant, err)
		return
	}
	h.sendTo(snapshot.Members, snapshot.Variant+"game-restart", nil)
}

func (h *Hub) handleRequestRestart(client *Client, variant string) {
	snapshot, restart, err := h.store.RequestRestart(client.ID())
	if err != nil {
		client.SendRoomError(variant, err)
		return
	}
	if restart {
		h.sendTo(snapshot.Members, snapshot.Variant+"game-restart", nil)
		return
	}
	h.sendTo(snapshot.Opponents(client.ID()), snapshot.Variant+"restart-request", RestartRequestPayload{From: client.ID()})
}

func (h *Hub) handleRequestUndo(client *Client, variant string) {
	snapshot, err := h.store.RequestUndo(client.ID())
	if err != nil {
		client.SendRoomError(variant, err)
		return
	}
	h.sendTo(snapshot.Opponents(client.ID()), snapshot.Variant+"undo-request", UndoRequestPayload{From: client.ID()})
}

// handleAcceptUndo trusts the accepting side: undo-move goes to the whole
// room without re-checking the original request.
func (h *Hub) handleAcceptUndo(client *Client, variant string) {
	snapshot, err := h.store.AcceptUndo(client.ID())
	if err != nil {
		client.SendRoomError(variant, err)
		return
	}
	h.sendTo(snapshot.Members, snapshot.Variant+"undo-move", nil)
}

// handleSurrender notifies the opponent only, with the winner color derived
// from the opponent's seat (index 0 plays color 1).
func (h *Hub) handleSurrender(client *Client, variant string) {
	snapshot, ok := h.store.GetPlayerRoom(client.ID())
	if !ok {
		client.SendRoomError(variant, ErrNotInRoom)
		return
	}
	for _, opponent := range snapshot.Opponents(client.ID()) {
		winner := snapshot.MemberIndex(opponent) + 1
		h.sendTo([]string{opponent}, snapshot.Variant+"opponent-surrender", SurrenderPayload{Winner: winner})
	}
}

func (h *Hub) relayToOpponents(client *Client, variant, event string, data any) {
	snapshot, ok := h.store.GetPlayerRoom(client.ID())
	if !ok {
		client.SendRoomError(variant, ErrNotInRoom)
		return
	}
	h.sendTo(snapshot.Opponents(client.ID()), snapshot.Variant+event, data)
}
