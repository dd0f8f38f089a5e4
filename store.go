package main

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomFull      = errors.New("room is full")
	ErrAlreadyInRoom = errors.New("already in a room")
	ErrNotInRoom     = errors.New("not in a room")
)

// Store owns every active room and the connection registry. A single lock
// covers both so that create/join/leave/ready/restart sequences are
// linearizable across connections.
type Store struct {
	rooms    map[string]*Room
	registry Registry
	lock     sync.RWMutex
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewStore() *Store {
	return &Store{
		rooms:    make(map[string]*Room),
		registry: NewRegistry(),
		stopCh:   make(chan struct{}),
	}
}

// CreateRoom never fails: code generation retries until it finds an ID not
// held by any active room. The variant prefix is remembered so later
// notifications for this room use the vocabulary it was created with.
func (s *Store) CreateRoom(conn, variant string) (RoomSnapshot, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.registry.RoomOf(conn); ok {
		return RoomSnapshot{}, ErrAlreadyInRoom
	}
	var id string
	for {
		id = GenerateRoomCode()
		if _, exists := s.rooms[id]; !exists {
			break
		}
	}
	room := NewRoomWithHost(id, conn, variant, time.Now())
	s.rooms[id] = room
	s.registry.Bind(conn, id)
	return room.Snapshot(), nil
}

func (s *Store) JoinRoom(roomID, conn string) (RoomSnapshot, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	room, exists := s.rooms[roomID]
	if !exists {
		return RoomSnapshot{}, ErrRoomNotFound
	}
	if room.IsMember(conn) {
		return RoomSnapshot{}, ErrAlreadyInRoom
	}
	if _, ok := s.registry.RoomOf(conn); ok {
		return RoomSnapshot{}, ErrAlreadyInRoom
	}
	if room.IsFull() {
		return RoomSnapshot{}, ErrRoomFull
	}
	room.AddMember(conn)
	s.registry.Bind(conn, roomID)
	return room.Snapshot(), nil
}

// LeaveRoom removes conn from its room, deleting the room once empty.
// Returns the post-removal snapshot so the caller can notify the remaining
// member; ok is false when conn was not in any room.
func (s *Store) LeaveRoom(conn string) (snapshot RoomSnapshot, deleted, ok bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	roomID, inRoom := s.registry.RoomOf(conn)
	if !inRoom {
		return RoomSnapshot{}, false, false
	}
	room := s.rooms[roomID]
	room.RemoveMember(conn)
	s.registry.Unbind(conn)
	if len(room.Members) == 0 {
		delete(s.rooms, roomID)
		deleted = true
	}
	return room.Snapshot(), deleted, true
}

func (s *Store) GetRoom(roomID string) (RoomSnapshot, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	room, exists := s.rooms[roomID]
	if !exists {
		return RoomSnapshot{}, false
	}
	return room.Snapshot(), true
}

func (s *Store) GetPlayerRoom(conn string) (RoomSnapshot, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	roomID, ok := s.registry.RoomOf(conn)
	if !ok {
		return RoomSnapshot{}, false
	}
	return s.rooms[roomID].Snapshot(), true
}

// MarkReady records conn's ready signal. start is true exactly when both
// current members have signaled since the last restart.
func (s *Store) MarkReady(conn string) (snapshot RoomSnapshot, start bool, err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	room, inRoom := s.roomOf(conn)
	if !inRoom {
		return RoomSnapshot{}, false, ErrNotInRoom
	}
	start = room.MarkReady(conn)
	return room.Snapshot(), start, nil
}

// RequestRestart adds conn's vote to the restart gate. restart is true when
// the vote completed the two-of-two quorum, in which case the ready and
// restart sets have been cleared.
func (s *Store) RequestRestart(conn string) (snapshot RoomSnapshot, restart bool, err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	room, inRoom := s.roomOf(conn)
	if !inRoom {
		return RoomSnapshot{}, false, ErrNotInRoom
	}
	restart = room.RequestRestart(conn)
	return room.Snapshot(), restart, nil
}

func (s *Store) RequestUndo(conn string) (RoomSnapshot, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	room, inRoom := s.roomOf(conn)
	if !inRoom {
		return RoomSnapshot{}, ErrNotInRoom
	}
	room.RequestUndo(conn)
	return room.Snapshot(), nil
}

func (s *Store) AcceptUndo(conn string) (RoomSnapshot, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	room, inRoom := s.roomOf(conn)
	if !inRoom {
		return RoomSnapshot{}, ErrNotInRoom
	}
	room.ClearUndoRequests()
	return room.Snapshot(), nil
}

// ResetReady clears the ready set and any pending restart votes so both
// members must signal ready again before the next start.
func (s *Store) ResetReady(conn string) (RoomSnapshot, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	room, inRoom := s.roomOf(conn)
	if !inRoom {
		return RoomSnapshot{}, ErrNotInRoom
	}
	room.ready = make(map[string]struct{})
	room.restart = make(map[string]struct{})
	return room.Snapshot(), nil
}

func (s *Store) ListRooms() []RoomInfo {
	s.lock.RLock()
	defer s.lock.RUnlock()
	infos := make([]RoomInfo, 0, len(s.rooms))
	for _, room := range s.rooms {
		infos = append(infos, RoomInfo{
			ID:          room.ID,
			PlayerCount: len(room.Members),
			CreatedAt:   room.CreatedAt,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos
}

// CleanupIdleRooms deletes rooms that are empty and older than timeout.
// Empty rooms are normally deleted synchronously on last leave; this is the
// safety net for rooms that slipped past that path.
func (s *Store) CleanupIdleRooms(now time.Time, timeout time.Duration) []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	var removed []string
	for id, room := range s.rooms {
		if len(room.Members) == 0 && now.Sub(room.CreatedAt) > timeout {
			delete(s.rooms, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// StartSweep runs the idle-room cleanup on a ticker until Stop is called.
func (s *Store) StartSweep(interval, timeout time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				for _, id := range s.CleanupIdleRooms(time.Now(), timeout) {
					LogRemovedIdleRoom(id)
				}
			case <-s.stopCh:
				return
			}
		}
	}()
}

func (s *Store) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

// roomOf resolves conn's room; the caller must hold the lock.
func (s *Store) roomOf(conn string) (*Room, bool) {
	roomID, ok := s.registry.RoomOf(conn)
	if !ok {
		return nil, false
	}
	room, exists := s.rooms[roomID]
	return room, exists
}
