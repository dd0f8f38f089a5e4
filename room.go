package main

import (
	"slices"
	"time"
)

// Room pairs up to two connections for one game session. All fields are
// mutated only while holding the Store lock.
type Room struct {
	ID        string
	Host      string
	Variant   string
	Members   []string
	ready     map[string]struct{}
	restart   map[string]struct{}
	undo      map[string]struct{}
	CreatedAt time.Time
}

const maxMembers = 2

func NewRoomWithHost(id, host, variant string, now time.Time) *Room {
	return &Room{
		ID:        id,
		Host:      host,
		Variant:   variant,
		Members:   []string{host},
		ready:     make(map[string]struct{}),
		restart:   make(map[string]struct{}),
		undo:      make(map[string]struct{}),
		CreatedAt: now,
	}
}

func (r *Room) IsMember(conn string) bool {
	return slices.Contains(r.Members, conn)
}

func (r *Room) IsFull() bool {
	return len(r.Members) >= maxMembers
}

func (r *Room) AddMember(conn string) {
	r.Members = append(r.Members, conn)
}

// RemoveMember drops conn from the member list and from every pending set.
// Reassigns the host to the first remaining member when the host departs.
func (r *Room) RemoveMember(conn string) {
	if i := slices.Index(r.Members, conn); i >= 0 {
		r.Members = slices.Delete(r.Members, i, i+1)
	}
	delete(r.ready, conn)
	delete(r.restart, conn)
	delete(r.undo, conn)
	if r.Host == conn && len(r.Members) > 0 {
		r.Host = r.Members[0]
	}
}

func (r *Room) MarkReady(conn string) bool {
	r.ready[conn] = struct{}{}
	return len(r.ready) == maxMembers && len(r.Members) == maxMembers
}

// RequestRestart records conn's vote. Restart fires only when every current
// member has voted; the vote and ready sets are cleared so both sides must
// re-signal ready before play resumes.
func (r *Room) RequestRestart(conn string) bool {
	r.restart[conn] = struct{}{}
	if len(r.Members) < maxMembers {
		return false
	}
	for _, member := range r.Members {
		if _, ok := r.restart[member]; !ok {
			return false
		}
	}
	r.restart = make(map[string]struct{})
	r.ready = make(map[string]struct{})
	return true
}

func (r *Room) RequestUndo(conn string) {
	r.undo[conn] = struct{}{}
}

func (r *Room) ClearUndoRequests() {
	r.undo = make(map[string]struct{})
}

// Snapshot is a copy safe to read after the Store lock is released.
func (r *Room) Snapshot() RoomSnapshot {
	return RoomSnapshot{
		ID:        r.ID,
		Host:      r.Host,
		Variant:   r.Variant,
		Members:   slices.Clone(r.Members),
		CreatedAt: r.CreatedAt,
	}
}

type RoomSnapshot struct {
	ID        string
	Host      string
	Variant   string
	Members   []string
	CreatedAt time.Time
}

// Opponents returns every member except conn. Two-player rooms make this at
// most one identifier.
func (s RoomSnapshot) Opponents(conn string) []string {
	others := make([]string, 0, len(s.Members))
	for _, member := range s.Members {
		if member != conn {
			others = append(others, member)
		}
	}
	return others
}

func (s RoomSnapshot) MemberIndex(conn string) int {
	return slices.Index(s.Members, conn)
}

type RoomInfo struct {
	ID          string    `json:"id"`
	PlayerCount int       `json:"playerCount"`
	CreatedAt   time.Time `json:"createdAt"`
}
