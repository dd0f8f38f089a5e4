package main

// Registry maps a connection identifier to the room it currently occupies.
// It is the single source of truth for membership and is owned by the Store,
// which serializes all access.
type Registry struct {
	byConn map[string]string
}

func NewRegistry() Registry {
	return Registry{byConn: make(map[string]string)}
}

func (r Registry) Bind(conn, roomID string) {
	r.byConn[conn] = roomID
}

func (r Registry) Unbind(conn string) {
	delete(r.byConn, conn)
}

func (r Registry) RoomOf(conn string) (string, bool) {
	roomID, ok := r.byConn[conn]
	return roomID, ok
}
