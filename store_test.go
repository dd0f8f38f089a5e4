package main

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRoom(t *testing.T) {
	store := NewStore()

	snapshot, err := store.CreateRoom("conn-a", "")
	require.NoError(t, err)
	assert.Len(t, snapshot.ID, codeLength)
	assert.Equal(t, "conn-a", snapshot.Host)
	assert.Equal(t, []string{"conn-a"}, snapshot.Members)

	got, ok := store.GetPlayerRoom("conn-a")
	require.True(t, ok)
	assert.Equal(t, snapshot.ID, got.ID)
}

func TestCreateRoomWhileInRoom(t *testing.T) {
	store := NewStore()

	_, err := store.CreateRoom("conn-a", "")
	require.NoError(t, err)
	_, err = store.CreateRoom("conn-a", "")
	assert.ErrorIs(t, err, ErrAlreadyInRoom)
}

func TestJoinRoom(t *testing.T) {
	store := NewStore()
	created, err := store.CreateRoom("conn-a", "")
	require.NoError(t, err)

	joined, err := store.JoinRoom(created.ID, "conn-b")
	require.NoError(t, err)
	assert.Equal(t, []string{"conn-a", "conn-b"}, joined.Members)
	assert.Equal(t, "conn-a", joined.Host)
}

func TestJoinRoomErrors(t *testing.T) {
	store := NewStore()
	created, err := store.CreateRoom("conn-a", "")
	require.NoError(t, err)
	_, err = store.JoinRoom(created.ID, "conn-b")
	require.NoError(t, err)

	tests := []struct {
		name     string
		roomID   string
		conn     string
		expected error
	}{
		{"unknown room", "NOPE42", "conn-c", ErrRoomNotFound},
		{"full room", created.ID, "conn-c", ErrRoomFull},
		{"already a member", created.ID, "conn-a", ErrAlreadyInRoom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.JoinRoom(tt.roomID, tt.conn)
			assert.ErrorIs(t, err, tt.expected)
		})
	}

	// A failed join never mutates the room.
	snapshot, ok := store.GetRoom(created.ID)
	require.True(t, ok)
	assert.Equal(t, []string{"conn-a", "conn-b"}, snapshot.Members)
}

func TestJoinFromAnotherRoom(t *testing.T) {
	store := NewStore()
	first, err := store.CreateRoom("conn-a", "")
	require.NoError(t, err)
	second, err := store.CreateRoom("conn-b", "")
	require.NoError(t, err)

	_, err = store.JoinRoom(second.ID, "conn-a")
	assert.ErrorIs(t, err, ErrAlreadyInRoom)

	snapshot, ok := store.GetPlayerRoom("conn-a")
	require.True(t, ok)
	assert.Equal(t, first.ID, snapshot.ID)
}

func TestLeaveRoomHostTransfer(t *testing.T) {
	store := NewStore()
	created, err := store.CreateRoom("conn-a", "")
	require.NoError(t, err)
	_, err = store.JoinRoom(created.ID, "conn-b")
	require.NoError(t, err)

	snapshot, deleted, ok := store.LeaveRoom("conn-a")
	require.True(t, ok)
	assert.False(t, deleted)
	assert.Equal(t, []string{"conn-b"}, snapshot.Members)
	assert.Equal(t, "conn-b", snapshot.Host)
}

func TestLeaveRoomNonHostKeepsHost(t *testing.T) {
	store := NewStore()
	created, err := store.CreateRoom("conn-a", "")
	require.NoError(t, err)
	_, err = store.JoinRoom(created.ID, "conn-b")
	require.NoError(t, err)

	snapshot, _, ok := store.LeaveRoom("conn-b")
	require.True(t, ok)
	assert.Equal(t, "conn-a", snapshot.Host)
}

func TestLastLeaveDeletesRoom(t *testing.T) {
	store := NewStore()
	created, err := store.CreateRoom("conn-a", "")
	require.NoError(t, err)
	_, err = store.JoinRoom(created.ID, "conn-b")
	require.NoError(t, err)

	_, deleted, _ := store.LeaveRoom("conn-a")
	assert.False(t, deleted)
	_, deleted, _ = store.LeaveRoom("conn-b")
	assert.True(t, deleted)

	_, ok := store.GetRoom(created.ID)
	assert.False(t, ok)
}

func TestLeaveRoomNotInRoom(t *testing.T) {
	store := NewStore()
	_, _, ok := store.LeaveRoom("ghost")
	assert.False(t, ok)
}

func TestMarkReady(t *testing.T) {
	store := NewStore()
	created, err := store.CreateRoom("conn-a", "")
	require.NoError(t, err)
	_, err = store.JoinRoom(created.ID, "conn-b")
	require.NoError(t, err)

	_, start, err := store.MarkReady("conn-a")
	require.NoError(t, err)
	assert.False(t, start)

	// Re-signaling without the other member readying never triggers a start.
	_, start, err = store.MarkReady("conn-a")
	require.NoError(t, err)
	assert.False(t, start)

	_, start, err = store.MarkReady("conn-b")
	require.NoError(t, err)
	assert.True(t, start)
}

func TestMarkReadySoloRoomNeverStarts(t *testing.T) {
	store := NewStore()
	_, err := store.CreateRoom("conn-a", "")
	require.NoError(t, err)

	_, start, err := store.MarkReady("conn-a")
	require.NoError(t, err)
	assert.False(t, start)
}

func TestMarkReadyNotInRoom(t *testing.T) {
	store := NewStore()
	_, _, err := store.MarkReady("ghost")
	assert.ErrorIs(t, err, ErrNotInRoom)
}

func TestRestartConsensus(t *testing.T) {
	store := NewStore()
	created, err := store.CreateRoom("conn-a", "")
	require.NoError(t, err)
	_, err = store.JoinRoom(created.ID, "conn-b")
	require.NoError(t, err)
	store.MarkReady("conn-a")
	store.MarkReady("conn-b")

	_, restart, err := store.RequestRestart("conn-a")
	require.NoError(t, err)
	assert.False(t, restart)

	// Same side asking twice is not a quorum.
	_, restart, err = store.RequestRestart("conn-a")
	require.NoError(t, err)
	assert.False(t, restart)

	_, restart, err = store.RequestRestart("conn-b")
	require.NoError(t, err)
	assert.True(t, restart)

	// Consensus cleared the ready set: both members must re-signal.
	_, start, err := store.MarkReady("conn-a")
	require.NoError(t, err)
	assert.False(t, start)
	_, start, err = store.MarkReady("conn-b")
	require.NoError(t, err)
	assert.True(t, start)
}

func TestResetReadyClearsVotes(t *testing.T) {
	store := NewStore()
	created, err := store.CreateRoom("conn-a", "")
	require.NoError(t, err)
	_, err = store.JoinRoom(created.ID, "conn-b")
	require.NoError(t, err)
	store.MarkReady("conn-a")
	store.MarkReady("conn-b")
	store.RequestRestart("conn-a")

	_, err = store.ResetReady("conn-a")
	require.NoError(t, err)

	// The pending restart vote is gone: conn-b alone cannot reach quorum.
	_, restart, err := store.RequestRestart("conn-b")
	require.NoError(t, err)
	assert.False(t, restart)

	// And the ready set is empty: one ready does not start, two do.
	_, start, err := store.MarkReady("conn-a")
	require.NoError(t, err)
	assert.False(t, start)
	_, start, err = store.MarkReady("conn-b")
	require.NoError(t, err)
	assert.True(t, start)
}

func TestResetReadyNotInRoom(t *testing.T) {
	store := NewStore()
	_, err := store.ResetReady("conn-a")
	assert.ErrorIs(t, err, ErrNotInRoom)
}

func TestRestartConsensusSoloRoom(t *testing.T) {
	store := NewStore()
	_, err := store.CreateRoom("conn-a", "")
	require.NoError(t, err)

	_, restart, err := store.RequestRestart("conn-a")
	require.NoError(t, err)
	assert.False(t, restart)
}

func TestLeaverRemovedFromPendingSets(t *testing.T) {
	store := NewStore()
	created, err := store.CreateRoom("conn-a", "")
	require.NoError(t, err)
	_, err = store.JoinRoom(created.ID, "conn-b")
	require.NoError(t, err)

	store.MarkReady("conn-a")
	store.RequestRestart("conn-a")
	store.RequestUndo("conn-a")

	_, _, ok := store.LeaveRoom("conn-a")
	require.True(t, ok)

	// conn-a's stale votes must not count for the next occupant.
	_, err = store.JoinRoom(created.ID, "conn-c")
	require.NoError(t, err)
	_, restart, err := store.RequestRestart("conn-b")
	require.NoError(t, err)
	assert.False(t, restart)
	_, start, err := store.MarkReady("conn-b")
	require.NoError(t, err)
	assert.False(t, start)
}

func TestListRoomsNewestFirst(t *testing.T) {
	store := NewStore()
	for i := 0; i < 3; i++ {
		_, err := store.CreateRoom(fmt.Sprintf("conn-%d", i), "")
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	rooms := store.ListRooms()
	require.Len(t, rooms, 3)
	assert.True(t, rooms[0].CreatedAt.After(rooms[1].CreatedAt))
	assert.True(t, rooms[1].CreatedAt.After(rooms[2].CreatedAt))
	for _, info := range rooms {
		assert.Equal(t, 1, info.PlayerCount)
	}
}

func TestCleanupIdleRooms(t *testing.T) {
	store := NewStore()
	created, err := store.CreateRoom("conn-a", "")
	require.NoError(t, err)

	// Occupied rooms are never swept, no matter how old.
	removed := store.CleanupIdleRooms(time.Now().Add(time.Hour), 30*time.Minute)
	assert.Empty(t, removed)
	_, ok := store.GetRoom(created.ID)
	assert.True(t, ok)
}

func TestStoreVariant(t *testing.T) {
	store := NewStore()
	snapshot, err := store.CreateRoom("conn-a", VariantTTT)
	require.NoError(t, err)
	assert.Equal(t, VariantTTT, snapshot.Variant)

	joined, err := store.JoinRoom(snapshot.ID, "conn-b")
	require.NoError(t, err)
	assert.Equal(t, VariantTTT, joined.Variant)
}

func TestConcurrentJoinSingleSlot(t *testing.T) {
	const trials = 50
	for trial := 0; trial < trials; trial++ {
		store := NewStore()
		created, err := store.CreateRoom("host", "")
		require.NoError(t, err)

		const contenders = 8
		var wg sync.WaitGroup
		errs := make([]error, contenders)
		for i := 0; i < contenders; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = store.JoinRoom(created.ID, fmt.Sprintf("conn-%d", i))
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, ErrRoomFull)
			}
		}
		assert.Equal(t, 1, succeeded)

		snapshot, ok := store.GetRoom(created.ID)
		require.True(t, ok)
		assert.LessOrEqual(t, len(snapshot.Members), maxMembers)
	}
}

func TestConcurrentCreateLeaveChurn(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}
	store := NewStore()

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn := fmt.Sprintf("conn-%d", i)
			for j := 0; j < 100; j++ {
				snapshot, err := store.CreateRoom(conn, "")
				if err != nil {
					continue
				}
				store.MarkReady(conn)
				if _, _, ok := store.LeaveRoom(conn); !ok {
					t.Errorf("leave failed for %v in room %v", conn, snapshot.ID)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Empty(t, store.ListRooms())
}
