package room_test

import (
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screenshare/room"
)

type event struct {
	kind    string
	room    string
	who     string
	members []string
	sharing []string
}

// recorder is an Observer that keeps every notification.
type recorder struct {
	mu     sync.Mutex
	events []event
}

func (r *recorder) add(kind string, s room.Snapshot, who string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{kind: kind, room: s.ID, who: who, members: s.MemberIDs(), sharing: s.Sharing})
}

func (r *recorder) Joined(s room.Snapshot, m room.Member)  { r.add("joined", s, m.ID) }
func (r *recorder) Left(s room.Snapshot, m room.Member)    { r.add("left", s, m.ID) }
func (r *recorder) ShareStarted(s room.Snapshot, f string) { r.add("share-started", s, f) }
func (r *recorder) ShareStopped(s room.Snapshot, f string) { r.add("share-stopped", s, f) }

func TestJoin(t *testing.T) {
	t.Run("given empty room id when joined then return ErrInvalidRoomID", func(t *testing.T) {
		d := room.NewDirectory(room.Config{}, nil)
		_, err := d.Join("", room.Member{ID: "a"})
		assert.ErrorIs(t, err, room.ErrInvalidRoomID)
		assert.Zero(t, d.Len())
	})

	t.Run("given two joins when joined then second sees the first as peer", func(t *testing.T) {
		rec := &recorder{}
		d := room.NewDirectory(room.Config{}, rec)

		snap, err := d.Join("r1", room.Member{ID: "a", Nickname: "Alice"})
		require.NoError(t, err)
		assert.Empty(t, snap.Members)

		snap, err = d.Join("r1", room.Member{ID: "b", Nickname: "Bob"})
		require.NoError(t, err)
		assert.Equal(t, []room.Member{{ID: "a", Nickname: "Alice"}}, snap.Members)
		assert.Equal(t, []string{}, snap.Sharing)

		assert.Equal(t, []room.Member{{ID: "a", Nickname: "Alice"}, {ID: "b", Nickname: "Bob"}}, d.Members("r1"))
		require.Len(t, rec.events, 2)
		assert.Equal(t, "b", rec.events[1].who)
		assert.Equal(t, []string{"a", "b"}, rec.events[1].members)
	})

	t.Run("given existing member when joined again then nickname is refreshed in place", func(t *testing.T) {
		d := room.NewDirectory(room.Config{}, nil)
		_, err := d.Join("r1", room.Member{ID: "a", Nickname: "Alice"})
		require.NoError(t, err)
		_, err = d.Join("r1", room.Member{ID: "b", Nickname: "Bob"})
		require.NoError(t, err)
		_, err = d.Join("r1", room.Member{ID: "a", Nickname: "Alicia"})
		require.NoError(t, err)

		assert.Equal(t, []room.Member{{ID: "a", Nickname: "Alicia"}, {ID: "b", Nickname: "Bob"}}, d.Members("r1"))
	})

	t.Run("given member limit when room is full then return ErrRoomFull", func(t *testing.T) {
		d := room.NewDirectory(room.Config{MaxMembers: 1}, nil)
		_, err := d.Join("r1", room.Member{ID: "a"})
		require.NoError(t, err)
		_, err = d.Join("r1", room.Member{ID: "b"})
		assert.ErrorIs(t, err, room.ErrRoomFull)

		_, err = d.Join("r1", room.Member{ID: "a", Nickname: "again"})
		assert.NoError(t, err)
	})
}

func TestLeave(t *testing.T) {
	t.Run("given last member when left then room is deleted", func(t *testing.T) {
		rec := &recorder{}
		d := room.NewDirectory(room.Config{}, rec)
		_, err := d.Join("r1", room.Member{ID: "a"})
		require.NoError(t, err)
		_, err = d.StartSharing("r1", "a")
		require.NoError(t, err)

		snap, err := d.Leave("r1", "a")
		require.NoError(t, err)
		assert.Empty(t, snap.Members)
		assert.Equal(t, []string{}, snap.Sharing)
		assert.False(t, d.Exists("r1"))
		assert.Zero(t, d.Len())
		assert.Equal(t, []string{}, d.SharingSet("r1"))
	})

	t.Run("given sharing member when left then remaining members get updated sharing set", func(t *testing.T) {
		rec := &recorder{}
		d := room.NewDirectory(room.Config{}, rec)
		_, _ = d.Join("r1", room.Member{ID: "a"})
		_, _ = d.Join("r1", room.Member{ID: "b"})
		_, err := d.StartSharing("r1", "a")
		require.NoError(t, err)

		snap, err := d.Leave("r1", "a")
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, snap.MemberIDs())
		assert.Equal(t, []string{}, snap.Sharing)
		assert.True(t, d.Exists("r1"))

		last := rec.events[len(rec.events)-1]
		assert.Equal(t, event{kind: "left", room: "r1", who: "a", members: []string{"b"}, sharing: []string{}}, last)
	})

	t.Run("given non member when left then return ErrNotMember", func(t *testing.T) {
		d := room.NewDirectory(room.Config{}, nil)
		_, err := d.Leave("r1", "a")
		assert.ErrorIs(t, err, room.ErrNotMember)

		_, _ = d.Join("r1", room.Member{ID: "b"})
		_, err = d.Leave("r1", "a")
		assert.ErrorIs(t, err, room.ErrNotMember)
	})
}

func TestSharing(t *testing.T) {
	t.Run("given non member when sharing started then return ErrNotMember", func(t *testing.T) {
		rec := &recorder{}
		d := room.NewDirectory(room.Config{}, rec)
		_, err := d.StartSharing("r1", "a")
		assert.ErrorIs(t, err, room.ErrNotMember)

		_, _ = d.Join("r1", room.Member{ID: "b"})
		sharing, err := d.StartSharing("r1", "a")
		assert.ErrorIs(t, err, room.ErrNotMember)
		assert.Equal(t, []string{}, sharing)
		assert.Len(t, rec.events, 1)
	})

	t.Run("given members when sharing toggled then sharing set follows", func(t *testing.T) {
		rec := &recorder{}
		d := room.NewDirectory(room.Config{}, rec)
		_, _ = d.Join("r1", room.Member{ID: "a"})
		_, _ = d.Join("r1", room.Member{ID: "b"})

		sharing, err := d.StartSharing("r1", "a")
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, sharing)

		sharing, err = d.StartSharing("r1", "b")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, sharing)

		sharing, was, err := d.StopSharing("r1", "a")
		require.NoError(t, err)
		assert.True(t, was)
		assert.Equal(t, []string{"b"}, sharing)

		sharing, was, err = d.StopSharing("r1", "a")
		require.NoError(t, err)
		assert.False(t, was)
		assert.Equal(t, []string{"b"}, sharing)
		assert.Equal(t, 1, d.Sharers())

		kinds := make([]string, 0, len(rec.events))
		for _, e := range rec.events {
			kinds = append(kinds, e.kind)
		}
		assert.Equal(t, []string{"joined", "joined", "share-started", "share-started", "share-stopped"}, kinds)
	})
}

// checkInvariants asserts that only non-empty rooms exist and that every
// sharer is a member.
func checkInvariants(t *testing.T, d *room.Directory, roomIDs []string) {
	t.Helper()
	for _, id := range roomIDs {
		snap, ok := d.Snapshot(id)
		assert.Equal(t, len(snap.Members) > 0, ok, "room %s existence", id)
		members := snap.MemberIDs()
		for _, s := range snap.Sharing {
			assert.Contains(t, members, s, "sharer %s of %s", s, id)
		}
	}
}

func TestRandomSequencesKeepInvariants(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	d := room.NewDirectory(room.Config{}, nil)
	roomIDs := []string{"r1", "r2", "r3"}
	conns := []string{"a", "b", "c", "d", "e"}

	for i := 0; i < 2000; i++ {
		r := roomIDs[rnd.Intn(len(roomIDs))]
		c := conns[rnd.Intn(len(conns))]
		switch rnd.Intn(4) {
		case 0:
			_, err := d.Join(r, room.Member{ID: c})
			require.NoError(t, err)
		case 1:
			_, _ = d.Leave(r, c)
		case 2:
			_, _ = d.StartSharing(r, c)
		case 3:
			_, _, _ = d.StopSharing(r, c)
		}
		checkInvariants(t, d, roomIDs)
	}
}

func TestConcurrentAccessKeepsInvariants(t *testing.T) {
	d := room.NewDirectory(room.Config{}, &recorder{})
	roomIDs := []string{"r1", "r2"}

	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			id := fmt.Sprintf("conn-%d", w)
			rnd := rand.New(rand.NewSource(int64(w)))
			for i := 0; i < 500; i++ {
				r := roomIDs[rnd.Intn(len(roomIDs))]
				_, _ = d.Join(r, room.Member{ID: id})
				_, _ = d.StartSharing(r, id)
				if rnd.Intn(2) == 0 {
					_, _, _ = d.StopSharing(r, id)
				}
				_, _ = d.Leave(r, id)
			}
		}(w)
	}
	wg.Wait()

	checkInvariants(t, d, roomIDs)
	assert.Zero(t, d.Len())
	assert.Zero(t, d.Sharers())
}

func TestSnapshotHelpers(t *testing.T) {
	s := room.Snapshot{Members: []room.Member{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	assert.Equal(t, []string{"a", "b", "c"}, s.MemberIDs())
	assert.Equal(t, []string{"a", "c"}, s.Except("b"))
	assert.True(t, slices.Equal([]string{"a", "b", "c"}, s.Except("z")))
}
