package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedSessions(at time.Time) *Sessions {
	s := NewSessions()
	s.now = func() time.Time { return at }
	return s
}

func TestSessionsLoginAndDuplicate(t *testing.T) {
	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	s := fixedSessions(at)

	sess, err := s.Login("VIN00000000000001", "conn-a", "10.0.0.1:5000", 1)
	require.NoError(t, err)
	require.Equal(t, at, sess.LoginAt)
	require.Equal(t, 1, s.Len())

	held, err := s.Login("VIN00000000000001", "conn-b", "10.0.0.2:5000", 1)
	require.ErrorIs(t, err, ErrDuplicateVIN)
	require.Equal(t, "conn-a", held.ConnID)

	_, err = s.Login("VIN00000000000001", "conn-a", "10.0.0.1:5000", 2)
	require.NoError(t, err)
	got, ok := s.Get("VIN00000000000001")
	require.True(t, ok)
	require.Equal(t, uint16(2), got.LoginSeq)
}

func TestSessionsLogoutRequiresOwner(t *testing.T) {
	s := NewSessions()
	_, err := s.Login("VIN00000000000001", "conn-a", "", 1)
	require.NoError(t, err)

	require.ErrorIs(t, s.Logout("VIN00000000000001", "conn-b"), ErrNotLoggedIn)
	require.ErrorIs(t, s.Logout("VIN00000000000002", "conn-a"), ErrNotLoggedIn)
	require.NoError(t, s.Logout("VIN00000000000001", "conn-a"))
	require.Zero(t, s.Len())
}

func TestSessionsTouchAndDrop(t *testing.T) {
	s := NewSessions()
	for _, vin := range []string{"VIN00000000000003", "VIN00000000000001"} {
		_, err := s.Login(vin, "conn-a", "", 1)
		require.NoError(t, err)
	}
	_, err := s.Login("VIN00000000000002", "conn-b", "", 1)
	require.NoError(t, err)

	require.True(t, s.Touch("VIN00000000000001", "conn-a"))
	require.False(t, s.Touch("VIN00000000000001", "conn-b"))
	got, _ := s.Get("VIN00000000000001")
	require.Equal(t, uint64(2), got.Frames)

	snap := s.Snapshot()
	require.Len(t, snap, 3)
	require.Equal(t, "VIN00000000000001", snap[0].VIN)
	require.Equal(t, "VIN00000000000003", snap[2].VIN)

	require.Equal(t, []string{"VIN00000000000001", "VIN00000000000003"}, s.DropConn("conn-a"))
	require.Equal(t, 1, s.Len())
	require.Empty(t, s.DropConn("conn-a"))
}
