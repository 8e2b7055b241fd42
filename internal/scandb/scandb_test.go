package scandb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lidarlog/internal/scan"
)

func TestSessionSinkRoundTrip(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "scan.db"))
	require.NoError(t, err)
	defer db.Close()

	sessionID, err := db.StartSession("run-123", "F0F1F2")
	require.NoError(t, err)

	s := db.SessionSink(sessionID)
	records := []scan.Record{
		{Timestamp: 1700000000, AngleDeg: 10.5, DistanceMM: 1500.25, Quality: 47, Revolution: 0},
		{Timestamp: 1700000001, AngleDeg: 11.0, DistanceMM: 1498.75, Quality: 46, Revolution: 0},
		{Timestamp: 1700000002, AngleDeg: 5.25, DistanceMM: 2000.0, Quality: 40, Revolution: 1},
	}
	for _, r := range records {
		require.NoError(t, s.Write(r))
	}
	require.NoError(t, s.Close())

	var count int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM scan_records WHERE session_id = ?`, sessionID).Scan(&count))
	require.Equal(t, len(records), count)

	var maxRev int
	require.NoError(t, db.QueryRow(
		`SELECT MAX(revolution) FROM scan_records WHERE session_id = ?`, sessionID).Scan(&maxRev))
	require.Equal(t, 1, maxRev)

	var ended *int64
	require.NoError(t, db.QueryRow(
		`SELECT ended_at FROM scan_sessions WHERE id = ?`, sessionID).Scan(&ended))
	require.NotNil(t, ended, "Close should stamp the session end time")
}

func TestOpenBadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "no-such-dir", "scan.db"))
	require.Error(t, err)
}
