package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtualatc/atc-engine/pkg/logger"
)

func newTestJournal(t *testing.T) *JournalStorage {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error"})
	require.NoError(t, err)

	db, err := Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	journal, err := NewJournalStorage(db, log)
	require.NoError(t, err)
	return journal
}

func TestRecordAndQueryTransmissions(t *testing.T) {
	journal := newTestJournal(t)

	_, err := journal.RecordTransmission(&TransmissionRecord{
		SessionID:      "s1",
		Turn:           1,
		Direction:      DirectionPilot,
		RawText:        "Easy 113, uh, radial check",
		NormalizedText: "Easy 113, radio check",
	})
	require.NoError(t, err)

	_, err = journal.RecordTransmission(&TransmissionRecord{
		SessionID: "s1",
		Turn:      1,
		Direction: DirectionATC,
		RawText:   "Easy one one three, readability five.",
		Source:    "procedural",
	})
	require.NoError(t, err)

	_, err = journal.RecordTransmission(&TransmissionRecord{
		SessionID: "s2",
		Turn:      1,
		Direction: DirectionPilot,
		RawText:   "other session",
	})
	require.NoError(t, err)

	records, err := journal.TransmissionsBySession("s1", 50)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, DirectionPilot, records[0].Direction)
	assert.Equal(t, "Easy 113, radio check", records[0].NormalizedText)
	assert.Equal(t, DirectionATC, records[1].Direction)
	assert.Equal(t, "procedural", records[1].Source)
	assert.False(t, records[0].CreatedAt.IsZero())
}

func TestRecordClearanceAndAccept(t *testing.T) {
	journal := newTestJournal(t)

	id, err := journal.RecordClearance(&ClearanceRecord{
		SessionID:       "s1",
		Callsign:        "EZY113",
		ClearanceType:   "ifr",
		ClearanceText:   "Easy one one three, cleared to Gatwick as filed...",
		Destination:     "Gatwick",
		SID:             "GOSAM1C",
		Runway:          "24",
		InitialAltitude: 5000,
		Squawk:          "4406",
		CreatedAt:       time.Date(2026, 8, 25, 10, 20, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NoError(t, journal.MarkClearanceAccepted(id))

	records, err := journal.ClearancesBySession("s1", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].ID)
	assert.Equal(t, "GOSAM1C", records[0].SID)
	assert.Equal(t, 5000, records[0].InitialAltitude)
	assert.True(t, records[0].Accepted)
	assert.Equal(t, time.Date(2026, 8, 25, 10, 20, 0, 0, time.UTC), records[0].CreatedAt)
}

func TestRecentClearancesNewestFirst(t *testing.T) {
	journal := newTestJournal(t)

	for i, squawk := range []string{"4401", "4402", "4403"} {
		_, err := journal.RecordClearance(&ClearanceRecord{
			SessionID:     "s1",
			Callsign:      "EZY113",
			ClearanceType: "ifr",
			ClearanceText: "clearance",
			Squawk:        squawk,
			CreatedAt:     time.Date(2026, 8, 25, 10, i, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}

	records, err := journal.RecentClearances(2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "4403", records[0].Squawk)
	assert.Equal(t, "4402", records[1].Squawk)
}

func TestEmptyQueries(t *testing.T) {
	journal := newTestJournal(t)

	transmissions, err := journal.TransmissionsBySession("missing", 10)
	require.NoError(t, err)
	assert.Empty(t, transmissions)

	clearances, err := journal.RecentClearances(10)
	require.NoError(t, err)
	assert.Empty(t, clearances)
}
