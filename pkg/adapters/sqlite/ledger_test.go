package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/propertytek/rentbot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func appointment(id, user string, at time.Time) domain.Appointment {
	return domain.Appointment{
		ID:         id,
		UserID:     user,
		PropertyID: "3",
		Address:    "12 Elm St, Austin, TX",
		Slot:       domain.Slot{ID: "2025-03-02_09:00", Display: "Sunday, March 02 at 9:00 AM", DateTime: "2025-03-02 09:00:00", Available: true},
		Contact:    domain.Contact{Name: "Jane Doe", Email: "jane@example.com", Phone: "5551234567", Pets: "none"},
		CreatedAt:  at,
	}
}

func TestLedger_RecordAndGet(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, l.Record(ctx, appointment("a1", "u1", at)))
	// Duplicate delivery is ignored.
	require.NoError(t, l.Record(ctx, appointment("a1", "u1", at)))

	got, err := l.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, appointment("a1", "u1", at), got)

	_, err = l.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLedger_List(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, l.Record(ctx, appointment("a1", "u1", base)))
	require.NoError(t, l.Record(ctx, appointment("a2", "u2", base.Add(time.Hour))))
	require.NoError(t, l.Record(ctx, appointment("a3", "u1", base.Add(2*time.Hour))))

	all, err := l.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a3", all[0].ID)

	mine, err := l.List(ctx, "u1", 1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "a3", mine[0].ID)
}

func TestLedger_MigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	l1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l1.Record(context.Background(), appointment("a1", "u1", time.Now())))
	require.NoError(t, l1.Close())

	l2, err := Open(path)
	require.NoError(t, err)
	defer l2.Close()

	all, err := l2.List(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
