package historic

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trove-market/trove/internal/roles"
	"github.com/trove-market/trove/internal/shared"
)

type memoryLedger struct {
	entries   []Entry
	ownerID   int64
	ownerRole roles.Role
	insertErr error

	lastPage shared.Page
	lastDir  shared.SortDirection
}

func (m *memoryLedger) Insert(ctx context.Context, q Querier, itemID int64, rec Record) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.entries = append(m.entries, Entry{
		ID:            int64(len(m.entries) + 1),
		ItemID:        itemID,
		Change:        rec.Change,
		PreviousValue: rec.PreviousValue,
	})
	return nil
}

func (m *memoryLedger) ListByItem(ctx context.Context, itemID int64, scope roles.Scope, page shared.Page, dir shared.SortDirection) ([]Entry, int64, error) {
	m.lastPage = page
	m.lastDir = dir
	if !scope.Allows(m.ownerID, m.ownerRole) {
		return nil, 0, nil
	}
	var out []Entry
	for _, e := range m.entries {
		if e.ItemID == itemID {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func newTestService(repo Repository) *Service {
	return NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo)
}

func TestRecordChangeAppends(t *testing.T) {
	ledger := &memoryLedger{ownerID: 1, ownerRole: roles.RoleBasic}
	svc := newTestService(ledger)
	ctx := context.Background()

	require.NoError(t, svc.RecordChange(ctx, 7, Record{Change: ChangePrice, PreviousValue: "100"}))
	require.NoError(t, svc.RecordChange(ctx, 7, Record{Change: ChangeStock, PreviousValue: "5"}))

	entries, total, err := svc.ListChanges(ctx, 7, 1, roles.RoleBasic, shared.Page{}, shared.SortAsc)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Equal(t, ChangePrice, entries[0].Change)
	require.Equal(t, "100", entries[0].PreviousValue)
}

func TestRecordChangeReturnsInsertFailureOnce(t *testing.T) {
	boom := errors.New("connection reset")
	ledger := &memoryLedger{insertErr: boom}
	svc := newTestService(ledger)

	err := svc.RecordChange(context.Background(), 7, Record{Change: ChangeTags, PreviousValue: NoTags})
	require.ErrorIs(t, err, boom)
	require.Empty(t, ledger.entries)
}

func TestListChangesHidesForeignOwnersFromBasicCallers(t *testing.T) {
	ledger := &memoryLedger{ownerID: 2, ownerRole: roles.RoleBasic}
	svc := newTestService(ledger)
	ctx := context.Background()
	require.NoError(t, svc.RecordChange(ctx, 7, Record{Change: ChangePrice, PreviousValue: "100"}))

	entries, total, err := svc.ListChanges(ctx, 1, 1, roles.RoleBasic, shared.Page{}, shared.SortAsc)
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, entries)

	// an admin caller reaches the basic owner's ledger
	_, total, err = svc.ListChanges(ctx, 7, 1, roles.RoleAdmin, shared.Page{}, shared.SortAsc)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
}

func TestListChangesDefaultsWindowToFive(t *testing.T) {
	ledger := &memoryLedger{ownerID: 1, ownerRole: roles.RoleBasic}
	svc := newTestService(ledger)

	_, _, err := svc.ListChanges(context.Background(), 7, 1, roles.RoleBasic, shared.Page{Skip: 2}, shared.SortDesc)
	require.NoError(t, err)
	require.Equal(t, shared.Page{Skip: 2, Take: 5}, ledger.lastPage)
	require.Equal(t, shared.SortDesc, ledger.lastDir)
}
