package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OybekDeveloper/leora/internal/bus"
	"github.com/OybekDeveloper/leora/internal/date"
	"github.com/OybekDeveloper/leora/internal/domain"
	"github.com/OybekDeveloper/leora/internal/ident"
	"github.com/OybekDeveloper/leora/internal/store"
	"github.com/OybekDeveloper/leora/internal/testutil"
)

var day = date.MustParse

func setup(t *testing.T) (*Service, *store.Store, *bus.Recorder) {
	t.Helper()
	s := testutil.NewStore(t)
	b := bus.New()
	rec := bus.NewRecorder(b)
	testutil.Seed(t, s, domain.Account{ID: "acc-1", Name: "Cash", Currency: "USD"})
	clock := testutil.NewClock(day("2025-03-10"))
	return New(s, b, ident.NewSequence("tx"), clock), s, rec
}

func expense(amount int64) domain.Transaction {
	return domain.Transaction{
		AccountID: "acc-1",
		Type:      domain.TxExpense,
		Amount:    testutil.USD(amount),
		Date:      day("2025-03-10"),
	}
}

func TestCreate_AssignsIDAndPublishes(t *testing.T) {
	l, s, rec := setup(t)

	tx, err := l.Create(context.Background(), expense(30))
	require.NoError(t, err)
	assert.Equal(t, "tx-0001", tx.ID)
	assert.False(t, tx.CreatedAt.IsZero())

	_, err = s.GetTransaction(context.Background(), "tx-0001")
	require.NoError(t, err)

	created := bus.Of[bus.TxCreated](rec)
	require.Len(t, created, 1)
	assert.Equal(t, "tx-0001", created[0].Transaction.ID)
}

func TestCreate_Rejects(t *testing.T) {
	l, _, rec := setup(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		tx    domain.Transaction
		field string
	}{
		{"negative amount", expense(-5), "amount"},
		{"zero amount", expense(0), "amount"},
		{"unknown account", func() domain.Transaction { tx := expense(5); tx.AccountID = "ghost"; return tx }(), "account_id"},
		{"unknown type", func() domain.Transaction { tx := expense(5); tx.Type = "refund"; return tx }(), "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Create(ctx, tt.tx)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
	assert.Empty(t, rec.Events(), "rejected writes publish nothing")
}

func TestCreate_DuplicateID(t *testing.T) {
	l, _, _ := setup(t)
	ctx := context.Background()

	tx := expense(10)
	tx.ID = "fixed"
	_, err := l.Create(ctx, tx)
	require.NoError(t, err)
	_, err = l.Create(ctx, tx)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUpdate_PublishesBothVersions(t *testing.T) {
	l, _, rec := setup(t)
	ctx := context.Background()

	tx, err := l.Create(ctx, expense(10))
	require.NoError(t, err)

	moved := tx
	moved.Date = day("2025-03-11")
	moved.CategoryID = "food"
	_, err = l.Update(ctx, moved)
	require.NoError(t, err)

	updates := bus.Of[bus.TxUpdated](rec)
	require.Len(t, updates, 1)
	assert.Equal(t, day("2025-03-10"), updates[0].Before.Date)
	assert.Equal(t, day("2025-03-11"), updates[0].After.Date)
}

func TestUpdate_DebtPaymentIsFrozen(t *testing.T) {
	l, _, _ := setup(t)
	ctx := context.Background()

	payment := expense(30)
	payment.DebtID = "d1"
	tx, err := l.Create(ctx, payment)
	require.NoError(t, err)

	changed := tx
	changed.Amount = testutil.USD(40)
	_, err = l.Update(ctx, changed)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "amount", verr.Field)

	untagged := tx
	untagged.DebtID = ""
	_, err = l.Update(ctx, untagged)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "debt_id", verr.Field)

	note := tx
	note.Description = "first installment"
	_, err = l.Update(ctx, note)
	assert.NoError(t, err, "soft fields stay editable")
}

func TestDelete_RemovesFromScheduleAndPublishes(t *testing.T) {
	l, s, rec := setup(t)
	ctx := context.Background()

	sc := domain.Schedule{
		ID: "rent", AccountID: "acc-1", Type: domain.TxExpense, Amount: testutil.USD(25),
		Pattern: domain.Monthly, Interval: 1, StartDate: day("2025-02-10"),
		NextOccurrence: day("2025-04-10"), IsActive: true,
		TransactionIDs: []string{"occ-feb", "occ-mar"},
	}
	feb := sc.Occurrence("occ-feb", day("2025-02-10"), day("2025-02-10").Time())
	mar := sc.Occurrence("occ-mar", day("2025-03-10"), day("2025-03-10").Time())
	testutil.Seed(t, s, sc, feb, mar)

	require.NoError(t, l.Delete(ctx, "occ-feb"))

	got, err := s.GetSchedule(ctx, "rent")
	require.NoError(t, err)
	assert.Equal(t, []string{"occ-mar"}, got.TransactionIDs)

	deleted := bus.Of[bus.TxDeleted](rec)
	require.Len(t, deleted, 1)
	assert.Equal(t, "occ-feb", deleted[0].Transaction.ID)
	assert.True(t, deleted[0].Transaction.Amount.Equal(testutil.USD(25)))

	assert.ErrorIs(t, l.Delete(ctx, "occ-feb"), domain.ErrNotFound)
}
