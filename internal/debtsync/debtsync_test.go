package debtsync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OybekDeveloper/leora/internal/bus"
	"github.com/OybekDeveloper/leora/internal/date"
	"github.com/OybekDeveloper/leora/internal/domain"
	"github.com/OybekDeveloper/leora/internal/ident"
	"github.com/OybekDeveloper/leora/internal/ledger"
	"github.com/OybekDeveloper/leora/internal/store"
	"github.com/OybekDeveloper/leora/internal/testutil"
)

type env struct {
	store    *store.Store
	ledger   *ledger.Service
	listener *Listener
	recorder *bus.Recorder
}

func setup(t *testing.T, debts ...domain.Debt) *env {
	t.Helper()
	s := testutil.NewStore(t)
	b := bus.New()
	l := New(s, b)
	l.Subscribe(b)
	rec := bus.NewRecorder(b)

	testutil.Seed(t, s, domain.Account{ID: "acc-1", Name: "Cash", Currency: "USD"})
	for _, d := range debts {
		testutil.Seed(t, s, d)
	}
	clock := testutil.NewClock(date.MustParse("2025-03-10"))
	return &env{
		store:    s,
		ledger:   ledger.New(s, b, ident.NewSequence("tx"), clock),
		listener: l,
		recorder: rec,
	}
}

func owe(id string, principal, remaining int64) domain.Debt {
	return domain.Debt{
		ID:           id,
		Direction:    domain.IOwe,
		Counterparty: "Ali",
		Principal:    testutil.USD(principal),
		Remaining:    testutil.USD(remaining),
		Status:       domain.DebtActive,
	}
}

func (e *env) pay(t *testing.T, debtID string, amount int64) domain.Transaction {
	t.Helper()
	tx, err := e.ledger.Create(context.Background(), domain.Transaction{
		AccountID: "acc-1",
		Type:      domain.TxExpense,
		Amount:    testutil.USD(amount),
		Date:      date.MustParse("2025-03-10"),
		DebtID:    debtID,
	})
	require.NoError(t, err)
	return tx
}

func (e *env) debt(t *testing.T, id string) domain.Debt {
	t.Helper()
	d, err := e.store.GetDebt(context.Background(), id)
	require.NoError(t, err)
	return d
}

func TestPaymentsAndReversal(t *testing.T) {
	e := setup(t, owe("d1", 100, 100))
	ctx := context.Background()

	e.pay(t, "d1", 30)
	d := e.debt(t, "d1")
	assert.True(t, d.Remaining.Equal(testutil.USD(70)))
	assert.Equal(t, domain.DebtActive, d.Status)

	last := e.pay(t, "d1", 70)
	d = e.debt(t, "d1")
	assert.True(t, d.Remaining.IsZero())
	assert.Equal(t, domain.DebtPaid, d.Status)

	require.NoError(t, e.ledger.Delete(ctx, last.ID))
	d = e.debt(t, "d1")
	assert.True(t, d.Remaining.Equal(testutil.USD(70)))
	assert.Equal(t, domain.DebtActive, d.Status)

	changes := bus.Of[bus.DebtStatusChanged](e.recorder)
	require.Len(t, changes, 2)
	assert.Equal(t, domain.DebtPaid, changes[0].To)
	assert.Equal(t, domain.DebtActive, changes[1].To)
	assert.Len(t, bus.Of[bus.DebtSynced](e.recorder), 2)
	assert.Len(t, bus.Of[bus.DebtPaymentAdded](e.recorder), 2)

	reversed := bus.Of[bus.DebtSyncReversed](e.recorder)
	require.Len(t, reversed, 1)
	assert.True(t, reversed[0].Restored.Equal(testutil.USD(70)))
}

func TestConservation_ClampedPayment(t *testing.T) {
	e := setup(t, owe("d1", 100, 100))
	ctx := context.Background()

	a := e.pay(t, "d1", 40)
	b := e.pay(t, "d1", 50)
	c := e.pay(t, "d1", 30) // only 10 left to apply
	assert.Equal(t, domain.DebtPaid, e.debt(t, "d1").Status)

	sync, err := e.store.GetDebtSync(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, sync.Applied.Equal(testutil.USD(10)))

	// Reverse in a different order than applied.
	for _, tx := range []domain.Transaction{b, c, a} {
		require.NoError(t, e.ledger.Delete(ctx, tx.ID))
	}
	d := e.debt(t, "d1")
	assert.True(t, d.Remaining.Equal(testutil.USD(100)))
	assert.Equal(t, domain.DebtActive, d.Status)
}

func TestConservation_PartiallyPaidStart(t *testing.T) {
	e := setup(t, owe("d1", 500, 120))
	ctx := context.Background()

	var txs []domain.Transaction
	for _, amount := range []int64{20, 20, 100, 5} {
		txs = append(txs, e.pay(t, "d1", amount))
	}
	for i := len(txs) - 1; i >= 0; i-- {
		require.NoError(t, e.ledger.Delete(ctx, txs[i].ID))
	}
	d := e.debt(t, "d1")
	assert.True(t, d.Remaining.Equal(testutil.USD(120)))
	assert.Equal(t, domain.DebtActive, d.Status)
}

func TestConservation_OverdueStart(t *testing.T) {
	overdue := owe("d1", 100, 100)
	overdue.Status = domain.DebtOverdue
	overdue.DueDate = date.MustParse("2025-02-01")
	ctx := context.Background()

	t.Run("reverse in order", func(t *testing.T) {
		e := setup(t, overdue)
		tx := e.pay(t, "d1", 100)
		require.Equal(t, domain.DebtPaid, e.debt(t, "d1").Status)

		require.NoError(t, e.ledger.Delete(ctx, tx.ID))
		d := e.debt(t, "d1")
		assert.True(t, d.Remaining.Equal(testutil.USD(100)))
		assert.Equal(t, domain.DebtOverdue, d.Status)

		changes := bus.Of[bus.DebtStatusChanged](e.recorder)
		require.Len(t, changes, 2)
		assert.Equal(t, domain.DebtOverdue, changes[0].From)
		assert.Equal(t, domain.DebtPaid, changes[1].From)
		assert.Equal(t, domain.DebtOverdue, changes[1].To)
	})

	t.Run("earlier payment reversed first", func(t *testing.T) {
		e := setup(t, overdue)
		a := e.pay(t, "d1", 40)
		b := e.pay(t, "d1", 50)
		c := e.pay(t, "d1", 30)
		require.Equal(t, domain.DebtPaid, e.debt(t, "d1").Status)

		require.NoError(t, e.ledger.Delete(ctx, b.ID))
		assert.Equal(t, domain.DebtOverdue, e.debt(t, "d1").Status)

		for _, tx := range []domain.Transaction{c, a} {
			require.NoError(t, e.ledger.Delete(ctx, tx.ID))
		}
		d := e.debt(t, "d1")
		assert.True(t, d.Remaining.Equal(testutil.USD(100)))
		assert.Equal(t, domain.DebtOverdue, d.Status)
	})
}

func TestMissingDebtIsDropped(t *testing.T) {
	e := setup(t)

	tx := e.pay(t, "gone", 30)
	assert.Empty(t, bus.Of[bus.DebtSynced](e.recorder))

	_, err := e.store.GetDebtSync(context.Background(), tx.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, e.ledger.Delete(context.Background(), tx.ID))
	assert.Empty(t, bus.Of[bus.DebtSyncReversed](e.recorder))
}

func TestDuplicateDeliveryIsNoOp(t *testing.T) {
	e := setup(t, owe("d1", 100, 100))
	tx := e.pay(t, "d1", 30)

	require.NoError(t, e.listener.OnCreated(context.Background(), bus.TxCreated{Transaction: tx}))
	assert.True(t, e.debt(t, "d1").Remaining.Equal(testutil.USD(70)))
	assert.Len(t, bus.Of[bus.DebtSynced](e.recorder), 1)
}

func TestOtherCurrencyIsDropped(t *testing.T) {
	e := setup(t)
	testutil.Seed(t, e.store, domain.Debt{
		ID: "d-uzs", Direction: domain.IOwe,
		Principal: testutil.UZS(1000000), Remaining: testutil.UZS(1000000),
		Status: domain.DebtActive,
	})

	e.pay(t, "d-uzs", 30)
	assert.True(t, e.debt(t, "d-uzs").Remaining.Equal(testutil.UZS(1000000)))
}

func TestCanceledDebtIsLeftAlone(t *testing.T) {
	d := owe("d1", 100, 100)
	d.Status = domain.DebtCanceled
	e := setup(t, d)

	e.pay(t, "d1", 100)
	got := e.debt(t, "d1")
	assert.Equal(t, domain.DebtCanceled, got.Status)
	assert.True(t, got.Remaining.Equal(testutil.USD(100)))
}

func TestUntaggedTransactionsAreIgnored(t *testing.T) {
	e := setup(t, owe("d1", 100, 100))
	e.pay(t, "", 30)
	assert.True(t, e.debt(t, "d1").Remaining.Equal(testutil.USD(100)))
	assert.Empty(t, bus.Of[bus.DebtSynced](e.recorder))
}
