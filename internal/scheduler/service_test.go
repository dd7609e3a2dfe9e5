package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OybekDeveloper/leora/internal/bus"
	"github.com/OybekDeveloper/leora/internal/domain"
	"github.com/OybekDeveloper/leora/internal/ident"
	"github.com/OybekDeveloper/leora/internal/ledger"
	"github.com/OybekDeveloper/leora/internal/recurrence"
	"github.com/OybekDeveloper/leora/internal/store"
	"github.com/OybekDeveloper/leora/internal/testutil"
)

func newService(f *fixture) *Service {
	l := ledger.New(f.store, f.bus, ident.NewSequence("tx"), f.clock)
	return NewService(f.store, l, f.clock, ident.NewSequence("sched"))
}

func template(pattern domain.Pattern, start string) domain.Schedule {
	return domain.Schedule{
		AccountID: "acc-1",
		Type:      domain.TxExpense,
		Amount:    testutil.USD(12),
		Pattern:   pattern,
		Interval:  1,
		StartDate: day(start),
	}
}

func TestService_CreateBackfillsPastStart(t *testing.T) {
	f := newFixture(t, "2025-03-10")
	svc := newService(f)

	sc, err := svc.Create(context.Background(), template(domain.Monthly, "2023-01-15"))
	require.NoError(t, err)
	assert.Equal(t, "sched-0001", sc.ID)
	assert.Equal(t, day("2025-03-15"), sc.NextOccurrence)
	assert.True(t, sc.IsActive)

	// Walking forward created nothing.
	txs, err := f.store.ListTransactions(context.Background(), store.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestService_CreateStartingTodayFiresToday(t *testing.T) {
	f := newFixture(t, "2025-03-10")
	svc := newService(f)

	sc, err := svc.Create(context.Background(), template(domain.Weekly, "2025-03-10"))
	require.NoError(t, err)
	assert.Equal(t, day("2025-03-10"), sc.NextOccurrence)

	assert.Equal(t, Result{Processed: 1}, f.run(t))
}

func TestService_CreateFutureStart(t *testing.T) {
	f := newFixture(t, "2025-03-10")
	svc := newService(f)

	sc, err := svc.Create(context.Background(), template(domain.Yearly, "2026-01-01"))
	require.NoError(t, err)
	assert.Equal(t, day("2026-01-01"), sc.NextOccurrence)
}

func TestService_CreateWeekdaysAlignsStart(t *testing.T) {
	f := newFixture(t, "2025-03-10") // Monday
	svc := newService(f)

	tpl := template(domain.Weekly, "2025-03-10")
	tpl.DaysOfWeek = []time.Weekday{time.Wednesday, time.Friday}
	sc, err := svc.Create(context.Background(), tpl)
	require.NoError(t, err)
	assert.Equal(t, day("2025-03-12"), sc.NextOccurrence)
}

func TestService_CreateRejectsInvalid(t *testing.T) {
	f := newFixture(t, "2025-03-10")
	svc := newService(f)
	ctx := context.Background()

	zeroInterval := template(domain.Daily, "2025-03-01")
	zeroInterval.Interval = 0
	_, err := svc.Create(ctx, zeroInterval)
	assert.True(t, recurrence.IsConfigError(err), "got %v", err)

	unknownAccount := template(domain.Daily, "2025-03-01")
	unknownAccount.AccountID = "nope"
	_, err = svc.Create(ctx, unknownAccount)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "account_id", verr.Field)

	backwards := template(domain.Daily, "2025-03-01")
	backwards.EndDate = day("2025-02-01")
	_, err = svc.Create(ctx, backwards)
	assert.ErrorAs(t, err, &verr)
}

func TestService_CreatePastEndIsInactive(t *testing.T) {
	f := newFixture(t, "2025-03-10")
	svc := newService(f)

	tpl := template(domain.Monthly, "2024-01-05")
	tpl.EndDate = day("2024-06-30")
	sc, err := svc.Create(context.Background(), tpl)
	require.NoError(t, err)
	assert.False(t, sc.IsActive)
}

func TestService_PauseResume(t *testing.T) {
	f := newFixture(t, "2025-03-10")
	svc := newService(f)
	ctx := context.Background()

	sc, err := svc.Create(ctx, template(domain.Daily, "2025-03-10"))
	require.NoError(t, err)

	paused, err := svc.Pause(ctx, sc.ID)
	require.NoError(t, err)
	assert.True(t, paused.IsPaused)
	assert.Equal(t, Result{Skipped: 1}, f.run(t))

	resumed, err := svc.Resume(ctx, sc.ID)
	require.NoError(t, err)
	assert.False(t, resumed.IsPaused)
	assert.Equal(t, day("2025-03-10"), resumed.NextOccurrence, "pause keeps the occurrence")

	f.clock.Advance(1)
	assert.Equal(t, Result{Processed: 1}, f.run(t))
}

func TestService_SkipPendingOccurrence(t *testing.T) {
	f := newFixture(t, "2025-03-10")
	svc := newService(f)
	ctx := context.Background()

	sc, err := svc.Create(ctx, template(domain.Daily, "2025-03-10"))
	require.NoError(t, err)

	sc, err = svc.SkipOccurrence(ctx, sc.ID, day("2025-03-11"))
	require.NoError(t, err)
	assert.Equal(t, day("2025-03-10"), sc.NextOccurrence, "future skip does not move the pending occurrence")

	sc, err = svc.SkipOccurrence(ctx, sc.ID, day("2025-03-10"))
	require.NoError(t, err)
	assert.Equal(t, day("2025-03-12"), sc.NextOccurrence)
	assert.True(t, sc.SkipDates.Has(day("2025-03-10")))
	assert.True(t, sc.SkipDates.Has(day("2025-03-11")))

	assert.Equal(t, Result{}, f.run(t))
}

func TestService_DeleteCascade(t *testing.T) {
	f := newFixture(t, "2025-03-10")
	svc := newService(f)
	ctx := context.Background()

	sc, err := svc.Create(ctx, template(domain.Daily, "2025-03-10"))
	require.NoError(t, err)
	f.run(t)
	f.clock.Advance(1)
	f.run(t)
	require.Len(t, f.transactions(t, sc.ID), 2)

	require.NoError(t, svc.Delete(ctx, sc.ID, true))
	assert.Empty(t, f.transactions(t, sc.ID))
	assert.Equal(t, 2, f.recorder.Count(bus.TopicTxDeleted))

	_, err = svc.Get(ctx, sc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_DeleteKeepsTransactions(t *testing.T) {
	f := newFixture(t, "2025-03-10")
	svc := newService(f)
	ctx := context.Background()

	sc, err := svc.Create(ctx, template(domain.Daily, "2025-03-10"))
	require.NoError(t, err)
	f.run(t)

	require.NoError(t, svc.Delete(ctx, sc.ID, false))
	assert.Len(t, f.transactions(t, sc.ID), 1)
}
