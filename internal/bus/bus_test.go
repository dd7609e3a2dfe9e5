package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OybekDeveloper/leora/internal/domain"
)

func TestPublish_SubscriptionOrder(t *testing.T) {
	b := New()
	var calls []string
	for _, name := range []string{"debt", "habit", "task"} {
		Subscribe(b, name, func(_ context.Context, e TxCreated) error {
			calls = append(calls, name+":"+e.Transaction.ID)
			return nil
		})
	}

	failed := b.Publish(context.Background(), TxCreated{Transaction: domain.Transaction{ID: "tx-1"}})

	assert.Zero(t, failed)
	assert.Equal(t, []string{"debt:tx-1", "habit:tx-1", "task:tx-1"}, calls)
}

func TestPublish_OnlyMatchingTopic(t *testing.T) {
	b := New()
	created, deleted := 0, 0
	Subscribe(b, "c", func(context.Context, TxCreated) error { created++; return nil })
	Subscribe(b, "d", func(context.Context, TxDeleted) error { deleted++; return nil })

	b.Publish(context.Background(), TxDeleted{})

	assert.Equal(t, 0, created)
	assert.Equal(t, 1, deleted)
}

func TestPublish_FailuresDoNotStopDelivery(t *testing.T) {
	b := New()
	var reached []string
	Subscribe(b, "erroring", func(context.Context, TxCreated) error {
		reached = append(reached, "erroring")
		return errors.New("boom")
	})
	Subscribe(b, "panicking", func(context.Context, TxCreated) error {
		reached = append(reached, "panicking")
		panic("kaboom")
	})
	Subscribe(b, "healthy", func(context.Context, TxCreated) error {
		reached = append(reached, "healthy")
		return nil
	})

	failed := b.Publish(context.Background(), TxCreated{})

	assert.Equal(t, 2, failed)
	assert.Equal(t, []string{"erroring", "panicking", "healthy"}, reached)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	b := New()
	n := 0
	unsub := Subscribe(b, "x", func(context.Context, HabitDayEvaluated) error { n++; return nil })
	require.Equal(t, 1, b.Subscribers(TopicHabitDayEvaluated))

	b.Publish(context.Background(), HabitDayEvaluated{})
	unsub()
	unsub()
	b.Publish(context.Background(), HabitDayEvaluated{})

	assert.Equal(t, 1, n)
	assert.Equal(t, 0, b.Subscribers(TopicHabitDayEvaluated))
}

func TestPublish_NestedPublish(t *testing.T) {
	b := New()
	var order []Topic
	Subscribe(b, "debt", func(ctx context.Context, e TxCreated) error {
		order = append(order, e.Topic())
		b.Publish(ctx, DebtSynced{DebtID: e.Transaction.DebtID})
		return nil
	})
	Subscribe(b, "task", func(_ context.Context, e DebtSynced) error {
		order = append(order, e.Topic())
		return nil
	})

	b.Publish(context.Background(), TxCreated{Transaction: domain.Transaction{DebtID: "d1"}})

	assert.Equal(t, []Topic{TopicTxCreated, TopicDebtSynced}, order)
}

func TestRecorder(t *testing.T) {
	b := New()
	rec := NewRecorder(b)
	defer rec.Close()

	b.Publish(context.Background(), TxCreated{Transaction: domain.Transaction{ID: "a"}})
	b.Publish(context.Background(), TxDeleted{Transaction: domain.Transaction{ID: "a"}})
	b.Publish(context.Background(), TxCreated{Transaction: domain.Transaction{ID: "b"}})

	assert.Len(t, rec.Events(), 3)
	assert.Equal(t, 2, rec.Count(TopicTxCreated))
	created := Of[TxCreated](rec)
	require.Len(t, created, 2)
	assert.Equal(t, "b", created[1].Transaction.ID)

	rec.Reset()
	assert.Empty(t, rec.Events())
}

func TestTopics_AreUnique(t *testing.T) {
	seen := map[Topic]bool{}
	for _, topic := range Topics() {
		assert.False(t, seen[topic], topic)
		seen[topic] = true
	}
	assert.Len(t, seen, 11)
}
