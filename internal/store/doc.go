// Package store provides SQLite-backed persistence for schedules, ledger
// transactions, debts, habits, tasks, goals and budgets.
//
// # Write scopes
//
// WithWriteScope opens one database transaction and carries it in the
// context. Every repository method resolves its executor from the context,
// so code that only knows a narrow interface (GetDebt, UpdateDebt...) still
// joins the caller's scope. Nested scopes join the outer transaction.
//
// # Idempotency keys
//
//   - transactions: UNIQUE(schedule_id, occurrence); a second insert for the
//     same occurrence is ignored and reported as inserted=false
//   - habit_entries: PRIMARY KEY(habit_id, day); writes replace the outcome
//   - debt_syncs: PRIMARY KEY(transaction_id); one balance change per
//     transaction, undone exactly by deleting the record; prior_status keeps
//     the status a settling payment replaced
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Missing rows are reported with errors wrapping domain.ErrNotFound.
package store
