// Package harness runs end-to-end scenarios against a fully wired app.
//
// A scenario seeds an in-memory store, drives the ledger, the schedule
// processor and the habit evaluator through a list of steps, and then
// asserts on the resulting state and on the events the bus carried.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: debt_payment_reversal
//	description: "Deleting the last payment reopens the debt"
//	today: "2025-03-10"
//	seed:
//	  accounts:
//	    - {id: acc-1, name: Cash, currency: USD}
//	  debts:
//	    - {id: d1, direction: i_owe, principal: "100", currency: USD}
//	steps:
//	  - create_tx: {account_id: acc-1, type: expense, amount: "30", date: "2025-03-10", debt_id: d1}
//	  - delete_tx: id-0001
//	  - today: "2025-03-11"
//	  - process: true
//	  - evaluate_habits: "2025-03-10"
//	assertions:
//	  - type: debt
//	    id: d1
//	    expect: {remaining: "100", status: active}
//	  - type: event_count
//	    topic: finance.tx.created
//	    count: 1
//
// The seed section has the same shape as a CUE seed file and is checked
// against the same schema.
//
// # Assertion Types
//
//   - debt: remaining, principal, status, currency of a debt
//   - habit_entry: outcome and value recorded for a habit on a date
//   - task_status: status and completed flag of a task
//   - schedule_next: next_occurrence, active, paused, transactions of a schedule
//   - event_count: number of events published on a topic during the steps
//   - process_result: processed, failed, skipped returned by a process step
//
// Expected values are compared as strings, so "70", 70 and 70.0 in YAML
// differ only where their string forms differ.
//
// # Deterministic Runs
//
// Every run uses a fresh in-memory SQLite store, a settable clock that
// starts at the scenario's today, and sequential IDs (id-0001, id-0002, ...),
// so the same scenario always produces the same trace. Traces can be
// compared against golden files with RunWithGolden.
package harness
