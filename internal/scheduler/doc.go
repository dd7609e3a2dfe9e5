// Package scheduler turns recurring schedules into ledger transactions.
//
// The Processor is the daily batch driver. It is guarded twice against
// running more than once per calendar day: by an in-process State (which
// also rejects re-entrant calls while a run is in flight) and by the
// persisted scheduler_state row, which survives restarts.
//
// Each fired occurrence gets a content-addressed transaction ID derived
// from (schedule ID, occurrence date). Together with the store's unique
// (schedule_id, occurrence) key, a crashed and re-run batch can never
// create a second transaction for the same occurrence.
//
// The Service covers the schedule lifecycle: create with first-occurrence
// backfill, pause, resume, skip an occurrence, delete with optional cascade.
package scheduler
