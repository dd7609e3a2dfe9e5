package ident

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/OybekDeveloper/leora/internal/date"
)

// Domain prefixes keep hashes of different entity kinds apart. The version
// suffix allows changing the encoding later without colliding old IDs.
const (
	DomainOccurrence = "leora/occurrence/v1"
)

// hashWithDomain computes SHA256(domain || 0x00 || data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// OccurrenceID is the ledger transaction ID for one occurrence of a
// schedule. It depends only on the schedule and the date.
func OccurrenceID(scheduleID string, occurrence date.Date) (string, error) {
	if occurrence.IsZero() {
		return "", fmt.Errorf("occurrence id: zero date")
	}
	canonical, err := MarshalCanonical(map[string]any{
		"schedule_id": scheduleID,
		"occurrence":  occurrence.String(),
	})
	if err != nil {
		return "", fmt.Errorf("occurrence id: %w", err)
	}
	return "occ_" + hashWithDomain(DomainOccurrence, canonical)[:32], nil
}

// MustOccurrenceID is like OccurrenceID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustOccurrenceID(scheduleID string, occurrence date.Date) string {
	id, err := OccurrenceID(scheduleID, occurrence)
	if err != nil {
		panic(err)
	}
	return id
}
