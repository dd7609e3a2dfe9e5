package scheduler

import (
	"time"

	"github.com/OybekDeveloper/leora/internal/date"
)

// Clock tells the processor which calendar day it is.
// Implemented by SystemClock (production) and testutil.Clock (tests).
type Clock interface {
	Today() date.Date
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location.
// A nil Location means the host's local time.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Today() date.Date { return date.Today(c.Location) }

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}
