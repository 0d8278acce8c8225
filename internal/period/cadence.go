package period

import (
	"fmt"
	"time"

	"cashorganizer/internal/core"
)

// Cadence is the strategy interface for limit reset cycles. Each
// implementation knows where the current cycle began.
type Cadence interface {
	// Start returns the first instant of the cycle containing now.
	Start(now time.Time, loc *time.Location) time.Time
}

// DailyCadence resets at midnight.
type DailyCadence struct{}

func (DailyCadence) Start(now time.Time, loc *time.Location) time.Time {
	return StartOfDay(now, loc)
}

// WeeklyCadence resets on Monday at midnight.
type WeeklyCadence struct{}

func (WeeklyCadence) Start(now time.Time, loc *time.Location) time.Time {
	return StartOfWeek(now, loc)
}

// MonthlyCadence resets on the first day of the month.
type MonthlyCadence struct{}

func (MonthlyCadence) Start(now time.Time, loc *time.Location) time.Time {
	return StartOfMonth(now, loc)
}

var cadences = map[core.LimitPeriod]Cadence{
	core.Daily:   DailyCadence{},
	core.Weekly:  WeeklyCadence{},
	core.Monthly: MonthlyCadence{},
}

// GetCadence returns the strategy for p. Unknown values return an error
// together with the monthly strategy so callers can keep going.
func GetCadence(p core.LimitPeriod) (Cadence, error) {
	c, ok := cadences[p]
	if !ok {
		return MonthlyCadence{}, fmt.Errorf("unknown limit period: %s", p)
	}
	return c, nil
}

// CadenceStart is shorthand for GetCadence(p).Start(now, loc), falling back
// to the monthly cycle for unknown periods.
func CadenceStart(p core.LimitPeriod, now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	c, _ := GetCadence(p)
	return c.Start(now, loc)
}
