package plugin

import (
	"fmt"
	"strconv"
	"strings"
)

// Timestamps are persisted in the player-scoped flag space as
// "year-month-day-hour-minute". The "marktime" effect writes one; the
// "age" condition measures elapsed game time against it using the host
// calendar, carrying overflow between components. Minutes per hour is
// fixed at 60.

// markTimeEffect stores the current game time under a named marker flag.
func markTimeEffect() Effect {
	return Effect{
		Name: "marktime",
		Args: ArgSpec{Min: 1, Max: 1},
		Apply: func(ctx *Context, args []string) error {
			if ctx.Host == nil || ctx.Host.Clock == nil {
				return fmt.Errorf("no clock service")
			}
			now := ctx.Host.Clock.Now()
			stamp := fmt.Sprintf("%d-%d-%d-%d-%d", now.Year, now.Month, now.Day, now.Hour, now.Minute)
			return ctx.Status.Set(args[0], stamp)
		},
	}
}

// ageCondition is true when the elapsed time since the marker meets or
// exceeds the duration given as <years> <months> <days> <hours> <minutes>.
// An unset or malformed marker never passes.
func ageCondition() Condition {
	return Condition{
		Name: "age",
		Args: ArgSpec{Min: 6, Max: 6},
		Check: func(ctx *Context, args []string) (bool, error) {
			if ctx.Host == nil || ctx.Host.Clock == nil {
				return false, fmt.Errorf("no clock service")
			}
			marked, ok := parseTimestamp(ctx.Status.Get(args[0]))
			if !ok {
				// The marker hasn't been set yet.
				return false, nil
			}

			var desired [5]int
			for i, raw := range args[1:] {
				n, err := strconv.Atoi(raw)
				if err != nil {
					return false, fmt.Errorf("bad duration component %q: %w", raw, err)
				}
				desired[i] = n
			}

			now := ctx.Host.Clock.Now()
			current := [5]int{now.Year, now.Month, now.Day, now.Hour, now.Minute}

			cal := ctx.Host.Calendar
			// Upper bound of each sub-year component: months per year, days
			// per month, hours per day, minutes per hour.
			limits := [4]int{cal.MonthsPerYear, cal.DaysPerMonth(), cal.HoursPerDay, 60}

			var actual [5]int
			for i := range actual {
				actual[i] = current[i] - marked[i]
			}

			for i := 4; i >= 1; i-- {
				// Carry oversized desired components upward.
				if limits[i-1] > 0 && desired[i] > limits[i-1] {
					desired[i-1] += desired[i] / limits[i-1]
					desired[i] %= limits[i-1]
				}
				// Borrow for negative actual components.
				if actual[i] < 0 {
					actual[i] += limits[i-1]
					actual[i-1]--
				}
			}

			for i := range actual {
				if actual[i] < desired[i] {
					return false, nil
				}
			}
			return true, nil
		},
	}
}

// parseTimestamp decodes a "y-m-d-h-min" marker value.
func parseTimestamp(raw string) ([5]int, bool) {
	var out [5]int
	parts := strings.Split(raw, "-")
	if len(parts) != 5 {
		return out, false
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return out, false
		}
		out[i] = n
	}
	return out, true
}
