package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/dialogue/internal/host"
)

func TestMarkTimeWritesStamp(t *testing.T) {
	ctx, world := testContext(t)
	world.SetTime(host.GameTime{Year: 10, Month: 5, Day: 12, Hour: 7, Minute: 42})

	apply(t, ctx, "marktime", "last_visit")
	assert.Equal(t, "10-5-12-7-42", ctx.Status.Get("last_visit"))
}

func TestAgeUnsetMarkerNeverPasses(t *testing.T) {
	ctx, _ := testContext(t)
	assert.False(t, check(t, ctx, "age", "last_visit", "0", "0", "0", "0", "0"))
}

func TestAgeElapsed(t *testing.T) {
	ctx, world := testContext(t)
	world.SetTime(host.GameTime{Year: 10, Month: 5, Day: 10, Hour: 10, Minute: 30})
	apply(t, ctx, "marktime", "mark")

	// No time has passed: only the zero duration is satisfied.
	assert.True(t, check(t, ctx, "age", "mark", "0", "0", "0", "0", "0"))
	assert.False(t, check(t, ctx, "age", "mark", "0", "0", "0", "0", "1"))

	world.SetTime(host.GameTime{Year: 10, Month: 5, Day: 10, Hour: 11, Minute: 30})
	assert.True(t, check(t, ctx, "age", "mark", "0", "0", "0", "1", "0"))
	assert.False(t, check(t, ctx, "age", "mark", "0", "0", "0", "2", "0"))
}

func TestAgeBorrowsAcrossComponents(t *testing.T) {
	ctx, world := testContext(t)
	world.SetTime(host.GameTime{Year: 10, Month: 5, Day: 10, Hour: 10, Minute: 30})
	apply(t, ctx, "marktime", "mark")

	// 1 hour 40 minutes later the raw minute difference is negative and
	// must borrow from the hour component.
	world.SetTime(host.GameTime{Year: 10, Month: 5, Day: 10, Hour: 12, Minute: 10})
	assert.True(t, check(t, ctx, "age", "mark", "0", "0", "0", "1", "30"))
	assert.False(t, check(t, ctx, "age", "mark", "0", "0", "0", "2", "0"))
}

func TestAgeCarriesOversizedDuration(t *testing.T) {
	ctx, world := testContext(t)
	world.SetTime(host.GameTime{Year: 10, Month: 5, Day: 10, Hour: 10, Minute: 30})
	apply(t, ctx, "marktime", "mark")

	world.SetTime(host.GameTime{Year: 10, Month: 5, Day: 10, Hour: 12, Minute: 10})
	// 90 minutes normalizes to 1 hour 30 minutes, which has elapsed.
	assert.True(t, check(t, ctx, "age", "mark", "0", "0", "0", "0", "90"))
	// 130 minutes normalizes to 2 hours 10 minutes, which has not.
	assert.False(t, check(t, ctx, "age", "mark", "0", "0", "0", "0", "130"))
}

func TestAgeAcrossYearBoundary(t *testing.T) {
	ctx, world := testContext(t)
	// Late in the game year: month 17 of 17, day 35 of 35.
	world.SetTime(host.GameTime{Year: 10, Month: 17, Day: 35, Hour: 27, Minute: 50})
	apply(t, ctx, "marktime", "mark")

	// Twenty game minutes later a new year has started.
	world.SetTime(host.GameTime{Year: 11, Month: 1, Day: 1, Hour: 0, Minute: 10})
	assert.True(t, check(t, ctx, "age", "mark", "0", "0", "0", "0", "15"))
	assert.False(t, check(t, ctx, "age", "mark", "0", "0", "0", "1", "0"))
	assert.False(t, check(t, ctx, "age", "mark", "1", "0", "0", "0", "0"))
}

func TestAgeBadDuration(t *testing.T) {
	ctx, world := testContext(t)
	world.SetTime(host.GameTime{Year: 10, Month: 5, Day: 10, Hour: 10, Minute: 30})
	apply(t, ctx, "marktime", "mark")

	_, err := Builtins().Check(ctx, "age", []string{"mark", "0", "0", "0", "0", "soon"})
	assert.Error(t, err)
}

func TestAgeMalformedMarker(t *testing.T) {
	ctx, _ := testContext(t)
	require.NoError(t, ctx.Status.Set("mark", "not-a-stamp"))
	assert.False(t, check(t, ctx, "age", "mark", "0", "0", "0", "0", "0"))
}
