package level

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestLevelProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("FromXP is monotonic non-decreasing", prop.ForAll(
		func(a, b int) bool {
			if a > b {
				a, b = b, a
			}
			return FromXP(a) <= FromXP(b)
		},
		gen.IntRange(0, 10_000_000),
		gen.IntRange(0, 10_000_000),
	))

	properties.Property("Threshold is monotonic non-decreasing", prop.ForAll(
		func(a, b int) bool {
			if a > b {
				a, b = b, a
			}
			return Threshold(a) <= Threshold(b)
		},
		gen.IntRange(1, 1000),
		gen.IntRange(1, 1000),
	))

	properties.Property("Threshold of the derived level never exceeds the experience", prop.ForAll(
		func(xp int) bool {
			return Threshold(FromXP(xp)) <= xp
		},
		gen.IntRange(0, 10_000_000),
	))

	properties.Property("experience below a level threshold never reaches that level", prop.ForAll(
		func(lvl int) bool {
			threshold := Threshold(lvl)
			if threshold == 0 {
				return true
			}
			return FromXP(threshold-1) < lvl
		},
		gen.IntRange(2, 1000),
	))

	properties.Property("experience at a level threshold reaches exactly that level", prop.ForAll(
		func(lvl int) bool {
			return FromXP(Threshold(lvl)) == lvl || lvl <= 1
		},
		gen.IntRange(1, 1000),
	))

	properties.Property("progress toward next level stays in [0,1)", prop.ForAll(
		func(xp int) bool {
			p := ProgressTowardNext(xp)
			return p >= 0 && p < 1
		},
		gen.IntRange(0, 10_000_000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestKnownValues(t *testing.T) {
	assert.Equal(t, 1, FromXP(0))
	assert.Equal(t, 1, FromXP(-5))
	assert.Equal(t, 2, FromXP(30))
	assert.Equal(t, 3, FromXP(120))
	assert.Equal(t, 3, FromXP(150))

	assert.Equal(t, 0, Threshold(0))
	assert.Equal(t, 0, Threshold(1))
	assert.Equal(t, 30, Threshold(2))
	assert.Equal(t, 120, Threshold(3))
	assert.Equal(t, 270, Threshold(4))
}
