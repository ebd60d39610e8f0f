package attribute

import (
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThomasWega/TG-Middleware/pkg/level"
)

func TestParseType(t *testing.T) {
	typ, err := ParseType("xp")
	require.NoError(t, err)
	assert.Equal(t, Experience, typ)

	typ, err = ParseType("LEVEL")
	require.NoError(t, err)
	assert.Equal(t, Level, typ)

	_, err = ParseType("mana")
	assert.Error(t, err)
}

func TestComputed(t *testing.T) {
	assert.True(t, Level.Computed())
	assert.False(t, Experience.Computed())
	assert.False(t, Identity.Computed())
}

func TestPlanUpdateProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("experience plan persists the raw value and mirrors the derived level", prop.ForAll(
		func(xp int) bool {
			plan, err := PlanUpdate(Experience, strconv.Itoa(xp))
			if err != nil {
				return false
			}
			if plan.Persisted != Experience || plan.StoreValue != strconv.Itoa(xp) {
				return false
			}
			wantLevel := strconv.Itoa(level.FromXP(xp))
			return len(plan.CacheEntries) == 2 &&
				plan.CacheEntries[0] == CacheEntry{Type: Level, Value: wantLevel} &&
				plan.CacheEntries[1] == CacheEntry{Type: Experience, Value: strconv.Itoa(xp)}
		},
		gen.IntRange(0, 1_000_000),
	))

	properties.Property("level plan retargets the store write to the experience threshold", prop.ForAll(
		func(lvl int) bool {
			plan, err := PlanUpdate(Level, strconv.Itoa(lvl))
			if err != nil {
				return false
			}
			return plan.Requested == Level &&
				plan.Persisted == Experience &&
				plan.StoreValue == strconv.Itoa(level.Threshold(lvl))
		},
		gen.IntRange(1, 1000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestPlanUpdateRejectsIdentity(t *testing.T) {
	_, err := PlanUpdate(Identity, "whatever")
	assert.ErrorIs(t, err, ErrIdentityUpdate)
}

func TestPlanUpdateRejectsNonNumeric(t *testing.T) {
	_, err := PlanUpdate(Experience, "lots")
	assert.Error(t, err)

	_, err = PlanUpdate(Level, "max")
	assert.Error(t, err)
}

func TestPlanUpdatePlainAttribute(t *testing.T) {
	plan, err := PlanUpdate(Rank, "moderator")
	require.NoError(t, err)
	assert.Equal(t, Rank, plan.Requested)
	assert.Equal(t, Rank, plan.Persisted)
	assert.Equal(t, "moderator", plan.StoreValue)
	assert.Equal(t, []CacheEntry{{Type: Rank, Value: "moderator"}}, plan.CacheEntries)
}
