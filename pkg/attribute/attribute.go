// Package attribute defines the player attribute model: which attributes
// exist, which database column each one maps to, and how a requested
// update translates into store and cache writes.
package attribute

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ThomasWega/TG-Middleware/pkg/level"
)

// TableName is the authoritative player data table
const TableName = "player_data"

// ErrIdentityFetch is returned when a caller tries to read the Identity
// attribute through the generic fetch path. Identity values are resolved
// through the identity cache instead.
var ErrIdentityFetch = errors.New("identity cannot be fetched as an attribute, resolve it through the identity cache")

// ErrIdentityUpdate is returned when a caller tries to overwrite the
// Identity attribute, which is the row key and immutable.
var ErrIdentityUpdate = errors.New("identity is the row key and cannot be updated")

// Type enumerates the player attributes
type Type int

const (
	Identity Type = iota
	Name
	Experience
	Level
	Gems
	Rank
	Playtime
)

var columns = map[Type]string{
	Identity:   "uuid",
	Name:       "name",
	Experience: "xp",
	Level:      "level",
	Gems:       "gems",
	Rank:       "rank",
	Playtime:   "playtime_seconds",
}

// ColumnName returns the column (and cache key segment) for the attribute
func (t Type) ColumnName() string {
	return columns[t]
}

// Computed reports whether the attribute is derived rather than stored.
// Level is never persisted as its own column; it is always recomputed
// from Experience.
func (t Type) Computed() bool {
	return t == Level
}

func (t Type) String() string {
	return columns[t]
}

// ParseType resolves an attribute by its column name
func ParseType(s string) (Type, error) {
	for t, col := range columns {
		if col == strings.ToLower(s) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown attribute %q", s)
}

// CacheEntry is a single write-through mirror update
type CacheEntry struct {
	Type  Type
	Value string
}

// UpdateIntent is the immutable plan for one attribute write: what the
// caller asked for, what actually lands in the store, and which cache
// entries follow a successful commit. A Level update is persisted as the
// Experience threshold for that level; the raw level text only ever
// reaches the cache.
type UpdateIntent struct {
	Requested    Type
	Persisted    Type
	StoreValue   string
	CacheEntries []CacheEntry
}

// PlanUpdate derives the write plan for updating the given attribute.
// Numeric attributes are validated here, so an invalid value fails the
// operation before anything is touched.
func PlanUpdate(t Type, value string) (UpdateIntent, error) {
	switch t {
	case Identity:
		return UpdateIntent{}, ErrIdentityUpdate

	case Experience:
		xp, err := strconv.Atoi(value)
		if err != nil {
			return UpdateIntent{}, fmt.Errorf("experience value %q is not numeric: %w", value, err)
		}
		lvl := level.FromXP(xp)
		return UpdateIntent{
			Requested:  Experience,
			Persisted:  Experience,
			StoreValue: strconv.Itoa(xp),
			CacheEntries: []CacheEntry{
				{Type: Level, Value: strconv.Itoa(lvl)},
				{Type: Experience, Value: strconv.Itoa(xp)},
			},
		}, nil

	case Level:
		lvl, err := strconv.Atoi(value)
		if err != nil {
			return UpdateIntent{}, fmt.Errorf("level value %q is not numeric: %w", value, err)
		}
		threshold := level.Threshold(lvl)
		return UpdateIntent{
			Requested:  Level,
			Persisted:  Experience,
			StoreValue: strconv.Itoa(threshold),
			CacheEntries: []CacheEntry{
				{Type: Level, Value: strconv.Itoa(lvl)},
				{Type: Experience, Value: strconv.Itoa(threshold)},
			},
		}, nil

	default:
		return UpdateIntent{
			Requested:    t,
			Persisted:    t,
			StoreValue:   value,
			CacheEntries: []CacheEntry{{Type: t, Value: value}},
		}, nil
	}
}
