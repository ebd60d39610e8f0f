// Package level converts between a player's experience total and their
// displayed level. The curve is quadratic: reaching level L requires
// xpBase*(L-1)^2 experience, so levels get progressively more expensive.
package level

import "math"

// xpBase is the experience cost of the first level step
const xpBase = 30

// FromXP returns the level a player with the given experience total has.
// Levels start at 1; negative experience is treated as zero.
func FromXP(xp int) int {
	if xp <= 0 {
		return 1
	}
	return int(math.Sqrt(float64(xp)/xpBase)) + 1
}

// Threshold returns the minimum experience total required for the given
// level. Levels below 2 have a threshold of zero.
func Threshold(level int) int {
	if level <= 1 {
		return 0
	}
	n := level - 1
	return xpBase * n * n
}

// ProgressTowardNext returns how far a player with the given experience
// total is toward the next level, as a fraction in [0, 1).
func ProgressTowardNext(xp int) float64 {
	if xp < 0 {
		xp = 0
	}
	cur := FromXP(xp)
	lo := Threshold(cur)
	hi := Threshold(cur + 1)
	return float64(xp-lo) / float64(hi-lo)
}
