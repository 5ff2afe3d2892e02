// internal/game/rules.go
package game

import "github.com/zheric/setgame/internal/models"

// SetEvaluation reports, per attribute, whether three cards satisfy the
// all-same-or-all-different rule.
type SetEvaluation struct {
	Count   bool `json:"count"`
	Shape   bool `json:"shape"`
	Shading bool `json:"shading"`
	Color   bool `json:"color"`
}

// Valid is true when every attribute holds.
func (e SetEvaluation) Valid() bool {
	return e.Count && e.Shape && e.Shading && e.Color
}

// EvaluateSet checks every attribute of the triple without short-circuiting,
// so callers can report which rules failed.
func EvaluateSet(a, b, c models.Card) SetEvaluation {
	return SetEvaluation{
		Count:   sameOrDistinct(a.Count, b.Count, c.Count),
		Shape:   sameOrDistinct(a.Shape, b.Shape, c.Shape),
		Shading: sameOrDistinct(a.Shading, b.Shading, c.Shading),
		Color:   sameOrDistinct(a.Color, b.Color, c.Color),
	}
}

// IsValidSet reports whether a, b and c form a set: for each of the four
// attributes the three values are all equal or pairwise distinct.
func IsValidSet(a, b, c models.Card) bool {
	return sameOrDistinct(a.Count, b.Count, c.Count) &&
		sameOrDistinct(a.Shape, b.Shape, c.Shape) &&
		sameOrDistinct(a.Shading, b.Shading, c.Shading) &&
		sameOrDistinct(a.Color, b.Color, c.Color)
}

// FindSet returns the first valid triple among cards, scanning in order.
func FindSet(cards []models.Card) ([3]models.Card, bool) {
	for i := 0; i < len(cards); i++ {
		for j := i + 1; j < len(cards); j++ {
			for k := j + 1; k < len(cards); k++ {
				if IsValidSet(cards[i], cards[j], cards[k]) {
					return [3]models.Card{cards[i], cards[j], cards[k]}, true
				}
			}
		}
	}
	return [3]models.Card{}, false
}

// sameOrDistinct: with three possible values, anything other than all-equal
// or all-different is a pair plus an odd one out, which fails.
func sameOrDistinct[T comparable](x, y, z T) bool {
	if x == y && y == z {
		return true
	}
	return x != y && y != z && x != z
}
