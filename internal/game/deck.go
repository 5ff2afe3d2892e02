// internal/game/deck.go
package game

import (
	"math/rand"
	"time"

	"github.com/zheric/setgame/internal/models"
)

// RandSource is the randomness a Game draws on. *rand.Rand satisfies it.
type RandSource interface {
	Shuffle(n int, swap func(i, j int))
}

// NewRandSource returns a deterministic source; equal seeds shuffle identically.
func NewRandSource(seed int64) RandSource {
	return rand.New(rand.NewSource(seed))
}

// NewTimeSource returns a source seeded from the wall clock.
func NewTimeSource() RandSource {
	return NewRandSource(time.Now().UnixNano())
}

// GenerateDeck enumerates every shape/shading/color/count combination once,
// numbers the cards in generation order, then shuffles them with src.
// All cards start InDeck with no flags set.
func GenerateDeck(src RandSource) []models.Card {
	deck := make([]models.Card, 0, models.DeckSize)
	for _, shape := range models.Shapes {
		for _, shading := range models.Shadings {
			for _, color := range models.Colors {
				for _, n := range models.Counts {
					deck = append(deck, models.Card{
						ID:       len(deck),
						Shape:    shape,
						Shading:  shading,
						Color:    color,
						Count:    n,
						Location: models.InDeck,
					})
				}
			}
		}
	}

	if src != nil {
		src.Shuffle(len(deck), func(i, j int) {
			deck[i], deck[j] = deck[j], deck[i]
		})
	}
	return deck
}
