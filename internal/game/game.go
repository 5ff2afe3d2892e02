// internal/game/game.go
package game

import "github.com/zheric/setgame/internal/models"

// DealSize is how many cards a single deal moves from the deck to the table.
const DealSize = 3

// Game holds the card lifecycle for one round of Set. It performs no I/O and
// is not safe for concurrent use; a single controller owns it.
//
// Every card in the deck lives in cards for the whole game, in deck order.
// The undealt, dealt and discarded piles are views filtered by Location.
type Game struct {
	cards []models.Card
	index map[int]int // card ID -> position in cards
	src   RandSource
}

// DealResult describes what a DealMore call changed.
type DealResult struct {
	Dealt     []models.Card `json:"dealt"`
	Discarded []models.Card `json:"discarded,omitempty"`
}

// SelectResult describes what a SelectCard call changed. The zero value means
// the call was ignored.
type SelectResult struct {
	Toggled bool `json:"toggled"`
	// Selected is the target's selection state after the toggle.
	Selected bool `json:"selected"`
	// Reset is set when a full unmatched triple was cleared before the toggle.
	Reset     bool          `json:"reset"`
	Discarded []models.Card `json:"discarded,omitempty"`

	// Evaluated is set when the toggle completed a triple.
	Evaluated  bool          `json:"evaluated"`
	Matched    bool          `json:"matched"`
	Evaluation SetEvaluation `json:"evaluation"`
	Triple     []models.Card `json:"triple,omitempty"`
}

// Status summarizes the table for callers; nothing here is an error.
type Status struct {
	Undealt       int  `json:"undealt"`
	Dealt         int  `json:"dealt"`
	Discarded     int  `json:"discarded"`
	Selected      int  `json:"selected"`
	DeckExhausted bool `json:"deckExhausted"`
	NoCardsDealt  bool `json:"noCardsDealt"`
	SetAvailable  bool `json:"setAvailable"`
	Over          bool `json:"over"`
}

// New builds a game over a freshly generated deck. A nil src falls back to a
// time-seeded source.
func New(src RandSource) *Game {
	if src == nil {
		src = NewTimeSource()
	}
	g := &Game{src: src}
	g.reset()
	return g
}

// Restart throws away all state and deals from a new deck drawn from the
// same random source.
func (g *Game) Restart() {
	g.reset()
}

func (g *Game) reset() {
	g.cards = GenerateDeck(g.src)
	g.index = make(map[int]int, len(g.cards))
	for i, c := range g.cards {
		g.index[c.ID] = i
	}
}

// DealMore discards any matched cards, then moves up to DealSize cards from
// the deck to the table in deck order. An empty deck only triggers the
// discard step.
func (g *Game) DealMore() DealResult {
	res := DealResult{Discarded: g.DiscardMatched()}
	for i := range g.cards {
		if len(res.Dealt) == DealSize {
			break
		}
		if g.cards[i].Location != models.InDeck {
			continue
		}
		g.cards[i].Location = models.Dealt
		res.Dealt = append(res.Dealt, g.cards[i])
	}
	return res
}

// SelectCard applies the selection protocol to the dealt card with the given
// ID. Unknown IDs and cards that are not on the table are ignored.
//
// Matched cards from the previous triple are discarded first. If a full
// triple is still showing, it is cleared before the new pick toggles. When
// the toggle brings the selection to three cards they are evaluated and, on
// a set, marked matched; they stay on the table until the next intent.
func (g *Game) SelectCard(id int) SelectResult {
	pos, ok := g.index[id]
	if !ok || g.cards[pos].Location != models.Dealt {
		return SelectResult{}
	}

	res := SelectResult{Discarded: g.DiscardMatched()}
	if g.cards[pos].Location != models.Dealt {
		// the pick was part of the matched triple just discarded
		return res
	}

	if g.selectedCount() >= DealSize {
		g.clearSelection()
		res.Reset = true
	}

	g.cards[pos].Selected = !g.cards[pos].Selected
	res.Toggled = true
	res.Selected = g.cards[pos].Selected

	selected := g.selectedPositions()
	if len(selected) != DealSize {
		return res
	}

	a, b, c := g.cards[selected[0]], g.cards[selected[1]], g.cards[selected[2]]
	res.Evaluated = true
	res.Evaluation = EvaluateSet(a, b, c)
	if res.Evaluation.Valid() {
		res.Matched = true
		for _, p := range selected {
			g.cards[p].Matched = true
		}
	}
	for _, p := range selected {
		res.Triple = append(res.Triple, g.cards[p])
	}
	return res
}

// DiscardMatched moves every matched card to the discard pile, clearing its
// flags, and returns the cards it moved. DealMore and SelectCard do this
// first; callers use it directly to settle the table when a round ends.
func (g *Game) DiscardMatched() []models.Card {
	var out []models.Card
	for i := range g.cards {
		if !g.cards[i].Matched {
			continue
		}
		g.cards[i].Location = models.Discarded
		g.cards[i].Selected = false
		g.cards[i].Matched = false
		out = append(out, g.cards[i])
	}
	return out
}

func (g *Game) clearSelection() {
	for i := range g.cards {
		if g.cards[i].Location == models.Dealt {
			g.cards[i].Selected = false
		}
	}
}

func (g *Game) selectedPositions() []int {
	var out []int
	for i, c := range g.cards {
		if c.Location == models.Dealt && c.Selected {
			out = append(out, i)
		}
	}
	return out
}

func (g *Game) selectedCount() int {
	return len(g.selectedPositions())
}

// DealtCards returns a copy of the cards on the table, in deck order.
func (g *Game) DealtCards() []models.Card {
	return g.filter(func(c models.Card) bool { return c.Location == models.Dealt })
}

// UndealtCards returns a copy of the cards still in the deck, in deal order.
func (g *Game) UndealtCards() []models.Card {
	return g.filter(func(c models.Card) bool { return c.Location == models.InDeck })
}

// DiscardedCards returns a copy of the discard pile, in deck order.
func (g *Game) DiscardedCards() []models.Card {
	return g.filter(func(c models.Card) bool { return c.Location == models.Discarded })
}

// SelectedCards returns a copy of the current selection.
func (g *Game) SelectedCards() []models.Card {
	return g.filter(func(c models.Card) bool { return c.Location == models.Dealt && c.Selected })
}

// Cards returns a copy of the whole deck regardless of location.
func (g *Game) Cards() []models.Card {
	out := make([]models.Card, len(g.cards))
	copy(out, g.cards)
	return out
}

// Card looks up a single card by ID.
func (g *Game) Card(id int) (models.Card, bool) {
	pos, ok := g.index[id]
	if !ok {
		return models.Card{}, false
	}
	return g.cards[pos], true
}

// Hint returns a set among the dealt cards that are not already matched.
func (g *Game) Hint() ([3]models.Card, bool) {
	return FindSet(g.filter(func(c models.Card) bool {
		return c.Location == models.Dealt && !c.Matched
	}))
}

// Status reports pile sizes and whether play can continue. The game is over
// once the deck is empty and no set remains on the table.
func (g *Game) Status() Status {
	var s Status
	for _, c := range g.cards {
		switch c.Location {
		case models.InDeck:
			s.Undealt++
		case models.Dealt:
			s.Dealt++
			if c.Selected {
				s.Selected++
			}
		case models.Discarded:
			s.Discarded++
		}
	}
	_, s.SetAvailable = g.Hint()
	s.DeckExhausted = s.Undealt == 0
	s.NoCardsDealt = s.Dealt == 0
	s.Over = s.DeckExhausted && !s.SetAvailable
	return s
}

func (g *Game) filter(keep func(models.Card) bool) []models.Card {
	out := []models.Card{}
	for _, c := range g.cards {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}
