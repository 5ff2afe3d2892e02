// internal/models/card.go
package models

import "fmt"

// Shape is one of the three card symbols.
type Shape uint8

const (
	ShapeOval Shape = iota
	ShapeDiamond
	ShapeSquiggle
)

// Shading is the fill pattern of the symbols on a card.
type Shading uint8

const (
	ShadingOpen Shading = iota
	ShadingSolid
	ShadingStriped
)

// Color is the ink color of the symbols on a card.
type Color uint8

const (
	ColorGreen Color = iota
	ColorPurple
	ColorRed
)

// Location tracks where a card currently lives. Cards only ever move forward:
// InDeck -> Dealt -> Discarded.
type Location uint8

const (
	InDeck Location = iota
	Dealt
	Discarded
)

// DeckSize is the number of distinct cards: 3 shapes x 3 shadings x 3 colors x 3 counts.
const DeckSize = 81

// Attribute domains, in generation order.
var (
	Shapes   = []Shape{ShapeOval, ShapeDiamond, ShapeSquiggle}
	Shadings = []Shading{ShadingOpen, ShadingSolid, ShadingStriped}
	Colors   = []Color{ColorGreen, ColorPurple, ColorRed}
	Counts   = []int{1, 2, 3}
)

var (
	shapeNames    = [...]string{"oval", "diamond", "squiggle"}
	shadingNames  = [...]string{"open", "solid", "striped"}
	colorNames    = [...]string{"green", "purple", "red"}
	locationNames = [...]string{"deck", "dealt", "discarded"}
)

// Card is a single playing card. ID, Shape, Shading, Color and Count never
// change; Location, Selected and Matched are owned by the game engine.
type Card struct {
	ID      int     `json:"id"`
	Shape   Shape   `json:"shape"`
	Shading Shading `json:"shading"`
	Color   Color   `json:"color"`
	Count   int     `json:"count"`

	Location Location `json:"location"`
	Selected bool     `json:"selected"`
	Matched  bool     `json:"matched"`
}

// String renders a short human readable form, e.g. "#12 2 solid red diamond".
func (c Card) String() string {
	return fmt.Sprintf("#%d %d %s %s %s", c.ID, c.Count, c.Shading, c.Color, c.Shape)
}

func (s Shape) String() string { return enumName(shapeNames[:], int(s)) }

func (s Shading) String() string { return enumName(shadingNames[:], int(s)) }

func (c Color) String() string { return enumName(colorNames[:], int(c)) }

func (l Location) String() string { return enumName(locationNames[:], int(l)) }

func (s Shape) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Shape) UnmarshalText(b []byte) error {
	v, err := parseEnum(shapeNames[:], "shape", string(b))
	*s = Shape(v)
	return err
}

func (s Shading) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Shading) UnmarshalText(b []byte) error {
	v, err := parseEnum(shadingNames[:], "shading", string(b))
	*s = Shading(v)
	return err
}

func (c Color) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Color) UnmarshalText(b []byte) error {
	v, err := parseEnum(colorNames[:], "color", string(b))
	*c = Color(v)
	return err
}

func (l Location) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Location) UnmarshalText(b []byte) error {
	v, err := parseEnum(locationNames[:], "location", string(b))
	*l = Location(v)
	return err
}

func enumName(names []string, v int) string {
	if v < 0 || v >= len(names) {
		return fmt.Sprintf("unknown(%d)", v)
	}
	return names[v]
}

func parseEnum(names []string, kind, s string) (int, error) {
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("invalid %s %q", kind, s)
}
