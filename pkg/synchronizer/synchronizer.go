package synchronizer

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Type selects how a synchronizer picks indices.
type Type string

const (
	TypeLocked     Type = "locked"
	TypeDeck       Type = "deck"
	TypeCyclicDeck Type = "cdeck"
)

// ParseType accepts the names used in patterns.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "locked":
		return TypeLocked, nil
	case "deck":
		return TypeDeck, nil
	case "cdeck", "cyclic", "cyclic-deck":
		return TypeCyclicDeck, nil
	default:
		return "", fmt.Errorf("unknown synchronizer type '%s'", strings.TrimSpace(name))
	}
}

// Synchronizer correlates choice indices across block evaluations.
type Synchronizer interface {
	Next() int
	Choices() int
	Type() Type
}

// New constructs a synchronizer over numChoices indices.
func New(t Type, numChoices int, rng *rand.Rand) (Synchronizer, error) {
	if numChoices < 1 {
		return nil, fmt.Errorf("synchronizer needs at least one choice, got %d", numChoices)
	}
	switch t {
	case TypeLocked:
		return &Locked{index: rng.IntN(numChoices), choices: numChoices}, nil
	case TypeDeck:
		d := &Deck{choices: numChoices, rng: rng}
		d.shuffle()
		return d, nil
	case TypeCyclicDeck:
		return &CyclicDeck{ring: rng.Perm(numChoices)}, nil
	default:
		return nil, fmt.Errorf("unknown synchronizer type '%s'", t)
	}
}

// Locked returns the same index for its whole lifetime.
type Locked struct {
	index   int
	choices int
}

func (l *Locked) Next() int    { return l.index }
func (l *Locked) Choices() int { return l.choices }
func (l *Locked) Type() Type   { return TypeLocked }

// Deck deals a shuffled permutation without replacement and reshuffles once
// it runs out.
type Deck struct {
	choices int
	order   []int
	rng     *rand.Rand
}

func (d *Deck) shuffle() {
	d.order = d.rng.Perm(d.choices)
}

func (d *Deck) Next() int {
	if len(d.order) == 0 {
		d.shuffle()
	}
	next := d.order[0]
	d.order = d.order[1:]
	return next
}

func (d *Deck) Choices() int { return d.choices }
func (d *Deck) Type() Type   { return TypeDeck }

// CyclicDeck shuffles once and then walks the same ring forever.
type CyclicDeck struct {
	ring []int
	pos  int
}

func (c *CyclicDeck) Next() int {
	c.pos = (c.pos + 1) % len(c.ring)
	return c.ring[c.pos]
}

func (c *CyclicDeck) Choices() int { return len(c.ring) }
func (c *CyclicDeck) Type() Type   { return TypeCyclicDeck }
