package deck

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/bull-run-boost/internal/race"
	"github.com/radieske/bull-run-boost/pkg/contracts/events"
)

func TestNew_FullDeck(t *testing.T) {
	d := New()
	assert.Equal(t, 52, d.Len())
	for _, s := range race.Suits {
		assert.Equal(t, 13, d.Remaining()[s])
	}
}

func TestShuffle_KeepsCards(t *testing.T) {
	d := New()
	d.Shuffle(rand.New(rand.NewSource(42)))

	seen := map[race.Card]bool{}
	for d.Len() > 0 {
		c, err := d.Draw()
		require.NoError(t, err)
		assert.False(t, seen[c], "duplicate card %v", c)
		seen[c] = true
	}
	assert.Len(t, seen, 52)

	_, err := d.Draw()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestShuffle_Deterministic(t *testing.T) {
	a, b := New(), New()
	a.Shuffle(rand.New(rand.NewSource(7)))
	b.Shuffle(rand.New(rand.NewSource(7)))
	for a.Len() > 0 {
		ca, _ := a.Draw()
		cb, _ := b.Draw()
		assert.Equal(t, ca, cb)
	}
}

func TestRemaining_AfterDraw(t *testing.T) {
	d := New()
	c, err := d.Draw()
	require.NoError(t, err)
	assert.Equal(t, race.Card{Rank: "A", Suit: race.Spades}, c)
	assert.Equal(t, 12, d.Remaining()[race.Spades])
}

func TestWireRoundTrip(t *testing.T) {
	w := ToWire(race.Card{Rank: "Q", Suit: race.Diamonds})
	assert.Equal(t, events.Card{Rank: "Q", Suit: "♦", Color: "red"}, w)

	c, err := FromWire(w)
	require.NoError(t, err)
	assert.Equal(t, race.Diamonds, c.Suit)

	_, err = FromWire(events.Card{Rank: "2", Suit: "?"})
	assert.ErrorIs(t, err, race.ErrUnknownSuit)
}
