package pairing

import (
	"testing"

	"github.com/itbasis/go-clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vietd88/grubberbot/model"
)

// roster builds players whose member ids start at base.
func roster(base int32, ratings ...int) []Player {
	p := make([]Player, 0, len(ratings))
	for i, r := range ratings {
		id := base + int32(i)
		p = append(p, Player{SeedID: id * 10, MemberID: id, Rating: r})
	}
	return p
}

func newEngine() *Engine {
	return New(clock.NewMock(), Options{Restarts: 4, MaxIterations: 1000, Seed: 3})
}

func assertValid(t *testing.T, a, b []Player, pairings []Pairing, history History) {
	t.Helper()
	require.Len(t, pairings, len(a))

	inA := make(map[int32]bool)
	for _, p := range a {
		inA[p.MemberID] = true
	}
	used := make(map[int32]bool)
	for _, p := range pairings {
		assert.NotEqual(t, inA[p.White.MemberID], inA[p.Black.MemberID], "a pairing must have one player from each roster")
		assert.False(t, history.Has(p.White.MemberID, p.Black.MemberID), "rematch %d vs %d", p.White.MemberID, p.Black.MemberID)
		assert.False(t, used[p.White.MemberID] || used[p.Black.MemberID], "player paired twice")
		used[p.White.MemberID] = true
		used[p.Black.MemberID] = true
	}
}

func TestPair_noHistory(t *testing.T) {
	a := roster(1, 1500, 1100, 1300)
	b := roster(100, 1310, 1490, 1120)

	pairings, err := newEngine().Pair(a, b, nil)
	require.NoError(t, err)
	assertValid(t, a, b, pairings, History{})

	// closest ratings pair up
	expected := map[int32]int32{1: 101, 2: 102, 3: 100}
	for _, p := range pairings {
		x, y := p.White.MemberID, p.Black.MemberID
		if x > y {
			x, y = y, x
		}
		assert.Equal(t, expected[x], y)
	}
}

func TestPair_avoidsHistory(t *testing.T) {
	tests := map[string]struct {
		a []Player
		b []Player
	}{
		"exhaustive": {
			a: roster(1, 1000, 1100, 1200, 1300),
			b: roster(100, 1000, 1100, 1200, 1300),
		},
		"local search": {
			a: roster(1, 1000, 1050, 1100, 1150, 1200, 1250, 1300, 1350, 1400, 1450),
			b: roster(100, 1000, 1050, 1100, 1150, 1200, 1250, 1300, 1350, 1400, 1450),
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			// the best rated match for everyone already happened
			history := History{}
			for i := range tc.a {
				history.Add(tc.a[i].MemberID, tc.b[i].MemberID)
			}

			pairings, err := newEngine().Pair(tc.a, tc.b, history)
			require.NoError(t, err)
			assertValid(t, tc.a, tc.b, pairings, history)
		})
	}
}

func TestPair_infeasible(t *testing.T) {
	tests := map[string]int{
		"exhaustive":   3,
		"local search": 9,
	}

	for name, n := range tests {
		t.Run(name, func(t *testing.T) {
			ratings := make([]int, n)
			for i := range ratings {
				ratings[i] = 1000 + 100*i
			}
			a := roster(1, ratings...)
			b := roster(100, ratings...)

			history := History{}
			for _, x := range a {
				for _, y := range b {
					history.Add(y.MemberID, x.MemberID)
				}
			}

			_, err := newEngine().Pair(a, b, history)
			assert.ErrorIs(t, err, ErrSchedulingInfeasible)
		})
	}
}

func TestPair_unequalRosters(t *testing.T) {
	_, err := newEngine().Pair(roster(1, 1000, 1100), roster(100, 1000), nil)
	assert.ErrorIs(t, err, model.ErrValidation)

	pairings, err := newEngine().Pair(nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, pairings)
}

func TestHistory(t *testing.T) {
	h := History{}
	h.Add(5, 2)
	assert.True(t, h.Has(2, 5))
	assert.True(t, h.Has(5, 2))
	assert.False(t, h.Has(2, 6))
}

func TestCost(t *testing.T) {
	tests := map[string]struct {
		a        []Player
		b        []Player
		expected float64
	}{
		"equal":     {a: roster(1, 1200, 1300), b: roster(100, 1200, 1300), expected: 0},
		"one apart": {a: roster(1, 1000, 1200), b: roster(100, 1100, 1200), expected: 5000 + 10000},
		"both off":  {a: roster(1, 1000, 1000), b: roster(100, 1100, 1300), expected: 50000 + 90000},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, Cost(tc.a, tc.b), 1e-9)
		})
	}
}
