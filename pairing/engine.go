package pairing

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/itbasis/go-clock"
	"github.com/vietd88/grubberbot/model"
)

const (
	DefaultRestarts = 16
	DefaultBudget   = 4 * time.Second

	// Rosters up to this size are searched exhaustively.
	exhaustiveLimit = 7
)

var ErrSchedulingInfeasible = errors.New("no pairing avoids a rematch")

type Player struct {
	SeedID   int32
	MemberID int32
	Rating   int
}

type Pairing struct {
	White Player
	Black Player
}

// History holds the member pairs that already played each other, in either color.
type History map[[2]int32]bool

func (h History) Add(a, b int32) {
	h[key(a, b)] = true
}

func (h History) Has(a, b int32) bool {
	return h[key(a, b)]
}

func key(a, b int32) [2]int32 {
	if a > b {
		a, b = b, a
	}
	return [2]int32{a, b}
}

type Options struct {
	Restarts      int
	Budget        time.Duration
	MaxIterations int
	Seed          int64
}

type Engine struct {
	clock clock.Clock
	opts  Options
}

func New(clock clock.Clock, opts Options) *Engine {
	if opts.Restarts <= 0 {
		opts.Restarts = DefaultRestarts
	}
	if opts.Budget <= 0 && opts.MaxIterations <= 0 {
		opts.Budget = DefaultBudget
	}
	return &Engine{clock: clock, opts: opts}
}

// cost orders candidate pairings: fewer rematches always wins, then the lower rating cost.
type cost struct {
	rematches int
	value     float64
}

func (c cost) less(o cost) bool {
	if c.rematches != o.rematches {
		return c.rematches < o.rematches
	}
	return c.value < o.value
}

// Pair matches every player of a with one player of b. Pairs found in history are avoided;
// when that is impossible ErrSchedulingInfeasible is returned.
func (e *Engine) Pair(a, b []Player, history History) ([]Pairing, error) {
	if len(a) != len(b) {
		return nil, model.NewValidationError(fmt.Sprintf("rosters must be the same size, got %d and %d", len(a), len(b)))
	}
	if len(a) == 0 {
		return []Pairing{}, nil
	}
	if history == nil {
		history = History{}
	}

	a = sortedByRating(a)
	b = sortedByRating(b)

	seed := e.opts.Seed
	if seed == 0 {
		seed = e.clock.Now().UnixNano()
	}

	var perm []int
	var best cost
	if len(a) <= exhaustiveLimit {
		perm, best = exhaustive(a, b, history)
	} else {
		for i := 0; i < e.opts.Restarts; i++ {
			rng := rand.New(rand.NewSource(seed + int64(i)))
			p, c := e.search(rng, a, b, history)
			if perm == nil || c.less(best) {
				perm, best = p, c
			}
		}
	}

	if best.rematches > 0 {
		return nil, ErrSchedulingInfeasible
	}

	rng := rand.New(rand.NewSource(seed))
	pairings := make([]Pairing, len(a))
	for i := range a {
		white, black := a[i], b[perm[i]]
		if rng.Intn(2) == 1 {
			white, black = black, white
		}
		pairings[i] = Pairing{White: white, Black: black}
	}

	slog.Info("paired rosters", "players", len(a), "cost", best.value)
	return pairings, nil
}

// Cost is the mean squared rating difference plus the largest squared difference
// of players paired by position.
func Cost(a, b []Player) float64 {
	perm := make([]int, len(b))
	for i := range perm {
		perm[i] = i
	}
	return evaluate(a, b, perm, History{}).value
}

func evaluate(a, b []Player, perm []int, history History) cost {
	var c cost
	if len(a) == 0 {
		return c
	}
	var sum, worst float64
	for i, j := range perm {
		if history.Has(a[i].MemberID, b[j].MemberID) {
			c.rematches++
		}
		d := float64(a[i].Rating - b[j].Rating)
		sq := d * d
		sum += sq
		worst = math.Max(worst, sq)
	}
	c.value = sum/float64(len(a)) + worst
	return c
}

// search is a local search over permutations of b. Each round applies a growing number
// of random swaps, keeping the last improvement, until the budget runs out.
func (e *Engine) search(rng *rand.Rand, a, b []Player, history History) ([]int, cost) {
	perm := make([]int, len(b))
	for i := range perm {
		perm[i] = i
	}
	best := evaluate(a, b, perm, history)
	if len(perm) < 2 {
		return perm, best
	}

	saved := make([]int, len(perm))
	copy(saved, perm)
	kick := 1.0

	start := e.clock.Now()
	for iter := 0; e.keepGoing(start, iter); iter++ {
		kick += 0.01
		for k := 0; k < int(kick); k++ {
			i := rng.Intn(len(perm))
			j := rng.Intn(len(perm) - 1)
			if j >= i {
				j++
			}
			perm[i], perm[j] = perm[j], perm[i]

			if c := evaluate(a, b, perm, history); c.less(best) {
				best = c
				copy(saved, perm)
				kick = 1
			}
		}
		copy(perm, saved)
	}
	return saved, best
}

func (e *Engine) keepGoing(start time.Time, iterations int) bool {
	if e.opts.MaxIterations > 0 && iterations >= e.opts.MaxIterations {
		return false
	}
	if e.opts.Budget > 0 && e.clock.Now().Sub(start) >= e.opts.Budget {
		return false
	}
	return true
}

// exhaustive tries every permutation of b using Heap's algorithm.
func exhaustive(a, b []Player, history History) ([]int, cost) {
	n := len(b)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	bestPerm := make([]int, n)
	copy(bestPerm, perm)
	best := evaluate(a, b, perm, history)

	c := make([]int, n)
	for i := 1; i < n; {
		if c[i] < i {
			if i%2 == 0 {
				perm[0], perm[i] = perm[i], perm[0]
			} else {
				perm[c[i]], perm[i] = perm[i], perm[c[i]]
			}
			if v := evaluate(a, b, perm, history); v.less(best) {
				best = v
				copy(bestPerm, perm)
			}
			c[i]++
			i = 1
		} else {
			c[i] = 0
			i++
		}
	}
	return bestPerm, best
}

func sortedByRating(players []Player) []Player {
	s := make([]Player, len(players))
	copy(s, players)
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Rating < s[j].Rating
	})
	return s
}
