package balance

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/itbasis/go-clock"
	"github.com/vietd88/grubberbot/model"
)

const (
	DefaultRestarts = 8
	DefaultBudget   = 10 * time.Second
)

type Player struct {
	MemberID int32
	Rating   int
}

type Options struct {
	// Restarts is the number of independent searches; the best one wins.
	Restarts int
	// Budget is the wall clock time allowed per restart.
	Budget time.Duration
	// MaxIterations caps the swaps tried per restart. Zero means only Budget applies.
	MaxIterations int
	// Seed makes restart i use rand.NewSource(Seed + i). Zero seeds from the clock.
	Seed int64
}

type Result struct {
	Teams        [][]Player
	Score        float64
	InitialScore float64
	Iterations   int
}

type Balancer struct {
	clock clock.Clock
	opts  Options
}

func New(clock clock.Clock, opts Options) *Balancer {
	if opts.Restarts <= 0 {
		opts.Restarts = DefaultRestarts
	}
	if opts.Budget <= 0 && opts.MaxIterations <= 0 {
		opts.Budget = DefaultBudget
	}
	return &Balancer{clock: clock, opts: opts}
}

// Split partitions players into teamCount teams with similar rating means and spreads.
// It is a best effort local search and stops when the budget runs out.
func (b *Balancer) Split(players []Player, teamCount int) (*Result, error) {
	if teamCount < 1 {
		return nil, model.NewValidationError(fmt.Sprintf("team count must be at least 1, got `%d`", teamCount))
	}
	if teamCount > len(players) {
		return nil, model.NewValidationError(fmt.Sprintf("cannot split %d players into %d teams", len(players), teamCount))
	}

	seed := b.opts.Seed
	if seed == 0 {
		seed = b.clock.Now().UnixNano()
	}

	var best *Result
	for i := 0; i < b.opts.Restarts; i++ {
		rng := rand.New(rand.NewSource(seed + int64(i)))
		r := b.search(rng, players, teamCount)
		if best == nil {
			best = r
			continue
		}
		best.Iterations += r.Iterations
		if r.Score < best.Score {
			best.Teams = r.Teams
			best.Score = r.Score
		}
	}

	slog.Info("balanced teams",
		"players", len(players),
		"teams", teamCount,
		"score", best.Score,
		"initial_score", best.InitialScore,
		"iterations", best.Iterations,
		"restarts", b.opts.Restarts)
	return best, nil
}

func (b *Balancer) search(rng *rand.Rand, players []Player, teamCount int) *Result {
	shuffled := make([]Player, len(players))
	copy(shuffled, players)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	teams := make([][]Player, teamCount)
	for i, p := range shuffled {
		teams[i%teamCount] = append(teams[i%teamCount], p)
	}

	popMean, popStd := stats(players)
	current := score(teams, popMean, popStd)
	result := &Result{InitialScore: current}

	start := b.clock.Now()
	for teamCount > 1 && b.keepGoing(start, result.Iterations) {
		result.Iterations++

		t1 := rng.Intn(teamCount)
		t2 := rng.Intn(teamCount - 1)
		if t2 >= t1 {
			t2++
		}
		i1 := rng.Intn(len(teams[t1]))
		i2 := rng.Intn(len(teams[t2]))

		teams[t1][i1], teams[t2][i2] = teams[t2][i2], teams[t1][i1]
		if s := score(teams, popMean, popStd); s < current {
			current = s
		} else {
			teams[t1][i1], teams[t2][i2] = teams[t2][i2], teams[t1][i1]
		}
	}

	result.Teams = teams
	result.Score = current
	return result
}

func (b *Balancer) keepGoing(start time.Time, iterations int) bool {
	if b.opts.MaxIterations > 0 && iterations >= b.opts.MaxIterations {
		return false
	}
	if b.opts.Budget > 0 && b.clock.Now().Sub(start) >= b.opts.Budget {
		return false
	}
	return true
}

// Score is the mean absolute distance of each team's rating mean from the population mean,
// plus the same for standard deviations.
func Score(teams [][]Player) float64 {
	all := make([]Player, 0, 32)
	for _, t := range teams {
		all = append(all, t...)
	}
	mean, std := stats(all)
	return score(teams, mean, std)
}

func score(teams [][]Player, popMean, popStd float64) float64 {
	if len(teams) == 0 {
		return 0
	}
	var meanDiff, stdDiff float64
	for _, t := range teams {
		m, s := stats(t)
		meanDiff += math.Abs(m - popMean)
		stdDiff += math.Abs(s - popStd)
	}
	n := float64(len(teams))
	return meanDiff/n + stdDiff/n
}

// stats returns the mean and population standard deviation of the ratings.
func stats(players []Player) (float64, float64) {
	if len(players) == 0 {
		return 0, 0
	}
	var sum float64
	for _, p := range players {
		sum += float64(p.Rating)
	}
	mean := sum / float64(len(players))

	var sq float64
	for _, p := range players {
		d := float64(p.Rating) - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(players)))
}
