package model

import "time"

type Rating struct {
	Rapid      *int
	Blitz      *int
	Bullet     *int
	RapidLast  *time.Time
	BlitzLast  *time.Time
	BulletLast *time.Time
	Checked    time.Time
}

// Effective is the rating used for balancing and pairing: rapid, then blitz, then bullet.
func (r *Rating) Effective() int {
	if r == nil {
		return 0
	}
	for _, v := range []*int{r.Rapid, r.Blitz, r.Bullet} {
		if v != nil {
			return *v
		}
	}
	return 0
}

// RapidOrZero returns the rapid rating, or 0 when the player has none.
func (r *Rating) RapidOrZero() int {
	if r == nil || r.Rapid == nil {
		return 0
	}
	return *r.Rapid
}

type GameCounts struct {
	Total   int
	Rapid   int
	Blitz   int
	Bullet  int
	Checked time.Time
}

// RatingRecord is everything cached about one handle. Nil parts were never fetched.
type RatingRecord struct {
	Handle        string
	Exists        *bool
	ExistsChecked time.Time
	Rating        *Rating
	Counts        *GameCounts
}
