package model

import "testing"

func intPtr(i int) *int { return &i }

func TestRatingEffective(t *testing.T) {
	tests := map[string]struct {
		r        *Rating
		expected int
	}{
		"nil rating":   {r: nil, expected: 0},
		"rapid":        {r: &Rating{Rapid: intPtr(1500), Blitz: intPtr(1400)}, expected: 1500},
		"blitz only":   {r: &Rating{Blitz: intPtr(1400), Bullet: intPtr(1300)}, expected: 1400},
		"bullet only":  {r: &Rating{Bullet: intPtr(1300)}, expected: 1300},
		"never played": {r: &Rating{}, expected: 0},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tc.r.Effective(); got != tc.expected {
				t.Errorf("expected %d, got %d", tc.expected, got)
			}
		})
	}
}
