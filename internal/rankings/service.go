package rankings

import (
	"context"

	"github.com/fitrank/fitrank-api/internal/models"
)

// Limit is the length of the ranked list.
const Limit = 100

// Entry is one leaderboard row.
type Entry struct {
	Rank         Rank    `json:"rank"`
	Duration     int     `json:"duration"`
	Distance     float64 `json:"distance"`
	Sprint       int     `json:"sprint"`
	Coverage     float64 `json:"coverage"`
	SpeedMax     float64 `json:"speed_max"`
	SpeedAvg     float64 `json:"speed_avg"`
	AgilityRatio float64 `json:"agility_ratio"`
	Rate         float64 `json:"rate"`
	IsUser       bool    `json:"isUser"`
}

func newEntry(rank Rank, s models.SessionStats, isUser bool) Entry {
	return Entry{
		Rank:         rank,
		Duration:     s.Duration,
		Distance:     s.Distance,
		Sprint:       s.Sprint,
		Coverage:     s.Coverage,
		SpeedMax:     s.SpeedMax,
		SpeedAvg:     s.SpeedAvg,
		AgilityRatio: s.AgilityRatio,
		Rate:         s.Rate,
		IsUser:       isUser,
	}
}

type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// GetRankings returns the top records for metric within w. When none of them
// belongs to userID, the user's best record in w is appended unranked.
func (s *Service) GetRankings(ctx context.Context, userID uint, metric string, w Window) ([]Entry, error) {
	m, err := ParseMetric(metric)
	if err != nil {
		return nil, err
	}

	top, err := s.repo.Top(ctx, m, w, Limit)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(top)+1)
	found := false
	for i, rec := range top {
		mine := rec.UserID == userID
		found = found || mine
		out = append(out, newEntry(Rank(i+1), rec, mine))
	}
	if found {
		return out, nil
	}

	best, err := s.repo.BestForUser(ctx, userID, m, w)
	if err != nil {
		return nil, err
	}
	if best != nil {
		out = append(out, newEntry(NotRanked, *best, true))
	}
	return out, nil
}
