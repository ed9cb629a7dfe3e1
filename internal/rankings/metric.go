package rankings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidRankingType = errors.New("invalid ranking type")
	ErrInvalidDateRange   = errors.New("invalid date range")
)

// Metric is a session-stat column a leaderboard can be ordered by.
type Metric string

const (
	Coverage     Metric = "coverage"
	Distance     Metric = "distance"
	Sprint       Metric = "sprint"
	SpeedMax     Metric = "speed_max"
	SpeedAvg     Metric = "speed_avg"
	AgilityRatio Metric = "agility_ratio"
	Rate         Metric = "rate"
)

var metrics = map[Metric]struct{}{
	Coverage: {}, Distance: {}, Sprint: {}, SpeedMax: {}, SpeedAvg: {}, AgilityRatio: {}, Rate: {},
}

// ParseMetric accepts only the fixed metric set, so the result is safe to use
// as a column name.
func ParseMetric(s string) (Metric, error) {
	m := Metric(s)
	if _, ok := metrics[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidRankingType, s)
	}
	return m, nil
}

func (m Metric) Column() string { return string(m) }

// Window is an inclusive filter on record creation time. Either bound may be nil.
type Window struct {
	From *time.Time
	To   *time.Time
}

// ParseWindow builds a Window from optional date strings. A calendar date as
// the end bound covers that whole day.
func ParseWindow(start, end string) (Window, error) {
	var w Window
	if start = strings.TrimSpace(start); start != "" {
		t, _, err := parseBound(start)
		if err != nil {
			return Window{}, err
		}
		w.From = &t
	}
	if end = strings.TrimSpace(end); end != "" {
		t, dateOnly, err := parseBound(end)
		if err != nil {
			return Window{}, err
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		w.To = &t
	}
	if w.From != nil && w.To != nil && w.From.After(*w.To) {
		return Window{}, fmt.Errorf("%w: start_date is after end_date", ErrInvalidDateRange)
	}
	return w, nil
}

func parseBound(s string) (time.Time, bool, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %q", ErrInvalidDateRange, s)
	}
	return t, false, nil
}

// Rank is a 1-based leaderboard position. Zero marks an entry outside the
// ranked list and is encoded as "N/A".
type Rank int

const NotRanked Rank = 0

var notRankedJSON = []byte(`"N/A"`)

func (r Rank) MarshalJSON() ([]byte, error) {
	if r == NotRanked {
		return notRankedJSON, nil
	}
	return []byte(strconv.Itoa(int(r))), nil
}

func (r *Rank) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, notRankedJSON) {
		*r = NotRanked
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*r = Rank(n)
	return nil
}
