package options

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"chainsight/pkg/errors"
)

// ContractType identifies the side of an option contract
type ContractType string

const (
	Call ContractType = "call"
	Put  ContractType = "put"
)

// Valid checks if the contract type is known
func (t ContractType) Valid() bool {
	return t == Call || t == Put
}

// String returns string representation
func (t ContractType) String() string {
	return string(t)
}

// Contract is a single option contract inside a chain snapshot.
// OpenInterest is optional: some feeds omit it, in which case volume is
// used as a positioning proxy with degraded confidence.
type Contract struct {
	Ticker        string       `json:"ticker"`
	Underlying    string       `json:"underlying"`
	Type          ContractType `json:"type"`
	Strike        float64      `json:"strike"`
	Expiration    time.Time    `json:"expiration"`
	Volume        float64      `json:"volume"`
	OpenInterest  *float64     `json:"open_interest,omitempty"`
	Exchange      string       `json:"exchange,omitempty"`
	ExerciseStyle string       `json:"exercise_style,omitempty"`
}

// PositioningProxy returns open interest when present, otherwise volume.
// The second return reports whether the volume substitution happened.
func (c Contract) PositioningProxy() (float64, bool) {
	if c.OpenInterest != nil {
		return *c.OpenInterest, false
	}
	return c.Volume, true
}

// Snapshot is an immutable capture of an option chain for one ticker and
// one expiration period. Derived analytics are always recomputed from it,
// never stored alongside it.
type Snapshot struct {
	ID        uuid.UUID  `json:"id"`
	Ticker    string     `json:"ticker"`
	Period    string     `json:"period"` // normalized YYYY-MM or YYYY-MM-DD
	AsOf      time.Time  `json:"as_of"`
	Contracts []Contract `json:"contracts"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// NewSnapshot builds a snapshot for a ticker/period from fetched contracts
func NewSnapshot(ticker, period string, contracts []Contract) *Snapshot {
	now := time.Now().UTC()
	return &Snapshot{
		ID:        uuid.New(),
		Ticker:    strings.ToUpper(ticker),
		Period:    period,
		AsOf:      now,
		Contracts: contracts,
		FetchedAt: now,
	}
}

// Key returns the cache key for this snapshot's (ticker, period) pair
func (s *Snapshot) Key() string {
	return CacheKey(s.Ticker, s.Period)
}

// Calls returns contracts on the call side, in snapshot order
func (s *Snapshot) Calls() []Contract {
	return s.side(Call)
}

// Puts returns contracts on the put side, in snapshot order
func (s *Snapshot) Puts() []Contract {
	return s.side(Put)
}

func (s *Snapshot) side(t ContractType) []Contract {
	out := make([]Contract, 0, len(s.Contracts))
	for _, c := range s.Contracts {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// DistinctStrikes returns the sorted set of distinct strike prices
func (s *Snapshot) DistinctStrikes() []float64 {
	seen := make(map[float64]struct{}, len(s.Contracts))
	for _, c := range s.Contracts {
		seen[c.Strike] = struct{}{}
	}
	strikes := make([]float64, 0, len(seen))
	for k := range seen {
		strikes = append(strikes, k)
	}
	sort.Float64s(strikes)
	return strikes
}

// CacheKey builds the canonical cache key for a ticker and normalized period
func CacheKey(ticker, period string) string {
	return strings.ToUpper(ticker) + ":" + period
}

// NormalizePeriod validates and normalizes a date-or-month argument.
// Accepted forms are YYYY-MM (whole expiration month) and YYYY-MM-DD
// (single expiration date).
func NormalizePeriod(period string) (string, error) {
	period = strings.TrimSpace(period)
	switch len(period) {
	case 7:
		if _, err := time.Parse("2006-01", period); err != nil {
			return "", errors.Wrapf(errors.ErrInvalidInput, "invalid month %q, expected YYYY-MM", period)
		}
		return period, nil
	case 10:
		if _, err := time.Parse("2006-01-02", period); err != nil {
			return "", errors.Wrapf(errors.ErrInvalidInput, "invalid date %q, expected YYYY-MM-DD", period)
		}
		return period, nil
	default:
		return "", errors.Wrapf(errors.ErrInvalidInput, "invalid period %q, expected YYYY-MM or YYYY-MM-DD", period)
	}
}

// PeriodRange converts a normalized period to an inclusive expiration
// date range. A month expands to its first and last day.
func PeriodRange(period string) (time.Time, time.Time, error) {
	if len(period) == 7 {
		start, err := time.Parse("2006-01", period)
		if err != nil {
			return time.Time{}, time.Time{}, errors.Wrapf(errors.ErrInvalidInput, "invalid month %q", period)
		}
		end := start.AddDate(0, 1, -1)
		return start, end, nil
	}
	day, err := time.Parse("2006-01-02", period)
	if err != nil {
		return time.Time{}, time.Time{}, errors.Wrapf(errors.ErrInvalidInput, "invalid date %q", period)
	}
	return day, day, nil
}
