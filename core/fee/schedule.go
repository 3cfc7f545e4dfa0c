// Package fee provides the tiered transfer-fee schedule. Fees are keyed by
// origin bank, service and destination account, with contiguous half-open
// amount bins selecting the tier.
package fee

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"

	"github.com/fjtyk95/bankoptimize/core/model"
)

// NoUpperBound marks an open-ended top bin.
const NoUpperBound = int64(math.MaxInt64)

var (
	// ErrNoMatchingTier indicates the queried amount falls outside every
	// bin for its route. The partition invariant makes this unreachable on
	// a validated schedule, so hitting it signals corrupted fee data.
	ErrNoMatchingTier = errors.New("no matching fee tier")
	// ErrUnknownRoute indicates no fee entries exist for the
	// (origin, service, destination) key at all.
	ErrUnknownRoute = errors.New("no fee entries for route")
)

// RouteKey identifies the fee entries applying to one transfer route.
type RouteKey struct {
	FromBank string
	Service  string
	To       model.AccountID
}

func (k RouteKey) String() string {
	return fmt.Sprintf("%s/%s -> %s", k.FromBank, k.Service, k.To)
}

// Entry is one row of the fee table: a half-open amount bin [Lower, Upper)
// and the fixed fee charged for transfers whose amount falls inside it.
type Entry struct {
	Route RouteKey
	Lower int64
	Upper int64
	Fee   int64
}

// Validate checks a single entry in isolation.
func (e Entry) Validate() error {
	if e.Lower < 0 {
		return fmt.Errorf("fee entry %s: negative lower bound %d", e.Route, e.Lower)
	}
	if e.Upper <= e.Lower {
		return fmt.Errorf("fee entry %s: empty bin [%d,%d)", e.Route, e.Lower, e.Upper)
	}
	if e.Fee < 0 {
		return fmt.Errorf("fee entry %s: negative fee %d", e.Route, e.Fee)
	}
	return nil
}

var (
	binRangeRe = regexp.MustCompile(`^(\d+)\s*-\s*(\d+)$`)
	binOpenRe  = regexp.MustCompile(`^(\d+)\+?$`)
)

// ParseBin parses an amount_bin string. "low-high" denotes the half-open
// range [low, high); "low+" (or a bare "low") denotes [low, inf).
func ParseBin(s string) (lower, upper int64, err error) {
	if m := binRangeRe.FindStringSubmatch(s); m != nil {
		lo, _ := strconv.ParseInt(m[1], 10, 64)
		hi, _ := strconv.ParseInt(m[2], 10, 64)
		return lo, hi, nil
	}
	if m := binOpenRe.FindStringSubmatch(s); m != nil {
		lo, _ := strconv.ParseInt(m[1], 10, 64)
		return lo, NoUpperBound, nil
	}
	return 0, 0, fmt.Errorf("invalid amount_bin %q", s)
}

// Schedule is an immutable fee lookup table. Construct it with NewSchedule;
// lookups are pure and safe for concurrent use.
type Schedule struct {
	routes map[RouteKey][]Entry
}

// NewSchedule validates the entries and builds the lookup. For every route
// the bins must partition [0, inf): start at zero, be contiguous, and end
// with an open bin. Anything else is a data-integrity failure.
func NewSchedule(entries []Entry) (*Schedule, error) {
	routes := make(map[RouteKey][]Entry)
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		routes[e.Route] = append(routes[e.Route], e)
	}
	for key, bins := range routes {
		sort.Slice(bins, func(i, j int) bool { return bins[i].Lower < bins[j].Lower })
		if bins[0].Lower != 0 {
			return nil, fmt.Errorf("fee bins for %s: first bin starts at %d, want 0", key, bins[0].Lower)
		}
		for i := 1; i < len(bins); i++ {
			prev, cur := bins[i-1], bins[i]
			if cur.Lower < prev.Upper {
				return nil, fmt.Errorf("fee bins for %s: [%d,%d) overlaps [%d,%d)",
					key, prev.Lower, prev.Upper, cur.Lower, cur.Upper)
			}
			if cur.Lower > prev.Upper {
				return nil, fmt.Errorf("fee bins for %s: gap between %d and %d",
					key, prev.Upper, cur.Lower)
			}
		}
		if bins[len(bins)-1].Upper != NoUpperBound {
			return nil, fmt.Errorf("fee bins for %s: top bin [%d,%d) is not open-ended",
				key, bins[len(bins)-1].Lower, bins[len(bins)-1].Upper)
		}
		routes[key] = bins
	}
	return &Schedule{routes: routes}, nil
}

// Routes returns every route key present in the schedule.
func (s *Schedule) Routes() []RouteKey {
	keys := make([]RouteKey, 0, len(s.routes))
	for k := range s.routes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Bins returns the ordered bins for a route, nil when the route is unknown.
func (s *Schedule) Bins(key RouteKey) []Entry { return s.routes[key] }

// Fee returns the fixed fee for a transfer of amount over the given route.
// Negative amounts are clamped to zero before lookup.
func (s *Schedule) Fee(fromBank, service string, amount int64, to model.AccountID) (int64, error) {
	if amount < 0 {
		amount = 0
	}
	bins, ok := s.routes[RouteKey{FromBank: fromBank, Service: service, To: to}]
	if !ok {
		return 0, fmt.Errorf("%w: %s/%s -> %s", ErrUnknownRoute, fromBank, service, to)
	}
	i := sort.Search(len(bins), func(i int) bool { return bins[i].Upper > amount })
	if i == len(bins) || amount < bins[i].Lower {
		return 0, fmt.Errorf("%w: %s/%s -> %s amount %d", ErrNoMatchingTier, fromBank, service, to, amount)
	}
	return bins[i].Fee, nil
}
