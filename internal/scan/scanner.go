package scan

import (
	"retest-scanner/internal/models"
)

// CandidateState tracks the phase of a single breakout candidate.
type CandidateState int

const (
	StateSearching CandidateState = iota
	StateBreakoutFound
	StateRetestFound
	StateTakeoffFound
	StateAbandoned
)

func (s CandidateState) String() string {
	switch s {
	case StateSearching:
		return "SEARCHING"
	case StateBreakoutFound:
		return "BREAKOUT_FOUND"
	case StateRetestFound:
		return "RETEST_FOUND"
	case StateTakeoffFound:
		return "TAKEOFF_FOUND"
	case StateAbandoned:
		return "ABANDONED"
	default:
		return "UNKNOWN"
	}
}

// Params holds the scanner parameters for one scan. Validation happens
// at the config boundary; the scanner assumes a well-formed set.
type Params struct {
	Level             float64
	Tolerance         float64 // fraction, e.g. 0.001 for 0.1%
	MaxRetestWindow   int
	TakeoffWindow     int
	TakeoffPct        float64 // fraction, e.g. 0.005 for 0.5%
	UseVolatilityGate bool
	ATRMultiplier     float64
}

// Candidate is one in-flight pattern match. Each candidate runs an
// independent state machine; overlapping candidates are possible and
// are never merged.
type Candidate struct {
	State       CandidateState
	BreakoutIdx int
	RetestIdx   int
	TakeoffIdx  int
}

func newCandidate(breakoutIdx int) *Candidate {
	return &Candidate{
		State:       StateBreakoutFound,
		BreakoutIdx: breakoutIdx,
		RetestIdx:   -1,
		TakeoffIdx:  -1,
	}
}

// seekRetest advances BREAKOUT_FOUND to RETEST_FOUND on the first bar
// after the breakout whose range touches the tolerance band around the
// level while the close holds at or above it. The window is clamped to
// the last bar; no qualifying bar means ABANDONED.
func (c *Candidate) seekRetest(bars []models.Bar, p Params) {
	if c.State != StateBreakoutFound {
		return
	}

	tolUp := p.Level * (1 + p.Tolerance)
	tolDn := p.Level * (1 - p.Tolerance)

	end := c.BreakoutIdx + p.MaxRetestWindow
	if last := len(bars) - 1; end > last {
		end = last
	}

	for j := c.BreakoutIdx + 1; j <= end; j++ {
		if bars[j].Low <= tolUp && bars[j].High >= tolDn && bars[j].Close >= p.Level {
			c.RetestIdx = j
			c.State = StateRetestFound
			return
		}
	}
	c.State = StateAbandoned
}

// seekTakeoff advances RETEST_FOUND to TAKEOFF_FOUND on the first bar
// after the retest whose close clears the takeoff threshold. With the
// volatility gate on, the threshold is raised to the ATR-adjusted
// level when that is higher.
func (c *Candidate) seekTakeoff(bars []models.Bar, vol []float64, p Params) {
	if c.State != StateRetestFound {
		return
	}

	end := c.RetestIdx + p.TakeoffWindow
	if last := len(bars) - 1; end > last {
		end = last
	}

	for k := c.RetestIdx + 1; k <= end; k++ {
		threshold := p.Level * (1 + p.TakeoffPct)
		if p.UseVolatilityGate {
			if gated := p.Level + p.ATRMultiplier*vol[k]; gated > threshold {
				threshold = gated
			}
		}
		if bars[k].Close >= threshold {
			c.TakeoffIdx = k
			c.State = StateTakeoffFound
			return
		}
	}
	c.State = StateAbandoned
}

// Scanner runs the three-phase pattern search over a bar series.
// It holds no state across calls and produces no side effects.
type Scanner struct {
	params Params
	atr    *ATR
}

// NewScanner creates a scanner for the given parameters and volatility
// window.
func NewScanner(params Params, atrPeriod int) *Scanner {
	return &Scanner{
		params: params,
		atr:    NewATR(atrPeriod),
	}
}

// Params returns the scanner parameters.
func (s *Scanner) Params() Params {
	return s.params
}

// Scan computes the volatility series for bars and searches the full
// series for breakout → retest → takeoff sequences. Fewer than 2 bars
// means no candidates, hence an empty (non-nil) event list.
func (s *Scanner) Scan(bars []models.Bar) []models.Event {
	return s.ScanWithVolatility(bars, s.atr.Calculate(bars))
}

// ScanWithVolatility searches using a precomputed volatility series.
// The result is a pure function of (bars, vol, params): identical
// inputs produce identical event lists, ordered by breakout index.
func (s *Scanner) ScanWithVolatility(bars []models.Bar, vol []float64) []models.Event {
	events := []models.Event{}

	// Every consecutive pair is a breakout candidate, regardless of
	// in-flight candidates.
	for i := 1; i < len(bars); i++ {
		if !(bars[i-1].Close < s.params.Level && s.params.Level <= bars[i].Close) {
			continue
		}

		c := newCandidate(i)
		c.seekRetest(bars, s.params)
		c.seekTakeoff(bars, vol, s.params)
		if c.State != StateTakeoffFound {
			continue
		}

		events = append(events, buildEvent(bars, vol, c, s.params.Level))
	}

	return events
}

// buildEvent assembles the output record for a completed candidate.
func buildEvent(bars []models.Bar, vol []float64, c *Candidate, level float64) models.Event {
	closeAtTakeoff := bars[c.TakeoffIdx].Close
	return models.Event{
		BreakoutIdx:        c.BreakoutIdx,
		RetestIdx:          c.RetestIdx,
		TakeoffIdx:         c.TakeoffIdx,
		BreakoutTime:       bars[c.BreakoutIdx].Timestamp,
		RetestTime:         bars[c.RetestIdx].Timestamp,
		TakeoffTime:        bars[c.TakeoffIdx].Timestamp,
		Level:              level,
		CloseAtTakeoff:     closeAtTakeoff,
		ReturnFromLevelPct: (closeAtTakeoff/level - 1) * 100,
		BarsToRetest:       c.RetestIdx - c.BreakoutIdx,
		BarsToTakeoff:      c.TakeoffIdx - c.RetestIdx,
		ATRAtTakeoff:       vol[c.TakeoffIdx],
	}
}
