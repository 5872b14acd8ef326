// Package session classifies timestamps against intraday trading sessions.
//
// A Calendar is built from one or more (start, end) wall-clock sessions that
// may wrap midnight (start > end). Classification is date-independent: only
// the time of day matters, at microsecond resolution.
package session

import (
	"fmt"
	"sort"
	"time"
)

// TimeInRange is the classification of a timestamp against a session set.
type TimeInRange int

const (
	OutOfRange TimeInRange = iota
	InRange
	AtRangeEnd
)

func (r TimeInRange) String() string {
	switch r {
	case InRange:
		return "in_range"
	case AtRangeEnd:
		return "at_range_end"
	default:
		return "out_of_range"
	}
}

const day = 24 * time.Hour

// Session is a contiguous trading interval within a day. Start and End are
// offsets from midnight; Start > End means the session wraps midnight
// (e.g. 21:00–02:30).
type Session struct {
	Start time.Duration
	End   time.Duration
}

// Config configures a Calendar.
type Config struct {
	Sessions []Session

	// StartOffsets push each session start later; EndOffsets pull each
	// session end earlier. Nil means no offset, a single element applies to
	// every session, otherwise the length must equal len(Sessions).
	StartOffsets []time.Duration
	EndOffsets   []time.Duration

	// BreakThreshold gates offset application: an offset is applied on a
	// session side only when the true gap to the neighboring session on
	// that side exceeds the threshold. Short breaks (a lunch pause) are
	// left untouched. Defaults to 1 hour.
	BreakThreshold time.Duration
}

// Calendar holds a validated session set plus its offset-adjusted variant.
type Calendar struct {
	sessions []Session // sorted by end time
	offset   []Session
}

// New validates the configuration and computes the offset-adjusted sessions.
// Malformed sessions (degenerate or overlapping) and mismatched offset list
// lengths are configuration errors.
func New(cfg Config) (*Calendar, error) {
	if len(cfg.Sessions) == 0 {
		return nil, fmt.Errorf("session: no sessions configured")
	}

	sessions := make([]Session, len(cfg.Sessions))
	copy(sessions, cfg.Sessions)
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].End < sessions[j].End })

	if err := validate(sessions); err != nil {
		return nil, err
	}

	threshold := cfg.BreakThreshold
	if threshold == 0 {
		threshold = time.Hour
	}

	startOff, err := expandOffsets(cfg.StartOffsets, len(sessions))
	if err != nil {
		return nil, fmt.Errorf("session: start offsets: %w", err)
	}
	endOff, err := expandOffsets(cfg.EndOffsets, len(sessions))
	if err != nil {
		return nil, fmt.Errorf("session: end offsets: %w", err)
	}

	offset := applyOffsets(sessions, startOff, endOff, threshold)
	if err := validate(offset); err != nil {
		return nil, fmt.Errorf("session: after offsets: %w", err)
	}

	return &Calendar{sessions: sessions, offset: offset}, nil
}

// Classify reports where t falls against the raw sessions. A timestamp
// exactly equal to a session end is AtRangeEnd, not InRange.
func (c *Calendar) Classify(t time.Time) TimeInRange {
	return classify(c.sessions, t)
}

// ClassifyWithOffset reports where t falls against the offset-adjusted sessions.
func (c *Calendar) ClassifyWithOffset(t time.Time) TimeInRange {
	return classify(c.offset, t)
}

// Sessions returns a copy of the validated raw sessions, sorted by end time.
func (c *Calendar) Sessions() []Session {
	out := make([]Session, len(c.sessions))
	copy(out, c.sessions)
	return out
}

// SessionsWithOffset returns a copy of the offset-adjusted sessions.
func (c *Calendar) SessionsWithOffset() []Session {
	out := make([]Session, len(c.offset))
	copy(out, c.offset)
	return out
}

func classify(sessions []Session, t time.Time) TimeInRange {
	tod := TimeOfDay(t)
	for _, s := range sessions {
		inRange := (s.Start <= tod && tod < s.End) ||
			(s.Start > s.End && (tod >= s.Start || tod < s.End))
		if inRange {
			return InRange
		}
		if tod == s.End {
			return AtRangeEnd
		}
	}
	return OutOfRange
}

func validate(sessions []Session) error {
	for _, s := range sessions {
		if s.Start < 0 || s.Start >= day || s.End < 0 || s.End >= day {
			return fmt.Errorf("session: time of day out of range: %v-%v", s.Start, s.End)
		}
		if s.Start == s.End {
			return fmt.Errorf("session: empty session: %v-%v", s.Start, s.End)
		}
	}
	for i := 0; i+1 < len(sessions); i++ {
		if sessions[i].End > sessions[i+1].Start {
			return fmt.Errorf("session: overlapping sessions: %v-%v and %v-%v",
				sessions[i].Start, sessions[i].End, sessions[i+1].Start, sessions[i+1].End)
		}
	}
	return nil
}

// expandOffsets broadcasts a scalar offset or checks a per-session list.
func expandOffsets(offsets []time.Duration, n int) ([]time.Duration, error) {
	switch len(offsets) {
	case 0:
		return make([]time.Duration, n), nil
	case 1:
		out := make([]time.Duration, n)
		for i := range out {
			out[i] = offsets[0]
		}
		return out, nil
	case n:
		out := make([]time.Duration, n)
		copy(out, offsets)
		return out, nil
	default:
		return nil, fmt.Errorf("length %d does not match %d sessions", len(offsets), n)
	}
}

// applyOffsets shifts each session's boundaries, but only across breaks wider
// than the threshold. Neighbor gaps are computed on a wrapping 24h clock.
func applyOffsets(sessions []Session, startOff, endOff []time.Duration, threshold time.Duration) []Session {
	n := len(sessions)
	out := make([]Session, n)

	for i, s := range sessions {
		start, end := s.Start, s.End
		prevEnd := sessions[(i-1+n)%n].End
		nextStart := sessions[(i+1)%n].Start

		if prevEnd > start {
			prevEnd -= day
		}
		if nextStart < end {
			nextStart += day
		}

		if start-prevEnd > threshold {
			start += startOff[i]
		}
		if nextStart-end > threshold {
			end -= endOff[i]
		}

		out[i] = Session{Start: wrap(start), End: wrap(end)}
	}
	return out
}

func wrap(d time.Duration) time.Duration {
	d %= day
	if d < 0 {
		d += day
	}
	return d
}

// TimeOfDay returns t's wall-clock offset from midnight, truncated to
// microsecond resolution.
func TimeOfDay(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond()/1e3)*time.Microsecond
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS" into an offset from midnight.
func ParseTimeOfDay(s string) (time.Duration, error) {
	var h, m, sec int
	switch n, _ := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); n {
	case 2, 3:
	default:
		return 0, fmt.Errorf("session: invalid time of day %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("session: invalid time of day %q", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
}
