package engine

import (
	"sort"
	"time"
)

// timestampLayouts are tried in order when parsing record timestamps.
// Stored records use RFC 3339; older exports carry bare ISO-8601 forms
// without a zone. time.Parse accepts fractional seconds with any of
// these, so sub-second timestamps need no extra layouts.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a record timestamp. It returns the zero time
// when no known layout matches.
func ParseTimestamp(ts string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Series is a time-ordered view over a snapshot of fee records, sorted
// ascending by parsed timestamp with a stable sort. Entries whose
// timestamp cannot be parsed get the zero time, so they sort to the
// front and are skipped by any operation that needs a real point in
// time. The input slice is copied, and parsed times are carried in a
// parallel slice rather than written onto the records.
type Series struct {
	Records []Record
	times   []time.Time
}

// NewSeries builds a Series from a snapshot of records.
func NewSeries(records []Record) *Series {
	s := &Series{
		Records: make([]Record, len(records)),
		times:   make([]time.Time, len(records)),
	}
	copy(s.Records, records)
	for i, r := range s.Records {
		s.times[i] = ParseTimestamp(r.Timestamp)
	}
	sort.Stable(byParsedTime{s})
	return s
}

// byParsedTime sorts records and their parsed times together.
type byParsedTime struct{ s *Series }

func (b byParsedTime) Len() int           { return len(b.s.Records) }
func (b byParsedTime) Less(i, j int) bool { return b.s.times[i].Before(b.s.times[j]) }
func (b byParsedTime) Swap(i, j int) {
	b.s.Records[i], b.s.Records[j] = b.s.Records[j], b.s.Records[i]
	b.s.times[i], b.s.times[j] = b.s.times[j], b.s.times[i]
}

// Len returns the number of records in the series.
func (s *Series) Len() int { return len(s.Records) }

// Time returns the parsed timestamp of record i; the zero time marks an
// unparsable timestamp.
func (s *Series) Time(i int) time.Time { return s.times[i] }

// baseFees returns every base fee in series order.
func (s *Series) baseFees() []float64 {
	fees := make([]float64, len(s.Records))
	for i, r := range s.Records {
		fees[i] = r.BaseFee
	}
	return fees
}

// tips returns every priority tip in series order.
func (s *Series) tips() []float64 {
	tips := make([]float64, len(s.Records))
	for i, r := range s.Records {
		tips[i] = r.PriorityTip
	}
	return tips
}
