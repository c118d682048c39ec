package engine

import (
	"testing"
	"time"
)

// recAt builds a stored-form record from a concrete time.
func recAt(ts time.Time, base, tip float64) Record {
	return Record{
		Timestamp:   ts.UTC().Format(time.RFC3339),
		Network:     "ethereum",
		BaseFee:     base,
		PriorityTip: tip,
	}
}

func TestParseTimestamp_Layouts(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"rfc3339", "2024-06-01T10:30:00Z", time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)},
		{"rfc3339 offset", "2024-06-01T12:30:00+02:00", time.Date(2024, 6, 1, 12, 30, 0, 0, time.FixedZone("", 2*3600))},
		{"bare iso", "2024-06-01T10:30:00", time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)},
		{"space separated", "2024-06-01 10:30:00", time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)},
		{"date only", "2024-06-01", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{"fractional seconds", "2024-06-01T10:30:00.500Z", time.Date(2024, 6, 1, 10, 30, 0, 500000000, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTimestamp(tt.in)
			if !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseTimestamp_Unparsable(t *testing.T) {
	for _, in := range []string{"", "notatime", "2024-13-45T99:00:00Z"} {
		if got := ParseTimestamp(in); !got.IsZero() {
			t.Errorf("ParseTimestamp(%q) = %v, want zero time", in, got)
		}
	}
}

func TestNewSeries_SortsAscending(t *testing.T) {
	now := time.Now()
	records := []Record{
		recAt(now, 30, 0),
		recAt(now.Add(-2*time.Hour), 10, 0),
		recAt(now.Add(-1*time.Hour), 20, 0),
	}
	s := NewSeries(records)

	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
	for i := 1; i < s.Len(); i++ {
		if s.Time(i).Before(s.Time(i - 1)) {
			t.Fatalf("records not sorted at %d: %v before %v", i, s.Time(i), s.Time(i-1))
		}
	}
	if s.Records[0].BaseFee != 10 || s.Records[2].BaseFee != 30 {
		t.Errorf("unexpected order: %v, %v, %v", s.Records[0].BaseFee, s.Records[1].BaseFee, s.Records[2].BaseFee)
	}
}

func TestNewSeries_UnparsableSortsFirst(t *testing.T) {
	now := time.Now()
	s := NewSeries([]Record{
		recAt(now, 20, 0),
		{Timestamp: "garbage", BaseFee: 99},
	})
	if !s.Time(0).IsZero() {
		t.Errorf("expected unparsable record first, got time %v", s.Time(0))
	}
	if s.Records[0].BaseFee != 99 {
		t.Errorf("expected garbage record first, got fee %v", s.Records[0].BaseFee)
	}
}

func TestNewSeries_StableForEqualTimestamps(t *testing.T) {
	ts := "2024-06-01T10:00:00Z"
	s := NewSeries([]Record{
		{Timestamp: ts, BaseFee: 1},
		{Timestamp: ts, BaseFee: 2},
		{Timestamp: ts, BaseFee: 3},
	})
	for i, want := range []float64{1, 2, 3} {
		if s.Records[i].BaseFee != want {
			t.Errorf("position %d: got %v, want %v", i, s.Records[i].BaseFee, want)
		}
	}
}

func TestNewSeries_CopiesInput(t *testing.T) {
	now := time.Now()
	records := []Record{
		recAt(now, 30, 0),
		recAt(now.Add(-1*time.Hour), 10, 0),
	}
	NewSeries(records)
	// The caller's slice must stay in its original order.
	if records[0].BaseFee != 30 {
		t.Errorf("input slice was reordered: first fee %v", records[0].BaseFee)
	}
}
