package marketplace_test

import (
	"encoding/json"
	"testing"
	"time"

	"jobsync/marketplace-service/internal/marketplace"
)

func TestDate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want marketplace.Date
	}{
		{`"2026-12-01"`, marketplace.NewDate(2026, 12, 1)},
		{`"2026-12-01T00:00:00Z"`, marketplace.NewDate(2026, 12, 1)},
		{`"2026-12-01T23:30:00+02:00"`, marketplace.NewDate(2026, 12, 1)},
		{`null`, marketplace.Date{}},
	}
	for _, tt := range tests {
		var d marketplace.Date
		if err := json.Unmarshal([]byte(tt.in), &d); err != nil {
			t.Errorf("Unmarshal(%s): %v", tt.in, err)
			continue
		}
		if !d.Equal(tt.want.Time) {
			t.Errorf("Unmarshal(%s) = %v, want %v", tt.in, d, tt.want)
		}
	}

	for _, bad := range []string{`"12/01/2026"`, `"2026-13-01"`, `20261201`, `""`} {
		var d marketplace.Date
		if err := json.Unmarshal([]byte(bad), &d); err == nil {
			t.Errorf("Unmarshal(%s) accepted, got %v", bad, d)
		}
	}
}

func TestDate_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		D marketplace.Date  `json:"d"`
		P *marketplace.Date `json:"p,omitempty"`
	}{D: marketplace.NewDate(2026, 3, 9)})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `{"d":"2026-03-09"}` {
		t.Errorf("Marshal = %s", b)
	}
}

func TestJob_DateOnlyDeadline(t *testing.T) {
	var j marketplace.Job
	body := `{"title":"Logo","category":"design","deadline":"2026-12-01","buyer":{"email":"buyer@example.com"}}`
	if err := json.Unmarshal([]byte(body), &j); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if err := marketplace.ValidateJob(&j); err != nil {
		t.Fatalf("ValidateJob: %v", err)
	}
	if got := j.Deadline.Format(marketplace.DateLayout); got != "2026-12-01" {
		t.Errorf("deadline = %s", got)
	}
	if j.Deadline.Location() != time.UTC {
		t.Errorf("deadline location = %v, want UTC", j.Deadline.Location())
	}
}

func TestDate_PostgresRoundTrip(t *testing.T) {
	d := marketplace.NewDate(2026, 7, 4)
	v, err := d.DateValue()
	if err != nil || !v.Valid {
		t.Fatalf("DateValue = %+v, %v", v, err)
	}
	var back marketplace.Date
	if err := back.ScanDate(v); err != nil || !back.Equal(d.Time) {
		t.Errorf("ScanDate = %v, %v; want %v", back, err, d)
	}

	if v, _ := (marketplace.Date{}).DateValue(); v.Valid {
		t.Error("zero Date must encode as NULL")
	}
}
