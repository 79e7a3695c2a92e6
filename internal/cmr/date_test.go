package cmr

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-15")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	want := Date{Year: 2024, Month: time.January, Day: 15}
	if d != want {
		t.Errorf("ParseDate = %+v, want %+v", d, want)
	}
}

func TestParseDateInvalid(t *testing.T) {
	for _, s := range []string{"2024-13-01", "2024-01-32", "15/01/2024", ""} {
		if _, err := ParseDate(s); err == nil {
			t.Errorf("ParseDate(%q): expected error", s)
		}
	}
}

func TestDateString(t *testing.T) {
	d := Date{Year: 2013, Month: time.April, Day: 1}
	if got := d.String(); got != "2013-04-01" {
		t.Errorf("String = %q, want 2013-04-01", got)
	}
}

func TestAddDaysCrossesMonth(t *testing.T) {
	d := Date{Year: 2024, Month: time.January, Day: 31}
	got := d.AddDays(1)
	want := Date{Year: 2024, Month: time.February, Day: 1}
	if got != want {
		t.Errorf("AddDays = %+v, want %+v", got, want)
	}
}

func TestBeforeAfter(t *testing.T) {
	a := Date{Year: 2024, Month: time.January, Day: 1}
	b := Date{Year: 2024, Month: time.January, Day: 2}
	if !a.Before(b) || b.Before(a) {
		t.Error("Before ordering wrong")
	}
	if !b.After(a) || a.After(b) {
		t.Error("After ordering wrong")
	}
	if a.Before(a) || a.After(a) {
		t.Error("a day is neither before nor after itself")
	}
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.January, 31},
		{2024, time.February, 29}, // leap year
		{2023, time.February, 28},
		{2024, time.April, 30},
		{2024, time.December, 31},
	}
	for _, tt := range tests {
		if got := DaysInMonth(tt.year, tt.month); got != tt.want {
			t.Errorf("DaysInMonth(%d, %v) = %d, want %d", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestMonthDates(t *testing.T) {
	dates := MonthDates(2024, time.February)
	if len(dates) != 29 {
		t.Fatalf("expected 29 dates, got %d", len(dates))
	}
	if dates[0] != (Date{Year: 2024, Month: time.February, Day: 1}) {
		t.Errorf("unexpected first date %+v", dates[0])
	}
	if dates[28] != (Date{Year: 2024, Month: time.February, Day: 29}) {
		t.Errorf("unexpected last date %+v", dates[28])
	}
}
