package main

import (
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tc := range cases {
		if got := formatBytes(tc.in); got != tc.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatTimestampZero(t *testing.T) {
	if got := formatTimestamp(time.Time{}); got != "-" {
		t.Errorf("formatTimestamp(zero) = %q, want -", got)
	}
}

func TestTitleCase(t *testing.T) {
	if got := titleCase("stopped"); got != "Stopped" {
		t.Errorf("titleCase(stopped) = %q", got)
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID short input = %q", got)
	}
}

func TestBuildSessionStatsRows(t *testing.T) {
	rows := buildSessionStatsRows(map[string]int{
		"stopped": 2,
		"failed":  1,
		"running": 0,
	})
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Failed" || rows[0][1] != "1" {
		t.Errorf("unexpected first row %v", rows[0])
	}
	if rows[1][0] != "Stopped" || rows[1][1] != "2" {
		t.Errorf("unexpected second row %v", rows[1])
	}
}
