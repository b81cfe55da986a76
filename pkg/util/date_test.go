package util

import (
    "strconv"
    "testing"
    "time"
)

func TestParseTimeRFC3339(t *testing.T) {
    s := "2024-10-10T10:10:10Z"
    got, ok := ParseTime(s)
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.UTC().Format(time.RFC3339) != s {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimeUnix(t *testing.T) {
    ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
    got, ok := ParseTime(strconv.FormatInt(ts, 10))
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Unix() != ts {
        t.Fatalf("unexpected unix %v", got.Unix())
    }
}

func TestParseTimeDefault(t *testing.T) {
    def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
    got := ParseTimeDefault("", def)
    if !got.Equal(def) {
        t.Fatalf("expected default")
    }
}

func TestClampRangeOrdersAndCaps(t *testing.T) {
    to := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
    from := to.Add(24 * time.Hour) // inverted on purpose
    f, tt := ClampRange(from, to, 6*time.Hour)
    if !tt.Equal(from) {
        t.Fatalf("expected to=%v, got %v", from, tt)
    }
    if tt.Sub(f) != 6*time.Hour {
        t.Fatalf("expected span capped at 6h, got %v", tt.Sub(f))
    }
}

func TestClampRangeNoCap(t *testing.T) {
    from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
    to := from.Add(90 * 24 * time.Hour)
    f, tt := ClampRange(from, to, 0)
    if !f.Equal(from) || !tt.Equal(to) {
        t.Fatalf("expected range unchanged")
    }
}