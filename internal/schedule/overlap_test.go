package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     string
		want                           bool
	}{
		{"identical ranges", "09:00", "12:00", "09:00", "12:00", true},
		{"partial overlap", "09:00", "12:00", "11:00", "13:00", true},
		{"contained range", "09:00", "12:00", "10:00", "11:00", true},
		{"touching at boundary", "09:00", "12:00", "12:00", "14:00", false},
		{"touching at boundary reversed", "12:00", "14:00", "09:00", "12:00", false},
		{"disjoint", "08:00", "09:00", "10:00", "11:00", false},
		{"one minute shared", "09:00", "10:01", "10:00", "11:00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aStart := mustParse(t, tt.aStart)
			aEnd := mustParse(t, tt.aEnd)
			bStart := mustParse(t, tt.bStart)
			bEnd := mustParse(t, tt.bEnd)

			assert.Equal(t, tt.want, Overlaps(aStart, aEnd, bStart, bEnd))
			// The predicate is symmetric
			assert.Equal(t, tt.want, Overlaps(bStart, bEnd, aStart, aEnd))
		})
	}
}

func TestInstantsOverlap(t *testing.T) {
	base := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	slot := 30 * time.Minute

	tests := []struct {
		name   string
		offset time.Duration
		want   bool
	}{
		{"same instant", 0, true},
		{"offset inside slot", 15 * time.Minute, true},
		{"back to back", 30 * time.Minute, false},
		{"well clear", 2 * time.Hour, false},
		{"offset before inside slot", -15 * time.Minute, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := base.Add(tt.offset)
			got := InstantsOverlap(base, base.Add(slot), other, other.Add(slot))
			assert.Equal(t, tt.want, got)
		})
	}
}

func mustParse(t *testing.T, s string) TimeOfDay {
	t.Helper()
	tod, err := ParseTimeOfDay(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return tod
}
