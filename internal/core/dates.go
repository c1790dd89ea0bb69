package core

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidTimestamp = errors.New("invalid timestamp")

// timestampLayouts lists the Date/Time formats seen across Kuda exports,
// most common first. Padded and unpadded day/month variants are both
// present because older exports are inconsistent about zero padding.
var timestampLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/06 15:04:05",
	"02/01/2006 15:04",
	"02/01/06 15:04",
	"2006-01-02 15:04:05",
	"2/1/2006 15:04",
	"2/1/06 15:04",
	"02-01-2006",
	"02/01/2006",
	"02/01/06",
	"2-1-2006",
	"2/1/2006",
	"2/1/06",
}

// ParseTimestamp parses a Date/Time cell, trying each accepted layout in
// order. Timestamps are day-first as in the source exports.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidTimestamp
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, ErrInvalidTimestamp
}
