// Package timeconv coerces the timestamp representations found in LibreChat
// exports into Unix epoch seconds.
package timeconv

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// dateKey is the field extended JSON uses to wrap a date.
const dateKey = "$date"

// isoLayouts are tried in order. Offsets and fractional seconds are accepted by
// the RFC 3339 layouts; the rest cover naive values, which are read as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Normalizer converts timestamps. It never fails: anything it cannot read
// becomes the current time and a warning is logged.
type Normalizer struct {
	now    func() time.Time
	logger *slog.Logger
}

// NewNormalizer creates a Normalizer. A nil now uses time.Now and a nil logger
// uses slog.Default().
func NewNormalizer(now func() time.Time, logger *slog.Logger) *Normalizer {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{now: now, logger: logger}
}

// EpochSeconds returns v as whole seconds since the Unix epoch, UTC.
func (n *Normalizer) EpochSeconds(v any) int64 {
	switch t := v.(type) {
	case time.Time:
		return clamp(t.UTC().Unix())
	case *time.Time:
		if t != nil {
			return clamp(t.UTC().Unix())
		}
	case primitive.DateTime:
		return clamp(t.Time().UTC().Unix())
	case string:
		return n.parse(t)
	case primitive.M:
		if s, ok := t[dateKey].(string); ok {
			return n.parse(s)
		}
	case map[string]any:
		if s, ok := t[dateKey].(string); ok {
			return n.parse(s)
		}
	case primitive.D:
		for _, e := range t {
			if e.Key == dateKey {
				if s, ok := e.Value.(string); ok {
					return n.parse(s)
				}
			}
		}
	}

	n.logger.Warn("Unrecognized time format, using current time", "value", fmt.Sprintf("%v", v))
	return n.fallback()
}

// Milliseconds scales an epoch-seconds value for fields stored in milliseconds.
func Milliseconds(seconds int64) int64 {
	return seconds * 1000
}

func (n *Normalizer) parse(s string) int64 {
	t, err := ParseISO(s)
	if err != nil {
		n.logger.Warn("Time conversion error, using current time", "value", s, "error", err)
		return n.fallback()
	}
	return clamp(t.Unix())
}

func (n *Normalizer) fallback() int64 {
	return clamp(n.now().UTC().Unix())
}

// ParseISO parses an ISO-8601 timestamp. A trailing "Z" means UTC and values
// without an offset are read as UTC.
func ParseISO(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range isoLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO-8601 timestamp %q: %w", s, firstErr)
}

func clamp(sec int64) int64 {
	if sec < 0 {
		return 0
	}
	return sec
}
