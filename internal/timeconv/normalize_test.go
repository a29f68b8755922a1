package timeconv_test

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"chatbridge/internal/timeconv"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newNormalizer() (*timeconv.Normalizer, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	return timeconv.NewNormalizer(func() time.Time { return fixedNow }, logger), &buf
}

func TestEpochSeconds_AdmissibleShapes(t *testing.T) {
	const want = int64(1704067200) // 2024-01-01T00:00:00Z
	berlin := time.FixedZone("CET", 3600)

	tests := []struct {
		name  string
		value any
		want  int64
	}{
		{name: "wrapped bson.M", value: bson.M{"$date": "2024-01-01T00:00:00Z"}, want: want},
		{name: "wrapped bson.D", value: bson.D{{Key: "$date", Value: "2024-01-01T00:00:00.000Z"}}, want: want},
		{name: "wrapped plain map", value: map[string]any{"$date": "2024-01-01T00:00:00+00:00"}, want: want},
		{name: "string with Z", value: "2024-01-01T00:00:00Z", want: want},
		{name: "string with offset", value: "2024-01-01T01:00:00+01:00", want: want},
		{name: "string with fraction", value: "2024-01-01T00:00:00.987Z", want: want},
		{name: "naive string is UTC", value: "2024-01-01T00:00:00", want: want},
		{name: "space separated", value: "2024-01-01 00:00:00", want: want},
		{name: "date only", value: "2024-01-01", want: want},
		{name: "time.Time UTC", value: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), want: want},
		{name: "time.Time with zone", value: time.Date(2024, 1, 1, 1, 0, 0, 0, berlin), want: want},
		{name: "time.Time truncates", value: time.Date(2024, 1, 1, 0, 0, 0, 999_000_000, time.UTC), want: want},
		{name: "primitive.DateTime", value: primitive.NewDateTimeFromTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), want: want},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, logs := newNormalizer()
			assert.Equal(t, tt.want, n.EpochSeconds(tt.value))
			assert.Empty(t, logs.String())
		})
	}
}

func TestEpochSeconds_FallsBackToNow(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{name: "malformed string", value: "not a date"},
		{name: "malformed wrapped string", value: bson.M{"$date": "2024-13-45"}},
		{name: "wrapper without date key", value: bson.M{"when": "2024-01-01T00:00:00Z"}},
		{name: "wrapper with numeric date", value: bson.M{"$date": int64(1704067200000)}},
		{name: "nil", value: nil},
		{name: "integer", value: 42},
		{name: "nil time pointer", value: (*time.Time)(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, logs := newNormalizer()
			got := n.EpochSeconds(tt.value)
			assert.Equal(t, fixedNow.Unix(), got)
			assert.GreaterOrEqual(t, got, int64(0))
			assert.Contains(t, logs.String(), "level=WARN")
		})
	}
}

func TestEpochSeconds_RealClockIsApproximatelyNow(t *testing.T) {
	n := timeconv.NewNormalizer(nil, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	before := time.Now().Unix()
	got := n.EpochSeconds("garbage")
	after := time.Now().Unix()

	assert.GreaterOrEqual(t, got, before)
	assert.LessOrEqual(t, got, after)
}

func TestEpochSeconds_PreEpochClampsToZero(t *testing.T) {
	n, _ := newNormalizer()
	assert.Equal(t, int64(0), n.EpochSeconds("1960-01-01T00:00:00Z"))
}

func TestParseISO(t *testing.T) {
	got, err := timeconv.ParseISO(" 2024-01-01T00:00:05Z ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 5, 0, time.UTC), got)

	_, err = timeconv.ParseISO("yesterday")
	assert.ErrorContains(t, err, "invalid ISO-8601 timestamp")
}

func TestMilliseconds(t *testing.T) {
	assert.Equal(t, int64(1704067200000), timeconv.Milliseconds(1704067200))
}
