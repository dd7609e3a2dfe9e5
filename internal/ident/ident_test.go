package ident

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OybekDeveloper/leora/internal/date"
)

func TestUUIDv7(t *testing.T) {
	var g UUIDv7
	a, b := g.NewID(), g.NewID()
	assert.NotEqual(t, a, b)

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestSequence(t *testing.T) {
	s := NewSequence("tx")
	assert.Equal(t, "tx-0001", s.NewID())
	assert.Equal(t, "tx-0002", s.NewID())
}

func TestFixed(t *testing.T) {
	f := NewFixed("a", "b")
	assert.Equal(t, "a", f.NewID())
	assert.Equal(t, "b", f.NewID())
	assert.Panics(t, func() { f.NewID() })
}

func TestMarshalCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"sorted keys", map[string]any{"b": 1, "a": "x"}, `{"a":"x","b":1}`},
		{"nested", map[string]any{"z": []any{true, int64(2)}, "m": map[string]any{"k": "v"}}, `{"m":{"k":"v"},"z":[true,2]}`},
		{"no html escape", "<a&b>", `"<a&b>"`},
		{"string slice", []string{"x", "y"}, `["x","y"]`},
		{"date as string", date.MustParse("2025-02-28"), `"2025-02-28"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonical_Rejects(t *testing.T) {
	for _, v := range []any{nil, 1.5, float32(2), struct{}{}} {
		_, err := MarshalCanonical(v)
		assert.Error(t, err, "%T", v)
	}
}

func TestMarshalCanonical_NFC(t *testing.T) {
	composed, err := MarshalCanonical("caf\u00e9")
	require.NoError(t, err)
	decomposed, err := MarshalCanonical("cafe\u0301")
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestOccurrenceID(t *testing.T) {
	d := date.MustParse("2025-03-31")

	a := MustOccurrenceID("sched-1", d)
	assert.Equal(t, a, MustOccurrenceID("sched-1", d), "stable across calls")
	assert.NotEqual(t, a, MustOccurrenceID("sched-1", d.AddDays(1)))
	assert.NotEqual(t, a, MustOccurrenceID("sched-2", d))
	assert.Len(t, a, len("occ_")+32)

	_, err := OccurrenceID("sched-1", date.Date{})
	assert.Error(t, err)
}
