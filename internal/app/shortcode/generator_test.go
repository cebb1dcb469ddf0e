package shortcode

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexCode = regexp.MustCompile(`^[0-9a-f]{6}$`)

func fixedClock() func() time.Time {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC)
	return func() time.Time { return ts }
}

func TestGenerator_Generate(t *testing.T) {
	g := NewGenerator(WithClock(fixedClock()))

	code, err := g.Generate("https://example.com", func(string) bool { return false })
	require.NoError(t, err)
	assert.Regexp(t, hexCode, code)

	again, err := g.Generate("https://example.com", func(string) bool { return false })
	require.NoError(t, err)
	assert.Equal(t, code, again, "same url and same instant give the same first candidate")
}

func TestGenerator_GenerateSkipsTakenCodes(t *testing.T) {
	g := NewGenerator(WithClock(fixedClock()))
	existing := map[string]struct{}{}

	for i := 0; i < 50; i++ {
		code, err := g.Generate("https://example.com", func(c string) bool {
			_, ok := existing[c]
			return ok
		})
		require.NoError(t, err)
		assert.Regexp(t, hexCode, code)
		_, dup := existing[code]
		require.False(t, dup, "code %s issued twice", code)
		existing[code] = struct{}{}
	}
	assert.Len(t, existing, 50)
}

func TestGenerator_Exhausted(t *testing.T) {
	g := NewGenerator(WithMaxAttempts(5))
	calls := 0

	_, err := g.Generate("https://example.com", func(string) bool {
		calls++
		return true
	})
	assert.ErrorIs(t, err, ErrCodeSpaceExhausted)
	assert.Equal(t, 5, calls)
}

func TestGenerator_AllocatePropagatesClaimError(t *testing.T) {
	boom := errors.New("boom")
	g := NewGenerator()

	_, err := g.Allocate("https://example.com", func(string) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestGenerator_CandidateDependsOnURLAndTime(t *testing.T) {
	g := NewGenerator(WithClock(fixedClock()))
	assert.NotEqual(t, g.Candidate("https://a.com", 0), g.Candidate("https://b.com", 0))
	assert.NotEqual(t, g.Candidate("https://a.com", 0), g.Candidate("https://a.com", 1))

	tick := time.Unix(0, 0)
	moving := NewGenerator(WithClock(func() time.Time {
		tick = tick.Add(time.Nanosecond)
		return tick
	}))
	assert.NotEqual(t, moving.Candidate("https://a.com", 0), moving.Candidate("https://a.com", 0))
}
