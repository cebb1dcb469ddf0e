package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducer_WriteAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")

	p, err := NewProducer(path)
	require.NoError(t, err)
	require.NoError(t, p.WriteEvent(&Event{Type: EventURLCreated, Code: "abc123", URL: "https://example.com", Owner: "alice"}))
	require.NoError(t, p.WriteEvent(&Event{UUID: "fixed", Type: EventURLDeleted, Code: "abc123", Owner: "alice"}))
	require.NoError(t, p.Close())

	// повторное открытие дописывает, а не перезаписывает
	p, err = NewProducer(path)
	require.NoError(t, err)
	require.NoError(t, p.WriteEvent(&Event{Type: EventUserCreated, Username: "bob", PasswordHash: "h"}))
	require.NoError(t, p.Close())

	events, err := LoadEvents(path)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, EventURLCreated, events[0].Type)
	assert.Equal(t, "fixed", events[1].UUID)
	assert.Equal(t, "bob", events[2].Username)
}

func TestLoadEvents_MissingFile(t *testing.T) {
	events, err := LoadEvents(filepath.Join(t.TempDir(), "nope.json"))
	assert.NoError(t, err)
	assert.Empty(t, events)
}

func TestLoadEvents_Corrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, []byte("{\"type\":\"url_created\"}\n{broken\n{\"type\":\"url_deleted\"}\n"), 0600))

	_, err := LoadEvents(path)
	assert.Error(t, err)
}

func TestLoadEvents_TornTail(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "half written line", data: "{\"type\":\"url_created\",\"code\":\"abc123\"}\n{\"type\":\"url_del"},
		{name: "half written line with newline", data: "{\"type\":\"url_created\",\"code\":\"abc123\"}\n{\"type\":\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "events.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0600))

			events, err := LoadEvents(path)
			require.NoError(t, err)
			require.Len(t, events, 1)
			assert.Equal(t, "abc123", events[0].Code)
		})
	}
}

func TestProducer_FailedWriteLeavesNoPartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")

	p, err := NewProducer(path)
	require.NoError(t, err)
	require.NoError(t, p.WriteEvent(&Event{Type: EventURLCreated, Code: "abc123", URL: "https://example.com", Owner: "alice"}))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	errDiskFull := errors.New("disk full")
	p.write = func(line []byte) error {
		_, err := p.file.Write(line[:len(line)/2])
		require.NoError(t, err)
		return errDiskFull
	}
	assert.ErrorIs(t, p.WriteEvent(&Event{Type: EventURLDeleted, Code: "abc123", Owner: "alice"}), errDiskFull)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// следующая запись продолжает журнал с целой строки
	p.write = p.writeLine
	require.NoError(t, p.WriteEvent(&Event{Type: EventURLDeleted, Code: "abc123", Owner: "alice"}))
	require.NoError(t, p.Close())

	events, err := LoadEvents(path)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventURLDeleted, events[1].Type)
}
