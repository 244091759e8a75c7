package feedback

import (
	"bytes"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stillpoint/stillpoint-app/internal/session"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestTerminalHaptics_SilentUntilStarted(t *testing.T) {
	var out bytes.Buffer
	h := NewTerminalHaptics(&out, testLogger())

	require.NoError(t, h.Play(session.HapticSustain, 0.8))
	assert.Equal(t, 0, out.Len())
}

func TestTerminalHaptics_RingsWhileRunning(t *testing.T) {
	var out bytes.Buffer
	h := NewTerminalHaptics(&out, testLogger())

	require.NoError(t, h.StartEngine())
	require.NoError(t, h.Play(session.HapticSustain, 0.8))
	assert.Equal(t, "\a", out.String())

	out.Reset()
	require.NoError(t, h.Play(session.HapticRise, 0.8))
	assert.Equal(t, "\a\a", out.String())
}

func TestTerminalHaptics_SilentAfterStop(t *testing.T) {
	var out bytes.Buffer
	h := NewTerminalHaptics(&out, testLogger())

	require.NoError(t, h.StartEngine())
	require.NoError(t, h.StopEngine())
	require.NoError(t, h.Play(session.HapticFall, 0.8))
	assert.Equal(t, 0, out.Len())
}

func TestPlayer_EmptyCommandUnavailable(t *testing.T) {
	p := NewPlayer("", testLogger())

	assert.ErrorIs(t, p.Start("rain", 2*time.Second), ErrUnavailable)
	assert.NoError(t, p.Stop(3*time.Second))
}

func TestPlayer_EmptySelectionUnavailable(t *testing.T) {
	p := NewPlayer("true", testLogger())

	assert.ErrorIs(t, p.Start("", 2*time.Second), ErrUnavailable)
}

func TestPlayer_SetVolumeUnavailable(t *testing.T) {
	p := NewPlayer("true", testLogger())

	assert.ErrorIs(t, p.SetVolume(0.5), ErrUnavailable)
}

func TestPlayer_StartUnknownBinary(t *testing.T) {
	p := NewPlayer("definitely-not-a-real-player-binary", testLogger())

	err := p.Start("rain", 2*time.Second)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestAnnouncerFunc_Adapter(t *testing.T) {
	var got string
	a := AnnouncerFunc(func(key string) error {
		got = key
		return nil
	})

	require.NoError(t, a.Announce("instruction.exhale"))
	assert.Equal(t, "instruction.exhale", got)

	failing := AnnouncerFunc(func(string) error { return errors.New("speech engine down") })
	assert.Error(t, failing.Announce("instruction.hold"))
}

func TestLogAnnouncer_WritesKey(t *testing.T) {
	var out bytes.Buffer
	a := NewLogAnnouncer(log.New(&out, "", 0))

	require.NoError(t, a.Announce("instruction.inhale"))
	assert.True(t, strings.Contains(out.String(), "instruction.inhale"))
}
