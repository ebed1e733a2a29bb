package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opd-ai/callaudio/audiomode"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	std := logrus.StandardLogger()
	prevLevel, prevFormatter, prevOut := std.GetLevel(), std.Formatter, std.Out
	t.Cleanup(func() {
		logrus.SetLevel(prevLevel)
		logrus.SetFormatter(prevFormatter)
		logrus.SetOutput(prevOut)
	})

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "audiomodectl dev\n", out)
}

func TestTableCommand(t *testing.T) {
	out, err := execute(t, "table")
	require.NoError(t, err)

	for _, s := range audiomode.AllStates {
		assert.Contains(t, out, s.String())
	}
	for _, kind := range audiomode.OperationalEvents {
		assert.Contains(t, out, kind.String())
	}
}

func TestTableCommandWithEffects(t *testing.T) {
	out, err := execute(t, "table", "--voip", "--effects")
	require.NoError(t, err)
	assert.Contains(t, out, "setMode(IN_COMMUNICATION)")
	assert.Contains(t, out, "startRinging()")
}

func TestTableCommandRejectsArgs(t *testing.T) {
	_, err := execute(t, "table", "extra")
	assert.Error(t, err)
}

func TestTransitionCell(t *testing.T) {
	ringing := snapshotFor(audiomode.StateRingingFocus)
	assert.Equal(t, audiomode.ModeNormal, ringing.MostRecentMode)
	assert.Equal(t, audiomode.ModeInCommunication, snapshotFor(audiomode.StateVoipCallFocus).MostRecentMode)

	out := audiomode.Transition(snapshotFor(audiomode.StateUnfocused), audiomode.EventNewRingingCall,
		presetFor(audiomode.EventNewRingingCall, audiomode.EventArgs{}))
	assert.Equal(t, "RINGING", transitionCell(audiomode.StateUnfocused, out, false))
	assert.True(t, strings.HasPrefix(transitionCell(audiomode.StateUnfocused, out, true), "RINGING\n"))

	out = audiomode.Transition(ringing, audiomode.EventNewRingingCall,
		presetFor(audiomode.EventNewRingingCall, audiomode.EventArgs{}))
	assert.Equal(t, cellStay, transitionCell(audiomode.StateRingingFocus, out, false))

	out = audiomode.Transition(ringing, audiomode.EventToneStartedPlaying,
		presetFor(audiomode.EventToneStartedPlaying, audiomode.EventArgs{}))
	assert.Equal(t, cellUnhandled, transitionCell(audiomode.StateRingingFocus, out, false))
}

func TestPresetForMergesOverlay(t *testing.T) {
	args := presetFor(audiomode.EventNewRingingCall, audiomode.EventArgs{HasHoldingCalls: true, ForegroundCallIsVoip: true})
	assert.True(t, args.HasRingingCalls)
	assert.True(t, args.HasHoldingCalls)
	assert.True(t, args.ForegroundCallIsVoip)
	assert.False(t, args.HasActiveCalls)

	// The shared preset is not modified.
	assert.False(t, eventPresets[audiomode.EventNewRingingCall].HasHoldingCalls)
}

func TestReplayCommand(t *testing.T) {
	path := filepath.Join("..", "..", "scenario", "testdata", "call_waiting.yaml")
	out, err := execute(t, "replay", "--transitions", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Scenario call-waiting")
	assert.Contains(t, out, "PASSED")
	assert.Contains(t, out, "Transitions")
	assert.Contains(t, out, "NEW_RINGING_CALL")
}

func TestReplayCommandFailsOnMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrong.yaml")
	doc := "name: wrong\nsteps:\n  - event: NEW_RINGING_CALL\n    args: {ringing: true}\n    expect: {state: OTHER}\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	out, err := execute(t, "replay", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 scenario(s) failed")
	assert.Contains(t, out, "state: want OTHER, got RINGING")
}

func TestReplayCommandRequiresFiles(t *testing.T) {
	_, err := execute(t, "replay")
	assert.Error(t, err)
}

func TestInvalidLogLevel(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--log-level", "loud", "version"})
	assert.Error(t, cmd.Execute())
}

func TestConfigFileFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "callaudio.yaml")
	require.NoError(t, os.WriteFile(path, []byte("queue_size: 0\n"), 0o600))

	_, err := execute(t, "--config", path, "version")
	assert.Error(t, err)
}
