package testing

import (
	"sync"

	"github.com/opd-ai/callaudio/audiomode"
	"github.com/sirupsen/logrus"
)

// FocusOp names an audio focus port operation.
type FocusOp string

const (
	OpRequestFocus FocusOp = "requestFocus"
	OpAbandonFocus FocusOp = "abandonFocus"
	OpSetMode      FocusOp = "setMode"
)

// FocusCall is one recorded audio focus port call.
type FocusCall struct {
	Op     FocusOp
	Stream audiomode.Stream
	Mode   audiomode.AudioMode
}

func (c FocusCall) String() string {
	switch c.Op {
	case OpRequestFocus:
		return string(c.Op) + "(" + c.Stream.String() + ")"
	case OpSetMode:
		return string(c.Op) + "(" + c.Mode.String() + ")"
	default:
		return string(c.Op) + "()"
	}
}

// RecordingFocusPort implements audiomode.AudioFocusPort in memory. It tracks
// whether focus is held and which mode is set, and keeps the full call log
// for verification.
type RecordingFocusPort struct {
	mu      sync.RWMutex
	calls   []FocusCall
	focused bool
	stream  audiomode.Stream
	mode    audiomode.AudioMode
}

// NewRecordingFocusPort creates an unfocused port in normal mode.
func NewRecordingFocusPort() *RecordingFocusPort {
	logrus.WithFields(logrus.Fields{
		"function": "NewRecordingFocusPort",
	}).Debug("Creating recording audio focus port")

	return &RecordingFocusPort{mode: audiomode.ModeNormal}
}

// RequestFocus implements audiomode.AudioFocusPort.
func (p *RecordingFocusPort) RequestFocus(stream audiomode.Stream) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, FocusCall{Op: OpRequestFocus, Stream: stream})
	p.focused = true
	p.stream = stream

	logrus.WithFields(logrus.Fields{
		"function": "RecordingFocusPort.RequestFocus",
		"stream":   stream.String(),
	}).Debug("Simulated focus request")
}

// AbandonFocus implements audiomode.AudioFocusPort.
func (p *RecordingFocusPort) AbandonFocus() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, FocusCall{Op: OpAbandonFocus})
	p.focused = false

	logrus.WithFields(logrus.Fields{
		"function": "RecordingFocusPort.AbandonFocus",
	}).Debug("Simulated focus abandon")
}

// SetMode implements audiomode.AudioFocusPort.
func (p *RecordingFocusPort) SetMode(mode audiomode.AudioMode) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, FocusCall{Op: OpSetMode, Mode: mode})
	p.mode = mode

	logrus.WithFields(logrus.Fields{
		"function": "RecordingFocusPort.SetMode",
		"mode":     mode.String(),
	}).Debug("Simulated audio mode change")
}

// Calls returns a copy of the call log.
func (p *RecordingFocusPort) Calls() []FocusCall {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]FocusCall(nil), p.calls...)
}

// Modes returns every mode set, in order.
func (p *RecordingFocusPort) Modes() []audiomode.AudioMode {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var modes []audiomode.AudioMode
	for _, c := range p.calls {
		if c.Op == OpSetMode {
			modes = append(modes, c.Mode)
		}
	}
	return modes
}

// Focused reports whether focus is currently held and on which stream.
func (p *RecordingFocusPort) Focused() (bool, audiomode.Stream) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.focused, p.stream
}

// CurrentMode returns the last mode set.
func (p *RecordingFocusPort) CurrentMode() audiomode.AudioMode {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mode
}

// Reset clears the call log but keeps focus and mode.
func (p *RecordingFocusPort) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = nil
}
