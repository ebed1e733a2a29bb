package audiomode

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// EffectKind names one collaborator call a transition produces.
type EffectKind uint8

const (
	EffectRequestFocus EffectKind = iota + 1
	EffectAbandonFocus
	EffectSetMode
	EffectSetRouteFocus
	EffectStartRinging
	EffectStopRinging
	EffectStartCallWaiting
	EffectStopCallWaiting
)

func (k EffectKind) String() string {
	switch k {
	case EffectRequestFocus:
		return "requestFocus"
	case EffectAbandonFocus:
		return "abandonFocus"
	case EffectSetMode:
		return "setMode"
	case EffectSetRouteFocus:
		return "setFocusState"
	case EffectStartRinging:
		return "startRinging"
	case EffectStopRinging:
		return "stopRinging"
	case EffectStartCallWaiting:
		return "startCallWaitingTone"
	case EffectStopCallWaiting:
		return "stopCallWaitingTone"
	default:
		return fmt.Sprintf("Unknown EffectKind(%d)", uint8(k))
	}
}

// Effect is a single port call. Only the operand matching Kind is meaningful.
type Effect struct {
	Kind   EffectKind
	Stream Stream
	Mode   AudioMode
	Focus  FocusState
}

func (e Effect) String() string {
	switch e.Kind {
	case EffectRequestFocus:
		return fmt.Sprintf("%s(%s)", e.Kind, e.Stream)
	case EffectSetMode:
		return fmt.Sprintf("%s(%s)", e.Kind, e.Mode)
	case EffectSetRouteFocus:
		return fmt.Sprintf("%s(%s)", e.Kind, e.Focus)
	default:
		return e.Kind.String() + "()"
	}
}

// IsRouteEffect reports whether the effect targets the route coordinator.
func (e Effect) IsRouteEffect() bool {
	switch e.Kind {
	case EffectSetRouteFocus, EffectStartRinging, EffectStopRinging,
		EffectStartCallWaiting, EffectStopCallWaiting:
		return true
	}
	return false
}

func requestFocus(s Stream) Effect      { return Effect{Kind: EffectRequestFocus, Stream: s} }
func setMode(m AudioMode) Effect        { return Effect{Kind: EffectSetMode, Mode: m} }
func setRouteFocus(f FocusState) Effect { return Effect{Kind: EffectSetRouteFocus, Focus: f} }
func effect(k EffectKind) Effect        { return Effect{Kind: k} }

// ApplyEffects performs effects in order against the ports. Route effects are
// dropped when no route coordinator has been attached yet. A nil log uses the
// standard logger.
func ApplyEffects(log *logrus.Entry, effects []Effect, focus AudioFocusPort, route RouteCoordinatorPort) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	for _, e := range effects {
		if e.IsRouteEffect() && route == nil {
			log.WithFields(logrus.Fields{
				"function": "ApplyEffects",
				"effect":   e.String(),
			}).Debug("No route coordinator attached, dropping effect")
			continue
		}
		applyEffect(log, e, focus, route)
	}
}

func applyEffect(log *logrus.Entry, e Effect, focus AudioFocusPort, route RouteCoordinatorPort) {
	switch e.Kind {
	case EffectRequestFocus:
		focus.RequestFocus(e.Stream)
	case EffectAbandonFocus:
		focus.AbandonFocus()
	case EffectSetMode:
		focus.SetMode(e.Mode)
	case EffectSetRouteFocus:
		route.SetFocusState(e.Focus)
	case EffectStartRinging:
		route.StartRinging()
	case EffectStopRinging:
		route.StopRinging()
	case EffectStartCallWaiting:
		route.StartCallWaitingTone()
	case EffectStopCallWaiting:
		route.StopCallWaitingTone()
	default:
		log.WithFields(logrus.Fields{
			"function": "applyEffect",
			"effect":   e.String(),
		}).Warn("Ignoring unknown effect")
	}
}
