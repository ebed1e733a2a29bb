package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/opd-ai/callaudio/audiomode"
	"github.com/spf13/cobra"
)

// Cell markers for events that leave the state alone.
const (
	cellStay      = "·"
	cellUnhandled = "-"
)

// eventPresets is the call snapshot assumed for each event: the smallest
// population for which the event makes sense.
var eventPresets = map[audiomode.EventKind]audiomode.EventArgs{
	audiomode.EventNoMoreActiveOrDialingCalls:   {},
	audiomode.EventNoMoreRingingCalls:           {},
	audiomode.EventNoMoreHoldingCalls:           {},
	audiomode.EventNewActiveOrDialingCall:       {HasActiveCalls: true},
	audiomode.EventNewRingingCall:               {HasRingingCalls: true},
	audiomode.EventNewHoldingCall:               {HasHoldingCalls: true},
	audiomode.EventMtAudioSpeedupForRingingCall: {HasRingingCalls: true},
	audiomode.EventToneStartedPlaying:           {IsTonePlaying: true},
	audiomode.EventToneStoppedPlaying:           {},
	audiomode.EventForegroundVoipModeChange:     {HasActiveCalls: true},
}

// tableOptions adds flags on top of every preset.
type tableOptions struct {
	overlay audiomode.EventArgs
	effects bool
}

func newTableCmd() *cobra.Command {
	opts := &tableOptions{}

	cmd := &cobra.Command{
		Use:   "table",
		Short: "Print the transition table",
		Long: `Print where each operational event leads from each state.

Every event is evaluated with a minimal call snapshot (for example a new
ringing call assumes only ringing calls exist). The flags add calls or a
tone on top of every snapshot.

  ` + cellStay + `  handled, state unchanged
  ` + cellUnhandled + `  not handled in that state

Example:
  audiomodectl table --holding
  audiomodectl table --voip --effects`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return renderTransitionTable(cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.overlay.HasActiveCalls, "active", false, "assume an active or dialing call exists")
	f.BoolVar(&opts.overlay.HasRingingCalls, "ringing", false, "assume a ringing call exists")
	f.BoolVar(&opts.overlay.HasHoldingCalls, "holding", false, "assume a held call exists")
	f.BoolVar(&opts.overlay.IsTonePlaying, "tone", false, "assume a tone is playing")
	f.BoolVar(&opts.overlay.ForegroundCallIsVoip, "voip", false, "assume the foreground call is VoIP")
	f.BoolVar(&opts.effects, "effects", false, "list the port calls in each cell")
	return cmd
}

// presetFor merges the event preset with the overlay flags.
func presetFor(kind audiomode.EventKind, overlay audiomode.EventArgs) *audiomode.EventArgs {
	args := eventPresets[kind]
	args.HasActiveCalls = args.HasActiveCalls || overlay.HasActiveCalls
	args.HasRingingCalls = args.HasRingingCalls || overlay.HasRingingCalls
	args.HasHoldingCalls = args.HasHoldingCalls || overlay.HasHoldingCalls
	args.IsTonePlaying = args.IsTonePlaying || overlay.IsTonePlaying
	args.ForegroundCallIsVoip = args.ForegroundCallIsVoip || overlay.ForegroundCallIsVoip
	return &args
}

// snapshotFor is the snapshot a running machine would hold in state. Only
// the call states change the remembered mode.
func snapshotFor(state audiomode.State) audiomode.Snapshot {
	snap := audiomode.Snapshot{State: state, MostRecentMode: audiomode.ModeNormal, Initialized: true}
	switch state {
	case audiomode.StateSimCallFocus:
		snap.MostRecentMode = audiomode.ModeInCall
	case audiomode.StateVoipCallFocus:
		snap.MostRecentMode = audiomode.ModeInCommunication
	}
	return snap
}

// transitionCell renders one outcome.
func transitionCell(from audiomode.State, out audiomode.Outcome, withEffects bool) string {
	var cell string
	switch {
	case !out.Handled:
		cell = cellUnhandled
	case out.Next.State == from:
		cell = cellStay
	default:
		cell = out.Next.State.String()
	}
	if !withEffects || len(out.Effects) == 0 {
		return cell
	}

	effects := make([]string, 0, len(out.Effects))
	for _, e := range out.Effects {
		effects = append(effects, e.String())
	}
	return cell + "\n" + strings.Join(effects, "\n")
}

func renderTransitionTable(w io.Writer, opts *tableOptions) error {
	headers := []string{"EVENT"}
	for _, s := range audiomode.AllStates {
		headers = append(headers, s.String())
	}

	rows := make([][]string, 0, len(audiomode.OperationalEvents))
	for _, kind := range audiomode.OperationalEvents {
		row := []string{kind.String()}
		args := presetFor(kind, opts.overlay)
		for _, s := range audiomode.AllStates {
			out := audiomode.Transition(snapshotFor(s), kind, args)
			row = append(row, transitionCell(s, out, opts.effects))
		}
		rows = append(rows, row)
	}

	t := newTable(headers, rows, func(row, col int) lipgloss.Style {
		if col == 0 || row >= len(rows) {
			return cellStyle
		}
		switch {
		case strings.HasPrefix(rows[row][col], cellUnhandled):
			return dimStyle
		case strings.HasPrefix(rows[row][col], cellStay):
			return cellStyle
		default:
			return passStyle
		}
	})

	_, err := fmt.Fprintf(w, "%s\n%s\n", titleStyle.Render("Audio mode transitions"), t.String())
	return err
}
