package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/opd-ai/callaudio/scenario"
	"github.com/spf13/cobra"
)

func newReplayCmd(opts *rootOptions) *cobra.Command {
	var showTransitions bool

	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>...",
		Short: "Replay call scenarios against the machine",
		Long: `Replay one or more YAML scenarios. Each scenario runs on a fresh machine
wired to recording ports; every step is reported with the resulting state
and audio mode. The command fails if any step fails.

Example:
  audiomodectl replay scenario/testdata/*.yaml
  audiomodectl replay --transitions call_waiting.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := scenario.NewRunner(opts.cfg.MachineOptions()...)
			results, runErr := runner.RunFiles(cmd.Context(), args)

			out := cmd.OutOrStdout()
			for _, res := range results {
				if err := renderResult(out, res, showTransitions); err != nil {
					return err
				}
			}

			if runErr != nil {
				return runErr
			}
			if failed := countFailed(results); failed > 0 {
				return fmt.Errorf("%d of %d scenario(s) failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showTransitions, "transitions", false, "also print every processed event")
	return cmd
}

func countFailed(results []*scenario.Result) int {
	n := 0
	for _, res := range results {
		if scenario.Failed([]*scenario.Result{res}) {
			n++
		}
	}
	return n
}

// renderResult writes the step table and summary for one scenario.
func renderResult(w io.Writer, res *scenario.Result, showTransitions bool) error {
	rows := make([][]string, 0, len(res.Steps))
	for _, step := range res.Steps {
		rows = append(rows, []string{
			strconv.Itoa(step.Index),
			step.Description,
			step.Status.String(),
			step.State.String(),
			step.Mode.String(),
			step.ExecutionTime.Round(time.Microsecond).String(),
			step.ErrorMessage,
		})
	}

	steps := newTable(
		[]string{"#", "STEP", "STATUS", "STATE", "MODE", "TIME", "DETAIL"},
		rows,
		func(row, col int) lipgloss.Style {
			if col != 2 || row >= len(res.Steps) {
				return cellStyle
			}
			return statusStyle(res.Steps[row].Status)
		},
	)

	summary := fmt.Sprintf("%s: %d passed, %d failed, %d skipped in %v",
		res.Status, res.Passed, res.Failed, res.Skipped, res.ExecutionTime.Round(time.Microsecond))

	if _, err := fmt.Fprintf(w, "%s\n%s\n%s\n",
		titleStyle.Render("Scenario "+res.Name), steps.String(), statusStyle(res.Status).Render(summary)); err != nil {
		return err
	}

	if !showTransitions {
		_, err := fmt.Fprintln(w)
		return err
	}
	return renderTransitions(w, res)
}

func renderTransitions(w io.Writer, res *scenario.Result) error {
	rows := make([][]string, 0, len(res.Transitions))
	for _, rec := range res.Transitions {
		effects := make([]string, 0, len(rec.Effects))
		for _, e := range rec.Effects {
			effects = append(effects, e.String())
		}
		handled := "yes"
		switch {
		case rec.Malformed:
			handled = "malformed"
		case !rec.Handled:
			handled = "no"
		}
		rows = append(rows, []string{
			strconv.FormatUint(rec.Sequence, 10),
			rec.Event.String(),
			rec.From.String(),
			rec.To.String(),
			rec.Mode.String(),
			handled,
			strings.Join(effects, ", "),
		})
	}

	t := newTable(
		[]string{"SEQ", "EVENT", "FROM", "TO", "MODE", "HANDLED", "EFFECTS"},
		rows,
		func(row, col int) lipgloss.Style {
			if row < len(res.Transitions) && !res.Transitions[row].Changed() {
				return dimStyle
			}
			return cellStyle
		},
	)
	_, err := fmt.Fprintf(w, "%s\n%s\n\n", titleStyle.Render("Transitions"), t.String())
	return err
}

func statusStyle(status scenario.StepStatus) lipgloss.Style {
	switch status {
	case scenario.StepStatusPassed:
		return passStyle
	case scenario.StepStatusFailed:
		return failStyle
	case scenario.StepStatusSkipped:
		return warnStyle
	default:
		return dimStyle
	}
}
