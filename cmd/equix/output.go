package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"equix/internal/miner"
	"equix/pkg/difficulty"
	"equix/pkg/equix"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFF00"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF")).
			Width(14)

	okStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#22C55E"))

	failStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#EF4444"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4B5563")).
			Padding(0, 1)
)

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

func printBox(w io.Writer, title string, rows ...string) {
	body := titleStyle.Render(title) + "\n" + strings.Join(rows, "\n")
	fmt.Fprintln(w, boxStyle.Render(body))
}

func renderResult(r equix.Result) string {
	if r == equix.ResultOk {
		return okStyle.Render(r.String())
	}
	return failStyle.Render(r.String())
}

func printSolutions(w io.Writer, challenge equix.Challenge, solutions []equix.Solution, stats equix.Stats) {
	rows := []string{
		row("nonce", humanize.Comma(int64(challenge.Nonce()))),
		row("solutions", fmt.Sprint(len(solutions))),
		row("candidates", fmt.Sprint(stats.Candidates)),
		row("dropped", humanize.Comma(int64(stats.Stage1Dropped+stats.Stage2Dropped+stats.Stage3Dropped+stats.FineDropped))),
	}
	for i, s := range solutions {
		h := difficulty.NewHash(s, challenge.Nonce())
		rows = append(rows, row(fmt.Sprintf("#%d", i), fmt.Sprintf("%s  difficulty %d", s.Hex(), h.Difficulty())))
	}
	printBox(w, "Solve", rows...)
}

func printMining(w io.Writer, res *miner.Result) {
	rate := float64(res.Attempts) / res.Elapsed.Seconds()
	printBox(w, "Mining result",
		row("session", res.SessionID),
		row("nonce", humanize.Comma(int64(res.Nonce))),
		row("solution", res.Solution.Hex()),
		row("difficulty", fmt.Sprint(res.Difficulty)),
		row("digest", fmt.Sprintf("%x", res.Digest)),
		row("target", fmt.Sprint(res.TargetReached)),
		row("attempts", humanize.Comma(int64(res.Attempts))),
		row("rejected", humanize.Comma(int64(res.BuildFailures))),
		row("rate", humanize.FormatFloat("#,###.##", rate)+" attempts/s"),
		row("elapsed", res.Elapsed.Round(1e6).String()),
	)
}
