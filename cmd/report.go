package cmd

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/opensatcom/missionsim/sim"
	"github.com/opensatcom/missionsim/sim/modem"
	"github.com/opensatcom/missionsim/sim/sweep"
	"github.com/opensatcom/missionsim/sim/trace"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Width(24)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func dB(v float64) string {
	if math.IsNaN(v) {
		return dimStyle.Render("n/a")
	}
	return fmt.Sprintf("%.2f dB", v)
}

func row(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(label))
	b.WriteString(value)
	b.WriteByte('\n')
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// renderSummary formats a run summary for the terminal.
func renderSummary(name string, s sim.Summary, ts *trace.TraceSummary) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Mission " + name))
	b.WriteString("\n\n")

	avail := fmt.Sprintf("%.4f", s.Availability)
	if s.Availability >= 0.99 {
		avail = goodStyle.Render(avail)
	} else {
		avail = badStyle.Render(avail)
	}
	row(&b, "Steps", fmt.Sprintf("%d x %gs", s.Steps, s.StepS))
	row(&b, "Availability", avail)
	row(&b, "Outage", fmt.Sprintf("%.2f min", s.OutageMinutes))
	for _, reason := range sortedOutageReasons(s.OutageSteps) {
		row(&b, "  "+string(reason), strconv.Itoa(s.OutageSteps[reason]))
	}
	row(&b, "Margin p05/p50/p95", dB(s.MarginP05DB)+" / "+dB(s.MarginP50DB)+" / "+dB(s.MarginP95DB))
	row(&b, "Margin mean", dB(s.MarginMeanDB))
	if s.WorstMarginDB != nil {
		row(&b, "Worst margin", dB(*s.WorstMarginDB))
	}
	if len(s.ModeOccupancy) > 0 {
		row(&b, "Throughput mean", fmt.Sprintf("%.3f Mbps", s.ThroughputMeanBps/1e6))
		for _, mode := range sortedKeys(s.ModeOccupancy) {
			row(&b, "  "+mode, strconv.Itoa(s.ModeOccupancy[mode]))
		}
	}
	if len(s.ContactSeconds) > 1 || s.HandoverCount > 0 {
		row(&b, "Handovers", strconv.Itoa(s.HandoverCount))
		for _, id := range sortedKeys(s.ContactSeconds) {
			row(&b, "  "+id, fmt.Sprintf("%.0f s", s.ContactSeconds[id]))
		}
	}
	for _, id := range sortedKeys(s.DemandSatisfaction) {
		row(&b, "Demand "+id, fmt.Sprintf("%.1f%%", 100*s.DemandSatisfaction[id]))
	}
	if ts != nil {
		row(&b, "Mode switches", fmt.Sprintf("%d (%d forced)", ts.ModeSwitches, ts.ForcedModeSwitches))
		row(&b, "Serving changes", strconv.Itoa(ts.ServingChanges))
	}
	return b.String()
}

func sortedOutageReasons(m map[sim.OutageReason]int) []sim.OutageReason {
	reasons := make([]sim.OutageReason, 0, len(m))
	for r, n := range m {
		if n > 0 {
			reasons = append(reasons, r)
		}
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
	return reasons
}

// renderSweep tabulates sweep results. Pareto-optimal cases are starred.
func renderSweep(results []sweep.Result, front []sweep.Result) string {
	onFront := make(map[string]bool, len(front))
	for _, r := range front {
		onFront[r.Case.ID] = true
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers("#", "case", "status", "availability", "outage min", "margin p05", "handovers", "")
	for _, r := range results {
		mark := ""
		if onFront[r.Case.ID] {
			mark = "*"
		}
		avail, outage, p05, ho := "-", "-", "-", "-"
		if r.Err == nil {
			avail = fmt.Sprintf("%.4f", r.Summary.Availability)
			outage = fmt.Sprintf("%.2f", r.Summary.OutageMinutes)
			p05 = dB(r.Summary.MarginP05DB)
			ho = strconv.Itoa(r.Summary.HandoverCount)
		}
		t.Row(strconv.Itoa(r.Case.Index), r.Case.Key(), r.Status(), avail, outage, p05, ho, mark)
	}
	return t.String()
}

// renderModCods tabulates the built-in DVB-S2 table at a target BLER.
func renderModCods(targetBLER float64) string {
	curves := modem.DVBS2Curves()
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers("modcod", "bits/sym", "code rate", "net eff (b/s/Hz)", "req Eb/N0")
	for _, mc := range modem.DVBS2ModCods() {
		req := math.NaN()
		if c, ok := curves[mc.Name]; ok {
			req = c.RequiredEbN0DB(targetBLER)
		}
		t.Row(mc.Name, strconv.FormatFloat(mc.BitsPerSymbol, 'g', -1, 64), fmt.Sprintf("%.3f", mc.CodeRate),
			fmt.Sprintf("%.3f", mc.NetSpectralEff()), dB(req))
	}
	return titleStyle.Render(fmt.Sprintf("DVB-S2 at BLER %g", targetBLER)) + "\n" + t.String()
}
