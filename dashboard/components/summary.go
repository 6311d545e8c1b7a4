package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/CinnamonNinian/cloudsim-eec/core"
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("6")).
			Padding(1, 2).
			Width(44)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("6"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))
)

// ClusterTotals is the dashboard's point-in-time rollup of every machine in
// the fleet, computed by the caller from repeated Oracle.MachineGetInfo
// calls (the Cluster View itself never aggregates capacity or energy).
type ClusterTotals struct {
	MachineCount  int
	RunningCount  int // SState == S0
	UsedMemory    int64
	TotalMemory   int64
	SLAReport     core.SLAReport
	ClusterEnergy float64
}

// RenderClusterSummary renders the cluster-wide summary box.
func RenderClusterSummary(t ClusterTotals) string {
	content := titleStyle.Render("Cluster Summary") + "\n\n"

	content += labelStyle.Render("Machines: ") +
		valueStyle.Render(fmt.Sprintf("%d running / %d total", t.RunningCount, t.MachineCount)) + "\n"

	memPercent := 0.0
	if t.TotalMemory > 0 {
		memPercent = float64(t.UsedMemory) / float64(t.TotalMemory) * 100
	}
	content += labelStyle.Render("Memory:   ") +
		valueStyle.Render(fmt.Sprintf("%.1f%% (%s / %s)", memPercent, FormatBytes(t.UsedMemory), FormatBytes(t.TotalMemory))) + "\n"

	content += labelStyle.Render("Tasks:    ") +
		valueStyle.Render(fmt.Sprintf("%d total, %d unplaced", t.SLAReport.TotalTasks, t.SLAReport.UnplacedTasks)) + "\n"

	slaColor := "2"
	if t.SLAReport.SLAViolations > 0 {
		slaColor = "1"
	}
	content += labelStyle.Render("SLA:      ") +
		lipgloss.NewStyle().Foreground(lipgloss.Color(slaColor)).Bold(true).
			Render(fmt.Sprintf("%d violations", t.SLAReport.SLAViolations)) + "\n"

	content += labelStyle.Render("Migrations: ") +
		valueStyle.Render(fmt.Sprintf("%d", t.SLAReport.MigrationsTotal)) + "\n"

	content += labelStyle.Render("Energy:   ") +
		valueStyle.Render(fmt.Sprintf("%.1f J", t.ClusterEnergy)) + "\n"

	return boxStyle.Render(content)
}

// RenderMachineSummary renders a per-machine detail box: power state,
// performance state, CPU architecture, GPU presence, memory, and VM count.
func RenderMachineSummary(info core.MachineInfo, vmCount int) string {
	content := titleStyle.Render(fmt.Sprintf("Machine: %s", info.ID)) + "\n\n"

	stateColor := "2"
	if info.SState != core.S0 {
		stateColor = "8"
	}
	content += labelStyle.Render("Power:    ") +
		lipgloss.NewStyle().Foreground(lipgloss.Color(stateColor)).Bold(true).
			Render(fmt.Sprintf("%s / %s", info.SState, info.PState)) + "\n"

	content += labelStyle.Render("CPU:      ") +
		valueStyle.Render(info.CPUType.String()) + "\n"

	gpu := "no"
	if info.HasGPU {
		gpu = "yes"
	}
	content += labelStyle.Render("GPU:      ") +
		valueStyle.Render(gpu) + "\n"

	content += labelStyle.Render("VMs:      ") +
		valueStyle.Render(fmt.Sprintf("%d", vmCount)) + "\n"

	content += labelStyle.Render("Memory:   ") +
		valueStyle.Render(fmt.Sprintf("%s / %s", FormatBytes(info.MemoryUsed), FormatBytes(info.MemoryCapacity))) + "\n"

	return boxStyle.Render(content)
}

// RenderHelp renders the keyboard-shortcut legend.
func RenderHelp() string {
	content := titleStyle.Render("Keyboard Shortcuts") + "\n\n"

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"↑/↓ or j/k", "Select machine"},
		{"space", "Pause / resume"},
		{"+ / -", "Speed up / slow down"},
		{"t", "Jump one tick"},
		{"?", "Toggle help"},
		{"q / ctrl+c", "Quit"},
	}

	for _, s := range shortcuts {
		content += lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true).
			Render(fmt.Sprintf("%-15s", s.key))
		content += labelStyle.Render(s.desc) + "\n"
	}

	return boxStyle.Width(40).Render(content)
}
