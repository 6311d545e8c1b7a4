package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/CinnamonNinian/cloudsim-eec/core"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("240")).Foreground(lipgloss.Color("15"))
	normalStyle   = lipgloss.NewStyle()
	sleepingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// MachineRow is one row of the live machine table: a MachineGetInfo snapshot
// plus the VM count the dashboard reads from the Cluster View.
type MachineRow struct {
	Info    core.MachineInfo
	VMCount int
}

// RenderMachineTable renders the fleet as a selectable table, one row per
// machine, columns for CPU architecture, power state, VM count and memory
// utilization.
func RenderMachineTable(rows []MachineRow, selectedIdx int) string {
	var sb strings.Builder

	const (
		colID    = 8
		colCPU   = 6
		colState = 10
		colVMs   = 5
		colMem   = 20
	)

	header := fmt.Sprintf("  %-*s %-*s %-*s %*s %-*s",
		colID, "Machine",
		colCPU, "CPU",
		colState, "Power",
		colVMs, "VMs",
		colMem, "Memory")
	sb.WriteString(headerStyle.Render(header) + "\n")
	sb.WriteString("  " + strings.Repeat("─", colID+colCPU+colState+colVMs+colMem+4) + "\n")

	for i, row := range rows {
		style := normalStyle
		if row.Info.SState != core.S0 {
			style = sleepingStyle
		}
		if i == selectedIdx {
			style = selectedStyle
		}

		memPercent := 0.0
		if row.Info.MemoryCapacity > 0 {
			memPercent = float64(row.Info.MemoryUsed) / float64(row.Info.MemoryCapacity) * 100
		}
		memStr := fmt.Sprintf("%5.1f%% (%s/%s)", memPercent, FormatBytes(row.Info.MemoryUsed), FormatBytes(row.Info.MemoryCapacity))

		line := fmt.Sprintf("%-*s %-*s %-*s %*d %-*s",
			colID, row.Info.ID,
			colCPU, row.Info.CPUType,
			colState, fmt.Sprintf("%s/%s", row.Info.SState, row.Info.PState),
			colVMs, row.VMCount,
			colMem, memStr)

		if i == selectedIdx {
			sb.WriteString("▶ ")
		} else {
			sb.WriteString("  ")
		}
		sb.WriteString(style.Render(line) + "\n")
	}

	return sb.String()
}
