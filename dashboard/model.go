// Package dashboard is a live bubbletea TUI over a running simulation: it
// steps the harness forward in small increments on a tick timer and renders
// the fleet, mirroring the teacher-adjacent yohaya-migsug dashboard's
// tickMsg/refresh-countdown pattern, but driving a harness.Harness instead of
// polling a remote cluster API.
package dashboard

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/CinnamonNinian/cloudsim-eec/core"
	"github.com/CinnamonNinian/cloudsim-eec/dashboard/components"
	"github.com/CinnamonNinian/cloudsim-eec/internal/harness"
)

// stepPerTick is the simulated-time advance per tea.Tick at speed 1x.
const stepPerTick = 1_000_000

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Pause    key.Binding
	SpeedUp  key.Binding
	SlowDown key.Binding
	Step     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "select machine")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "select machine")),
	Pause:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause/resume")),
	SpeedUp:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "speed up")),
	SlowDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "slow down")),
	Step:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "single tick")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// tickMsg drives the simulation step/refresh cadence.
type tickMsg time.Time

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the dashboard's bubbletea model: it owns a harness/scheduler pair
// already wired and seeded with a workload, and steps it forward one
// stepPerTick*speed chunk per refresh.
type Model struct {
	h       *harness.Harness
	sched   *core.Scheduler
	horizon int64

	speed   int
	paused  bool
	showHelp bool
	done    bool

	selected int
	width    int
	height   int

	progress progress.Model
}

// New creates a dashboard Model over an already-seeded harness/scheduler
// pair (see cmd.buildScenario) and the simulation horizon it should stop at.
func New(h *harness.Harness, sched *core.Scheduler, horizon int64) Model {
	return Model{
		h:        h,
		sched:    sched,
		horizon:  horizon,
		speed:    1,
		width:    80,
		height:   24,
		progress: progress.New(progress.WithDefaultGradient()),
	}
}

func (m Model) Init() tea.Cmd {
	return tickCmd(200 * time.Millisecond)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, tea.ClearScreen

	case tickMsg:
		if !m.paused && !m.done {
			target := m.h.Clock() + stepPerTick*int64(m.speed)
			if target >= m.horizon {
				target = m.horizon
				m.h.RunUntil(target)
				m.h.Finish()
				m.done = true
			} else {
				m.h.RunUntil(target)
			}
		}
		return m, tickCmd(200 * time.Millisecond)
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Pause):
		m.paused = !m.paused
	case key.Matches(msg, keys.SpeedUp):
		if m.speed < 64 {
			m.speed *= 2
		}
	case key.Matches(msg, keys.SlowDown):
		if m.speed > 1 {
			m.speed /= 2
		}
	case key.Matches(msg, keys.Step):
		if !m.done {
			target := m.h.Clock() + stepPerTick
			if target >= m.horizon {
				target = m.horizon
				m.h.RunUntil(target)
				m.h.Finish()
				m.done = true
			} else {
				m.h.RunUntil(target)
			}
		}
	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
	case key.Matches(msg, keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, keys.Down):
		if m.selected < m.h.MachineGetTotal()-1 {
			m.selected++
		}
	}
	return m, nil
}

func (m Model) clusterTotals() components.ClusterTotals {
	total := m.h.MachineGetTotal()
	var used, capacity int64
	running := 0
	for i := 0; i < total; i++ {
		info := m.h.MachineGetInfo(core.MachineIDAt(i))
		used += info.MemoryUsed
		capacity += info.MemoryCapacity
		if info.SState == core.S0 {
			running++
		}
	}
	return components.ClusterTotals{
		MachineCount:  total,
		RunningCount:  running,
		UsedMemory:    used,
		TotalMemory:   capacity,
		SLAReport:     m.h.GetSLAReport(),
		ClusterEnergy: m.h.MachineGetClusterEnergy(),
	}
}

func (m Model) machineRows() []components.MachineRow {
	total := m.h.MachineGetTotal()
	rows := make([]components.MachineRow, 0, total)
	view := m.sched.View()
	for i := 0; i < total; i++ {
		id := core.MachineIDAt(i)
		rows = append(rows, components.MachineRow{
			Info:    m.h.MachineGetInfo(id),
			VMCount: len(view.VMsOnMachine(id)),
		})
	}
	return rows
}

func (m Model) View() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).
		Render(fmt.Sprintf("cloudsim-eec dashboard  —  t=%d / %d  speed=%dx%s",
			m.h.Clock(), m.horizon, m.speed, pausedSuffix(m.paused, m.done)))

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		components.RenderClusterSummary(m.clusterTotals()),
		"  ",
		components.RenderMachineSummary(m.h.MachineGetInfo(core.MachineIDAt(m.selected)), m.selectedVMCount()),
	)

	table := components.RenderMachineTable(m.machineRows(), m.selected)

	bar := m.progress.ViewAs(float64(m.h.Clock()) / float64(m.horizon))

	out := header + "\n\n" + bar + "\n\n" + body + "\n\n" + table

	if m.showHelp {
		out += "\n\n" + components.RenderHelp()
	}

	return out
}

func (m Model) selectedVMCount() int {
	return len(m.sched.View().VMsOnMachine(core.MachineIDAt(m.selected)))
}

func pausedSuffix(paused, done bool) string {
	switch {
	case done:
		return "  [DONE]"
	case paused:
		return "  [PAUSED]"
	default:
		return ""
	}
}
