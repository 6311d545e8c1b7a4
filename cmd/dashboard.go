package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/CinnamonNinian/cloudsim-eec/dashboard"
)

var dashboardFlags scenarioFlags

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Run the simulation live in an interactive terminal dashboard",
	Run: func(cmd *cobra.Command, args []string) {
		h, sched := buildScenario(&dashboardFlags)
		m := dashboard.New(h, sched, dashboardFlags.horizon)
		if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
			logrus.Fatalf("dashboard exited with error: %v", err)
		}
	},
}

func init() {
	registerScenarioFlags(dashboardCmd.Flags(), &dashboardFlags)
}
