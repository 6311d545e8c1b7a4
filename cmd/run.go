package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runFlags scenarioFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a batch simulation to its horizon and report the final SLA/energy summary",
	Run: func(cmd *cobra.Command, args []string) {
		h, _ := buildScenario(&runFlags)
		logrus.WithFields(logrus.Fields{
			"machines": runFlags.machines,
			"horizon":  runFlags.horizon,
			"rate":     runFlags.rate,
		}).Info("starting simulation")
		h.Run(runFlags.horizon)
		logrus.Info("simulation complete")
	},
}

func init() {
	registerScenarioFlags(runCmd.Flags(), &runFlags)
}
