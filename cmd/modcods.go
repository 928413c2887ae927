package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var targetBLER float64 // Target BLER for the modcods listing

// modcodsCmd lists the built-in mode table
var modcodsCmd = &cobra.Command{
	Use:   "modcods",
	Short: "List the built-in DVB-S2 ModCods and their switching thresholds",
	Run: func(cmd *cobra.Command, args []string) {
		if !(targetBLER > 0 && targetBLER < 1) {
			logrus.Fatalf("--target-bler must be within (0, 1), got %g", targetBLER)
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderModCods(targetBLER))
	},
}
