package commands

import "github.com/spf13/cobra"

var playbookCmd = &cobra.Command{
	Use:   "playbook",
	Short: "Work with playbook documents",
}

func init() {
	playbookCmd.AddCommand(runCmd)
}
