package commands

import (
	"github.com/spf13/cobra"
)

// exitError carries the process exit code a failed command should use,
// following spec's 0/1/2 convention (load failure vs execution failure)
// rather than cobra's blanket "any error means exit 1".
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func failWith(code int, err error) error {
	return &exitError{code: code, err: err}
}

var rootCmd = &cobra.Command{
	Use:           "playbookctl",
	Short:         "Runs blockchain workflow playbooks",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(playbookCmd)
}

// Execute runs the CLI with the given arguments (excluding argv[0]) and
// returns the process exit code: 0 on success, 1 on a load/config
// failure, 2 on a workflow execution failure, matching the teacher's
// cli.Exit pattern but with the two distinct failure codes this spec's
// external interface requires.
func Execute(args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	if ee, ok := err.(*exitError); ok {
		rootCmd.PrintErrln(ee.err)
		return ee.code
	}
	rootCmd.PrintErrln(err)
	return 1
}
