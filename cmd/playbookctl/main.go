// Command playbookctl is the CLI front-end for the playbook engine: a
// thin cobra shell over internal/loader, internal/playbook and
// internal/workflow, following the layout of the teacher's own bb
// command (a root command and a leaf subcommand that loads the config
// and does the real work).
package main

import (
	"os"

	"github.com/buildbeaver/playbook/cmd/playbookctl/commands"
)

func main() {
	os.Exit(commands.Execute(os.Args[1:]))
}
