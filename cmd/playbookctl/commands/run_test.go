package commands

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildbeaver/playbook/internal/gerror"
	"github.com/buildbeaver/playbook/internal/ids"
	"github.com/buildbeaver/playbook/internal/playbook"
)

func examplePlaybook() *playbook.Playbook {
	return &playbook.Playbook{
		Workflows: map[ids.WorkflowName]playbook.WorkflowConfig{
			ids.WorkflowName("deploy"): {Name: ids.WorkflowName("deploy")},
			ids.WorkflowName("audit"):  {Name: ids.WorkflowName("audit")},
		},
	}
}

func TestSelectWorkflows_AllWhenFlagEmpty(t *testing.T) {
	targets, err := selectWorkflows(examplePlaybook(), "")
	require.NoError(t, err)
	assert.Len(t, targets, 2)
}

func TestSelectWorkflows_SingleNamed(t *testing.T) {
	targets, err := selectWorkflows(examplePlaybook(), "deploy")
	require.NoError(t, err)
	assert.Len(t, targets, 1)
	_, ok := targets[ids.WorkflowName("deploy")]
	assert.True(t, ok)
}

func TestSelectWorkflows_UnknownNameFails(t *testing.T) {
	_, err := selectWorkflows(examplePlaybook(), "ghost")
	require.Error(t, err)
	assert.True(t, gerror.Is(err, gerror.CodeValidationJobNotDefined))
}

func TestPrintSummaryTable_WritesHeaderAndRows(t *testing.T) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	printSummaryTable(cmd, []workflowOutcome{
		{Workflow: "deploy", Status: "succeeded", Duration: "12ms"},
		{Workflow: "audit", Status: "failed", Duration: "5ms", Error: "boom"},
	})

	out := buf.String()
	assert.Contains(t, out, "WORKFLOW")
	assert.Contains(t, out, "deploy")
	assert.Contains(t, out, "audit")
	assert.Contains(t, out, "boom")
}

func TestExecute_ExitsOneOnUnknownCommand(t *testing.T) {
	code := Execute([]string{"nonexistent-subcommand"})
	assert.Equal(t, 1, code)
}

func TestExecute_ExitsOneOnMissingFileArg(t *testing.T) {
	code := Execute([]string{"playbook", "run", "/no/such/file.yaml"})
	assert.Equal(t, 1, code)
}
