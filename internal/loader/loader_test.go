package loader_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildbeaver/playbook/internal/gerror"
	"github.com/buildbeaver/playbook/internal/ids"
	"github.com/buildbeaver/playbook/internal/loader"
)

func TestLoad_LinearChain(t *testing.T) {
	doc := `
version: "1"
jobs:
  a:
    steps:
      - type: BlankStep
  b:
    steps:
      - type: BlankStep
  c:
    steps:
      - type: BlankStep
workflows:
  wf:
    jobs:
      - a
      - name: b
        depends_on: [a]
      - name: c
        depends_on: [b]
`
	pb, err := loader.Load([]byte(doc))
	require.NoError(t, err)
	assert.Len(t, pb.Jobs, 3)
	wf := pb.Workflows[ids.WorkflowName("wf")]
	require.Len(t, wf.Jobs, 3)
	assert.Equal(t, ids.JobName("c"), wf.Jobs[2].Job)
	assert.Equal(t, []ids.JobName{ids.JobName("b")}, wf.Jobs[2].DependsOn)
}

func TestLoad_Diamond(t *testing.T) {
	doc := `
version: "1"
jobs:
  a: {steps: [{type: BlankStep}]}
  b: {steps: [{type: BlankStep}]}
  c: {steps: [{type: BlankStep}]}
  d: {steps: [{type: BlankStep}]}
workflows:
  wf:
    jobs:
      - a
      - name: b
        depends_on: [a]
      - name: c
        depends_on: [a]
      - name: d
        depends_on: [b, c]
`
	pb, err := loader.Load([]byte(doc))
	require.NoError(t, err)
	assert.Len(t, pb.Jobs, 4)
	assert.Len(t, pb.Workflows[ids.WorkflowName("wf")].Jobs, 4)
}

func TestLoad_UndefinedJobReference(t *testing.T) {
	doc := `
version: "1"
jobs:
  a: {steps: [{type: BlankStep}]}
workflows:
  wf:
    jobs:
      - a
      - x
`
	_, err := loader.Load([]byte(doc))
	require.Error(t, err)
	assert.True(t, gerror.Is(err, gerror.CodeValidationJobNotDefined))
}

func TestLoad_VariableTemplating(t *testing.T) {
	doc := `
version: "1"
setup:
  variables:
    ETH_RPC_URL: "https://example"
jobs:
  fetch:
    steps:
      - type: CallContract
        name: call-it
        arguments:
          chain_rpc_url: "{{ETH_RPC_URL}}"
          contract_address: "0x0000000000000000000000000000000000000001"
          function_signature: "foo()"
          function_arguments: []
        output:
          save_as: RESULT
workflows:
  wf:
    jobs:
      - fetch
`
	pb, err := loader.Load([]byte(doc))
	require.NoError(t, err)
	job := pb.Jobs[ids.JobName("fetch")]
	require.Len(t, job.Steps, 1)
	assert.Equal(t, "https://example", job.Steps[0].Arguments["chain_rpc_url"])
}

func TestLoad_VariableTemplating_UndefinedFailsStrict(t *testing.T) {
	doc := `
version: "1"
jobs:
  fetch:
    steps:
      - type: CallContract
        name: call-it
        arguments:
          chain_rpc_url: "{{MISSING}}"
          contract_address: "0x0000000000000000000000000000000000000001"
          function_signature: "foo()"
          function_arguments: []
        output:
          save_as: RESULT
workflows:
  wf:
    jobs:
      - fetch
`
	_, err := loader.Load([]byte(doc))
	require.Error(t, err)
	assert.True(t, gerror.Is(err, gerror.CodeLoadTemplateRender))
}

func TestLoad_EnvironmentInterpolation(t *testing.T) {
	require.NoError(t, os.Setenv("PLAYBOOK_TEST_TOKEN", "abc"))
	defer os.Unsetenv("PLAYBOOK_TEST_TOKEN")

	doc := `
version: "1"
setup:
  variables:
    SECRET: "${PLAYBOOK_TEST_TOKEN}"
    ESCAPED: '\$\{X\}'
jobs:
  a: {steps: [{type: BlankStep}]}
workflows:
  wf:
    jobs: [a]
`
	pb, err := loader.Load([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "abc", pb.Setup.Variables[ids.VariableName("SECRET")])
	assert.Equal(t, "${X}", pb.Setup.Variables[ids.VariableName("ESCAPED")])
}

func TestLoad_EnvironmentInterpolation_UndefinedFails(t *testing.T) {
	doc := `
version: "1"
setup:
  variables:
    SECRET: "${PLAYBOOK_TEST_DEFINITELY_UNSET}"
jobs:
  a: {steps: [{type: BlankStep}]}
workflows:
  wf:
    jobs: [a]
`
	_, err := loader.Load([]byte(doc))
	require.Error(t, err)
	assert.True(t, gerror.Is(err, gerror.CodeLoadUndefinedVariable))
}

func TestLoad_InvalidIdentifierRejected(t *testing.T) {
	doc := `
version: "1"
jobs:
  "bad name!": {steps: [{type: BlankStep}]}
workflows:
  wf:
    jobs: ["bad name!"]
`
	_, err := loader.Load([]byte(doc))
	require.Error(t, err)
	assert.True(t, gerror.Is(err, gerror.CodeValidationInvalidIdentifier))
}

func TestLoad_MissingRequiredStepField(t *testing.T) {
	doc := `
version: "1"
jobs:
  fetch:
    steps:
      - type: CallContract
        arguments:
          contract_address: "0x0000000000000000000000000000000000000001"
          function_signature: "foo()"
        output:
          save_as: RESULT
workflows:
  wf:
    jobs: [fetch]
`
	_, err := loader.Load([]byte(doc))
	require.Error(t, err)
	assert.True(t, gerror.Is(err, gerror.CodeValidationMissingField))
}

func TestLoad_MissingSaveAsForOutputProducingKind(t *testing.T) {
	doc := `
version: "1"
jobs:
  fetch:
    steps:
      - type: CallContract
        arguments:
          chain_rpc_url: "https://example"
          contract_address: "0x0000000000000000000000000000000000000001"
          function_signature: "foo()"
          function_arguments: []
workflows:
  wf:
    jobs: [fetch]
`
	_, err := loader.Load([]byte(doc))
	require.Error(t, err)
	assert.True(t, gerror.Is(err, gerror.CodeValidationMissingField))
}

func TestLoad_UnsupportedVersion(t *testing.T) {
	doc := `
version: "99"
jobs:
  a: {steps: [{type: BlankStep}]}
workflows:
  wf:
    jobs: [a]
`
	_, err := loader.Load([]byte(doc))
	require.Error(t, err)
	assert.True(t, gerror.Is(err, gerror.CodeLoadParse))
}
