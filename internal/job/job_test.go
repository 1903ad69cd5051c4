package job_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildbeaver/playbook/internal/gerror"
	"github.com/buildbeaver/playbook/internal/ids"
	"github.com/buildbeaver/playbook/internal/job"
	"github.com/buildbeaver/playbook/internal/playbook"
	"github.com/buildbeaver/playbook/internal/step"
)

func TestContext_AddStepOutput_Duplicate(t *testing.T) {
	ctx := job.NewContext()
	require.NoError(t, ctx.AddStepOutput(ids.StepName("s1"), stepOutput()))

	err := ctx.AddStepOutput(ids.StepName("s1"), stepOutput())
	require.Error(t, err)
	assert.True(t, gerror.Is(err, gerror.CodeContextStepNameExisted))
}

func TestContext_StepOutput_Lookup(t *testing.T) {
	ctx := job.NewContext()
	out := stepOutput()
	require.NoError(t, ctx.AddStepOutput(ids.StepName("s1"), out))

	got, ok := ctx.StepOutput(ids.StepName("s1"))
	assert.True(t, ok)
	assert.Equal(t, out, got)

	_, ok = ctx.StepOutput(ids.StepName("missing"))
	assert.False(t, ok)
}

func TestRunner_Run_BlankSteps(t *testing.T) {
	runner := job.NewRunner(nil)
	jobConfig := playbook.JobConfig{
		Name: ids.JobName("j1"),
		Steps: []playbook.StepConfig{
			{Name: ids.StepName("first"), Kind: "BlankStep"},
			{Name: ids.StepName("second"), Kind: "BlankStep"},
		},
	}
	pctx := playbook.NewContext(&playbook.Setup{})

	result, err := runner.Run(context.Background(), ids.JobName("j1"), jobConfig, pctx)
	require.NoError(t, err)

	_, ok := result.StepOutput(ids.StepName("first"))
	assert.True(t, ok)
	_, ok = result.StepOutput(ids.StepName("second"))
	assert.True(t, ok)
}

func TestContext_Progress(t *testing.T) {
	ctx := job.NewContext(3)
	completed, total := ctx.Progress()
	assert.Equal(t, 0, completed)
	assert.Equal(t, 3, total)

	require.NoError(t, ctx.AddStepOutput(ids.StepName("s1"), stepOutput()))
	completed, total = ctx.Progress()
	assert.Equal(t, 1, completed)
	assert.Equal(t, 3, total)
}

func TestRunner_Run_TracksProgressOnFailure(t *testing.T) {
	runner := job.NewRunner(nil)
	jobConfig := playbook.JobConfig{
		Name: ids.JobName("j1"),
		Steps: []playbook.StepConfig{
			{Name: ids.StepName("first"), Kind: "BlankStep"},
			{Name: ids.StepName("bad"), Kind: "NoSuchKind"},
		},
	}
	pctx := playbook.NewContext(&playbook.Setup{})

	result, err := runner.Run(context.Background(), ids.JobName("j1"), jobConfig, pctx)
	require.Error(t, err)

	completed, total := result.Progress()
	assert.Equal(t, 1, completed)
	assert.Equal(t, 2, total)
}

func TestRunner_Run_HaltsOnFirstError(t *testing.T) {
	runner := job.NewRunner(nil)
	jobConfig := playbook.JobConfig{
		Name: ids.JobName("j1"),
		Steps: []playbook.StepConfig{
			{Name: ids.StepName("first"), Kind: "BlankStep"},
			{Name: ids.StepName("bad"), Kind: "NoSuchKind"},
			{Name: ids.StepName("third"), Kind: "BlankStep"},
		},
	}
	pctx := playbook.NewContext(&playbook.Setup{})

	result, err := runner.Run(context.Background(), ids.JobName("j1"), jobConfig, pctx)
	require.Error(t, err)
	assert.True(t, gerror.Is(err, gerror.CodeStepError))

	_, ok := result.StepOutput(ids.StepName("third"))
	assert.False(t, ok)
}

func TestRunner_Run_RespectsCancellation(t *testing.T) {
	runner := job.NewRunner(nil)
	jobConfig := playbook.JobConfig{
		Name: ids.JobName("j1"),
		Steps: []playbook.StepConfig{
			{Name: ids.StepName("first"), Kind: "BlankStep"},
		},
	}
	pctx := playbook.NewContext(&playbook.Setup{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Run(ctx, ids.JobName("j1"), jobConfig, pctx)
	require.Error(t, err)
	assert.True(t, gerror.Is(err, gerror.CodeCancelled))
}

func stepOutput() step.Output {
	return step.Output{Bytes: []byte{1, 2, 3}}
}
