// Package job implements the Job Runner from spec §4.4: a sequential,
// halt-on-first-error walk over a job's steps, accumulating each step's
// output into a JobContext keyed by step name.
package job

import (
	"github.com/buildbeaver/playbook/internal/gerror"
	"github.com/buildbeaver/playbook/internal/ids"
	"github.com/buildbeaver/playbook/internal/step"
)

// Context accumulates the outputs of a single job's steps as they run.
// It is scoped to one job; jobs in the same workflow never see one
// another's step outputs directly, only through WorkflowContext. It
// also tracks how many of the job's steps have completed against the
// declared total, the same pipeline bookkeeping step_pipeline.rs keeps,
// so a failing Runner can report "step 2 of 4 failed" instead of just
// naming the step.
type Context struct {
	stepOutputs map[ids.StepName]step.Output
	totalSteps  int
	completed   int
}

// NewContext returns an empty job context for a job with totalSteps
// steps declared.
func NewContext(totalSteps ...int) *Context {
	total := 0
	if len(totalSteps) > 0 {
		total = totalSteps[0]
	}
	return &Context{stepOutputs: make(map[ids.StepName]step.Output), totalSteps: total}
}

// AddStepOutput records a step's output under its name and advances the
// completed-step count. Adding the same step name twice is a
// ContextError.StepNameExisted error, mirroring the original job
// context's duplicate-key rejection.
func (c *Context) AddStepOutput(name ids.StepName, output step.Output) error {
	if _, exists := c.stepOutputs[name]; exists {
		return gerror.New(gerror.CodeContextStepNameExisted, gerror.AudienceInternal, "step output already recorded").
			With("step", name.String())
	}
	c.stepOutputs[name] = output
	c.completed++
	return nil
}

// StepOutput looks up a previously recorded step's output.
func (c *Context) StepOutput(name ids.StepName) (step.Output, bool) {
	out, ok := c.stepOutputs[name]
	return out, ok
}

// Progress returns how many of the job's steps have completed and how
// many were declared in total.
func (c *Context) Progress() (completed, total int) {
	return c.completed, c.totalSteps
}
