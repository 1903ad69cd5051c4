package job

import (
	"context"
	"fmt"

	"github.com/buildbeaver/playbook/internal/gerror"
	"github.com/buildbeaver/playbook/internal/ids"
	"github.com/buildbeaver/playbook/internal/logger"
	"github.com/buildbeaver/playbook/internal/playbook"
	"github.com/buildbeaver/playbook/internal/step"
)

// Runner executes a single job's steps in order, stopping at the first
// step that returns an error. It mirrors JobExecutor::execute, adapted
// to Go's context.Context for cancellation instead of relying solely on
// an async runtime to tear down the call stack.
type Runner struct {
	logFactory logger.LogFactory
}

// NewRunner builds a job Runner. A nil logFactory falls back to a no-op
// logger so callers that don't care about job-level logging don't need
// to wire one up.
func NewRunner(logFactory logger.LogFactory) *Runner {
	if logFactory == nil {
		logFactory = logger.NoOpLogFactory
	}
	return &Runner{logFactory: logFactory}
}

// Run executes every step of jobConfig in declaration order against the
// shared playbook context, returning the accumulated JobContext or the
// gerror.Error of the first step that failed.
func (r *Runner) Run(ctx context.Context, name ids.JobName, jobConfig playbook.JobConfig, pctx *playbook.Context) (*Context, error) {
	log := r.logFactory("job").WithField("job", name.String())
	log.Info("executing job")

	total := len(jobConfig.Steps)
	jobCtx := NewContext(total)

	for i, stepConfig := range jobConfig.Steps {
		position := fmt.Sprintf("step %d of %d", i+1, total)

		if err := ctx.Err(); err != nil {
			return jobCtx, gerror.New(gerror.CodeCancelled, gerror.AudienceInternal, "job cancelled").
				With("job", name.String()).With("step", stepConfig.Name.String()).With("position", position).Wrap(err)
		}

		stepLog := log.WithField("step", stepConfig.Name.String()).WithField("kind", stepConfig.Kind)
		stepLog.Debug("executing step")

		s, err := step.Build(stepConfig)
		if err != nil {
			return jobCtx, gerror.New(gerror.CodeStepError, gerror.AudienceInternal, position+" failed to build").
				With("job", name.String()).With("step", stepConfig.Name.String()).With("position", position).Wrap(err)
		}

		output, err := s.Execute(ctx, pctx)
		if err != nil {
			stepLog.WithField("error", err).Error("step failed")
			return jobCtx, gerror.New(gerror.CodeStepError, gerror.AudienceInternal, position+" failed").
				With("job", name.String()).With("step", stepConfig.Name.String()).With("position", position).Wrap(err)
		}

		if err := jobCtx.AddStepOutput(stepConfig.Name, output); err != nil {
			return jobCtx, err
		}
	}

	log.Info("finished executing job")
	return jobCtx, nil
}
