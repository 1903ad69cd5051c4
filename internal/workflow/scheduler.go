package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/buildbeaver/playbook/internal/dag"
	"github.com/buildbeaver/playbook/internal/gerror"
	"github.com/buildbeaver/playbook/internal/ids"
	"github.com/buildbeaver/playbook/internal/job"
	"github.com/buildbeaver/playbook/internal/logger"
	"github.com/buildbeaver/playbook/internal/playbook"
)

// defaultDeadline is the fallback per-workflow execution budget, matching
// the teacher's own buildTimeout constant in runner/scheduler.go.
const defaultDeadline = 2 * time.Hour

// jobResult is one job goroutine's outcome, fed back to Execute over a
// buffered channel so a slow or stuck job never blocks its siblings from
// reporting.
type jobResult struct {
	name ids.JobName
	err  error
}

// Scheduler runs a workflow's jobs to completion, respecting the
// dependency graph and a configurable deadline. clock is overridable in
// tests for deterministic timeout behaviour.
type Scheduler struct {
	logFactory logger.LogFactory
	clock      clock.Clock
	deadline   time.Duration
	jobRunner  *job.Runner
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the scheduler's clock, used by tests to control
// deadline expiry deterministically.
func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithDeadline overrides the per-workflow execution deadline.
func WithDeadline(d time.Duration) Option {
	return func(s *Scheduler) { s.deadline = d }
}

// WithLogFactory overrides the scheduler's logger factory.
func WithLogFactory(f logger.LogFactory) Option {
	return func(s *Scheduler) { s.logFactory = f }
}

// NewScheduler builds a Scheduler with the given options, defaulting to
// a real clock, a 2-hour deadline, and a no-op logger.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		logFactory: logger.NoOpLogFactory,
		clock:      clock.New(),
		deadline:   defaultDeadline,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.jobRunner = job.NewRunner(s.logFactory)
	return s
}

// Execute runs every job in workflowConfig to completion, respecting
// `depends_on` edges, and returns the workflow's name on success. It
// mirrors WorkflowExecutor::execute/spawn_job: the dependency graph is
// built and topologically validated first (so a cycle is reported before
// any job starts), every job's completion channel is registered up
// front, then one goroutine per job waits on its dependencies' channels
// before running and, on success, closes its own.
//
// A job that fails never closes its completion channel, so its
// dependents block until the workflow's deadline fires rather than
// failing fast — the same behaviour as the original executor, whose
// spawn_job returns early via `?` without ever sending on the broadcast
// channel.
func (s *Scheduler) Execute(ctx context.Context, name ids.WorkflowName, workflowConfig playbook.WorkflowConfig, jobs map[ids.JobName]playbook.JobConfig, pctx *playbook.Context) (ids.WorkflowName, error) {
	runID := uuid.New().String()
	log := s.logFactory("workflow").WithField("workflow", name.String()).WithField("run_id", runID)
	log.Info("executing workflow")

	graph, jobConfigs, err := buildGraph(workflowConfig, jobs)
	if err != nil {
		return "", err
	}
	order, err := graph.TopologicalOrder()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	deadlineExceeded := make(chan struct{})
	timer := s.clock.Timer(s.deadline)
	defer timer.Stop()
	go func() {
		select {
		case <-timer.C:
			close(deadlineExceeded)
			cancel()
		case <-ctx.Done():
		}
	}()

	workflowCtx := NewContext()
	for _, jobName := range graph.Nodes() {
		if err := workflowCtx.AddPendingJob(jobName, make(chan struct{})); err != nil {
			return "", err
		}
	}

	results := make(chan jobResult, len(jobConfigs))
	var wg sync.WaitGroup
	for _, jobName := range order {
		wg.Add(1)
		go func(jobName ids.JobName) {
			defer wg.Done()
			err := s.runJob(ctx, jobName, jobConfigs[jobName], graph.Dependencies(jobName), workflowCtx, pctx)
			results <- jobResult{name: jobName, err: err}
		}(jobName)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var failures []string
	for result := range results {
		if result.err != nil {
			log.WithField("job", result.name.String()).WithField("error", result.err).Error("job failed")
			failures = append(failures, fmt.Sprintf("%s: %v", result.name, result.err))
		} else {
			log.WithField("job", result.name.String()).Info("job finished")
		}
	}

	select {
	case <-deadlineExceeded:
		return "", gerror.New(gerror.CodeTimedOut, gerror.AudienceExternal, "workflow exceeded its deadline").
			With("workflow", name.String()).With("deadline", s.deadline.String())
	default:
	}
	if len(failures) > 0 {
		return "", gerror.New(gerror.CodeStepError, gerror.AudienceInternal, "one or more jobs failed").
			With("workflow", name.String()).With("failures", failures)
	}

	log.Info("finished executing workflow")
	return name, nil
}

// runJob waits for every dependency's completion channel (or workflow
// cancellation/deadline) before running the job, then closes its own
// completion channel on success.
func (s *Scheduler) runJob(ctx context.Context, name ids.JobName, jobConfig playbook.JobConfig, deps []ids.JobName, workflowCtx *Context, pctx *playbook.Context) error {
	for _, dep := range deps {
		done, err := workflowCtx.WaitForJobToFinish(dep)
		if err != nil {
			return err
		}
		select {
		case <-done:
		case <-ctx.Done():
			return gerror.New(gerror.CodeCancelled, gerror.AudienceInternal, "cancelled while waiting for dependency").
				With("job", name.String()).With("dependency", dep.String()).Wrap(ctx.Err())
		}
	}

	jobCtx, err := s.jobRunner.Run(ctx, name, jobConfig, pctx)
	if err != nil {
		return err
	}

	if err := workflowCtx.AddJobContext(name, jobCtx); err != nil {
		return err
	}

	done, err := workflowCtx.WaitForJobToFinish(name)
	if err != nil {
		return err
	}
	close(done)
	return nil
}

// buildGraph constructs the dependency dag from a workflow's job list,
// returning the graph alongside a name-keyed map of full job configs
// resolved from the playbook's global jobs map. A job referenced by the
// workflow but absent from jobs is a ValidationError.JobNotDefined error
// (invariant L1), caught here rather than left for a nil-map panic at
// execution time.
func buildGraph(workflowConfig playbook.WorkflowConfig, jobs map[ids.JobName]playbook.JobConfig) (*dag.Graph, map[ids.JobName]playbook.JobConfig, error) {
	graph := dag.New()
	jobConfigs := make(map[ids.JobName]playbook.JobConfig, len(workflowConfig.Jobs))

	for _, ref := range workflowConfig.Jobs {
		jobConfig, ok := jobs[ref.Job]
		if !ok {
			return nil, nil, gerror.New(gerror.CodeValidationJobNotDefined, gerror.AudienceExternal, "workflow references an undefined job").
				With("job", ref.Job.String())
		}
		jobConfigs[ref.Job] = jobConfig
		if err := graph.AddNode(ref.Job); err != nil {
			return nil, nil, err
		}
	}
	for _, ref := range workflowConfig.Jobs {
		for _, dep := range ref.DependsOn {
			if err := graph.AddEdge(ref.Job, dep); err != nil {
				return nil, nil, err
			}
		}
	}
	return graph, jobConfigs, nil
}
