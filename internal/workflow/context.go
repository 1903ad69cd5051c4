// Package workflow implements the Workflow Scheduler from spec §4.4: a
// goroutine per job, dependency-gated by completion signals published
// through a mutex-guarded WorkflowContext, with a configurable
// per-workflow deadline.
package workflow

import (
	"sync"

	"github.com/buildbeaver/playbook/internal/gerror"
	"github.com/buildbeaver/playbook/internal/ids"
	"github.com/buildbeaver/playbook/internal/job"
)

// Context accumulates completed job contexts and the completion signals
// dependents wait on. It is shared by pointer across every job goroutine
// spawned for one workflow run and guarded by a single mutex, mirroring
// WorkflowContext's `futures::lock::Mutex`-guarded map pair: map
// insertion is the only critical section, never the job execution
// itself.
type Context struct {
	mu           sync.Mutex
	jobContexts  map[ids.JobName]*job.Context
	pendingJobs  map[ids.JobName]chan struct{}
}

// NewContext returns an empty workflow context.
func NewContext() *Context {
	return &Context{
		jobContexts: make(map[ids.JobName]*job.Context),
		pendingJobs: make(map[ids.JobName]chan struct{}),
	}
}

// AddPendingJob registers the one-shot completion channel a job's
// dependents will wait on. Every job in a workflow must be registered
// this way before any goroutine starts waiting on a dependency, so that
// a dependent can never observe "no pending job" for a job that simply
// hasn't reached this call yet.
func (c *Context) AddPendingJob(name ids.JobName, done chan struct{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.pendingJobs[name]; exists {
		return gerror.New(gerror.CodeContextJobExists, gerror.AudienceInternal, "job already pending").
			With("job", name.String())
	}
	c.pendingJobs[name] = done
	return nil
}

// WaitForJobToFinish returns the completion channel for name, closed
// once that job finishes successfully. Callers select on it alongside
// ctx.Done() so a workflow-wide cancellation or deadline still unblocks
// them.
func (c *Context) WaitForJobToFinish(name ids.JobName) (<-chan struct{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	done, ok := c.pendingJobs[name]
	if !ok {
		return nil, gerror.New(gerror.CodeContextNoPendingJob, gerror.AudienceInternal, "no pending job registered").
			With("job", name.String())
	}
	return done, nil
}

// AddJobContext records a finished job's JobContext. Adding the same job
// name twice is a ContextError.JobExists error.
func (c *Context) AddJobContext(name ids.JobName, jobCtx *job.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.jobContexts[name]; exists {
		return gerror.New(gerror.CodeContextJobExists, gerror.AudienceInternal, "job context already recorded").
			With("job", name.String())
	}
	c.jobContexts[name] = jobCtx
	return nil
}

// JobContext looks up a finished job's JobContext.
func (c *Context) JobContext(name ids.JobName) (*job.Context, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	jobCtx, ok := c.jobContexts[name]
	return jobCtx, ok
}
