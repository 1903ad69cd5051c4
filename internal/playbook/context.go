package playbook

import "github.com/buildbeaver/playbook/internal/ids"

// Context is the read-only execution-time view of a Playbook's Setup
// block, shared by pointer across every job and step goroutine spawned
// while a workflow runs. Because it is never mutated after construction,
// sharing it needs no locking of its own — unlike WorkflowContext, which
// accumulates state as jobs complete and does need one.
type Context struct {
	setup *Setup
}

// NewContext wraps setup for sharing across a workflow run.
func NewContext(setup *Setup) *Context {
	return &Context{setup: setup}
}

// Setup returns the shared, read-only setup block.
func (c *Context) Setup() *Setup {
	return c.setup
}

// Variable looks up a setup variable by name.
func (c *Context) Variable(name string) (string, bool) {
	v, ok := c.setup.Variables[ids.VariableName(name)]
	return v, ok
}

// RpcProvider looks up a named RPC provider declaration.
func (c *Context) RpcProvider(name string) (RpcProviderConfig, bool) {
	p, ok := c.setup.RpcProviders[name]
	return p, ok
}
