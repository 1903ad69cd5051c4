// Package dag implements the Workflow DAG described in spec §4.3: nodes
// keyed by job name, edges expressing "depends on", cycle detection, and
// a topological ordering used to drive the scheduler's dependency-gated
// job launches.
package dag

import (
	"github.com/buildbeaver/playbook/internal/gerror"
	"github.com/buildbeaver/playbook/internal/ids"
)

// Graph is a directed graph over job names. It is built once from a
// workflow's job list and its `depends_on` declarations, then walked to
// produce a topological order before any job is started.
type Graph struct {
	nodes map[ids.JobName]struct{}
	// edges[a] contains b for every edge a -> b, meaning "a depends on b".
	edges map[ids.JobName][]ids.JobName
	// order preserves node insertion order so topological sort and error
	// messages are deterministic across runs.
	order []ids.JobName
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[ids.JobName]struct{}),
		edges: make(map[ids.JobName][]ids.JobName),
	}
}

// AddNode registers a job name as a node. Adding the same node twice is a
// DAGError.NodeExists error.
func (g *Graph) AddNode(name ids.JobName) error {
	if _, exists := g.nodes[name]; exists {
		return gerror.New(gerror.CodeDAGNodeExists, gerror.AudienceInternal, "node already exists").
			With("job", name.String())
	}
	g.nodes[name] = struct{}{}
	g.order = append(g.order, name)
	return nil
}

// AddEdge records that `from` depends on `to`. Both nodes must already
// exist, via DAGError.NodeMissing.
func (g *Graph) AddEdge(from, to ids.JobName) error {
	if _, exists := g.nodes[from]; !exists {
		return gerror.New(gerror.CodeDAGNodeMissing, gerror.AudienceInternal, "source node missing").
			With("job", from.String())
	}
	if _, exists := g.nodes[to]; !exists {
		return gerror.New(gerror.CodeDAGNodeMissing, gerror.AudienceInternal, "target node missing").
			With("job", to.String())
	}
	g.edges[from] = append(g.edges[from], to)
	return nil
}

// Dependencies returns the jobs that `name` directly depends on.
func (g *Graph) Dependencies(name ids.JobName) []ids.JobName {
	deps := g.edges[name]
	out := make([]ids.JobName, len(deps))
	copy(out, deps)
	return out
}

// Nodes returns every node in insertion order.
func (g *Graph) Nodes() []ids.JobName {
	out := make([]ids.JobName, len(g.order))
	copy(out, g.order)
	return out
}

type visitState int

const (
	unvisited visitState = iota
	visiting
	visited
)

// TopologicalOrder returns the graph's nodes ordered so that every node
// appears after all the nodes it depends on. It detects cycles via a
// depth-first post-order walk, mirroring WorkflowDAG's approach in the
// original executor: each node is pushed onto a stack once every one of
// its dependencies has been fully visited, and a node re-entered while
// still "visiting" indicates a cycle.
func (g *Graph) TopologicalOrder() ([]ids.JobName, error) {
	state := make(map[ids.JobName]visitState, len(g.nodes))
	result := make([]ids.JobName, 0, len(g.nodes))

	var visit func(name ids.JobName, path []ids.JobName) error
	visit = func(name ids.JobName, path []ids.JobName) error {
		switch state[name] {
		case visited:
			return nil
		case visiting:
			return gerror.New(gerror.CodeDAGCycle, gerror.AudienceExternal, "dependency cycle detected").
				With("cycle", cyclePath(append(path, name)))
		}
		state[name] = visiting
		for _, dep := range g.edges[name] {
			if err := visit(dep, append(path, name)); err != nil {
				return err
			}
		}
		state[name] = visited
		result = append(result, name)
		return nil
	}

	for _, name := range g.order {
		if err := visit(name, nil); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// cyclePath renders a slice of job names as a human-readable dependency
// chain for error details.
func cyclePath(path []ids.JobName) string {
	out := ""
	for i, name := range path {
		if i > 0 {
			out += " -> "
		}
		out += name.String()
	}
	return out
}
