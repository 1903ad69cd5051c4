package dag_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildbeaver/playbook/internal/dag"
	"github.com/buildbeaver/playbook/internal/gerror"
	"github.com/buildbeaver/playbook/internal/ids"
)

func buildGraph(t *testing.T, nodes []string, edges [][2]string) *dag.Graph {
	t.Helper()
	g := dag.New()
	for _, n := range nodes {
		require.NoError(t, g.AddNode(ids.JobName(n)))
	}
	for _, e := range edges {
		require.NoError(t, g.AddEdge(ids.JobName(e[0]), ids.JobName(e[1])))
	}
	return g
}

func indexOf(order []ids.JobName, name string) int {
	for i, n := range order {
		if n.String() == name {
			return i
		}
	}
	return -1
}

func TestTopologicalOrder_LinearChain(t *testing.T) {
	// a depends on b, b depends on c: c must run before b before a.
	g := buildGraph(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})

	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	require.Len(t, order, 3)

	assert.Less(t, indexOf(order, "c"), indexOf(order, "b"))
	assert.Less(t, indexOf(order, "b"), indexOf(order, "a"))
}

func TestTopologicalOrder_Diamond(t *testing.T) {
	// b and c depend on a; d depends on both b and c.
	g := buildGraph(t, []string{"a", "b", "c", "d"}, [][2]string{
		{"b", "a"}, {"c", "a"}, {"d", "b"}, {"d", "c"},
	})

	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	require.Len(t, order, 4)

	assert.Less(t, indexOf(order, "a"), indexOf(order, "b"))
	assert.Less(t, indexOf(order, "a"), indexOf(order, "c"))
	assert.Less(t, indexOf(order, "b"), indexOf(order, "d"))
	assert.Less(t, indexOf(order, "c"), indexOf(order, "d"))
}

func TestTopologicalOrder_Cycle(t *testing.T) {
	g := buildGraph(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}})

	_, err := g.TopologicalOrder()
	require.Error(t, err)
	assert.True(t, gerror.Is(err, gerror.CodeDAGCycle))
}

func TestTopologicalOrder_SelfCycle(t *testing.T) {
	g := buildGraph(t, []string{"a"}, [][2]string{{"a", "a"}})

	_, err := g.TopologicalOrder()
	require.Error(t, err)
	assert.True(t, gerror.Is(err, gerror.CodeDAGCycle))
}

func TestAddEdge_MissingNode(t *testing.T) {
	g := dag.New()
	require.NoError(t, g.AddNode(ids.JobName("a")))

	err := g.AddEdge(ids.JobName("a"), ids.JobName("ghost"))
	require.Error(t, err)
	assert.True(t, gerror.Is(err, gerror.CodeDAGNodeMissing))
}

func TestAddNode_Duplicate(t *testing.T) {
	g := dag.New()
	require.NoError(t, g.AddNode(ids.JobName("a")))

	err := g.AddNode(ids.JobName("a"))
	require.Error(t, err)
	assert.True(t, gerror.Is(err, gerror.CodeDAGNodeExists))
}

func TestDependencies(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"a", "c"}})

	deps := g.Dependencies(ids.JobName("a"))
	require.Len(t, deps, 2)
}
