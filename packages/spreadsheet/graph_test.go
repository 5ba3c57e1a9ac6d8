package spreadsheet

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAddr(t *testing.T, label string) CellAddress {
	t.Helper()
	addr, err := ParseCellAddress(label)
	require.NoError(t, err)
	return addr
}

func labels(addrs []CellAddress) []string {
	out := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		out = append(out, addr.String())
	}
	return out
}

func buildGraph(t *testing.T, data [][]Primitive) (*DependencyGraph, *FormulaTable) {
	t.Helper()
	grid, err := NewGridFromData(data)
	require.NoError(t, err)
	dg := NewDependencyGraph()
	ft := NewFormulaTable()
	dg.Rebuild(grid, ft)
	return dg, ft
}

func TestDependencyGraphRebuild(t *testing.T) {
	dg, ft := buildGraph(t, [][]Primitive{
		{1.0, "=A1+A1", "=A1*B1"},
		{"=Z99", "=bad", "=SUM(A1:B1)"},
	})

	// every grid cell has a node, even without edges
	assert.Equal(t, 6, dg.NodeCount())
	assert.Equal(t, 5, dg.EdgeCount())

	assert.Equal(t, []string{"A1"}, labels(dg.GetDirectPrecedents(mustAddr(t, "B1"))))
	assert.Equal(t, []string{"A1", "B1"}, labels(dg.GetDirectPrecedents(mustAddr(t, "C1"))))
	assert.Empty(t, dg.GetDirectPrecedents(mustAddr(t, "A2")), "out-of-grid reference")
	assert.Empty(t, dg.GetDirectPrecedents(mustAddr(t, "B2")), "malformed formula")
	assert.Equal(t, []string{"A1", "B1"}, labels(dg.GetDirectPrecedents(mustAddr(t, "C2"))))
	assert.Equal(t, []string{"B1", "C1", "C2"}, labels(dg.GetDirectDependents(mustAddr(t, "A1"))))

	assert.Equal(t, 5, ft.Count())
}

func TestDependencyGraphRebuildDropsStaleEdges(t *testing.T) {
	grid, err := NewGridFromData([][]Primitive{{1.0, "=A1"}})
	require.NoError(t, err)
	dg := NewDependencyGraph()
	ft := NewFormulaTable()

	dg.Rebuild(grid, ft)
	assert.Equal(t, 1, dg.EdgeCount())

	grid.SetRaw(mustAddr(t, "B1"), 2.0)
	dg.Rebuild(grid, ft)
	assert.Equal(t, 0, dg.EdgeCount())
	assert.Empty(t, dg.GetDirectDependents(mustAddr(t, "A1")))
	assert.Equal(t, 0, ft.Count())
}

func TestGetAllDependentsBreadthFirst(t *testing.T) {
	dg, _ := buildGraph(t, [][]Primitive{
		{1.0, "=A1", "=B1", "=C1"},
		{"=A1", "=A2", nil, nil},
	})

	got := labels(dg.GetAllDependents(mustAddr(t, "A1")))
	want := []string{"B1", "A2", "C1", "B2", "D1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dependents mismatch (-want +got):\n%s", diff)
	}
}

func TestHasCycleFrom(t *testing.T) {
	dg, _ := buildGraph(t, [][]Primitive{
		{"=B1", "=A1", "=A1", "=D1"},
		{1.0, "=A2+A2", "=B2", "=SUM(A2:D2)"},
	})

	tests := []struct {
		label string
		want  bool
	}{
		{"A1", true},  // A1 -> B1 -> A1
		{"B1", true},
		{"C1", true},  // reaches the A1/B1 cycle
		{"D1", true},  // self reference
		{"A2", false}, // literal
		{"B2", false}, // repeated reference is not a cycle
		{"C2", false},
		{"D2", true}, // range covers itself
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, dg.HasCycleFrom(mustAddr(t, tt.label)))
			// second query is answered from the cache
			assert.Equal(t, tt.want, dg.HasCycleFrom(mustAddr(t, tt.label)))
		})
	}
}

func TestHasCycleFromLongChain(t *testing.T) {
	const n = 50000
	data := make([][]Primitive, n)
	data[0] = []Primitive{1.0}
	for i := 1; i < n; i++ {
		data[i] = []Primitive{fmt.Sprintf("=A%d", i)}
	}
	dg, _ := buildGraph(t, data)

	last := CellAddress{Row: n - 1}
	assert.False(t, dg.HasCycleFrom(last))
}

func TestHasCycleFromLongChainIntoCycle(t *testing.T) {
	// A1 reads A2 ... reads An, and An reads itself
	const n = 50000
	data := make([][]Primitive, n)
	for i := range n - 1 {
		data[i] = []Primitive{fmt.Sprintf("=A%d+1", i+2)}
	}
	data[n-1] = []Primitive{fmt.Sprintf("=A%d", n)}
	dg, _ := buildGraph(t, data)

	// walking from the cycle outwards hits the cache one step at a time
	for row := n - 1; row >= 0; row-- {
		if !dg.HasCycleFrom(CellAddress{Row: uint32(row)}) {
			t.Fatalf("A%d should reach the cycle", row+1)
		}
	}
	assert.Len(t, dg.cyclic, n)

	// a new edge invalidates what was learned
	dg.AddCellDependency(CellAddress{Row: 0}, CellAddress{Row: 2})
	assert.Empty(t, dg.cyclic)
	assert.True(t, dg.HasCycleFrom(CellAddress{Row: 0}))
}

func TestGetCalculationOrder(t *testing.T) {
	// diamond: A1 -> B1, C1 -> D1
	dg, _ := buildGraph(t, [][]Primitive{
		{1.0, "=A1", "=A1+B1", "=C1+B1"},
	})

	dependents := dg.GetAllDependents(mustAddr(t, "A1"))
	order := labels(dg.GetCalculationOrder(dependents))
	assert.Equal(t, []string{"B1", "C1", "D1"}, order)

	// reversed input still yields a dependency-respecting order
	reversed := []CellAddress{mustAddr(t, "D1"), mustAddr(t, "C1"), mustAddr(t, "B1")}
	assert.Equal(t, []string{"B1", "C1", "D1"}, labels(dg.GetCalculationOrder(reversed)))
}

func TestGetCalculationOrderWithCycle(t *testing.T) {
	dg, _ := buildGraph(t, [][]Primitive{
		{1.0, "=A1+C1", "=B1", "=A1"},
	})

	order := labels(dg.GetCalculationOrder(dg.GetAllDependents(mustAddr(t, "A1"))))
	assert.ElementsMatch(t, []string{"B1", "C1", "D1"}, order)
	assert.Equal(t, "D1", order[0])
}
