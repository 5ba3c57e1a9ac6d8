package spreadsheet

import (
	"slices"
)

// DependencyGraph manages cell dependencies and calculation order
type DependencyGraph struct {
	precedents map[CellAddress]map[CellAddress]struct{} // cells each cell depends on
	dependents map[CellAddress]map[CellAddress]struct{} // cells that depend on each cell
	acyclic    map[CellAddress]struct{}                 // cells known to reach no cycle
	cyclic     map[CellAddress]struct{}                 // cells known to reach a cycle
	edges      int
}

// NewDependencyGraph creates a new dependency graph
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		precedents: make(map[CellAddress]map[CellAddress]struct{}),
		dependents: make(map[CellAddress]map[CellAddress]struct{}),
		acyclic:    make(map[CellAddress]struct{}),
		cyclic:     make(map[CellAddress]struct{}),
	}
}

// Rebuild discards every edge and rescans all formula cells of the grid.
// every grid address gets an entry in both directions, possibly empty.
// formulas that fail to lex contribute no edges.
func (dg *DependencyGraph) Rebuild(grid *Grid, formulas *FormulaTable) {
	dg.Clear()

	for addr := range grid.Addresses() {
		dg.ensureNode(addr)
	}

	live := make(map[string]struct{})
	for addr := range grid.Addresses() {
		body, ok := formulaBody(grid.GetRaw(addr))
		if !ok {
			continue
		}
		live[body] = struct{}{}
		f := formulas.Intern(body)

		if f.Sum != nil {
			if r, ok := f.Sum.Clip(grid.Rows(), grid.Cols()); ok {
				for target := range r.Cells() {
					dg.AddCellDependency(addr, target)
				}
			}
			continue
		}

		for _, label := range f.Refs {
			target, err := ParseCellAddress(label)
			if err != nil || !grid.InBounds(target) {
				continue
			}
			dg.AddCellDependency(addr, target)
		}
	}

	formulas.Retain(live)
}

func (dg *DependencyGraph) ensureNode(addr CellAddress) {
	if _, exists := dg.precedents[addr]; !exists {
		dg.precedents[addr] = make(map[CellAddress]struct{})
	}
	if _, exists := dg.dependents[addr]; !exists {
		dg.dependents[addr] = make(map[CellAddress]struct{})
	}
}

// AddCellDependency adds a cell-to-cell dependency (from depends on to)
func (dg *DependencyGraph) AddCellDependency(from, to CellAddress) {
	dg.ensureNode(from)
	dg.ensureNode(to)

	if _, exists := dg.precedents[from][to]; exists {
		return
	}
	dg.precedents[from][to] = struct{}{}
	dg.dependents[to][from] = struct{}{}
	dg.edges++
	clear(dg.acyclic)
	clear(dg.cyclic)
}

// sortedKeys returns a set's addresses in row-major order
func sortedKeys(set map[CellAddress]struct{}) []CellAddress {
	result := make([]CellAddress, 0, len(set))
	for addr := range set {
		result = append(result, addr)
	}
	slices.SortFunc(result, compareAddresses)
	return result
}

// GetDirectPrecedents returns cells this cell directly depends on
func (dg *DependencyGraph) GetDirectPrecedents(addr CellAddress) []CellAddress {
	return sortedKeys(dg.precedents[addr])
}

// GetDirectDependents returns cells directly depending on this cell
func (dg *DependencyGraph) GetDirectDependents(addr CellAddress) []CellAddress {
	return sortedKeys(dg.dependents[addr])
}

// GetAllDependents returns every cell transitively depending on addr, in
// breadth-first traversal order. addr itself is only included when it
// depends on itself through a cycle.
func (dg *DependencyGraph) GetAllDependents(addr CellAddress) []CellAddress {
	visited := map[CellAddress]struct{}{}
	var result []CellAddress

	queue := []CellAddress{addr}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, dep := range dg.GetDirectDependents(current) {
			if _, seen := visited[dep]; seen {
				continue
			}
			visited[dep] = struct{}{}
			result = append(result, dep)
			queue = append(queue, dep)
		}
	}
	return result
}

// HasCycleFrom runs a depth-first search over precedents starting at addr
// and reports whether any cycle is reachable from it. both answers are
// remembered for every cell on the searched path until the graph changes.
func (dg *DependencyGraph) HasCycleFrom(addr CellAddress) bool {
	if _, known := dg.acyclic[addr]; known {
		return false
	}
	if _, known := dg.cyclic[addr]; known {
		return true
	}

	type frame struct {
		addr     CellAddress
		children []CellAddress
		next     int
	}

	onPath := map[CellAddress]struct{}{addr: {}}
	visited := dg.acyclic
	stack := []*frame{{addr: addr, children: dg.GetDirectPrecedents(addr)}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next == len(top.children) {
			delete(onPath, top.addr)
			visited[top.addr] = struct{}{}
			stack = stack[:len(stack)-1]
			continue
		}

		child := top.children[top.next]
		top.next++

		_, active := onPath[child]
		_, reaches := dg.cyclic[child]
		if active || reaches {
			// every cell on the path reaches the cycle through child
			for _, f := range stack {
				dg.cyclic[f.addr] = struct{}{}
			}
			return true
		}
		if _, done := visited[child]; done {
			continue
		}
		onPath[child] = struct{}{}
		stack = append(stack, &frame{addr: child, children: dg.GetDirectPrecedents(child)})
	}
	return false
}

// GetCalculationOrder orders a set of cells so that every cell comes after
// the cells of the same set it depends on. cells caught in a cycle cannot
// be ordered and are appended last in their original order.
func (dg *DependencyGraph) GetCalculationOrder(cells []CellAddress) []CellAddress {
	inSet := make(map[CellAddress]struct{}, len(cells))
	for _, addr := range cells {
		inSet[addr] = struct{}{}
	}

	// in-degree counts only edges inside the set
	inDegree := make(map[CellAddress]int, len(cells))
	for _, addr := range cells {
		for prec := range dg.precedents[addr] {
			if _, ok := inSet[prec]; ok && prec != addr {
				inDegree[addr]++
			}
		}
	}

	var queue []CellAddress
	for _, addr := range cells {
		if inDegree[addr] == 0 {
			queue = append(queue, addr)
		}
	}

	order := make([]CellAddress, 0, len(cells))
	placed := make(map[CellAddress]struct{}, len(cells))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)
		placed[current] = struct{}{}

		for _, dep := range dg.GetDirectDependents(current) {
			if _, ok := inSet[dep]; !ok || dep == current {
				continue
			}
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	for _, addr := range cells {
		if _, ok := placed[addr]; !ok {
			order = append(order, addr)
		}
	}
	return order
}

// NodeCount returns the number of nodes in the graph
func (dg *DependencyGraph) NodeCount() int {
	return len(dg.precedents)
}

// EdgeCount returns the number of dependency edges
func (dg *DependencyGraph) EdgeCount() int {
	return dg.edges
}

// Clear removes all nodes and dependencies from the graph
func (dg *DependencyGraph) Clear() {
	dg.precedents = make(map[CellAddress]map[CellAddress]struct{})
	dg.dependents = make(map[CellAddress]map[CellAddress]struct{})
	dg.acyclic = make(map[CellAddress]struct{})
	dg.cyclic = make(map[CellAddress]struct{})
	dg.edges = 0
}
