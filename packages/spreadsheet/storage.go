package spreadsheet

// Storage holds the grid and the tables derived from it
type Storage struct {
	grid            *Grid
	formulas        *FormulaTable
	dependencyGraph *DependencyGraph
}

func newStorage(grid *Grid) *Storage {
	return &Storage{
		grid:            grid,
		formulas:        NewFormulaTable(),
		dependencyGraph: NewDependencyGraph(),
	}
}

// rebuild recomputes every derived table from the grid's raw values
func (st *Storage) rebuild() {
	st.dependencyGraph.Rebuild(st.grid, st.formulas)
}
