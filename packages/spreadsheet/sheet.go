package spreadsheet

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AppErrorCode represents gRPC-style error codes for application-level errors.
// note that we are skipping error codes that don't make sense for our use-case,
// like unauthenticated, or permission denied.
type AppErrorCode int

const (
	// OK indicates the operation completed successfully.
	OK AppErrorCode = 0

	// InvalidArgument indicates client specified an invalid argument, such
	// as a malformed cell label or an unsupported raw value type.
	InvalidArgument AppErrorCode = 3

	// OutOfRange means operation was attempted past the valid range.
	OutOfRange AppErrorCode = 11
)

// AppError represents errors at the application level (not
// spreadsheet formula errors)
type AppError struct {
	Code    AppErrorCode
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

// NewApplicationError creates a new application error
func NewApplicationError(code AppErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// CellChange is reported for every SetCellValue call
type CellChange struct {
	Address CellAddress
	Raw     Primitive
	Value   CellValue
}

// ChangeHandler receives the result of each cell mutation
type ChangeHandler func(CellChange)

// Snapshot is an independent copy of both grid matrices
type Snapshot struct {
	Raw       [][]Primitive
	Evaluated [][]CellValue
}

// Option configures a Spreadsheet
type Option func(*Spreadsheet)

// WithLogger sets the logger. the default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Spreadsheet) {
		s.logger = logger
	}
}

// WithChangeHandler registers the callback invoked after each SetCellValue
func WithChangeHandler(fn ChangeHandler) Option {
	return func(s *Spreadsheet) {
		s.onChange = fn
	}
}

// Spreadsheet owns one grid together with its dependency graph and
// recalculates formulas as cells change. it is not safe for concurrent use.
type Spreadsheet struct {
	id               uuid.UUID
	storage          *Storage
	calculationStack *CalculationStack
	dirty            map[CellAddress]struct{} // cells not yet evaluated since their last change
	logger           *zap.Logger
	onChange         ChangeHandler
}

// NewSpreadsheet creates a blank rows x cols spreadsheet
func NewSpreadsheet(rows, cols int, opts ...Option) (*Spreadsheet, error) {
	grid, err := NewGrid(rows, cols)
	if err != nil {
		return nil, err
	}
	return newSpreadsheet(grid, opts), nil
}

// NewSpreadsheetFromData creates a spreadsheet from row-major raw values and
// evaluates it
func NewSpreadsheetFromData(data [][]Primitive, opts ...Option) (*Spreadsheet, error) {
	grid, err := NewGridFromData(data)
	if err != nil {
		return nil, err
	}
	return newSpreadsheet(grid, opts), nil
}

func newSpreadsheet(grid *Grid, opts []Option) *Spreadsheet {
	s := &Spreadsheet{
		id:               uuid.New(),
		calculationStack: NewCalculationStack(),
		dirty:            make(map[CellAddress]struct{}),
		logger:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.Stringer("spreadsheet", s.id))

	s.load(grid)
	return s
}

// load replaces all state with grid, rebuilds the graph and evaluates
// every cell
func (s *Spreadsheet) load(grid *Grid) {
	s.storage = newStorage(grid)
	s.rebuildGraph()
	s.EvaluateAll()
}

func (s *Spreadsheet) rebuildGraph() {
	s.storage.rebuild()
	s.logger.Debug("dependency graph rebuilt",
		zap.Int("nodes", s.storage.dependencyGraph.NodeCount()),
		zap.Int("edges", s.storage.dependencyGraph.EdgeCount()),
		zap.Int("formulas", s.storage.formulas.Count()))
}

// ID returns the instance ID used in log fields
func (s *Spreadsheet) ID() uuid.UUID {
	return s.id
}

// Dimensions returns the grid size
func (s *Spreadsheet) Dimensions() (rows, cols int) {
	return int(s.storage.grid.Rows()), int(s.storage.grid.Cols())
}

// resolveAddress parses a label and checks it against the grid bounds
func (s *Spreadsheet) resolveAddress(label string) (CellAddress, error) {
	addr, err := ParseCellAddress(label)
	if err != nil {
		return CellAddress{}, NewApplicationError(InvalidArgument, fmt.Sprintf("invalid address: %v", err))
	}
	if !s.storage.grid.InBounds(addr) {
		return CellAddress{}, NewApplicationError(OutOfRange, fmt.Sprintf("address %s outside %dx%d grid", label, s.storage.grid.Rows(), s.storage.grid.Cols()))
	}
	return addr, nil
}

// Get retrieves the evaluated value of a cell
func (s *Spreadsheet) Get(label string) (CellValue, error) {
	addr, err := s.resolveAddress(label)
	if err != nil {
		return CellValue{}, err
	}
	return s.storage.grid.GetValue(addr), nil
}

// GetRaw retrieves the raw value of a cell
func (s *Spreadsheet) GetRaw(label string) (Primitive, error) {
	addr, err := s.resolveAddress(label)
	if err != nil {
		return nil, err
	}
	return s.storage.grid.GetRaw(addr), nil
}

// SetCellValue sets the raw value of the cell named by label
func (s *Spreadsheet) SetCellValue(label string, raw Primitive) (CellChange, error) {
	addr, err := s.resolveAddress(label)
	if err != nil {
		return CellChange{}, err
	}
	return s.SetCell(addr, raw)
}

// SetCell writes a raw value, rebuilds the dependency graph, recalculates
// the cell and everything depending on it, then notifies the change handler
func (s *Spreadsheet) SetCell(addr CellAddress, raw Primitive) (CellChange, error) {
	if !s.storage.grid.InBounds(addr) {
		return CellChange{}, NewApplicationError(OutOfRange, fmt.Sprintf("address %s outside %dx%d grid", addr, s.storage.grid.Rows(), s.storage.grid.Cols()))
	}
	value, err := normalizePrimitive(raw)
	if err != nil {
		return CellChange{}, err
	}

	s.storage.grid.SetRaw(addr, value)
	s.rebuildGraph()
	s.recalculateCell(addr)

	change := CellChange{
		Address: addr,
		Raw:     value,
		Value:   s.storage.grid.GetValue(addr),
	}
	if s.onChange != nil {
		s.onChange(change)
	}
	return change, nil
}

// GetData returns a snapshot of both matrices
func (s *Spreadsheet) GetData() Snapshot {
	return Snapshot{
		Raw:       s.storage.grid.RawSnapshot(),
		Evaluated: s.storage.grid.ValueSnapshot(),
	}
}

// SetData replaces the whole grid and re-evaluates it. dimensions follow
// the new data.
func (s *Spreadsheet) SetData(data [][]Primitive) error {
	grid, err := NewGridFromData(data)
	if err != nil {
		return err
	}
	s.load(grid)
	return nil
}

// EvaluateAll evaluates every cell in row-major order
func (s *Spreadsheet) EvaluateAll() {
	clear(s.dirty)
	for addr := range s.storage.grid.Addresses() {
		s.markDirty(addr)
	}

	for addr := range s.storage.grid.Addresses() {
		if s.isDirty(addr) {
			s.evaluateCell(addr)
		}
	}

	rows, cols := s.Dimensions()
	s.logger.Debug("evaluated all cells", zap.Int("rows", rows), zap.Int("cols", cols))
}

// recalculateCell evaluates addr and then its transitive dependents in
// dependency order. each dependent is evaluated at most once.
func (s *Spreadsheet) recalculateCell(addr CellAddress) {
	dependents := s.storage.dependencyGraph.GetAllDependents(addr)

	s.markDirty(addr)
	for _, dep := range dependents {
		s.markDirty(dep)
	}

	s.evaluateCell(addr)
	for _, dep := range s.storage.dependencyGraph.GetCalculationOrder(dependents) {
		if s.isDirty(dep) {
			s.evaluateCell(dep)
		}
	}

	s.logger.Debug("recalculated cell",
		zap.Stringer("cell", addr),
		zap.Int("dependents", len(dependents)))
}

// evaluateCell evaluates addr after first evaluating every pending cell it
// transitively reads, deepest first
func (s *Spreadsheet) evaluateCell(addr CellAddress) {
	order := s.calculationStack.plan(addr, s.storage.dependencyGraph, s.isDirty)
	for _, cell := range order {
		s.calculateCell(cell)
	}
}

// calculateCell computes one cell's value, assuming its precedents are
// already evaluated
func (s *Spreadsheet) calculateCell(addr CellAddress) {
	defer s.clearDirty(addr)

	raw := s.storage.grid.GetRaw(addr)
	body, isFormula := formulaBody(raw)
	if !isFormula {
		s.storage.grid.SetValue(addr, literalValue(raw))
		return
	}

	if s.storage.dependencyGraph.HasCycleFrom(addr) {
		s.logger.Debug("circular reference", zap.Stringer("cell", addr))
		s.storage.grid.SetValue(addr, ErrorValue(ErrorCodeCircular))
		return
	}

	result, err := s.evaluateFormula(body)
	if err != nil {
		s.logger.Debug("formula failed",
			zap.Stringer("cell", addr),
			zap.String("formula", body),
			zap.Error(err))
		s.storage.grid.SetValue(addr, ErrorValue(ErrorCodeGeneric))
		return
	}
	s.storage.grid.SetValue(addr, NumberValue(result))
}

func (s *Spreadsheet) evaluateFormula(body string) (float64, error) {
	f := s.storage.formulas.Intern(body)
	if f.Err != nil {
		return 0, f.Err
	}

	if f.Sum != nil {
		r, ok := f.Sum.Clip(s.storage.grid.Rows(), s.storage.grid.Cols())
		if !ok {
			return 0, nil
		}
		return SumRange(r, s.lookup)
	}

	return EvaluatePostfix(f.Postfix, s.resolve)
}

// lookup reads an evaluated value, evaluating the cell first if it is
// still pending
func (s *Spreadsheet) lookup(addr CellAddress) (CellValue, bool) {
	if !s.storage.grid.InBounds(addr) {
		return CellValue{}, false
	}
	if s.isDirty(addr) {
		s.evaluateCell(addr)
	}
	return s.storage.grid.GetValue(addr), true
}

func (s *Spreadsheet) resolve(label string) (CellValue, bool) {
	addr, err := ParseCellAddress(label)
	if err != nil {
		return CellValue{}, false
	}
	return s.lookup(addr)
}

func (s *Spreadsheet) markDirty(addr CellAddress) {
	s.dirty[addr] = struct{}{}
}

func (s *Spreadsheet) clearDirty(addr CellAddress) {
	delete(s.dirty, addr)
}

func (s *Spreadsheet) isDirty(addr CellAddress) bool {
	_, dirty := s.dirty[addr]
	return dirty
}

// CalculationStack is the explicit work-list used to order pending
// precedents without recursing over the length of a dependency chain
type CalculationStack struct {
	items      []calculationFrame
	processing map[CellAddress]struct{} // on the current path
	completed  map[CellAddress]struct{} // already placed in the plan
}

type calculationFrame struct {
	addr     CellAddress
	children []CellAddress
	next     int
}

// NewCalculationStack creates a new calculation stack
func NewCalculationStack() *CalculationStack {
	return &CalculationStack{
		items:      make([]calculationFrame, 0),
		processing: make(map[CellAddress]struct{}),
		completed:  make(map[CellAddress]struct{}),
	}
}

// plan returns root preceded by every pending cell it transitively
// depends on, in post-order. back edges are skipped; cycles are reported
// by the cycle detector when the cells are calculated.
func (cs *CalculationStack) plan(root CellAddress, dg *DependencyGraph, pending func(CellAddress) bool) []CellAddress {
	cs.reset()

	var order []CellAddress
	cs.push(root, dg)
	for len(cs.items) > 0 {
		top := &cs.items[len(cs.items)-1]
		if top.next == len(top.children) {
			addr, _ := cs.pop()
			cs.markCompleted(addr)
			order = append(order, addr)
			continue
		}

		child := top.children[top.next]
		top.next++
		if cs.isProcessing(child) || cs.isCompleted(child) || !pending(child) {
			continue
		}
		cs.push(child, dg)
	}
	return order
}

// push adds a cell to the stack
func (cs *CalculationStack) push(addr CellAddress, dg *DependencyGraph) {
	cs.items = append(cs.items, calculationFrame{addr: addr, children: dg.GetDirectPrecedents(addr)})
	cs.processing[addr] = struct{}{}
}

// pop removes and returns the top cell from the stack
func (cs *CalculationStack) pop() (CellAddress, bool) {
	if len(cs.items) == 0 {
		return CellAddress{}, false
	}
	addr := cs.items[len(cs.items)-1].addr
	cs.items = cs.items[:len(cs.items)-1]
	delete(cs.processing, addr)
	return addr, true
}

// isProcessing checks if a cell is currently being processed
func (cs *CalculationStack) isProcessing(addr CellAddress) bool {
	_, exists := cs.processing[addr]
	return exists
}

// markCompleted marks a cell as planned
func (cs *CalculationStack) markCompleted(addr CellAddress) {
	cs.completed[addr] = struct{}{}
}

// isCompleted checks if a cell has been planned
func (cs *CalculationStack) isCompleted(addr CellAddress) bool {
	_, exists := cs.completed[addr]
	return exists
}

// reset clears the stack
func (cs *CalculationStack) reset() {
	cs.items = cs.items[:0]
	clear(cs.processing)
	clear(cs.completed)
}
