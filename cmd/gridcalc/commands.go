package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vogtb/go-gridcalc/packages/gridfile"
	"github.com/vogtb/go-gridcalc/packages/spreadsheet"
)

func newEvalCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "eval FILE...",
		Short: "Evaluate one or more grid files",
		Long: `Loads every file into its own spreadsheet, evaluates them concurrently
and prints the results in argument order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.runEval,
	}
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get FILE LABEL",
		Short: "Print the evaluated value of one cell",
		Args:  cobra.ExactArgs(2),
		RunE:  a.runGet,
	}
}

func newSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set FILE LABEL=RAW...",
		Short: "Assign raw values to cells and save the file",
		Long: `Applies each assignment in order, saves the file back under an exclusive
lock and prints the re-evaluated grid. A formula is assigned with a second
"=", for example: gridcalc set grid.yaml B1==A1*3`,
		Args: cobra.MinimumNArgs(2),
		RunE: a.runSet,
	}
}

// loadSpreadsheet reads a grid file and evaluates it
func (a *app) loadSpreadsheet(path string, opts ...spreadsheet.Option) (*spreadsheet.Spreadsheet, error) {
	rows, err := gridfile.Load(path)
	if err != nil {
		return nil, err
	}
	return a.newSpreadsheet(path, rows, opts...)
}

// newSpreadsheet evaluates rows read from path
func (a *app) newSpreadsheet(path string, rows [][]spreadsheet.Primitive, opts ...spreadsheet.Option) (*spreadsheet.Spreadsheet, error) {
	logger := a.logger.With(zap.String("file", path))
	s, err := spreadsheet.NewSpreadsheetFromData(rows, append([]spreadsheet.Option{spreadsheet.WithLogger(logger)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	r, c := s.Dimensions()
	logger.Debug("grid loaded", zap.Int("rows", r), zap.Int("cols", c))
	return s, nil
}

func (a *app) runEval(cmd *cobra.Command, paths []string) error {
	sheets := make([]*spreadsheet.Spreadsheet, len(paths))

	g, ctx := errgroup.WithContext(cmd.Context())
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := a.loadSpreadsheet(path)
			if err != nil {
				return err
			}
			sheets[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, s := range sheets {
		title := ""
		if len(paths) > 1 {
			title = paths[i]
		}
		if err := renderGrid(a.out, title, s.GetData(), a.cfg.Output); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) runGet(cmd *cobra.Command, args []string) error {
	path, label := args[0], args[1]

	s, err := a.loadSpreadsheet(path)
	if err != nil {
		return err
	}
	value, err := s.Get(label)
	if err != nil {
		return err
	}
	raw, err := s.GetRaw(label)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(a.out, cellText(raw, value, a.cfg.Output.ShowRaw))
	return err
}

type assignment struct {
	label string
	raw   string
}

// parseAssignments splits LABEL=RAW arguments at the first "="
func parseAssignments(args []string) ([]assignment, error) {
	out := make([]assignment, 0, len(args))
	for _, arg := range args {
		label, raw, ok := strings.Cut(arg, "=")
		if !ok || label == "" {
			return nil, fmt.Errorf("invalid assignment %q, want LABEL=RAW", arg)
		}
		out = append(out, assignment{label: label, raw: raw})
	}
	return out, nil
}

func (a *app) runSet(cmd *cobra.Command, args []string) error {
	path := args[0]
	assignments, err := parseAssignments(args[1:])
	if err != nil {
		return err
	}

	onChange := spreadsheet.WithChangeHandler(func(change spreadsheet.CellChange) {
		a.logger.Info("cell changed",
			zap.String("file", path),
			zap.Stringer("cell", change.Address),
			zap.Any("raw", change.Raw),
			zap.Stringer("value", change.Value))
	})

	// the file stays locked from load to write so concurrent sets don't
	// overwrite each other
	var snap spreadsheet.Snapshot
	err = gridfile.Update(cmd.Context(), path, a.cfg.Lock.Timeout, func(rows [][]spreadsheet.Primitive) ([][]spreadsheet.Primitive, error) {
		s, err := a.newSpreadsheet(path, rows, onChange)
		if err != nil {
			return nil, err
		}
		for _, as := range assignments {
			var raw spreadsheet.Primitive
			if as.raw != "" {
				raw = as.raw
			}
			if _, err := s.SetCellValue(as.label, raw); err != nil {
				return nil, fmt.Errorf("%s: %w", as.label, err)
			}
		}
		snap = s.GetData()
		return snap.Raw, nil
	})
	if err != nil {
		return err
	}
	return renderGrid(a.out, "", snap, a.cfg.Output)
}
