package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/pursuit/config"
)

// CSVWriter appends csv-tagged records of type T to w, writing the header
// with the first record.
type CSVWriter[T any] struct {
	w             io.Writer
	headerWritten bool
}

// NewCSVWriter creates a writer for records of type T.
func NewCSVWriter[T any](w io.Writer) *CSVWriter[T] {
	return &CSVWriter[T]{w: w}
}

// Write appends one record.
func (c *CSVWriter[T]) Write(rec T) error {
	records := []T{rec}
	if !c.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, c.w); err != nil {
			return err
		}
		c.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, c.w)
}

// OutputManager handles structured run output with CSV logging.
// A nil *OutputManager is valid and discards everything.
type OutputManager struct {
	dir          string
	files        []*os.File
	rounds       *CSVWriter[RoundRecord]
	windows      *CSVWriter[WindowStats]
	eliminations *CSVWriter[Elimination]
	perf         *CSVWriter[PerfStatsCSV]
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	var err error
	if om.rounds, err = createCSV[RoundRecord](om, "rounds.csv"); err != nil {
		om.Close()
		return nil, err
	}
	if om.windows, err = createCSV[WindowStats](om, "windows.csv"); err != nil {
		om.Close()
		return nil, err
	}
	if om.eliminations, err = createCSV[Elimination](om, "eliminations.csv"); err != nil {
		om.Close()
		return nil, err
	}
	if om.perf, err = createCSV[PerfStatsCSV](om, "perf.csv"); err != nil {
		om.Close()
		return nil, err
	}

	return om, nil
}

func createCSV[T any](om *OutputManager, name string) (*CSVWriter[T], error) {
	f, err := os.Create(filepath.Join(om.dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	om.files = append(om.files, f)
	return NewCSVWriter[T](f), nil
}

// WriteConfig saves the effective configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteRound appends a round record to rounds.csv.
func (om *OutputManager) WriteRound(r RoundRecord) error {
	if om == nil {
		return nil
	}
	return wrap("rounds.csv", om.rounds.Write(r))
}

// WriteWindow appends a stats window to windows.csv.
func (om *OutputManager) WriteWindow(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return wrap("windows.csv", om.windows.Write(stats))
}

// WriteElimination appends an elimination event to eliminations.csv.
func (om *OutputManager) WriteElimination(e Elimination) error {
	if om == nil {
		return nil
	}
	return wrap("eliminations.csv", om.eliminations.Write(e))
}

// WritePerf appends a perf window to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats) error {
	if om == nil {
		return nil
	}
	return wrap("perf.csv", om.perf.Write(stats.ToCSV()))
}

func wrap(name string, err error) error {
	if err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range om.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
