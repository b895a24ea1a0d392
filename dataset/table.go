// Package dataset turns the raw Boston housing file into a numeric table,
// separates the target column and partitions rows into training and test
// sets.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-housing/pkg/errors"
)

// BostonColumns are the 13 feature columns followed by the MEDV target.
var BostonColumns = []string{
	"CRIM", "ZN", "INDUS", "CHAS", "NOX", "RM", "AGE", "DIS", "RAD",
	"TAX", "PTRATIO", "B", "LSTAT", "MEDV",
}

// Table is an ordered set of named numeric columns.
// Data has one row per record and len(Columns) columns.
type Table struct {
	Columns []string
	Data    *mat.Dense
}

// NewTable validates that data has one column per name.
func NewTable(columns []string, data *mat.Dense) (*Table, error) {
	_, c := data.Dims()
	if c != len(columns) {
		return nil, errors.NewDataError("NewTable",
			"column count "+strconv.Itoa(c)+" does not match "+strconv.Itoa(len(columns))+" column names")
	}
	seen := make(map[string]struct{}, len(columns))
	for _, name := range columns {
		if _, dup := seen[name]; dup {
			return nil, errors.NewDataError("NewTable", "duplicate column "+strconv.Quote(name))
		}
		seen[name] = struct{}{}
	}
	return &Table{Columns: append([]string(nil), columns...), Data: data}, nil
}

// Rows returns the number of records.
func (t *Table) Rows() int {
	r, _ := t.Data.Dims()
	return r
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// RequireColumns returns a DataError when the table columns differ from
// the expected names, in name or in order.
func (t *Table) RequireColumns(expected []string) error {
	if len(expected) != len(t.Columns) {
		return errors.NewDataError("RequireColumns",
			"expected "+strconv.Itoa(len(expected))+" columns, table has "+strconv.Itoa(len(t.Columns)))
	}
	for i, name := range expected {
		if t.Columns[i] != name {
			return errors.NewDataError("RequireColumns",
				"column "+strconv.Itoa(i)+" is "+strconv.Quote(t.Columns[i])+", expected "+strconv.Quote(name))
		}
	}
	return nil
}

// WriteCSV writes the table with a header row. Values use the shortest
// representation that round-trips, so identical tables produce identical bytes.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	r, c := t.Data.Dims()
	record := make([]string, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			record[j] = strconv.FormatFloat(t.Data.At(i, j), 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, "write csv row %d", i)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

// SaveCSV writes the table to path, creating parent directories and
// replacing any existing file.
func (t *Table) SaveCSV(path string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewIOError("mkdir", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.NewIOError("create", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.NewIOError("close", path, cerr)
		}
	}()
	if err := t.WriteCSV(f); err != nil {
		return errors.NewIOError("write", path, err)
	}
	return nil
}

// ReadCSV parses a table written by WriteCSV: a header row followed by
// numeric rows.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.NewDataError("ReadCSV", err.Error())
	}
	if len(records) < 2 {
		return nil, errors.NewDataError("ReadCSV", "table has no data rows")
	}

	header := records[0]
	rows := records[1:]
	data := mat.NewDense(len(rows), len(header), nil)
	for i, rec := range rows {
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.NewDataError("ReadCSV",
					"row "+strconv.Itoa(i+1)+" column "+strconv.Quote(header[j])+": "+strconv.Quote(field)+" is not numeric")
			}
			data.Set(i, j, v)
		}
	}
	return NewTable(header, data)
}

// LoadCSV opens path and parses it with ReadCSV.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIOError("open", path, err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return t, nil
}
