package dataset

import (
	"bufio"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-housing/pkg/errors"
	"github.com/YuminosukeSato/scigo-housing/pkg/log"
)

// DefaultHeaderLines is the length of the free-text preamble of the
// original boston.txt distribution.
const DefaultHeaderLines = 22

// RawOptions controls ParseRaw.
type RawOptions struct {
	// HeaderLines は先頭でスキップする行数（0 の場合は DefaultHeaderLines）
	HeaderLines int
	// Columns は1レコードあたりの列名（nil の場合は BostonColumns）
	Columns []string
	// Path はエラーメッセージ用のファイル名
	Path string
}

func (o RawOptions) withDefaults() RawOptions {
	if o.HeaderLines <= 0 {
		o.HeaderLines = DefaultHeaderLines
	}
	if len(o.Columns) == 0 {
		o.Columns = BostonColumns
	}
	return o
}

// ParseRaw reads the fixed-layout raw file. After HeaderLines lines every
// logical record spans exactly two physical lines; each pair is joined and
// split on whitespace into len(Columns) numeric fields.
//
// Blank lines at the end of the input are ignored. Every failure is a
// ParseError carrying the 1-based physical line number.
func ParseRaw(r io.Reader, opts RawOptions) (*Table, error) {
	opts = opts.withDefaults()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var body []string
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if lineNo <= opts.HeaderLines {
			continue
		}
		body = append(body, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, errors.NewParseError(opts.Path, lineNo+1, err.Error())
	}
	if lineNo < opts.HeaderLines {
		return nil, errors.NewParseError(opts.Path, lineNo,
			"file ends inside the "+strconv.Itoa(opts.HeaderLines)+"-line header")
	}

	for len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == "" {
		body = body[:len(body)-1]
	}
	if len(body) == 0 {
		return nil, errors.NewParseError(opts.Path, opts.HeaderLines+1, "no records after header")
	}
	if len(body)%2 != 0 {
		return nil, errors.NewParseError(opts.Path, opts.HeaderLines+len(body),
			"record is missing its second line")
	}

	nCols := len(opts.Columns)
	nRows := len(body) / 2
	data := mat.NewDense(nRows, nCols, nil)
	for i := 0; i < nRows; i++ {
		first := opts.HeaderLines + 2*i + 1
		fields := strings.Fields(body[2*i] + " " + body[2*i+1])
		if len(fields) != nCols {
			return nil, errors.NewParseError(opts.Path, first,
				"expected "+strconv.Itoa(nCols)+" fields across lines "+
					strconv.Itoa(first)+"-"+strconv.Itoa(first+1)+", got "+strconv.Itoa(len(fields)))
		}
		onFirst := len(strings.Fields(body[2*i]))
		for j, field := range fields {
			// 2行目に属するフィールドは2行目の行番号で報告する
			line := first
			if j >= onFirst {
				line++
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.NewParseError(opts.Path, line,
					"field "+opts.Columns[j]+": "+strconv.Quote(field)+" is not numeric")
			}
			// NaN は欠損値として通し、補完に任せる
			if math.IsInf(v, 0) {
				return nil, errors.NewParseError(opts.Path, line,
					"field "+opts.Columns[j]+": "+strconv.Quote(field)+" is not finite")
			}
			data.Set(i, j, v)
		}
	}

	return NewTable(opts.Columns, data)
}

// ProcessRawFile parses rawPath and writes the processed CSV to outPath,
// creating parent directories and overwriting any previous output.
func ProcessRawFile(rawPath, outPath string, opts RawOptions) (*Table, error) {
	logger := log.GetLoggerWithName("dataset")
	start := time.Now()

	f, err := os.Open(rawPath)
	if err != nil {
		return nil, errors.NewIOError("open", rawPath, err)
	}
	defer f.Close()

	if opts.Path == "" {
		opts.Path = rawPath
	}
	table, err := ParseRaw(f, opts)
	if err != nil {
		return nil, err
	}
	if err := table.SaveCSV(outPath); err != nil {
		return nil, err
	}

	logger.Info("Raw data processed",
		log.PathKey, outPath,
		log.SamplesKey, table.Rows(),
		log.FeaturesKey, len(table.Columns),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return table, nil
}
