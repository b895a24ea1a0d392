// Package report persists evaluation results: per-partition metrics as
// JSON and the feature-importance ranking as CSV. Every write replaces the
// previous file.
package report

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/docker/go-units"

	"github.com/YuminosukeSato/scigo-housing/metrics"
	"github.com/YuminosukeSato/scigo-housing/pkg/errors"
	"github.com/YuminosukeSato/scigo-housing/pkg/log"
)

// Output file names inside the output directory.
const (
	MetricsFile    = "metrics.json"
	ImportanceFile = "feature_importance.csv"
)

var importanceHeader = []string{"feature", "importance"}

// metricsRecord is the JSON shape of one partition. Non-finite values
// (an undefined R²) are written as null.
type metricsRecord struct {
	MSE  *float64 `json:"mse"`
	RMSE *float64 `json:"rmse"`
	R2   *float64 `json:"r2"`
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// WriteMetrics writes {"<partition>": {"mse", "rmse", "r2"}} to
// <dir>/metrics.json and returns the file path.
func WriteMetrics(dir string, reports map[string]metrics.Report) (string, error) {
	doc := make(map[string]metricsRecord, len(reports))
	for partition, r := range reports {
		doc[partition] = metricsRecord{MSE: finite(r.MSE), RMSE: finite(r.RMSE), R2: finite(r.R2)}
	}

	path := filepath.Join(dir, MetricsFile)
	err := writeFile(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")
		return enc.Encode(doc)
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// ReadMetrics reads a file written by WriteMetrics. null values come back
// as NaN.
func ReadMetrics(path string) (map[string]metrics.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError("read", path, err)
	}
	var doc map[string]metricsRecord
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewDataError("ReadMetrics", path+": "+err.Error())
	}

	reports := make(map[string]metrics.Report, len(doc))
	for partition, r := range doc {
		reports[partition] = metrics.Report{MSE: orNaN(r.MSE), RMSE: orNaN(r.RMSE), R2: orNaN(r.R2)}
	}
	return reports, nil
}

// WriteImportances writes the ranking, in the given order, to
// <dir>/feature_importance.csv with header feature,importance and returns
// the file path.
func WriteImportances(dir string, ranking []metrics.FeatureImportance) (string, error) {
	path := filepath.Join(dir, ImportanceFile)
	err := writeFile(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(importanceHeader); err != nil {
			return err
		}
		for _, fi := range ranking {
			if err := cw.Write([]string{fi.Feature, strconv.FormatFloat(fi.Importance, 'g', -1, 64)}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// ReadImportances reads a file written by WriteImportances, keeping the
// row order.
func ReadImportances(path string) ([]metrics.FeatureImportance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIOError("open", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.NewDataError("ReadImportances", path+": "+err.Error())
	}
	if len(records) == 0 || len(records[0]) != 2 ||
		records[0][0] != importanceHeader[0] || records[0][1] != importanceHeader[1] {
		return nil, errors.NewDataError("ReadImportances", path+": header must be feature,importance")
	}
	if len(records) == 1 {
		return nil, errors.NewDataError("ReadImportances", path+": no features")
	}

	ranking := make([]metrics.FeatureImportance, 0, len(records)-1)
	for i, rec := range records[1:] {
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, errors.NewDataError("ReadImportances",
				path+": row "+strconv.Itoa(i+1)+": "+strconv.Quote(rec[1])+" is not numeric")
		}
		ranking = append(ranking, metrics.FeatureImportance{Feature: rec[0], Importance: v})
	}
	return ranking, nil
}

// writeFile creates parent directories, truncates path and closes the file
// before returning, reporting a failed close as the write error.
func writeFile(path string, write func(io.Writer) error) (err error) {
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
		if err == nil {
			LogArtifact(path)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		return errors.NewIOError("write", path, err)
	}
	if err := bw.Flush(); err != nil {
		return errors.NewIOError("write", path, err)
	}
	return nil
}

// LogArtifact logs a written output file with its human-readable size.
func LogArtifact(path string) {
	logger := log.GetLoggerWithName("report")
	size := "unknown"
	if info, err := os.Stat(path); err == nil {
		size = units.HumanSize(float64(info.Size()))
	}
	logger.Info("Result written", log.PathKey, path, log.SizeKey, size)
}
