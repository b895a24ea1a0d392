package report

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/scigo-housing/metrics"
	"github.com/YuminosukeSato/scigo-housing/pkg/errors"
	"github.com/YuminosukeSato/scigo-housing/pkg/log"
)

func TestWriteMetrics(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	reports := map[string]metrics.Report{
		"training": {MSE: 1.5, RMSE: math.Sqrt(1.5), R2: 0.97},
		"test":     {MSE: 9, RMSE: 3, R2: 0.85},
	}

	path, err := WriteMetrics(dir, reports)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, MetricsFile), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]map[string]float64
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc, 2)
	assert.Equal(t, map[string]float64{"mse": 9, "rmse": 3, "r2": 0.85}, doc["test"])
	assert.Equal(t, 1.5, doc["training"]["mse"])

	back, err := ReadMetrics(path)
	require.NoError(t, err)
	assert.Equal(t, reports, back)
}

func TestWriteMetricsUndefinedR2(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteMetrics(dir, map[string]metrics.Report{
		"test": {MSE: 0, RMSE: 0, R2: math.NaN()},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"r2": null`)

	back, err := ReadMetrics(path)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(back["test"].R2))
}

func TestWriteMetricsOverwrites(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteMetrics(dir, map[string]metrics.Report{"a": {}, "b": {}, "c": {}})
	require.NoError(t, err)
	path, err := WriteMetrics(dir, map[string]metrics.Report{"test": {MSE: 1, RMSE: 1, R2: 0.5}})
	require.NoError(t, err)

	back, err := ReadMetrics(path)
	require.NoError(t, err)
	assert.Len(t, back, 1)
}

func TestImportancesRoundTrip(t *testing.T) {
	ranking := []metrics.FeatureImportance{
		{Feature: "RM", Importance: 0.45},
		{Feature: "LSTAT", Importance: 0.35},
		{Feature: "DIS", Importance: 0.2},
	}

	dir := t.TempDir()
	path, err := WriteImportances(dir, ranking)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "feature,importance\nRM,0.45\nLSTAT,0.35\nDIS,0.2\n", string(data))

	back, err := ReadImportances(path)
	require.NoError(t, err)
	assert.Equal(t, ranking, back)
}

func TestReadImportancesErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadImportances(filepath.Join(dir, "missing.csv"))
	var ioErr *errors.IOError
	assert.True(t, errors.As(err, &ioErr))

	tests := map[string]string{
		"wrong header": "name,score\nRM,0.5\n",
		"no rows":      "feature,importance\n",
		"not numeric":  "feature,importance\nRM,high\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".csv")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			_, err := ReadImportances(path)
			var dataErr *errors.DataError
			assert.True(t, errors.As(err, &dataErr), "got %v", err)
		})
	}
}

func TestWriteLogsArtifactSize(t *testing.T) {
	testLogger, _ := log.NewTestLogger(log.LevelInfo)
	original := log.GetLogger()
	log.SetLogger(testLogger)
	defer log.SetLogger(original)

	path, err := WriteImportances(t.TempDir(), []metrics.FeatureImportance{{Feature: "RM", Importance: 1}})
	require.NoError(t, err)

	assert.True(t, testLogger.ContainsMessage("Result written"))
	assert.True(t, testLogger.ContainsField(log.PathKey, path))
	assert.True(t, testLogger.ContainsField(log.SizeKey, "24B"))
}

func TestWriteToUnwritableDir(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := WriteMetrics(filepath.Join(blocker, "sub"), map[string]metrics.Report{})
	var ioErr *errors.IOError
	assert.True(t, errors.As(err, &ioErr))
}
