package errors

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		kind     string
		err      error
		wantMsg  string
		hasStack bool
	}{
		{
			name:     "with original error",
			op:       "Fit",
			kind:     "invalid input",
			err:      fmt.Errorf("test error"),
			wantMsg:  "housing: Fit: invalid input: test error",
			hasStack: true,
		},
		{
			name:     "without original error",
			op:       "Predict",
			kind:     "not fitted",
			err:      nil,
			wantMsg:  "housing: Predict: not fitted",
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			if tt.hasStack {
				formatted := fmt.Sprintf("%+v", err)
				if !strings.Contains(formatted, "errors_test.go") {
					t.Error("Expected stack trace to contain test file name")
				}
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 13, 12, 1)

	want := "housing: Predict: dimension mismatch on axis 1 (features). Expected 13, got 12"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("RandomForestRegressor", "Predict")

	want := "housing: RandomForestRegressor: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestPipelineErrorTypes(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
		check   func(error) bool
	}{
		{
			name:    "parse error with path",
			err:     NewParseError("raw_data/boston.txt", 45, "expected 14 fields, got 13"),
			wantMsg: "housing: parse raw_data/boston.txt:45: expected 14 fields, got 13",
			check:   func(err error) bool { var e *ParseError; return As(err, &e) },
		},
		{
			name:    "parse error without path",
			err:     NewParseError("", 3, "unmatched line"),
			wantMsg: "housing: parse line 3: unmatched line",
			check:   func(err error) bool { var e *ParseError; return As(err, &e) },
		},
		{
			name:    "config error with key",
			err:     NewConfigError("config/config.yaml", "model.parameters", "required key is missing", nil),
			wantMsg: "housing: config config/config.yaml: key 'model.parameters': required key is missing",
			check:   func(err error) bool { var e *ConfigError; return As(err, &e) },
		},
		{
			name:    "data error",
			err:     NewDataError("SplitTarget", "target column \"MEDV\" not found"),
			wantMsg: "housing: SplitTarget: target column \"MEDV\" not found",
			check:   func(err error) bool { var e *DataError; return As(err, &e) },
		},
		{
			name:    "io error",
			err:     NewIOError("open", "data/boston.csv", fmt.Errorf("no such file or directory")),
			wantMsg: "housing: open data/boston.csv: no such file or directory",
			check:   func(err error) bool { var e *IOError; return As(err, &e) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
			assert.True(t, tt.check(tt.err))
		})
	}
}

func TestConfigErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("yaml: line 3: mapping values are not allowed in this context")
	err := NewConfigError("config.yaml", "", "malformed document", cause)

	assert.True(t, Is(err, cause))
	assert.Contains(t, err.Error(), "malformed document")
	assert.Contains(t, err.Error(), "mapping values")
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d, got %d", "Predict", 10, 5)

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}

	expectedMsg := "in Predict: expected 10, got 5"
	if !strings.Contains(wrapped.Error(), expectedMsg) {
		t.Errorf("Expected wrapped error to contain %q", expectedMsg)
	}
}

func TestErrorChaining(t *testing.T) {
	err1 := fmt.Errorf("base error")
	err2 := Wrap(err1, "wrapped once")
	err3 := NewModelError("Operation", "failed", err2)

	if !strings.Contains(err3.Error(), "base error") {
		t.Error("Expected error chain to contain base error")
	}

	formatted := fmt.Sprintf("%+v", err3)
	if !strings.Contains(formatted, "errors_test.go") {
		t.Error("Expected detailed error to contain stack trace")
	}
}

func TestWarnRoutesToHandler(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	t.Cleanup(func() { SetWarningHandler(func(error) {}) })

	Warn(NewUndefinedMetricWarning("r2", "zero variance in y_true", 0))

	require.Len(t, got, 1)
	var w *UndefinedMetricWarning
	require.True(t, As(got[0], &w))
	assert.Equal(t, "r2", w.Metric)
}

func TestCheckNumericalStability(t *testing.T) {
	assert.NoError(t, CheckNumericalStability("op", []float64{1, 2, 3}))

	err := CheckNumericalStability("op", []float64{1, math.NaN()})
	require.Error(t, err)

	var numErr *NumericalInstabilityError
	require.True(t, As(err, &numErr))
	assert.Equal(t, 1, numErr.Index)
}
