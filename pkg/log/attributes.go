// Standard attribute keys for pipeline logging.
//
// Keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples") so log lines from different steps can be filtered the
// same way.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model or transform.
	// Examples: "RandomForestRegressor", "DecisionTreeRegressor", "MeanImputer"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "apply", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is emitting the record.
	ComponentKey = "ml.component"

	// StepKey names the pipeline step: "process", "regress", "visualize".
	StepKey = "pipeline.step"

	// PartitionKey names the data partition: "training" or "test".
	PartitionKey = "data.partition"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// PathKey records a file read or written by a step.
	PathKey = "io.path"

	// SizeKey records the human readable size of a written artifact.
	SizeKey = "io.size"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// MSEKey records mean squared error.
	MSEKey = "metrics.mse"

	// RMSEKey records root mean squared error.
	RMSEKey = "metrics.rmse"

	// R2ScoreKey records R² coefficient of determination for regression.
	// Range typically [-∞, 1.0], with 1.0 being perfect prediction.
	R2ScoreKey = "metrics.r2_score"
)

// Error and Warning Context
const (
	// ErrorTypeKey categorizes the type of error encountered.
	// Examples: "ParseError", "ConfigError", "DataError"
	ErrorTypeKey = "error.type"

	// SuggestionKey provides helpful suggestions for resolving issues.
	SuggestionKey = "error.suggestion"
)

// Hyperparameters and Configuration
const (
	// HyperParamsKey contains model hyperparameters as a structured object.
	HyperParamsKey = "model.hyperparams"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// ConfigPathKey records the settings document in use.
	ConfigPathKey = "config.path"

	// EnvKey records the overlay environment name.
	EnvKey = "config.env"
)

// Standard attribute values.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationApply   = "apply"

	PartitionTraining = "training"
	PartitionTest     = "test"
)
