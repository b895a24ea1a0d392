// Package housing is a small regression pipeline over the Boston housing
// data set, built on gonum.
//
// # Pipeline
//
// The pipeline runs three steps, each reading the artifacts of the
// previous one from disk:
//
//  1. process: parse the fixed-layout raw file (two physical lines per
//     record after a 22 line header) into a CSV table.
//  2. regress: split features from the MEDV target, partition rows into
//     training and test sets with an explicit seed, fit a random forest,
//     and write metrics.json, feature_importance.csv and model.gob.
//  3. visualize: render the importance ranking as a horizontal bar chart
//     and the feature columns as a grid of histograms.
//
// # Command line
//
//	housing run --config config/config.yaml --env production
//	housing process
//	housing regress --log-level debug
//	housing visualize
//
// Flags can also be given as HOUSING_CONFIG, HOUSING_ENV and
// HOUSING_LOG_LEVEL environment variables.
//
// # Packages
//
//   - config: YAML settings with environment overlays (deep merge)
//   - dataset: raw parser, CSV tables, train/test and k-fold splits
//   - preprocessing: two-phase mean imputer and standard scaler
//   - sklearn/tree, sklearn/ensemble: CART regression trees and the forest
//   - metrics: MSE, RMSE, R² and importance ranking
//   - report, plot: result files and the importance chart
//   - pipeline: the three steps and the console summary
//   - pkg/errors, pkg/log: error types and structured logging
//
// # Library use
//
//	cfg, err := config.Load("config/config.yaml", "")
//	if err != nil {
//	    return err
//	}
//	result, err := pipeline.Run(cfg)
//	if err != nil {
//	    return err
//	}
//	pipeline.PrintSummary(os.Stdout, result)
package housing
