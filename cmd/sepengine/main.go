// Command sepengine runs the lexicographic assignment engine against an
// instance JSON file and writes the resulting solution JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sep-course/assign-engine/internal/domain"
	"github.com/sep-course/assign-engine/internal/engine"
	"github.com/sep-course/assign-engine/internal/progress"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		workers     int
		outPath     string
		metricsAddr string
		logLevel    string
	)

	root := &cobra.Command{
		Use:          "sepengine",
		Short:        "Lexicographic MILP assignment engine for the software-engineering project course",
		SilenceUsage: true,
	}

	solveCmd := &cobra.Command{
		Use:   "solve <instance.json>",
		Short: "Solve an instance end-to-end and write the resulting solution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(args[0], workers, outPath, metricsAddr, logLevel)
		},
	}
	solveCmd.Flags().IntVar(&workers, "workers", 0, "branch-and-bound worker goroutines per stage (default: number of CPUs)")
	solveCmd.Flags().StringVar(&outPath, "out", "", "solution output path (default: stdout)")
	solveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve /metrics on this address for the progress gauge")
	solveCmd.Flags().StringVar(&logLevel, "log-level", "info", "logrus level: debug, info, warn, error")

	root.AddCommand(solveCmd)
	return root
}

func runSolve(instancePath string, workers int, outPath, metricsAddr, logLevel string) error {
	logger := logrus.New()
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("sepengine: invalid --log-level %q: %w", logLevel, err)
	}
	logger.SetLevel(level)

	raw, err := os.ReadFile(instancePath)
	if err != nil {
		return fmt.Errorf("sepengine: reading instance: %w", err)
	}

	var inst domain.Instance
	if err := json.Unmarshal(raw, &inst); err != nil {
		return fmt.Errorf("sepengine: parsing instance: %w", err)
	}
	if err := inst.Validate(); err != nil {
		return fmt.Errorf("sepengine: invalid instance: %w", err)
	}

	cell := progress.NewCell()
	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithProgressCell(cell),
	}
	if workers > 0 {
		opts = append(opts, engine.WithWorkers(workers))
	}

	var gauge *progress.PrometheusGauge
	if metricsAddr != "" {
		gauge = progress.NewPrometheusGauge(cell)
		go serveMetrics(metricsAddr, logger)
	}

	eng := engine.NewEngine(inst, opts...)

	var sol *domain.Solution
	var solveErr error
	for eng.Stage() < 4 {
		sol, solveErr = eng.SolveNextObjective(context.Background())
		if solveErr != nil {
			logger.WithError(solveErr).Warn("stage failed, returning last cached solution")
			break
		}
		if gauge != nil {
			gauge.Sync()
		}
	}

	if sol == nil {
		return fmt.Errorf("sepengine: solve failed with no cached solution: %w", solveErr)
	}

	return writeSolution(sol, outPath)
}

func writeSolution(sol *domain.Solution, outPath string) error {
	raw, err := json.MarshalIndent(sol, "", "  ")
	if err != nil {
		return fmt.Errorf("sepengine: encoding solution: %w", err)
	}

	if outPath == "" {
		_, err := os.Stdout.Write(append(raw, '\n'))
		return err
	}
	return os.WriteFile(outPath, raw, 0o644)
}

func serveMetrics(addr string, logger *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.WithError(err).Warn("metrics server stopped")
	}
}
