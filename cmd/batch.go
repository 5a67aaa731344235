package main

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/compete-cli/internal/model"
	"github.com/sells-group/compete-cli/internal/report"
)

var (
	batchCSV         string
	batchLimit       int
	batchConcurrency int
	batchReport      bool
	batchOutput      string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyze every business idea and location pair in a CSV",
	Long: `Reads a CSV of business_idea,location rows (header optional) and runs
one analysis per row with bounded concurrency. Results are printed as a JSON
array.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if batchConcurrency > 0 {
			cfg.Batch.MaxConcurrent = batchConcurrency
		}
		if err := cfg.Validate("batch"); err != nil {
			return err
		}

		f, err := os.Open(batchCSV)
		if err != nil {
			return eris.Wrap(err, "batch: open csv")
		}
		reqs, err := parseRequestsCSV(f)
		_ = f.Close()
		if err != nil {
			return err
		}

		env := initResearch(cfg)
		timeout := runTimeout(cfg)
		results := processBatch(ctx, reqs, batchLimit, cfg.Batch.MaxConcurrent, func(ctx context.Context, req model.AnalysisRequest) model.AnalysisResult {
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			res := env.Pipeline.Run(ctx, req)
			if batchReport && res.Status == model.AnalysisStatusSuccess {
				if _, err := report.Write(cfg.Reports.Dir, uuid.NewString(), &res); err != nil {
					zap.L().Warn("batch: write report", zap.String("business_idea", req.BusinessIdea), zap.Error(err))
				}
			}
			return res
		})

		return writeJSONFile(batchOutput, results)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchCSV, "csv", "", "path to CSV of business_idea,location rows")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of rows to process (0 = all)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "parallel analyses (default from config)")
	batchCmd.Flags().BoolVar(&batchReport, "report", false, "write an xlsx report per successful analysis")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "write JSON to this file instead of stdout")
	_ = batchCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(batchCmd)
}

// parseRequestsCSV reads business_idea,location rows. A first row whose
// first cell is "business_idea" or "idea" is treated as a header. Rows with
// an empty idea or location are skipped.
func parseRequestsCSV(r io.Reader) ([]model.AnalysisRequest, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var reqs []model.AnalysisRequest
	for line := 1; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "batch: read csv")
		}
		if line == 1 && len(row) > 0 {
			first := strings.ToLower(strings.TrimSpace(row[0]))
			if first == "business_idea" || first == "idea" {
				continue
			}
		}
		if len(row) < 2 {
			zap.L().Warn("batch: skipping short row", zap.Int("line", line))
			continue
		}
		req := model.AnalysisRequest{
			BusinessIdea: strings.TrimSpace(row[0]),
			Location:     strings.TrimSpace(row[1]),
		}
		if req.BusinessIdea == "" || req.Location == "" {
			zap.L().Warn("batch: skipping incomplete row", zap.Int("line", line))
			continue
		}
		reqs = append(reqs, req)
	}

	if len(reqs) == 0 {
		return nil, eris.New("batch: csv has no usable rows")
	}
	return reqs, nil
}

// runFunc runs one analysis.
type runFunc func(ctx context.Context, req model.AnalysisRequest) model.AnalysisResult

// processBatch applies limit, then runs requests concurrently. Results keep
// the input order.
func processBatch(ctx context.Context, reqs []model.AnalysisRequest, limit, concurrency int, run runFunc) []model.AnalysisResult {
	if limit > 0 && len(reqs) > limit {
		reqs = reqs[:limit]
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("requests", len(reqs)),
		zap.Int("concurrency", concurrency),
	)

	results := make([]model.AnalysisResult, len(reqs))
	var succeeded, failed, fallback atomic.Int64

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			log := zap.L().With(
				zap.String("business_idea", req.BusinessIdea),
				zap.String("location", req.Location),
			)

			res := run(ctx, req)
			results[i] = res

			if res.Status == model.AnalysisStatusError {
				failed.Add(1)
				log.Error("analysis failed", zap.String("error", res.Error))
				return nil // don't abort batch on individual failure
			}
			succeeded.Add(1)
			if res.UsedFallback {
				fallback.Add(1)
			}
			log.Info("analysis complete",
				zap.Int("competitors", len(res.Competitors)),
				zap.Bool("used_fallback", res.UsedFallback),
			)
			return nil
		})
	}
	_ = g.Wait()

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
		zap.Int64("fallback", fallback.Load()),
	)
	return results
}
