package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/compete-cli/internal/model"
	"github.com/sells-group/compete-cli/internal/report"
)

var (
	analyzeIdea     string
	analyzeLocation string
	analyzeReport   bool
	analyzeOutput   string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one competitive analysis and print the result as JSON",
	Example: `  compete-cli analyze --idea "coffee shop" --location Islamabad
  compete-cli analyze --idea restaurant --location Lahore --report --output result.json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("analyze"); err != nil {
			return err
		}
		env := initResearch(cfg)

		if d := runTimeout(cfg); d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}

		res := env.Pipeline.Run(ctx, model.AnalysisRequest{
			BusinessIdea: analyzeIdea,
			Location:     analyzeLocation,
		})

		if analyzeReport && res.Status == model.AnalysisStatusSuccess {
			path, err := report.Write(cfg.Reports.Dir, uuid.NewString(), &res)
			if err != nil {
				return err
			}
			zap.L().Info("report written", zap.String("path", path))
		}

		if err := writeJSONFile(analyzeOutput, res); err != nil {
			return err
		}
		if res.Status == model.AnalysisStatusError {
			return eris.Errorf("analysis failed: %s", res.Error)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeIdea, "idea", "", "business idea, e.g. \"coffee shop\"")
	analyzeCmd.Flags().StringVar(&analyzeLocation, "location", "", "target location, e.g. Islamabad")
	analyzeCmd.Flags().BoolVar(&analyzeReport, "report", false, "also write an xlsx report to reports.dir")
	analyzeCmd.Flags().StringVar(&analyzeOutput, "output", "", "write JSON to this file instead of stdout")
	_ = analyzeCmd.MarkFlagRequired("idea")
	_ = analyzeCmd.MarkFlagRequired("location")
	rootCmd.AddCommand(analyzeCmd)
}

// writeJSONFile writes v as indented JSON to path, or to stdout when path is empty.
func writeJSONFile(path string, v any) error {
	if path == "" {
		return encodeJSON(os.Stdout, v)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	if err := encodeJSON(f, v); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "close %s", path)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode json")
}
