package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/compete-cli/internal/model"
)

var (
	jobsStatus string
	jobsLimit  int
	jobsOffset int
	jobsJSON   bool
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List analysis jobs submitted to the job API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("jobs"); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		jobs, err := st.ListJobs(ctx, model.JobFilter{
			Status: model.JobStatus(jobsStatus),
			Limit:  jobsLimit,
			Offset: jobsOffset,
		})
		if err != nil {
			return eris.Wrap(err, "jobs list")
		}

		if jobsJSON {
			return encodeJSON(os.Stdout, jobs)
		}
		if len(jobs) == 0 {
			fmt.Fprintln(os.Stderr, "No jobs found.")
			return nil
		}
		formatJobsList(os.Stdout, jobs)
		return nil
	},
}

func init() {
	jobsCmd.Flags().StringVar(&jobsStatus, "status", "", "filter by status (started, searching, analyzing, generating_report, completed, failed)")
	jobsCmd.Flags().IntVar(&jobsLimit, "limit", 20, "max jobs to list")
	jobsCmd.Flags().IntVar(&jobsOffset, "offset", 0, "skip this many of the newest jobs")
	jobsCmd.Flags().BoolVar(&jobsJSON, "json", false, "print jobs as JSON")
	rootCmd.AddCommand(jobsCmd)
}

func formatJobsList(out io.Writer, jobs []model.Job) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tIDEA\tLOCATION\tSTATUS\tDETAIL\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t----\t--------\t------\t------\t-------")

	for _, j := range jobs {
		detail := j.Progress
		if j.Error != "" {
			detail = j.Error
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(j.ID),
			clip(j.BusinessIdea, 30),
			clip(j.Location, 20),
			j.Status,
			clip(detail, 40),
			j.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}
