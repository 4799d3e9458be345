package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/infra"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/worker"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

const queueFlag = "queue"

var dlqFlags = map[string]cobraflags.Flag{
	queueFlag: &cobraflags.StringFlag{
		Name:  queueFlag,
		Value: worker.QueueEmail,
		Usage: "Queue whose dead letter list is inspected",
	},
}

func newJobsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect background jobs",
	}

	var limit int64
	dlq := &cobra.Command{
		Use:   "dlq",
		Short: "Show the most recent dead-lettered jobs of a queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showDLQ(cmd, dlqFlags[queueFlag].GetString(), limit)
		},
	}
	cobraflags.RegisterMap(dlq, dlqFlags)
	dlq.Flags().Int64VarP(&limit, "limit", "n", 10, "Number of entries to show")

	cmd.AddCommand(dlq)
	return cmd
}

func showDLQ(cmd *cobra.Command, queue string, limit int64) error {
	if limit <= 0 {
		return fmt.Errorf("--limit must be positive")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	total, err := worker.DLQLength(ctx, rdb, queue)
	if err != nil {
		return fmt.Errorf("dlq length: %w", err)
	}
	entries, err := worker.PeekDLQ(ctx, rdb, queue, limit)
	if err != nil {
		return fmt.Errorf("dlq peek: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s%s: %d entries\n", worker.DLQPrefix, queue, total)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FAILED AT\tJOB\tATTEMPTS\tREASON\tPAYLOAD")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", e.FailedAt.Format(time.RFC3339), e.JobType, e.Attempts, e.Reason, e.Payload)
	}
	return w.Flush()
}
