package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reprocessCmd = &cobra.Command{
	Use:   "reprocess",
	Short: "Retry the rows parked in the missing-ancestors log",
	Long: `
Once you've created the parent pages a Move run complained about, this replays the logged URLs
with their queue rows, level by level.  Entries that now succeed are removed from the log; the
rest stay for next time.
`,
	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReprocess()
	},
}

func init() {
	rootCmd.AddCommand(reprocessCmd)
	addQueueFlags(reprocessCmd)
}

func runReprocess() error {
	ctx, stop := signalContext()
	defer stop()

	s, err := openSite(true)
	if err != nil {
		return err
	}
	defer s.Close()

	queue, err := openQueue(ctx)
	if err != nil {
		return err
	}
	runner, err := newRunner(s, queue)
	if err != nil {
		return err
	}

	rows, err := queue.Rows(ctx)
	if err != nil {
		return fmt.Errorf("cmd: Couldn't read work queue: %w", err)
	}

	summary, err := runner.Reprocess(ctx, rows)
	fmt.Printf("Reprocessing finished: %s\n", summary)
	return err
}
