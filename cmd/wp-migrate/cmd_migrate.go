package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate every pending row of the work queue",
	Long: `
Reads the work queue and migrates each pending row (no Post ID yet, or Process First ticked),
shallowest destinations first, so parents are in place before their children look for them.  The
new post ID, link and date are written back to the queue after every tree level.

In Move mode, rows whose parent pages don't exist are listed in the missing-ancestors log; create
the parents by hand and run "wp-migrate reprocess".  In Create mode missing parents are made as
placeholder pages.
`,
	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	addQueueFlags(migrateCmd)
}

func runMigrate() error {
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
	debugLog("Queue has %d rows.\n", len(rows))

	summary, err := runner.Run(ctx, rows)
	fmt.Printf("Migration finished: %s\n", summary)
	if summary.MissingAncestor > 0 {
		fmt.Printf("%d rows are waiting for parent pages, see %s.\n", summary.MissingAncestor, runner.Missing.Path)
	}
	return err
}
