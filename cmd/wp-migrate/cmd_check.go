package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/toothbrush/wp-migrate/wordpress"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the site is reachable and the account may migrate",
	Long: `
Logs in, lists the capabilities a migration needs, and probes the page listing with the same
settings a run would use.  Run this first against a new staging site.
`,
	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck()
	},
}

// What a migration run asks of the account.
var neededCapabilities = []string{"edit_pages", "publish_pages", "edit_published_pages", "upload_files", "edit_theme_options"}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck() error {
	ctx, stop := signalContext()
	defer stop()

	s, err := openSite(true)
	if err != nil {
		return err
	}
	defer s.Close()

	user, err := s.API.CurrentUser(ctx)
	if err != nil {
		var remote *wordpress.RemoteError
		if errors.As(err, &remote) && remote.Forbidden() {
			fmt.Println("The site refused our credentials.  Check the username and application password, and that")
			fmt.Println("application passwords aren't disabled by a security plugin.")
		}
		return fmt.Errorf("cmd: Couldn't query current user: %w", err)
	}
	fmt.Printf("Logged in to %s as '%s' (id %d, roles %v)\n", s.API.BaseURI, user.Name, user.ID, user.Roles)

	missing := 0
	for _, c := range neededCapabilities {
		mark := "ok"
		if !user.Can(c) {
			mark = "MISSING"
			missing++
		}
		fmt.Printf("  %-22s %s\n", c, mark)
	}

	probe := wordpress.ListPagesQuery{PerPage: 1, Fields: "id,link", Status: readStatuses(s.API)}
	resp, err := s.API.ListPagesPage(ctx, probe)
	if err != nil {
		return fmt.Errorf("cmd: Page listing failed: %w", err)
	}
	fmt.Printf("Page listing works: %d pages visible", resp.Total)
	if len(probe.Status) > 0 {
		fmt.Printf(" (trashed pages included)")
	}
	fmt.Println()

	if missing > 0 {
		return fmt.Errorf("account lacks %d capabilities a migration needs", missing)
	}
	return nil
}
