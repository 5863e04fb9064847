package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"
	"gopkg.in/dnaeon/go-vcr.v3/cassette"
	"gopkg.in/dnaeon/go-vcr.v3/recorder"

	"github.com/toothbrush/wp-migrate/content"
	"github.com/toothbrush/wp-migrate/migrate"
	"github.com/toothbrush/wp-migrate/pagetree"
	"github.com/toothbrush/wp-migrate/wordpress"
	"github.com/toothbrush/wp-migrate/worksheet"
)

var WithVCR bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&WithVCR, "with-vcr", false, "use go-vcr to record and replay HTTP traffic under fixtures/")
}

// Flags shared by the commands that work through the queue.
var (
	Workers          int
	CreateDelay      time.Duration
	QueueCSV         string
	SheetID          string
	SheetRange       string
	SheetCredentials string
	MissingLogPath   string
	PreviewStore     string
	ContentSelector  string
	UploadImages     bool
	MenuID           int
)

func addQueueFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&Workers, "workers", 4, "rows migrated concurrently within one tree level")
	cmd.Flags().DurationVar(&CreateDelay, "create-delay", time.Second, "pause before each page creation, so the site's caches catch up")
	cmd.Flags().StringVar(&QueueCSV, "queue-csv", "", "work queue as a CSV export of the sheet")
	cmd.Flags().StringVar(&SheetID, "sheet-id", "", "work queue as a Google Sheets spreadsheet ID")
	cmd.Flags().StringVar(&SheetRange, "sheet-range", "Sheet1", "A1 range of the queue, header row included")
	cmd.Flags().StringVar(&SheetCredentials, "sheet-credentials", "", "service account JSON for the Sheets API")
	cmd.Flags().StringVar(&MissingLogPath, "missing-log", "missing-ancestors.txt", "where rows with missing ancestors are listed")
	cmd.Flags().StringVar(&PreviewStore, "preview-store", "", "directory for Markdown previews of migrated pages (off when empty)")
	cmd.Flags().StringVar(&ContentSelector, "content-selector", content.DefaultSelector, "CSS selector for the main content of old-site pages")
	cmd.Flags().BoolVar(&UploadImages, "upload-images", false, "copy referenced images into the media library")
	cmd.Flags().IntVar(&MenuID, "menu-id", 0, "menu that Main Menu rows are added to (0 to skip)")
}

// signalContext is cancelled on SIGINT or SIGTERM.  In-flight rows still finish and get recorded.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func passwordFromEnv() string {
	return strings.TrimSpace(os.Getenv("WP_MIGRATE_PASSWORD"))
}

func readPassword() (string, error) {
	if p := passwordFromEnv(); p != "" {
		debugLog("Using application password from WP_MIGRATE_PASSWORD.\n")
		return p, nil
	}
	if len(AuthPasswordCmd) < 1 {
		return "", nil
	}

	out, err := exec.Command(AuthPasswordCmd[0], AuthPasswordCmd[1:]...).Output()
	if err != nil {
		return "", fmt.Errorf("cmd: Couldn't execute auth-password-cmd '%v': %w", AuthPasswordCmd, err)
	}
	return strings.Split(string(out), "\n")[0], nil
}

// site is a configured WordPress client plus the HTTP client everything else should share, so
// that --with-vcr records the whole session.
type site struct {
	API    *wordpress.API
	Client *http.Client

	stop func() error
}

func (s *site) Close() {
	if s.stop == nil {
		return
	}
	if err := s.stop(); err != nil {
		debugLog("Couldn't save go-vcr cassette: %v\n", err)
	}
}

// openSite validates the connection settings and builds the client.  Nothing touches the network
// here.
func openSite(needWrite bool) (*site, error) {
	if WordpressURL == "" {
		return nil, fmt.Errorf("no WordPress site configured.  Use --wordpress-url or set it in your config file")
	}

	password, err := readPassword()
	if err != nil {
		return nil, err
	}
	if needWrite && (AuthUsername == "" || password == "") {
		return nil, fmt.Errorf("this command writes to WordPress: set --auth-username and --auth-password-cmd (or WP_MIGRATE_PASSWORD)")
	}

	api, err := wordpress.NewAPI(wordpress.Options{
		BaseURL:            WordpressURL,
		Username:           AuthUsername,
		Password:           password,
		InsecureSkipVerify: TLSInsecure,
		AnonymousReads:     AnonymousReads,
		UserAgent:          "wp-migrate/" + shortVersion(),
	})
	if err != nil {
		return nil, fmt.Errorf("cmd: WordPress API creation failed: %w", err)
	}
	if TLSInsecure {
		fmt.Fprintf(os.Stderr, "WARNING: not verifying TLS certificates for %s\n", api.BaseURI.Host)
	}

	s := &site{API: api, Client: &http.Client{Transport: api.Client.Transport}}

	if WithVCR {
		opts := &recorder.Options{
			CassetteName:       "fixtures/wp-migrate",
			Mode:               recorder.ModeReplayWithNewEpisodes,
			SkipRequestLatency: true,
			RealTransport:      api.Client.Transport,
		}
		r, err := recorder.NewWithOptions(opts)
		if err != nil {
			return nil, fmt.Errorf("cmd: Couldn't set up go-vcr recording: %w", err)
		}

		// Add a hook which removes Authorization headers from all requests
		hook := func(i *cassette.Interaction) error {
			delete(i.Request.Headers, "Authorization")
			return nil
		}
		r.AddHook(hook, recorder.AfterCaptureHook)
		r.SetReplayableInteractions(true)

		vcrClient := r.GetDefaultClient()
		vcrClient.Timeout = api.Client.Timeout
		api.Client = vcrClient
		s.Client = r.GetDefaultClient()
		s.stop = r.Stop
	}

	return s, nil
}

// basePath is the site's own directory, for WordPress installs that don't live at the host root.
func basePath(api *wordpress.API) []string {
	p := strings.Trim(api.BaseURI.Path, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// readStatuses is what the resolver lists.  Trashed pages only show up for authenticated reads.
func readStatuses(api *wordpress.API) []string {
	if AnonymousReads || !api.HasCredentials() {
		return nil
	}
	return []string{"publish", "future", "draft", "pending", "private", "trash"}
}

func openQueue(ctx context.Context) (worksheet.Queue, error) {
	switch {
	case QueueCSV != "" && SheetID != "":
		return nil, fmt.Errorf("pick one work queue: --queue-csv or --sheet-id, not both")

	case QueueCSV != "":
		p, err := homedir.Expand(QueueCSV)
		if err != nil {
			return nil, fmt.Errorf("cmd: Couldn't expand homedir: %w", err)
		}
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("cmd: Couldn't stat queue %s: %w", p, err)
		}
		debugLog("Reading queue from %s\n", p)
		return worksheet.NewCSV(p), nil

	case SheetID != "":
		opts := []option.ClientOption{}
		if SheetCredentials != "" {
			p, err := homedir.Expand(SheetCredentials)
			if err != nil {
				return nil, fmt.Errorf("cmd: Couldn't expand homedir: %w", err)
			}
			opts = append(opts, option.WithCredentialsFile(p))
		}
		debugLog("Reading queue from spreadsheet %s, range %s\n", SheetID, SheetRange)
		return worksheet.NewSheet(ctx, SheetID, SheetRange, opts...)
	}

	return nil, fmt.Errorf("no work queue configured.  Use --queue-csv or --sheet-id")
}

// newRunner puts the whole pipeline together from the flags.
func newRunner(s *site, queue worksheet.Queue) (*migrate.Runner, error) {
	if Workers < 1 {
		return nil, fmt.Errorf("--workers must be at least 1, got %d", Workers)
	}
	if MenuID < 0 {
		return nil, fmt.Errorf("--menu-id can't be negative")
	}

	logger := newLogger()
	r := migrate.NewRunner(s.API, CreateDelay, logger)
	r.Builder.Resolver.BasePath = basePath(s.API)
	r.Builder.Resolver.Statuses = readStatuses(s.API)

	r.Source = content.NewFetcher(s.Client, s.API.UserAgent)
	r.Transformer = content.NewTransformer(ContentSelector)
	r.Queue = queue
	r.Workers = Workers
	r.Progress = os.Stderr

	missingPath, err := homedir.Expand(MissingLogPath)
	if err != nil {
		return nil, fmt.Errorf("cmd: Couldn't expand homedir: %w", err)
	}
	if r.Missing, err = migrate.OpenMissingLog(missingPath); err != nil {
		return nil, err
	}

	if UploadImages {
		r.Images = content.NewImageMigrator(s.API, s.Client, s.API.UserAgent, logger)
	}
	if MenuID > 0 {
		r.Menus = s.API
		r.MenuID = MenuID
	}

	if PreviewStore != "" {
		storePath, err := homedir.Expand(PreviewStore)
		if err != nil {
			return nil, fmt.Errorf("cmd: Couldn't expand homedir: %w", err)
		}
		if _, err := os.Stat(storePath); err != nil {
			return nil, fmt.Errorf("cmd: Couldn't stat preview store %s: %w", storePath, err)
		}
		r.Preview = &content.Preview{StorePath: storePath, SiteURL: s.API.BaseURI, Enabled: true}
	}

	return r, nil
}

func newResolverTree(s *site, createDelay time.Duration) (*pagetree.Builder, *pagetree.Resolver) {
	logger := newLogger()
	cache := pagetree.NewCache()
	resolver := pagetree.NewResolver(s.API, cache, logger)
	resolver.BasePath = basePath(s.API)
	resolver.Statuses = readStatuses(s.API)
	creator := pagetree.NewCreator(s.API, cache, resolver, createDelay, logger)
	return pagetree.NewBuilder(cache, resolver, creator, logger), resolver
}
