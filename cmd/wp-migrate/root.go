package main

import (
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/fatih/structs"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

var (
	// Store the result of binding cobra flags
	Config string
	Debug  bool

	// Command to run to retrieve the WordPress application password
	AuthPasswordCmd []string

	AuthUsername   string
	WordpressURL   string
	TLSInsecure    bool
	AnonymousReads bool

	ParsedConfig YamlConfig
)

// Build the cobra command that handles our command line tool.
var rootCmd = &cobra.Command{
	Use:   "wp-migrate",
	Short: "Move an old site's pages into a WordPress page tree",
	Long: `
Works through a queue of old-site URLs (a CSV export or a Google Sheets range), finds or builds
each destination's place in the WordPress page hierarchy, and writes the migrated page there.
Rows whose parents don't exist yet are parked in a log so you can reprocess them later.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initializeConfig(cmd); err != nil {
			return fmt.Errorf("wp-migrate: failed to initialise config: %w", err)
		}
		return nil
	},
}

func init() {
	// Define cobra flags, the default value has the lowest (least significant) precedence
	rootCmd.PersistentFlags().StringVar(&Config, "config", "", "config file location (default: ~/.config/wp-migrate.yaml, respects WP_MIGRATE_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "display debug output")
	rootCmd.PersistentFlags().StringVar(&WordpressURL, "wordpress-url", "", "root of the target WordPress site, e.g. https://staging.example.edu")
	rootCmd.PersistentFlags().StringVar(&AuthUsername, "auth-username", "", "WordPress username owning the application password")
	rootCmd.PersistentFlags().StringSliceVar(&AuthPasswordCmd, "auth-password-cmd", []string{}, "shell command to retrieve the WordPress application password (WP_MIGRATE_PASSWORD wins if set)")
	rootCmd.PersistentFlags().BoolVar(&TLSInsecure, "tls-insecure-skip-verify", false, "accept self-signed certificates, for staging sites only")
	rootCmd.PersistentFlags().BoolVar(&AnonymousReads, "anonymous-reads", false, "send page listings without credentials")
}

func initializeConfig(cmd *cobra.Command) error {
	// a .env next to the queue is handy for WP_MIGRATE_PASSWORD; it's fine if there isn't one
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("wp-migrate: couldn't load .env: %w", err)
	}

	explicit := Config != ""
	if Config == "" {
		// Did the user provide an ENV?
		envConfig := os.Getenv("WP_MIGRATE_CONFIG")
		if envConfig != "" {
			Config = envConfig
			explicit = true
		} else {
			// As fallback, search for config in home XDG-ish directory
			Config = "~/.config/wp-migrate.yaml"
		}
	}
	config, err := homedir.Expand(Config)
	if err != nil {
		return fmt.Errorf("wp-migrate: unable to expand homedir: %w", err)
	}
	Config = config

	if _, err := os.Stat(Config); errors.Is(err, os.ErrNotExist) {
		if explicit {
			return fmt.Errorf("wp-migrate: specified config file does not exist: %w", err)
		}
		// flags alone are a valid way to run this
		debugLog("No config file at %s, using flags only.\n", Config)
		return nil
	}

	yamlFile, err := os.ReadFile(Config)
	if err != nil {
		return fmt.Errorf("wp-migrate: error reading config file: %w", err)
	}

	// I'd like to bark if a user sets a key we don't recognise:
	if err := yaml.UnmarshalStrict(yamlFile, &ParsedConfig); err != nil {
		return fmt.Errorf("wp-migrate: issue parsing config file: %w", err)
	}

	if err := bindFlags(cmd, ParsedConfig); err != nil {
		return fmt.Errorf("wp-migrate: failed to bind flags: %w", err)
	}

	return nil
}

type YamlConfig struct {
	TLSInsecure    *bool `yaml:"tls-insecure-skip-verify"`
	AnonymousReads *bool `yaml:"anonymous-reads"`
	UploadImages   *bool `yaml:"upload-images"`
	WithVCR        *bool `yaml:"with-vcr"`

	Workers *int `yaml:"workers"`
	MenuID  *int `yaml:"menu-id"`

	WordpressURL     string   `yaml:"wordpress-url"`
	AuthUsername     string   `yaml:"auth-username"`
	AuthPasswordCmd  []string `yaml:"auth-password-cmd"`
	CreateDelay      string   `yaml:"create-delay"`
	QueueCSV         string   `yaml:"queue-csv"`
	SheetID          string   `yaml:"sheet-id"`
	SheetRange       string   `yaml:"sheet-range"`
	SheetCredentials string   `yaml:"sheet-credentials"`
	MissingLog       string   `yaml:"missing-log"`
	PreviewStore     string   `yaml:"preview-store"`
	ContentSelector  string   `yaml:"content-selector"`
}

// Copy config file values onto every flag the user didn't set on the command line.
func bindFlags(cmd *cobra.Command, v YamlConfig) error {
	for _, field := range structs.Fields(v) {
		key := field.Tag("yaml")
		if key == "" {
			return fmt.Errorf("wp-migrate: could not retrieve struct tag 'yaml'")
		}
		if flag := cmd.Flag(key); flag == nil {
			// e.g. `resolve` has no --workers, but the YAML file may well set it
			continue
		}
		if cmd.Flags().Changed(key) {
			continue
		}

		switch field.Kind() {
		case reflect.Ptr:
			switch p := field.Value().(type) {
			case *bool:
				if p != nil {
					cmd.Flags().Set(key, fmt.Sprintf("%v", *p))
				}
			case *int:
				if p != nil {
					cmd.Flags().Set(key, fmt.Sprintf("%d", *p))
				}
			default:
				return fmt.Errorf("wp-migrate: found unrecognised field: %+v", field)
			}

		case reflect.String:
			s, ok := field.Value().(string)
			if !ok {
				return fmt.Errorf("wp-migrate: found unrecognised field: %+v", field)
			}
			if s != "" {
				if err := cmd.Flags().Set(key, s); err != nil {
					return fmt.Errorf("wp-migrate: bad value for %s in config: %w", key, err)
				}
			}

		case reflect.Slice:
			ss, ok := field.Value().([]string)
			if !ok {
				return fmt.Errorf("wp-migrate: found unrecognised field: %+v", field)
			}
			for _, s := range ss {
				// repeatedly calling Set() appends to the slice
				cmd.Flags().Set(key, s)
			}

		default:
			return fmt.Errorf("wp-migrate: found unrecognised field: %+v", field)
		}
	}

	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("wp-migrate: execution error: %w", err)
	}

	return nil
}
