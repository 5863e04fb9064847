package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Output current config",
	Long: `
Is something not working for you?  Have a look whether your config is as you expect.  The
password itself is never printed.
`,
	Args: cobra.ExactArgs(0),
	Run: func(cmd *cobra.Command, args []string) {
		// Only persistent flags are visible here, command-specific ones come from the YAML dump.
		fmt.Printf("Dump current config state:\n\n")

		fmt.Printf("  Config file: %s\n", Config)
		fmt.Printf("  Debug: %v\n", Debug)
		fmt.Println()
		fmt.Printf("  WordpressURL: %s\n", WordpressURL)
		fmt.Printf("  AuthUsername: %s\n", AuthUsername)
		fmt.Printf("  AuthPasswordCmd: %v\n", AuthPasswordCmd)
		fmt.Printf("  WP_MIGRATE_PASSWORD set: %v\n", passwordFromEnv() != "")
		fmt.Printf("  TLSInsecureSkipVerify: %v\n", TLSInsecure)
		fmt.Printf("  AnonymousReads: %v\n", AnonymousReads)
		fmt.Println()
		fmt.Printf("  Parsed YAML:\n%s\n", describeYaml(ParsedConfig))
	},
}

func init() {
	configCmd.AddCommand(showCmd)
}

func describeYaml(c YamlConfig) string {
	out := ""
	line := func(k string, v any) {
		out += fmt.Sprintf("    %s: %v\n", k, v)
	}
	if c.Workers != nil {
		line("workers", *c.Workers)
	}
	if c.MenuID != nil {
		line("menu-id", *c.MenuID)
	}
	if c.UploadImages != nil {
		line("upload-images", *c.UploadImages)
	}
	if c.WithVCR != nil {
		line("with-vcr", *c.WithVCR)
	}
	for _, kv := range [][2]string{
		{"create-delay", c.CreateDelay},
		{"queue-csv", c.QueueCSV},
		{"sheet-id", c.SheetID},
		{"sheet-range", c.SheetRange},
		{"sheet-credentials", c.SheetCredentials},
		{"missing-log", c.MissingLog},
		{"preview-store", c.PreviewStore},
		{"content-selector", c.ContentSelector},
	} {
		if kv[1] != "" {
			line(kv[0], kv[1])
		}
	}
	if out == "" {
		return "    (nothing)"
	}
	return out
}
