// intercept CLI - inspect and lint recorded stub files
package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/intercept/pkg/logging"
	"github.com/getmockd/intercept/pkg/recorder"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "intercept",
	Short: "Work with recorded HTTP stub files",
	Long: `Work with YAML stub files produced by the recorder.

Examples:
  # Validate stub files before committing them
  intercept lint testdata/stubs.yaml

  # Show what a stub file registers
  intercept show testdata/stubs.yaml`,
	SilenceUsage: true,
}

var lintCmd = &cobra.Command{
	Use:   "lint FILE...",
	Short: "Validate stub files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.New(logging.Config{Level: logging.ParseLevel(logLevel), Output: os.Stderr})
		failed := false
		for _, path := range args {
			stubs, err := recorder.ParseFile(path)
			if err != nil {
				log.Error("stub file unreadable", "file", path, "error", err)
				failed = true
				continue
			}
			problems := 0
			for i, s := range stubs {
				for _, msg := range lintStub(s) {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: stub %d: %s\n", path, i, msg)
					problems++
				}
			}
			if problems == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d stubs OK\n", path, len(stubs))
			} else {
				failed = true
			}
		}
		if failed {
			return fmt.Errorf("lint failed")
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show FILE",
	Short: "Print the responders a stub file registers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stubs, err := recorder.ParseFile(args[0])
		if err != nil {
			return err
		}
		for _, s := range stubs {
			ct := s.ContentType
			if ct == "" {
				ct = "-"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-7s %-50s %3d  %-30s %d bytes\n",
				s.Method, s.URL, s.Status, ct, len(s.Body))
		}
		return nil
	},
}

var knownMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodHead:    {},
	http.MethodOptions: {},
}

func lintStub(s recorder.Stub) []string {
	var problems []string
	if _, ok := knownMethods[s.Method]; !ok {
		problems = append(problems, fmt.Sprintf("unknown method %q", s.Method))
	}
	if u, err := url.Parse(s.URL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("invalid URL %q", s.URL))
	}
	if s.Status < 100 || s.Status > 599 {
		problems = append(problems, fmt.Sprintf("status %d out of range", s.Status))
	}
	if len(problems) > 0 {
		return problems
	}
	// Round-trip through the responder constructor to catch option
	// conflicts the field checks above can't see.
	if _, err := s.Responder(); err != nil {
		problems = append(problems, err.Error())
	}
	return problems
}

func main() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(lintCmd, showCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
