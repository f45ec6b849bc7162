package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cml-go/cml/internal/version"
)

// buildField is one piece of build metadata, rendered only when its flag
// (or --full) is set.
type buildField struct {
	flag  string
	label string
	json  string
	value func() string
	show  bool
}

var versionFormat string

func buildFields() []*buildField {
	return []*buildField{
		{flag: "hash", label: "commit", json: "git_commit", value: func() string { return version.GitCommit }},
		{flag: "message", label: "message", json: "git_message", value: func() string { return version.GitMessage }},
		{flag: "date", label: "built", json: "build_date", value: func() string { return version.BuildDate }},
	}
}

func init() {
	for _, f := range buildFields() {
		versionCmd.Flags().Bool(f.flag, false, "include build "+f.label)
	}
	versionCmd.Flags().Bool("full", false, "show every recorded bit of build metadata")
	versionCmd.Flags().StringVar(&versionFormat, "format", "pretty", "output format (pretty|json)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show clmctl build fingerprints",
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(versionFormat)
		if format != "pretty" && format != "json" {
			return fmt.Errorf("unsupported format %q (must be pretty or json)", versionFormat)
		}

		full, _ := cmd.Flags().GetBool("full")
		fields := buildFields()
		any := false
		for _, f := range fields {
			shown, _ := cmd.Flags().GetBool(f.flag)
			f.show = shown || full
			any = any || f.show
		}

		if format == "json" {
			return renderVersionJSON(cmd.OutOrStdout(), fields)
		}
		renderVersionPretty(cmd.OutOrStdout(), fields, any)
		return nil
	},
}

func shownVersion() string {
	v := strings.TrimSpace(version.Version)
	if v == "" {
		return "dev"
	}
	return v
}

func renderVersionPretty(out io.Writer, fields []*buildField, anyShown bool) {
	fmt.Fprintf(out, "clmctl %s\n", shownVersion())
	fmt.Fprintf(out, "workers default to GOMAXPROCS (%d on this host)\n", runtime.GOMAXPROCS(0))
	for _, f := range fields {
		if f.show {
			fmt.Fprintf(out, "%s: %s\n", f.label, valueOrUnknown(f.value()))
		}
	}
	if !anyShown {
		fmt.Fprintln(out, "set --hash, --message, --date, or --full for more build trivia")
	}
}

func renderVersionJSON(out io.Writer, fields []*buildField) error {
	payload := map[string]any{
		"tool":            "clmctl",
		"version":         shownVersion(),
		"default_workers": runtime.GOMAXPROCS(0),
	}
	for _, f := range fields {
		if f.show {
			payload[f.json] = valueOrUnknown(f.value())
		}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
