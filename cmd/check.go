package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/nsxbet/schema-reviewer/pkg/logger"
	"github.com/nsxbet/schema-reviewer/pkg/reviewer"
	"github.com/nsxbet/schema-reviewer/pkg/types"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <ddl-file>...",
	Short: "Check PostgreSQL DDL files against the rule catalog",
	Long: `Check one or more PostgreSQL DDL files against the configured rules.

All files are analyzed as a single schema, so cross-file references
(foreign keys, indexes, policies) resolve. The command exits non-zero
when ERROR-level findings are produced; warnings fail the run only with
--fail-on-warning.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	// Flags for check command
	checkCmd.Flags().StringP("rules", "r", "", "path to a rule override file (YAML or JSON)")
	checkCmd.Flags().StringP("output", "o", "text", "output format (text, json, yaml)")
	checkCmd.Flags().Bool("fail-on-warning", false, "exit with non-zero code if warnings are found")

	// Bind flags to viper
	_ = viper.BindPFlag("rules", checkCmd.Flags().Lookup("rules"))
	_ = viper.BindPFlag("output", checkCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("fail-on-warning", checkCmd.Flags().Lookup("fail-on-warning"))
}

func runCheck(cmd *cobra.Command, args []string) error {
	// Initialize logger
	logLevel := slog.LevelWarn
	if viper.GetBool("debug") {
		logLevel = slog.LevelDebug
	} else if viper.GetBool("verbose") {
		logLevel = slog.LevelInfo
	}
	log := logger.NewWithLevel(logLevel)

	log.Debug("starting check command", "files", args)

	r := reviewer.New()
	if rulesPath := viper.GetString("rules"); rulesPath != "" {
		log.Debug("applying rule overrides", "path", rulesPath)
		if err := r.WithConfig(rulesPath); err != nil {
			return err
		}
	}

	sources, err := readSources(args)
	if err != nil {
		return err
	}

	report, err := r.Review(context.Background(), sources...)
	if err != nil {
		return err
	}
	log.Debug("review finished", "findings", report.Summary.Total)

	if err := outputReport(report, viper.GetString("output")); err != nil {
		return err
	}

	if report.HasErrors() || viper.GetBool("fail-on-warning") && report.HasWarnings() {
		os.Exit(1)
	}
	return nil
}

func readSources(paths []string) ([]reviewer.Source, error) {
	sources := make([]reviewer.Source, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read DDL file: %s", path)
		}
		sources = append(sources, reviewer.Source{Name: path, SQL: string(content)})
	}
	return sources, nil
}

func outputReport(report *reviewer.Report, format string) error {
	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal report to JSON")
		}
		fmt.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(report)
		if err != nil {
			return errors.Wrap(err, "failed to marshal report to YAML")
		}
		fmt.Print(string(data))
	case "text":
		outputText(report)
	default:
		return errors.Errorf("unsupported output format: %s", format)
	}
	return nil
}

func outputText(report *reviewer.Report) {
	if report.Summary.Total == 0 {
		fmt.Println("No issues found.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"File", "Errors", "Warnings", "Infos", "Total"})
	for _, fs := range report.Files {
		t.AppendRow(table.Row{fs.File, fs.Errors, fs.Warnings, fs.Infos, fs.Total})
	}
	s := report.Summary
	t.AppendFooter(table.Row{"Total", s.Errors, s.Warnings, s.Infos, s.Total})
	t.Render()
	fmt.Println()

	for _, severity := range []types.Severity{types.Severity_ERROR, types.Severity_WARNING, types.Severity_INFO} {
		diags := report.BySeverity(severity)
		if len(diags) == 0 {
			continue
		}
		fmt.Printf("%s (%d)\n", severity, len(diags))
		for _, d := range diags {
			fmt.Printf("  %s  %s  %s\n", d.Location(), d.RuleID, d.Message)
			if d.Fix != "" {
				fmt.Printf("    fix: %s\n", d.Fix)
			}
		}
		fmt.Println()
	}

	fmt.Println(report.String())
}
