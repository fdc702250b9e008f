package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "schema-reviewer",
	Short: "A PostgreSQL DDL review tool",
	Long: `Schema Reviewer analyzes PostgreSQL DDL files against a catalog of
schema-quality rules: naming conventions, constraint hygiene, index
coverage, and row-level-security posture.

It is built for CI: deterministic output, configurable severities, and a
non-zero exit code when errors are found.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().Bool("verbose", false, "enable verbose output")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug output")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	viper.SetEnvPrefix("SCHEMA_REVIEWER")
	viper.AutomaticEnv()
}
