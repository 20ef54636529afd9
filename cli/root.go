/*
root.go - leavectl command tree

PURPOSE:
  Root command, global flags and configuration wiring for the leavectl
  CLI. Subcommands register themselves from their own files.

CONFIGURATION:
  Hierarchy (highest to lowest priority):
  1. CLI flags
  2. Environment variables (LEAVECTL_*)
  3. Config file ($HOME/.leavectl.yaml)
  4. Defaults

SEE ALSO:
  - process.go: The main processing command
  - rules.go: Effective-rules inspection
  - cmd/leavectl/main.go: Entry point
*/
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "leavectl",
	Short: "leavectl - Structure leave rosters around the accounting boundary",
	Long: `leavectl turns the free-text leave column of an HR roster export into
structured, boundary-respecting leave records.

It parses leave clauses like

    LAP 10 days (26/09/2025FN-05/10/2025AN (O) Sr.DPO)

splits ranges of the configured types at the period-closing boundary, and
writes the structured report as CSV, optionally as PDF. Malformed input
is skipped and reported, never fatal.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "leavectl v1.0.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.leavectl.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for .leavectl.yaml in the home directory
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".leavectl")
	}

	// Read in environment variables that match LEAVECTL_*
	viper.SetEnvPrefix("LEAVECTL")
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}
