package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/warp/leave-engine/factory"
)

var rulesFilePath string

// rulesCmd represents the rules command
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the effective rules JSON",
	Long: `Rules prints the rule set a process run would use, after defaults
are applied, as indented JSON. Useful as a starting point for a custom
rules file:

  leavectl rules > rules.json
  leavectl process roster.xlsx --rules rules.json`,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)

	rulesCmd.Flags().StringVar(&rulesFilePath, "rules", "", "rules JSON file (default: shipped rules)")
}

func runRules(cmd *cobra.Command, args []string) error {
	path := rulesFilePath
	if path == "" {
		path = viper.GetString("rules")
	}
	rules, err := factory.LoadRules(path)
	if err != nil {
		return fmt.Errorf("rules: %w", err)
	}

	out, err := json.MarshalIndent(factory.NewRulesFactory().ToJSON(rules), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
