package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Print the roles and skills in use as YAML",
	Long: "Print the roles and skills in use as YAML. The output is a valid " +
		"--knowledge-file and a starting point for a custom one.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		kb, err := loadKnowledge(viper.GetString("knowledge-file"))
		if err != nil {
			return err
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()

		if err := enc.Encode(kb.Export()); err != nil {
			return fmt.Errorf("encoding knowledge base: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(knowledgeCmd)
}
