package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mhon-emma/Impact-Venture/internal/analysis"
)

var kwFile string

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Print the effective keyword sets as YAML",
	Long: `Print the keyword sets the matcher will use. The output is a valid keyword
file: edit it and pass it back with --keywords or config 'keywords_file'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := kwFile
		if path == "" {
			path = currentConfig().KeywordsFile
		}
		ks := analysis.DefaultKeywordSets()
		if path != "" {
			loaded, err := analysis.LoadKeywordSets(path)
			if err != nil {
				return err
			}
			ks = loaded
		}
		b, err := ks.YAML()
		if err != nil {
			return fmt.Errorf("marshal keywords: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(b))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keywordsCmd)
	keywordsCmd.Flags().StringVar(&kwFile, "keywords", "", "YAML keyword file to load instead of the defaults")
}
