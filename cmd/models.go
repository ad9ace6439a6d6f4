package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mhon-emma/Impact-Venture/internal/ai"
)

var modelsJSON bool

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List known models and their context windows",
	Long: `List the models finmodel knows context windows for. Enrichment warns when a
serialized workbook plus --max-tokens would not fit. Other model names still work.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ms := ai.Models()
		w := cmd.OutOrStdout()
		if modelsJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(ms)
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "MODEL\tCONTEXT")
		for _, m := range ms {
			fmt.Fprintf(tw, "%s\t%d\n", m.Name, m.ContextTokens)
		}
		fmt.Fprintf(tw, "\nproviders: %v\n", ai.Providers())
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().BoolVar(&modelsJSON, "json", false, "emit JSON")
}
