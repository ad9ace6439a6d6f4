package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mhon-emma/Impact-Venture/internal/analysis"
	"github.com/mhon-emma/Impact-Venture/internal/utils"
	"github.com/mhon-emma/Impact-Venture/internal/workbook"
)

var (
	pairsJSON  bool
	pairsSheet string
)

var pairsCmd = &cobra.Command{
	Use:   "pairs <file>",
	Short: "List label/number pairs split into hardcoded and formula-generated values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wb, err := workbook.Load(args[0])
		if err != nil {
			return err
		}
		if pairsSheet != "" {
			s := wb.Sheet(pairsSheet)
			if s == nil {
				return fmt.Errorf("sheet %q not found in %s", pairsSheet, wb.Name)
			}
			wb.Sheets = []*workbook.Sheet{s}
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		pairs, err := analysis.ScanPairs(ctx, wb)
		if err != nil {
			return err
		}
		res := analysis.NewResult(wb.Name, analysis.SourceHeuristic)
		res.Pairs = append(res.Pairs, pairs...)
		hard, formula := res.Hardcoded(), res.FormulaDerived()

		w := cmd.OutOrStdout()
		if pairsJSON {
			b, err := utils.PrettyJSON(map[string]any{
				"workbook":  wb.Name,
				"hardcoded": nonNil(hard),
				"formula":   nonNil(formula),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(w, string(b))
			return nil
		}
		fmt.Fprintln(w, "HARDCODED KEYWORD-NUMBER PAIRS:")
		for _, p := range hard {
			fmt.Fprintf(w, "%s: %s (at %s)\n", p.Keyword, workbook.FormatNumber(p.Value), p.Location.A1())
		}
		fmt.Fprintln(w, "\nFORMULA-GENERATED KEYWORD-NUMBER PAIRS:")
		for _, p := range formula {
			fmt.Fprintf(w, "%s: %s (formula: %s at %s)\n", p.Keyword, workbook.FormatNumber(p.Value), p.Formula, p.Location.A1())
		}
		return nil
	},
}

func nonNil(ps []analysis.KeywordValuePair) []analysis.KeywordValuePair {
	if ps == nil {
		return []analysis.KeywordValuePair{}
	}
	return ps
}

func init() {
	rootCmd.AddCommand(pairsCmd)
	pairsCmd.Flags().BoolVar(&pairsJSON, "json", false, "emit JSON")
	pairsCmd.Flags().StringVar(&pairsSheet, "sheet", "", "scan only the named sheet")
}
