package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mhon-emma/Impact-Venture/internal/analysis"
	cfgpkg "github.com/mhon-emma/Impact-Venture/internal/config"
	"github.com/mhon-emma/Impact-Venture/internal/utils"
	"github.com/mhon-emma/Impact-Venture/internal/workbook"
)

var (
	anaOutputPath string
	anaJSON       bool
	anaTables     string
	anaMatch      string
	anaKeywords   string
	anaQuiet      bool
	anaEnrich     enrichOptions
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|->",
	Short: "Extract assumptions, returns and cash flows from a financial model",
	Example: `  finmodel analyze model.xlsx
  finmodel analyze model.xlsx --json -o model.json
  cat model.xlsx | finmodel analyze -
  finmodel analyze model.xlsx --tables all --match word
  finmodel analyze model.xlsx --enrich --provider ollama --model llama3:latest`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		c := currentConfig()
		opt, err := heuristicOptions(c, anaTables, anaMatch, anaKeywords)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		wb, res, err := analyzeFile(ctx, path, opt)
		if err != nil {
			return err
		}
		if anaEnrich.Enabled {
			e, provider, err := newEnricher(c, anaEnrich, nil)
			if err != nil {
				return err
			}
			var progress io.Writer
			if !anaQuiet {
				progress = os.Stderr
			}
			res, err = enrichOrKeep(ctx, e, provider, anaEnrich, wb, res, progress)
			if err != nil {
				warnEnrichment(path, err)
			}
		}

		out, err := render(res, anaJSON)
		if err != nil {
			return err
		}
		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			if !anaQuiet {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
			}
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

// heuristicOptions merges flags over config for one run.
func heuristicOptions(c *cfgpkg.Global, tables, match, keywordsFile string) (analysis.Options, error) {
	opt := analysis.DefaultOptions()
	opt.Logger = logger
	if tables == "" {
		tables = c.TableMode
	}
	tm, err := analysis.ParseTableMode(tables)
	if err != nil {
		return opt, err
	}
	opt.TableMode = tm
	if match == "" {
		match = c.MatchMode
	}
	mm, err := analysis.ParseMatchMode(match)
	if err != nil {
		return opt, err
	}
	opt.MatchMode = mm
	if keywordsFile == "" {
		keywordsFile = c.KeywordsFile
	}
	if keywordsFile != "" {
		ks, err := analysis.LoadKeywordSets(keywordsFile)
		if err != nil {
			return opt, err
		}
		opt.Keywords = ks
	}
	return opt, nil
}

// analyzeFile loads one workbook ("-" reads stdin) and runs the heuristic
// extraction. Extraction warnings are logged, not returned.
func analyzeFile(ctx context.Context, path string, opt analysis.Options) (*workbook.Workbook, *analysis.Result, error) {
	var (
		wb  *workbook.Workbook
		err error
	)
	if path == "-" {
		wb, err = workbook.LoadReader("stdin", os.Stdin)
	} else {
		wb, err = workbook.Load(path)
	}
	if err != nil {
		return nil, nil, err
	}
	res, err := analysis.Extract(ctx, wb, opt)
	if err != nil {
		return wb, nil, fmt.Errorf("extract %s: %w", path, err)
	}
	for _, w := range res.Warnings {
		logger.Warn("extraction warning", "file", path, "sheet", w.Sheet, "detail", w.Error())
	}
	return wb, res, nil
}

// render returns the result as indented JSON or Markdown.
func render(res *analysis.Result, asJSON bool) ([]byte, error) {
	if asJSON {
		return res.JSON()
	}
	return []byte(res.Markdown()), nil
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the analysis")
	analyzeCmd.Flags().BoolVar(&anaJSON, "json", false, "emit JSON instead of Markdown")
	analyzeCmd.Flags().StringVar(&anaTables, "tables", "", "cash-flow tables to keep: first|all (default from config)")
	analyzeCmd.Flags().StringVar(&anaMatch, "match", "", "keyword matching: substring|word (default from config)")
	analyzeCmd.Flags().StringVar(&anaKeywords, "keywords", "", "YAML file overriding the keyword sets")
	analyzeCmd.Flags().BoolVarP(&anaQuiet, "quiet", "q", false, "suppress progress and non-essential output")
	addEnrichFlags(analyzeCmd, &anaEnrich)
}

func addEnrichFlags(cmd *cobra.Command, o *enrichOptions) {
	cmd.Flags().BoolVar(&o.Enabled, "enrich", false, "ask an AI runtime for a richer result; the heuristic result is kept on failure")
	cmd.Flags().StringVar(&o.Provider, "provider", "", "AI provider: openrouter|ollama|local (default from config)")
	cmd.Flags().StringVar(&o.Model, "model", "", "model name (default from config)")
	cmd.Flags().IntVar(&o.MaxTokens, "max-tokens", 0, "completion token budget (default from config)")
	cmd.Flags().StringVar(&o.OllamaHost, "ollama-host", "", "Ollama host URL (default from config)")
	cmd.Flags().IntVar(&o.TimeoutSec, "timeout", 180, "enrichment timeout in seconds per workbook")
}
