package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mhon-emma/Impact-Venture/internal/analysis"
	"github.com/mhon-emma/Impact-Venture/internal/enrich"
	"github.com/mhon-emma/Impact-Venture/internal/utils"
)

var (
	abOutDir      string
	abJSON        bool
	abTables      string
	abMatch       string
	abKeywords    string
	abConcurrency int
	abRPS         float64
	abQuiet       bool
	abEnrich      enrichOptions
)

// batchItem is the outcome for one input file.
type batchItem struct {
	path string
	out  []byte
	err  error
}

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files/globs...>",
	Short: "Analyze many financial models concurrently",
	Example: `  finmodel analyze-batch 'models/*.xlsx' --out-dir reports
  finmodel analyze-batch a.xlsx b.xlsx --json --concurrency 2 --enrich --rps 0.5`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := utils.ExpandInputs(args)
		if err != nil {
			return err
		}
		c := currentConfig()
		opt, err := heuristicOptions(c, abTables, abMatch, abKeywords)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		var enricher *enrich.Enricher
		var provider string
		if abEnrich.Enabled {
			rps := abRPS
			if !cmd.Flags().Changed("rps") {
				rps = c.EnrichRPS
			}
			enricher, provider, err = newEnricher(c, abEnrich, enrich.NewLimiter(rps))
			if err != nil {
				return err
			}
		}

		items := make([]batchItem, len(files))
		var progressMu sync.Mutex
		progress := func(format string, a ...any) {
			if abQuiet {
				return
			}
			progressMu.Lock()
			defer progressMu.Unlock()
			fmt.Fprintf(os.Stderr, format, a...)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(max(abConcurrency, 1))
		total := len(files)
		for i, path := range files {
			i, path := i, path
			g.Go(func() error {
				progress("[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
				items[i] = analyzeOne(gctx, path, opt, enricher, provider)
				// per-file failures are reported below; only cancellation stops the batch
				return gctx.Err()
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		failed := 0
		for _, it := range items {
			if it.err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "✗ %s: %v\n", it.path, it.err)
				continue
			}
			if err := emitBatchItem(cmd.OutOrStdout(), it); err != nil {
				return err
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, total)
		}
		return nil
	},
}

func analyzeOne(ctx context.Context, path string, opt analysis.Options, e *enrich.Enricher, provider string) batchItem {
	it := batchItem{path: path}
	wb, res, err := analyzeFile(ctx, path, opt)
	if err != nil {
		it.err = err
		return it
	}
	if e != nil {
		var w io.Writer
		if !abQuiet {
			w = os.Stderr
		}
		res, err = enrichOrKeep(ctx, e, provider, abEnrich, wb, res, w)
		if err != nil {
			warnEnrichment(path, err)
		}
	}
	it.out, it.err = render(res, abJSON)
	return it
}

// emitBatchItem writes one report to --out-dir or to w in input order.
func emitBatchItem(w io.Writer, it batchItem) error {
	if abOutDir == "" {
		if !abJSON {
			fmt.Fprintf(w, "===== %s =====\n", it.path)
		}
		fmt.Fprintln(w, string(it.out))
		return nil
	}
	base := strings.TrimSuffix(filepath.Base(it.path), filepath.Ext(it.path))
	ext := ".analysis.md"
	if abJSON {
		ext = ".analysis.json"
	}
	dest := filepath.Join(abOutDir, base+ext)
	if err := utils.SafeWriteFile(dest, it.out); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	if !abQuiet {
		fmt.Fprintf(w, "✓ Wrote %s\n", dest)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVar(&abOutDir, "out-dir", "", "directory to write one report per input (default: stdout)")
	analyzeBatchCmd.Flags().BoolVar(&abJSON, "json", false, "emit JSON instead of Markdown")
	analyzeBatchCmd.Flags().StringVar(&abTables, "tables", "", "cash-flow tables to keep: first|all (default from config)")
	analyzeBatchCmd.Flags().StringVar(&abMatch, "match", "", "keyword matching: substring|word (default from config)")
	analyzeBatchCmd.Flags().StringVar(&abKeywords, "keywords", "", "YAML file overriding the keyword sets")
	analyzeBatchCmd.Flags().IntVar(&abConcurrency, "concurrency", 4, "files analyzed in parallel")
	analyzeBatchCmd.Flags().Float64Var(&abRPS, "rps", 0, "max enrichment requests per second across the batch (0 = config enrich_rps)")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
	addEnrichFlags(analyzeBatchCmd, &abEnrich)
}
