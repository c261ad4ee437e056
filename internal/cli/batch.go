package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/seoforge/internal/content"
	"github.com/ppiankov/seoforge/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Generate articles for every topic in a file",
	Long: `Batch generates one article per topic concurrently:
- Read topics from the input file (one per line, # for comments)
- Generate with a configurable number of workers
- All workers share one circuit breaker registry and one search cache
- Write <slug>.json and <slug>.html per article

Example:
  seoforge batch topics.txt
  seoforge batch topics.txt --concurrency 4 --output-dir ./articles
  seoforge batch topics.txt --provider deepseek --links targets.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addRequestFlags(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", min(runtime.NumCPU(), 4), "number of concurrent generations")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./seoforge-articles", "output directory for articles")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", time.Hour, "total timeout for the batch")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig(config)
	if err != nil {
		return err
	}
	template, err := buildRequest(cfg)
	if err != nil {
		return err
	}

	topics, err := worker.ReadTopicsFromFile(file)
	if err != nil {
		return fmt.Errorf("read topics: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	logger.Info("batch started",
		zap.String("file", file),
		zap.Int("topics", len(topics)),
		zap.String("provider", string(template.Provider)),
		zap.Int("workers", concurrency),
		zap.String("output_dir", outputDir))

	generator := worker.NewBatchGenerator(newOrchestrator(cfg, logger), concurrency)
	results := generator.RunTopics(ctx, template, topics)

	out := cmd.ErrOrStderr()
	written := 0
	for _, r := range results {
		base, err := writeArticle(outputDir, r)
		if err != nil {
			fmt.Fprintf(out, "FAIL  %s: %v\n", r.Topic, err)
			continue
		}
		written++
		fmt.Fprintf(out, "ok    %s -> %s.{json,html} (%d words, %d attempt(s))\n",
			r.Topic, base, r.Result.Contract.WordCount, r.Result.Attempts)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "\ntopics\t%d\n", len(results))
	fmt.Fprintf(tw, "written\t%d\n", written)
	fmt.Fprintf(tw, "failed\t%d\n", len(results)-written)
	_ = tw.Flush()

	if written == 0 && len(results) > 0 {
		return fmt.Errorf("all %d generations failed", len(results))
	}
	return nil
}

// writeArticle stores one batch result as NNN-slug.json and NNN-slug.html
// and returns the shared path prefix
func writeArticle(dir string, r *worker.GenerateResult) (string, error) {
	if r.Error != nil {
		return "", r.Error
	}
	slug := r.Result.Contract.Slug
	if slug == "" {
		slug = content.Slugify(r.Topic)
	}
	base := filepath.Join(dir, fmt.Sprintf("%03d-%s", r.Index+1, slug))
	if err := writeJSON(r.Result, base+".json"); err != nil {
		return "", err
	}
	if err := os.WriteFile(base+".html", []byte(r.Result.Contract.HTML), 0o644); err != nil {
		return "", fmt.Errorf("write html: %w", err)
	}
	return base, nil
}
