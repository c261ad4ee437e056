package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/seoforge/internal/model"
)

var (
	provider    string
	modelName   string
	targetWords int
	tone        string
	linksFile   string
	currentURL  string
	outJSON     string
	outHTML     string
	strictLinks bool
	timeout     time.Duration
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate <topic>",
	Short: "Generate one SEO article",
	Long: `Generate asks the selected provider for a structured article, heals the
response, joins reference and video discovery, assembles the document and
injects internal links.

Provider keys come from OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY and
DEEPSEEK_API_KEY; discovery needs SERPER_API_KEY.

Example:
  seoforge generate "widget management"
  seoforge generate "sourdough starter" --provider anthropic --html article.html
  seoforge generate "bike maintenance" --links targets.yaml --json article.json`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	addRequestFlags(generateCmd)

	generateCmd.Flags().StringVar(&currentURL, "url", "", "URL the article will be published at (never linked to itself)")
	generateCmd.Flags().StringVar(&outJSON, "json", "", "write the result as JSON to this path (default: stdout)")
	generateCmd.Flags().StringVar(&outHTML, "html", "", "also write the article HTML to this path")
	generateCmd.Flags().DurationVar(&timeout, "timeout", 15*time.Minute, "overall generation timeout")
}

// addRequestFlags registers the flags shared by generate and batch
func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&provider, "provider", "", "LLM provider (openai, anthropic, gemini, deepseek, ollama)")
	cmd.Flags().StringVar(&modelName, "model", "", "model name (default: provider default)")
	cmd.Flags().IntVar(&targetWords, "words", 0, "target word count (default from config)")
	cmd.Flags().StringVar(&tone, "tone", string(model.ToneProfessional), "tone (professional, conversational, academic, friendly)")
	cmd.Flags().StringVar(&linksFile, "links", "", "YAML file of internal link targets")
	cmd.Flags().BoolVar(&strictLinks, "strict-links", false, "require anchors of 3+ words and 15+ characters")
}

// buildRequest turns config, flags and environment into a request template
func buildRequest(cfg *model.Config) (model.GenerationRequest, error) {
	if strictLinks {
		cfg.Links.Strict = true
	}
	cfg.Links = cfg.Links.Tightened()

	p := model.Provider(provider)
	if p == "" {
		p = model.Provider(cfg.LLM.Provider)
	}
	if !p.Valid() {
		return model.GenerationRequest{}, fmt.Errorf("unknown provider %q (supported: openai, anthropic, gemini, deepseek, ollama)", p)
	}
	req := model.GenerationRequest{
		Provider:    p,
		Model:       modelName,
		Credentials: credentialsFromEnv(),
		TargetWords: targetWords,
		Tone:        model.Tone(tone),
		CurrentURL:  currentURL,
	}
	if p.RequiresAPIKey() && req.Credentials.APIKey(p) == "" {
		return req, fmt.Errorf("%s environment variable not set", keyVariable(p))
	}

	if linksFile != "" {
		targets, err := readLinkTargets(linksFile)
		if err != nil {
			return req, err
		}
		req.LinkTargets = targets
	}
	return req, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(config)
	if err != nil {
		return err
	}
	req, err := buildRequest(cfg)
	if err != nil {
		return err
	}
	req.Topic = args[0]

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	if req.Credentials.SearchAPIKey == "" {
		fmt.Fprintf(os.Stderr, "SERPER_API_KEY not set: references and video are skipped\n")
	}
	fmt.Fprintf(os.Stderr, "Generating %q with %s...\n", req.Topic, req.Provider)

	result, err := newOrchestrator(cfg, logger).Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("generate article: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ %s (%d words, %d links, %d references, %d attempt(s), %s)\n",
		result.Contract.Title, result.Contract.WordCount, len(result.Contract.Links),
		len(result.Contract.References), result.Attempts, result.Method)

	if outHTML != "" {
		if err := os.WriteFile(outHTML, []byte(result.Contract.HTML), 0644); err != nil {
			return fmt.Errorf("write html: %w", err)
		}
	}
	return writeJSON(result, outJSON)
}

// writeJSON writes v to path, or to stdout when path is empty
func writeJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
