package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/seoforge/internal/logging"
)

// Version is set at build time
var Version = "v0.1.0"

// keyDelimiter separates nested config keys. Domain names in
// discovery.domain_scores contain dots, so the default "." cannot be used.
const keyDelimiter = "::"

var (
	cfgFile string
	verbose bool
	logger  = zap.NewNop()
	config  = newViper()
)

// newViper returns a viper instance that reads SEOFORGE_* variables;
// SEOFORGE_LLM_PROVIDER overrides llm::provider
func newViper() *viper.Viper {
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	v.SetEnvPrefix("SEOFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(keyDelimiter, "_"))
	v.AutomaticEnv()
	return v
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "seoforge",
	Short: "seoforge - SEO article generation across LLM providers",
	Long: `seoforge generates long-form SEO articles through one of several LLM
providers (OpenAI, Anthropic, Gemini, DeepSeek, Ollama).

Each article is healed into a structured draft, enriched with authoritative
references and a relevant video found through a search API, and given
internal links to pages you supply. Only complete, word-count-validated
articles are returned.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command. SIGINT and SIGTERM cancel in-flight
// generations instead of killing the process mid-write.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "seoforge %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.seoforge/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = config.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		config.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		config.AddConfigPath(filepath.Join(home, ".seoforge"))
		config.SetConfigType("yaml")
		config.SetConfigName("config")
	}

	if err := config.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", config.ConfigFileUsed())
	}
}
