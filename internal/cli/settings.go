package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/seoforge/internal/model"
)

// loadConfig layers defaults, the config file and SEOFORGE_* variables
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()

	defaults, err := flatten(cfg)
	if err != nil {
		return nil, err
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// flatten turns the config into dotted viper keys so environment overrides
// resolve for every field
func flatten(cfg *model.Config) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("unmarshal defaults: %w", err)
	}
	out := make(map[string]any)
	walk("", tree, out)
	return out, nil
}

func walk(prefix string, node map[string]any, out map[string]any) {
	for key, value := range node {
		full := key
		if prefix != "" {
			full = prefix + keyDelimiter + key
		}
		if child, ok := value.(map[string]any); ok && len(child) > 0 {
			walk(full, child, out)
			continue
		}
		out[full] = value
	}
}

// credentialsFromEnv reads provider and search keys. Keys never come from the
// config file.
func credentialsFromEnv() model.Credentials {
	env := map[model.Provider]string{
		model.ProviderOpenAI:    "OPENAI_API_KEY",
		model.ProviderAnthropic: "ANTHROPIC_API_KEY",
		model.ProviderGemini:    "GEMINI_API_KEY",
		model.ProviderDeepSeek:  "DEEPSEEK_API_KEY",
	}
	creds := model.Credentials{
		APIKeys:       make(map[model.Provider]string),
		SearchAPIKey:  strings.TrimSpace(os.Getenv("SERPER_API_KEY")),
		OllamaBaseURL: strings.TrimSpace(os.Getenv("OLLAMA_BASE_URL")),
	}
	for provider, name := range env {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			creds.APIKeys[provider] = key
		}
	}
	return creds
}

// keyVariable names the environment variable holding a provider's key
func keyVariable(p model.Provider) string {
	if p == model.ProviderOllama {
		return "OLLAMA_BASE_URL"
	}
	return strings.ToUpper(string(p)) + "_API_KEY"
}

// readLinkTargets loads a YAML list of link targets
func readLinkTargets(path string) ([]model.LinkTarget, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read link targets: %w", err)
	}
	var targets []model.LinkTarget
	if err := yaml.Unmarshal(data, &targets); err != nil {
		return nil, fmt.Errorf("parse link targets: %w", err)
	}
	return targets, nil
}
