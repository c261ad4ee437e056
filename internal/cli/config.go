package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/seoforge/internal/model"
)

const configHeader = `# seoforge configuration
#
# Precedence, highest first: CLI flags, SEOFORGE_* environment variables
# (nested keys joined with "_", e.g. SEOFORGE_LINKS_MAX_LINKS), this file,
# built-in defaults.

`

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the seoforge configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(config)
		if err != nil {
			return err
		}
		if used := config.ConfigFileUsed(); used != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "# from %s\n", used)
		} else {
			fmt.Fprintln(cmd.ErrOrStderr(), "# no config file, defaults and environment only")
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		return enc.Close()
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print which config file is read",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file holding every default",
	Long: `Write a config file holding every default. The file goes to --config when
given, otherwise ~/.seoforge/config.yaml. An existing file is kept unless
--force is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		if err := writeDefaultConfig(path, forceInit); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

// configPath is the file in use, else the --config flag, else the default
// location under the home directory
func configPath() (string, error) {
	if used := config.ConfigFileUsed(); used != "" {
		return used, nil
	}
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".seoforge", "config.yaml"), nil
}

func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to replace it)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	var buf bytes.Buffer
	if err := renderDefaultConfig(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// renderDefaultConfig emits the defaults followed by the environment
// variables that are never read from the file
func renderDefaultConfig(w io.Writer) error {
	body, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(configHeader)
	buf.Write(body)
	buf.WriteString("\n# Secrets come from the environment only:\n")
	for _, p := range model.Providers() {
		fmt.Fprintf(&buf, "#   %s (%s)\n", keyVariable(p), p)
	}
	buf.WriteString("#   SERPER_API_KEY (reference and video discovery)\n")

	_, err = w.Write(buf.Bytes())
	return err
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "replace an existing file")
	configCmd.AddCommand(configShowCmd, configPathCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}
