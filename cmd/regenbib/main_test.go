package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/joachimneu/regenbib/internal/config"
)

// newPathFlagCommand builds a throwaway command carrying the shared
// path flags, so the config overlay can be exercised without running
// the real root command.
func newPathFlagCommand(t *testing.T) *cobra.Command {
	t.Helper()
	t.Cleanup(func() {
		yamlPath = config.DefaultYaml
		bibPath = config.DefaultBib
		auxPath = config.DefaultAux
	})

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&yamlPath, "yaml", config.DefaultYaml, "")
	cmd.Flags().StringVar(&bibPath, "bib", config.DefaultBib, "")
	cmd.Flags().StringVar(&auxPath, "aux", config.DefaultAux, "")
	return cmd
}

func writeToolConfig(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if err := os.MkdirAll(filepath.Join(dir, config.ConfigDir), 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, config.ConfigDir, config.ConfigFile)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestMustLoadConfig_ConfigFillsUnsetFlags(t *testing.T) {
	writeToolConfig(t, "yaml: refs-from-config.yaml\n")
	cmd := newPathFlagCommand(t)

	cfg := mustLoadConfig(cmd)

	if yamlPath != "refs-from-config.yaml" {
		t.Errorf("yamlPath = %q, want the configured value", yamlPath)
	}
	if bibPath != config.DefaultBib {
		t.Errorf("bibPath = %q, want the default", bibPath)
	}
	if auxPath != config.DefaultAux {
		t.Errorf("auxPath = %q, want the default", auxPath)
	}
	if cfg.Yaml != "refs-from-config.yaml" {
		t.Errorf("cfg.Yaml = %q", cfg.Yaml)
	}
}

func TestMustLoadConfig_FlagBeatsConfig(t *testing.T) {
	writeToolConfig(t, "yaml: refs-from-config.yaml\n")
	cmd := newPathFlagCommand(t)
	if err := cmd.Flags().Set("yaml", "refs-from-flag.yaml"); err != nil {
		t.Fatal(err)
	}

	mustLoadConfig(cmd)

	if yamlPath != "refs-from-flag.yaml" {
		t.Errorf("yamlPath = %q, want the flag value", yamlPath)
	}
}

func TestPluralY(t *testing.T) {
	if got := pluralY(1); got != "y" {
		t.Errorf("pluralY(1) = %q", got)
	}
	if got := pluralY(2); got != "ies" {
		t.Errorf("pluralY(2) = %q", got)
	}
	if got := pluralY(0); got != "ies" {
		t.Errorf("pluralY(0) = %q", got)
	}
}
