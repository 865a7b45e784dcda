package config

import (
	"os"

	"go.yaml.in/yaml/v3"
)

// WriteConfig serializes cfg to YAML and writes it to path, used by the
// init command to emit a template config a user edits by hand.
func WriteConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	content := "# stitchlint configuration\n" + string(data)
	return os.WriteFile(path, []byte(content), 0644)
}

// Default returns a template configuration naming projectName, with one
// fastapi and one typescript adapter entry pointed at conventional paths
// for the user to adjust.
func Default(projectName string) *Config {
	return &Config{
		ProjectName:       projectName,
		MaxRecursionDepth: 64,
		Output: OutputConfig{
			Format: "markdown",
			Path:   "stitchlint-report.md",
		},
		Adapters: []AdapterConfig{
			{Type: string(AdapterTypeFastAPI), AppPath: "backend/app"},
			{Type: string(AdapterTypeTypeScript), SrcPaths: []string{"frontend/src"}},
		},
		Rules: RulesConfig{
			TypeMismatch:     "critical",
			MissingField:     "critical",
			UnnormalizedData: "warning",
		},
	}
}
