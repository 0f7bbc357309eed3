package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opencatalog/powerbi-connector/pkg/pbierrors"
)

// LoadRecipe reads a YAML recipe file into the raw mapping consumed by New.
// ${VAR_NAME} references are substituted from the environment before
// parsing, so credentials can stay out of the recipe file.
func LoadRecipe(filePath string) (map[string]interface{}, error) {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is controlled by caller and validated
	if err != nil {
		return nil, pbierrors.Wrap(err, pbierrors.ErrorTypeValidation, "failed to read recipe file")
	}

	content := substituteEnvVars(string(data))

	var raw map[string]interface{}
	if err := yaml.Unmarshal([]byte(content), &raw); err != nil {
		return nil, pbierrors.Wrap(err, pbierrors.ErrorTypeValidation, "failed to parse recipe YAML")
	}
	return raw, nil
}

// Load reads a recipe file and constructs the validated configuration in one
// step.
func Load(filePath string) (*ConnectorConfig, error) {
	raw, err := LoadRecipe(filePath)
	if err != nil {
		return nil, err
	}
	return New(raw)
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}
