// Package loader implements the playbook document pipeline from spec
// §4.1: environment interpolation of setup.variables, variable
// templating, structural YAML parsing, identifier validation, reference
// resolution and step-argument resolution, in that order, producing a validated
// playbook.Playbook or a tagged LoadError/ValidationError.
package loader

import (
	"os"

	"gopkg.in/yaml.v2"

	"github.com/buildbeaver/playbook/internal/gerror"
	"github.com/buildbeaver/playbook/internal/playbook"
)

// LoadFile reads path and loads it as a Playbook.
func LoadFile(path string) (*playbook.Playbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, gerror.New(gerror.CodeLoadIO, gerror.AudienceExternal, "failed to read playbook file").
			With("path", path).Wrap(err)
	}
	return Load(data)
}

// Load parses raw playbook document bytes into a validated Playbook.
//
// Variable templating needs setup.variables' final values before it can
// run, so this runs a lightweight first pass (extractVariables) that
// decodes just the setup block and resolves each variable's
// `${ENV_NAME}` references; substituteTemplates then replaces every
// `{{NAME}}` placeholder anywhere in the document text against that
// resolved map, before the fully-substituted document is parsed
// structurally and validated field by field.
func Load(data []byte) (*playbook.Playbook, error) {
	variables, err := extractVariables(data)
	if err != nil {
		return nil, err
	}

	substituted, err := substituteTemplates(string(data), variables)
	if err != nil {
		return nil, err
	}

	var raw rawPlaybook
	if err := yaml.Unmarshal([]byte(substituted), &raw); err != nil {
		return nil, gerror.New(gerror.CodeLoadParse, gerror.AudienceExternal, "failed to parse playbook document").Wrap(err)
	}

	return buildPlaybook(raw, variables)
}

// extractVariables decodes just the setup.variables block from the raw,
// pre-substitution document and resolves each value's environment
// references, so substituteTemplates has final values to work with.
func extractVariables(data []byte) (map[string]string, error) {
	var pre struct {
		Setup struct {
			Variables map[string]string `yaml:"variables"`
		} `yaml:"setup"`
	}
	if err := yaml.Unmarshal(data, &pre); err != nil {
		return nil, gerror.New(gerror.CodeLoadParse, gerror.AudienceExternal, "failed to parse playbook setup block").Wrap(err)
	}

	resolved := make(map[string]string, len(pre.Setup.Variables))
	for name, raw := range pre.Setup.Variables {
		val, err := interpolateEnv(raw)
		if err != nil {
			return nil, err
		}
		resolved[name] = val
	}
	return resolved, nil
}
