package loader

import (
	"regexp"

	"github.com/buildbeaver/playbook/internal/gerror"
)

// templateRegex matches a flat `{{NAME}}` placeholder, adapted from the
// teacher's fieldTemplateRegex (`${{ *(.+?) *}}`, a nested dotted-path
// form) down to the spec's flat variable names sourced entirely from
// setup.variables.
var templateRegex = regexp.MustCompile(`\{\{\s*([A-Za-z0-9][A-Za-z0-9_-]*)\s*\}\}`)

// substituteTemplates replaces every `{{NAME}}` occurrence in doc with
// its resolved value from variables. Substitution is strict: a NAME
// with no entry in variables fails the load rather than being left in
// place or silently dropped.
func substituteTemplates(doc string, variables map[string]string) (string, error) {
	var failErr error
	result := templateRegex.ReplaceAllStringFunc(doc, func(match string) string {
		if failErr != nil {
			return match
		}
		name := templateRegex.FindStringSubmatch(match)[1]
		val, ok := variables[name]
		if !ok {
			failErr = gerror.New(gerror.CodeLoadTemplateRender, gerror.AudienceExternal, "undefined template variable").
				With("variable", name)
			return match
		}
		return val
	})
	if failErr != nil {
		return "", failErr
	}
	return result, nil
}
