package loader

import (
	"os"
	"regexp"
	"strings"

	"github.com/buildbeaver/playbook/internal/gerror"
)

// envRegex matches `${NAME}` references, mirroring the original
// Variable deserializer's ENV_REGEX. A literal `$` immediately followed
// by `{` is what makes a reference; a backslash in between (as produced
// by the `\$\{` escape below) never matches.
var envRegex = regexp.MustCompile(`\$\{([^}]*)\}`)

// interpolateEnv expands every `${NAME}` reference in raw against the
// process environment, then unescapes `\$`, `\{` and `\}` to their
// literal characters. Any referenced environment variable that isn't
// set fails the load, matching Variable's custom deserializer which
// maps a missing std::env::var lookup straight into a deserialize
// error.
func interpolateEnv(raw string) (string, error) {
	replaced := raw
	for _, match := range envRegex.FindAllStringSubmatch(raw, -1) {
		name := match[1]
		val, ok := os.LookupEnv(name)
		if !ok {
			return "", gerror.New(gerror.CodeLoadUndefinedVariable, gerror.AudienceExternal, "undefined environment variable referenced by setup.variables").
				With("variable", name)
		}
		replaced = strings.ReplaceAll(replaced, "${"+name+"}", val)
	}
	replaced = strings.ReplaceAll(replaced, `\$`, "$")
	replaced = strings.ReplaceAll(replaced, `\{`, "{")
	replaced = strings.ReplaceAll(replaced, `\}`, "}")
	return replaced, nil
}
