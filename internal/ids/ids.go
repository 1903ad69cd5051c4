// Package ids implements the identifier types shared across the playbook
// model: JobName, WorkflowName, StepName and VariableName. All four use
// the same validation rule, so they share one underlying implementation.
package ids

import (
	"regexp"

	"github.com/pkg/errors"
)

// IdentifierPattern is the regular expression every JobName, WorkflowName,
// StepName and VariableName must match.
const IdentifierPattern = `^[A-Za-z0-9][A-Za-z0-9_-]{1,199}$`

const maxIdentifierLength = 200

var identifierRegex = regexp.MustCompile(IdentifierPattern)

// ValidateIdentifier returns an error if name does not conform to the
// shared identifier pattern used by JobName, WorkflowName, StepName and
// VariableName.
func ValidateIdentifier(name string) error {
	if len(name) > maxIdentifierLength {
		return errors.Errorf("identifier %q exceeds maximum length of %d characters", name, maxIdentifierLength)
	}
	if !identifierRegex.MatchString(name) {
		return errors.Errorf("identifier %q does not match pattern %s", name, IdentifierPattern)
	}
	return nil
}

// JobName identifies a job within a playbook's global jobs map.
type JobName string

func (n JobName) String() string { return string(n) }

func (n JobName) Validate() error { return ValidateIdentifier(string(n)) }

func (n JobName) Valid() bool { return n.Validate() == nil }

// WorkflowName identifies a workflow within a playbook's workflows map.
type WorkflowName string

func (n WorkflowName) String() string { return string(n) }

func (n WorkflowName) Validate() error { return ValidateIdentifier(string(n)) }

func (n WorkflowName) Valid() bool { return n.Validate() == nil }

// StepName identifies a step within a job.
type StepName string

func (n StepName) String() string { return string(n) }

func (n StepName) Validate() error { return ValidateIdentifier(string(n)) }

func (n StepName) Valid() bool { return n.Validate() == nil }

// VariableName identifies a setup variable.
type VariableName string

func (n VariableName) String() string { return string(n) }

func (n VariableName) Validate() error { return ValidateIdentifier(string(n)) }

func (n VariableName) Valid() bool { return n.Validate() == nil }
