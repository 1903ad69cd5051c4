package loader

import (
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/buildbeaver/playbook/internal/gerror"
	"github.com/buildbeaver/playbook/internal/ids"
	"github.com/buildbeaver/playbook/internal/playbook"
	"github.com/buildbeaver/playbook/internal/step"
)

// rawSetup is setup's on-disk shape, decoded from the template-substituted
// document (Variables is handled separately, by extractVariables, whose
// env-interpolated values are the ones kept; it's repeated here so the
// full document still decodes cleanly once substituted).
type rawSetup struct {
	Variables    map[string]string         `yaml:"variables"`
	RpcProviders map[string]rawRpcProvider `yaml:"rpc_providers"`
}

type rawRpcProvider struct {
	ChainRpcURL  string `yaml:"chain_rpc_url"`
	ProviderType string `yaml:"provider_type"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Bearer       string `yaml:"bearer"`
}

type rawStepOutput struct {
	SaveAs string `yaml:"save_as"`
}

type rawStep struct {
	Type        string                 `yaml:"type"`
	Name        string                 `yaml:"name"`
	Description string                 `yaml:"description"`
	Arguments   map[string]interface{} `yaml:"arguments"`
	Output      *rawStepOutput         `yaml:"output"`
}

type rawJob struct {
	Steps []rawStep `yaml:"steps"`
}

// rawWorkflowJobRef accepts either a bare job name string or a decorated
// mapping with an explicit depends_on list, matching the two forms the
// document format allows for a workflow's `jobs:` entries.
type rawWorkflowJobRef struct {
	Name      string
	DependsOn []string
}

func (r *rawWorkflowJobRef) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var bare string
	if err := unmarshal(&bare); err == nil {
		r.Name = bare
		return nil
	}
	var decorated struct {
		Name      string   `yaml:"name"`
		DependsOn []string `yaml:"depends_on"`
	}
	if err := unmarshal(&decorated); err != nil {
		return err
	}
	r.Name = decorated.Name
	r.DependsOn = decorated.DependsOn
	return nil
}

type rawWorkflow struct {
	Jobs []rawWorkflowJobRef `yaml:"jobs"`
}

type rawPlaybook struct {
	Version   string                 `yaml:"version"`
	Setup     rawSetup               `yaml:"setup"`
	Jobs      map[string]rawJob      `yaml:"jobs"`
	Workflows map[string]rawWorkflow `yaml:"workflows"`
}

// buildPlaybook converts a structurally-parsed rawPlaybook into a
// validated playbook.Playbook. Every identifier is checked against
// ids.ValidateIdentifier, every workflow job reference is resolved
// against the global jobs map (ValidationError.JobNotDefined on miss),
// and every step's arguments are checked by constructing it through the
// step registry, the same construction the job runner performs at
// execution time, so a malformed argument set fails at load rather than
// mid-run. Errors accumulate via multierror so a document with several
// unrelated problems reports all of them in one pass.
func buildPlaybook(raw rawPlaybook, variables map[string]string) (*playbook.Playbook, error) {
	var errs *multierror.Error

	version := playbook.Version(raw.Version)
	if !version.Valid() {
		errs = multierror.Append(errs, gerror.New(gerror.CodeLoadParse, gerror.AudienceExternal, "unsupported playbook version").
			With("version", raw.Version))
	}

	setup := playbook.Setup{
		Variables:    make(map[ids.VariableName]string, len(variables)),
		RpcProviders: make(map[string]playbook.RpcProviderConfig, len(raw.Setup.RpcProviders)),
	}
	for name, value := range variables {
		if err := ids.ValidateIdentifier(name); err != nil {
			errs = multierror.Append(errs, gerror.New(gerror.CodeValidationInvalidIdentifier, gerror.AudienceExternal, "invalid variable name").
				With("name", name).Wrap(err))
			continue
		}
		setup.Variables[ids.VariableName(name)] = value
	}
	for name, rp := range raw.Setup.RpcProviders {
		if err := ids.ValidateIdentifier(name); err != nil {
			errs = multierror.Append(errs, gerror.New(gerror.CodeValidationInvalidIdentifier, gerror.AudienceExternal, "invalid rpc provider name").
				With("name", name).Wrap(err))
			continue
		}
		providerType := playbook.RpcProviderType(rp.ProviderType)
		if providerType == "" {
			providerType = playbook.RpcProviderHttp
		}
		if !providerType.Valid() {
			errs = multierror.Append(errs, gerror.New(gerror.CodeValidationMissingField, gerror.AudienceExternal, "invalid rpc provider_type").
				With("name", name).With("provider_type", rp.ProviderType))
			continue
		}
		setup.RpcProviders[name] = playbook.RpcProviderConfig{
			Name:         name,
			ProviderType: providerType,
			ChainRpcURL:  rp.ChainRpcURL,
			Username:     rp.Username,
			Password:     rp.Password,
			Bearer:       rp.Bearer,
		}
	}

	jobs := make(map[ids.JobName]playbook.JobConfig, len(raw.Jobs))
	for name, rj := range raw.Jobs {
		jobName := ids.JobName(name)
		if err := jobName.Validate(); err != nil {
			errs = multierror.Append(errs, gerror.New(gerror.CodeValidationInvalidIdentifier, gerror.AudienceExternal, "invalid job name").
				With("name", name).Wrap(err))
			continue
		}

		steps, err := buildSteps(rj.Steps)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		jobs[jobName] = playbook.JobConfig{Name: jobName, Steps: steps}
	}

	workflows := make(map[ids.WorkflowName]playbook.WorkflowConfig, len(raw.Workflows))
	for name, rw := range raw.Workflows {
		workflowName := ids.WorkflowName(name)
		if err := workflowName.Validate(); err != nil {
			errs = multierror.Append(errs, gerror.New(gerror.CodeValidationInvalidIdentifier, gerror.AudienceExternal, "invalid workflow name").
				With("name", name).Wrap(err))
			continue
		}

		refs := make([]playbook.WorkflowJobRef, 0, len(rw.Jobs))
		for _, rawRef := range rw.Jobs {
			jobName := ids.JobName(rawRef.Name)
			if _, ok := jobs[jobName]; !ok {
				errs = multierror.Append(errs, gerror.New(gerror.CodeValidationJobNotDefined, gerror.AudienceExternal, "workflow references an undefined job").
					With("workflow", name).With("job", rawRef.Name))
				continue
			}
			deps := make([]ids.JobName, 0, len(rawRef.DependsOn))
			for _, dep := range rawRef.DependsOn {
				depName := ids.JobName(dep)
				if _, ok := jobs[depName]; !ok {
					errs = multierror.Append(errs, gerror.New(gerror.CodeValidationJobNotDefined, gerror.AudienceExternal, "workflow depends_on references an undefined job").
						With("workflow", name).With("job", dep))
					continue
				}
				deps = append(deps, depName)
			}
			refs = append(refs, playbook.WorkflowJobRef{Job: jobName, DependsOn: deps})
		}
		workflows[workflowName] = playbook.WorkflowConfig{Name: workflowName, Jobs: refs}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	return &playbook.Playbook{
		Version:   version,
		Setup:     setup,
		Jobs:      jobs,
		Workflows: workflows,
	}, nil
}

// buildSteps validates and converts a job's raw step list. An unnamed
// step is named "<step_type>_<uuid>", the same StepName::random_with_prefix
// rule original_source applies to unnamed steps, rather than a positional
// counter that would collide across re-orderings of the same document.
func buildSteps(rawSteps []rawStep) ([]playbook.StepConfig, error) {
	var errs *multierror.Error
	steps := make([]playbook.StepConfig, 0, len(rawSteps))
	seen := make(map[string]bool, len(rawSteps))

	for _, rs := range rawSteps {
		name := rs.Name
		if name == "" {
			name = rs.Type + "_" + uuid.New().String()
		}
		if err := ids.StepName(name).Validate(); err != nil {
			errs = multierror.Append(errs, gerror.New(gerror.CodeValidationInvalidIdentifier, gerror.AudienceExternal, "invalid step name").
				With("name", name).Wrap(err))
			continue
		}
		if seen[name] {
			errs = multierror.Append(errs, gerror.New(gerror.CodeContextStepNameExisted, gerror.AudienceExternal, "duplicate step name in job").
				With("name", name))
			continue
		}
		seen[name] = true

		saveAs := ""
		if rs.Output != nil {
			saveAs = rs.Output.SaveAs
		}

		cfg := playbook.StepConfig{
			Name:      ids.StepName(name),
			Kind:      rs.Type,
			Arguments: rs.Arguments,
			SaveAs:    saveAs,
		}

		if _, err := step.Build(cfg); err != nil {
			errs = multierror.Append(errs, gerror.New(gerror.CodeValidationMissingField, gerror.AudienceExternal, "invalid step arguments").
				With("step", name).With("kind", rs.Type).Wrap(err))
			continue
		}
		if step.RequiresOutput(rs.Type) && saveAs == "" {
			errs = multierror.Append(errs, gerror.New(gerror.CodeValidationMissingField, gerror.AudienceExternal, "step requires output.save_as").
				With("step", name).With("kind", rs.Type))
			continue
		}

		steps = append(steps, cfg)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return steps, nil
}
