// Package playbook holds the in-memory intermediate representation a
// loaded playbook document is parsed into: the Playbook itself, its
// Setup block (variables and RPC provider declarations), and the
// JobConfig/WorkflowConfig/StepConfig trees that the job runner and
// workflow scheduler walk to do their work.
package playbook

import (
	"github.com/buildbeaver/playbook/internal/ids"
)

// Version is the closed set of supported playbook document versions.
type Version string

const (
	VersionV1 Version = "1"
)

func (v Version) Valid() bool {
	switch v {
	case VersionV1:
		return true
	default:
		return false
	}
}

// RpcProviderType enumerates the transport/auth combinations a Setup may
// declare for a named RPC endpoint.
type RpcProviderType string

const (
	RpcProviderHttp                     RpcProviderType = "Http"
	RpcProviderHttpWithBasicAuth        RpcProviderType = "HttpWithBasicAuth"
	RpcProviderHttpWithBearerAuth       RpcProviderType = "HttpWithBearerAuth"
	RpcProviderWebsocket                RpcProviderType = "Websocket"
	RpcProviderWebsocketWithBasicAuth   RpcProviderType = "WebsocketWithBasicAuth"
	RpcProviderWebsocketWithBearerAuth  RpcProviderType = "WebsocketWithBearerAuth"
	RpcProviderIpc                      RpcProviderType = "Ipc"
)

func (t RpcProviderType) Valid() bool {
	switch t {
	case RpcProviderHttp, RpcProviderHttpWithBasicAuth, RpcProviderHttpWithBearerAuth,
		RpcProviderWebsocket, RpcProviderWebsocketWithBasicAuth, RpcProviderWebsocketWithBearerAuth,
		RpcProviderIpc:
		return true
	default:
		return false
	}
}

// RpcProviderConfig is a declared RPC endpoint, named so that steps can
// reference it by name instead of embedding a URL directly.
type RpcProviderConfig struct {
	Name         string
	ProviderType RpcProviderType
	ChainRpcURL  string
	Username     string
	Password     string
	Bearer       string
}

// Setup is the playbook-wide configuration block: variables available to
// `{{NAME}}` templating and the named RPC endpoints steps may dial.
type Setup struct {
	Variables    map[ids.VariableName]string
	RpcProviders map[string]RpcProviderConfig
}

// StepConfig is one step's declaration within a job: its name, its kind
// (resolved against the step registry), its kind-specific arguments as
// raw, already-templated YAML values, and its optional output.save_as
// binding. The job runner records the step's output in the JobContext
// under Name; SaveAs is checked by the loader but not used as a key.
type StepConfig struct {
	Name      ids.StepName
	Kind      string
	Arguments map[string]interface{}
	SaveAs    string
}

// JobDependency names another job in the same playbook that must finish
// before this job may start.
type JobDependency = ids.JobName

// JobConfig is one job's declaration: an ordered list of steps executed
// sequentially, halting at the first failure.
type JobConfig struct {
	Name  ids.JobName
	Steps []StepConfig
}

// WorkflowJobRef is one entry in a workflow's job list. A job may be
// referenced bare (no dependencies; its position in the list adds no
// ordering) or decorated with an explicit depends_on list naming other
// jobs in the same workflow.
type WorkflowJobRef struct {
	Job        ids.JobName
	DependsOn  []ids.JobName
}

// WorkflowConfig is one workflow's declaration: the set of jobs to run
// and their dependency edges, resolved into a dag.Graph by the scheduler
// before execution starts.
type WorkflowConfig struct {
	Name Name
	Jobs []WorkflowJobRef
}

// Name is reused as the workflow's own identity type, distinct from
// ids.WorkflowName only in name to read naturally as `workflow.Name`.
type Name = ids.WorkflowName

// Playbook is the fully-parsed, validated document: setup plus the
// global job and workflow maps referenced by name.
type Playbook struct {
	Version   Version
	Setup     Setup
	Jobs      map[ids.JobName]JobConfig
	Workflows map[ids.WorkflowName]WorkflowConfig
}
