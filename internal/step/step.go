// Package step implements the Step contract from spec §4.5: a small,
// closed set of step kinds, each self-contained once constructed from
// its StepConfig, dispatched through a kind-keyed registry rather than a
// type switch so new kinds can be registered without touching the job
// runner.
package step

import (
	"context"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/buildbeaver/playbook/internal/playbook"
	"github.com/buildbeaver/playbook/internal/values"
)

// OutputKind tags which variant of Output a step produced.
type OutputKind string

const (
	// OutputNone is produced by steps with nothing to save, e.g. BlankStep.
	OutputNone OutputKind = "none"
	// OutputBytes carries raw, undecoded result bytes.
	OutputBytes OutputKind = "bytes"
	// OutputTokens carries ABI-decoded values, produced when a step's
	// return-type metadata is declared.
	OutputTokens OutputKind = "tokens"
	// OutputTransaction carries a transaction receipt, or none if the
	// transaction hasn't been mined yet.
	OutputTransaction OutputKind = "transaction"
)

// Output is the tagged-variant result of running a step, saved into the
// owning job's JobContext under the step's name. It mirrors spec §3's
// StepOutput sum type: Bytes(raw) | Tokens(decoded) | Transaction
// (receipt-or-none) | None, extensible to further variants as new step
// kinds are added.
type Output struct {
	Kind        OutputKind
	Bytes       []byte
	Tokens      []values.Value
	Transaction *types.Receipt
}

// NoneOutput builds the Output produced by a step with no result to save.
func NoneOutput() Output {
	return Output{Kind: OutputNone}
}

// BytesOutput builds an Output carrying undecoded result bytes.
func BytesOutput(b []byte) Output {
	return Output{Kind: OutputBytes, Bytes: b}
}

// TokensOutput builds an Output carrying ABI-decoded values.
func TokensOutput(tokens []values.Value) Output {
	return Output{Kind: OutputTokens, Tokens: tokens}
}

// TransactionOutput builds an Output carrying a transaction receipt.
// receipt is nil when the transaction hasn't been mined yet, mirroring
// the original's SendTransactionOutput::TransactionReceipt(Option<_>).
func TransactionOutput(receipt *types.Receipt) Output {
	return Output{Kind: OutputTransaction, Transaction: receipt}
}

// Step is the contract every step kind implements. Execute is given the
// shared, read-only playbook context (for variables and RPC provider
// lookups) and must return within ctx's deadline.
type Step interface {
	Execute(ctx context.Context, pctx *playbook.Context) (Output, error)
}

// Constructor builds a Step from its StepConfig's arguments. Registered
// once per step kind in the package-level Registry.
type Constructor func(cfg playbook.StepConfig) (Step, error)

// Registry maps a step kind name (the `type:` field in a playbook's step
// declaration) to the constructor that builds it.
var Registry = map[string]Constructor{
	"BlankStep":    newBlankStep,
	"CallContract": newCallContractStep,
}

// Build looks up cfg.Kind in the Registry and constructs the step.
func Build(cfg playbook.StepConfig) (Step, error) {
	ctor, ok := Registry[cfg.Kind]
	if !ok {
		return nil, &UnknownKindError{Kind: cfg.Kind}
	}
	return ctor(cfg)
}

// UnknownKindError is returned by Build when cfg.Kind names no
// registered step constructor.
type UnknownKindError struct {
	Kind string
}

func (e *UnknownKindError) Error() string {
	return "unknown step kind " + e.Kind
}

// outputProducingKinds lists step kinds whose result is worth saving
// into the owning job's JobContext, and which therefore must declare
// output.save_as in their StepConfig.
var outputProducingKinds = map[string]bool{
	"CallContract": true,
}

// RequiresOutput reports whether kind's steps must declare output.save_as.
func RequiresOutput(kind string) bool {
	return outputProducingKinds[kind]
}
