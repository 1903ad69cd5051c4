package step

import (
	"context"

	"github.com/buildbeaver/playbook/internal/playbook"
)

// BlankStep does nothing; it exists for playbook authors exercising the
// loader and scheduler without touching a live chain, and for tests.
type BlankStep struct{}

func newBlankStep(cfg playbook.StepConfig) (Step, error) {
	return &BlankStep{}, nil
}

func (s *BlankStep) Execute(ctx context.Context, pctx *playbook.Context) (Output, error) {
	return NoneOutput(), nil
}
