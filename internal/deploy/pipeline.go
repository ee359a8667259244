package deploy

import (
	"context"
	"fmt"
)

// Pipeline is a Strategy made of steps run in order. A failing step halts
// the pipeline; nothing already done is undone.
type Pipeline struct {
	name  string
	steps []Step
}

func NewPipeline(name string, steps ...Step) *Pipeline {
	return &Pipeline{name: name, steps: steps}
}

func (p *Pipeline) Name() string { return p.name }

func (p *Pipeline) Execute(ctx context.Context, target Target, revision string, force bool) error {
	logger := target.Logger()
	sctx := &StepContext{
		Ctx:      ctx,
		Target:   target,
		Logger:   logger,
		Revision: revision,
		Force:    force,
	}

	logger.Log("starting %s deploy", p.name)
	if err := runSteps(sctx, p.steps); err != nil {
		return err
	}
	logger.Log("%s deploy complete", p.name)
	return nil
}

func runSteps(sctx *StepContext, steps []Step) error {
	for _, step := range steps {
		select {
		case <-sctx.Ctx.Done():
			return fmt.Errorf("deploy cancelled: %w", sctx.Ctx.Err())
		default:
		}

		sctx.Logger.Log("step: %s", step.Name())
		if err := step.Run(sctx); err != nil {
			sctx.Logger.Log("step %s failed: %v", step.Name(), err)
			return fmt.Errorf("step %s: %w", step.Name(), err)
		}
	}
	return nil
}
