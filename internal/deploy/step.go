package deploy

import (
	"context"

	"github.com/reviewapps-dev/san/internal/logging"
)

type Step interface {
	Name() string
	Run(ctx *StepContext) error
}

type StepContext struct {
	Ctx      context.Context
	Target   Target
	Logger   *logging.StageLogger
	Revision string
	Force    bool
}
