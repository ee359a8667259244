package deploy

type PushStep struct{}

func (s *PushStep) Name() string { return "push" }

func (s *PushStep) Run(ctx *StepContext) error {
	switch {
	case ctx.Revision != "" && ctx.Force:
		ctx.Logger.Log("force pushing %s", ctx.Revision)
	case ctx.Revision != "":
		ctx.Logger.Log("pushing %s", ctx.Revision)
	case ctx.Force:
		ctx.Logger.Log("force pushing tagged revision")
	default:
		ctx.Logger.Log("pushing tagged revision")
	}
	return ctx.Target.Deploy(ctx.Ctx, ctx.Revision, ctx.Force)
}
