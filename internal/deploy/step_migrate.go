package deploy

// MigrateStep runs the database migrations, which also restarts the app.
type MigrateStep struct{}

func (s *MigrateStep) Name() string { return "migrate" }

func (s *MigrateStep) Run(ctx *StepContext) error {
	out, err := ctx.Target.Migrate(ctx.Ctx)
	if err != nil {
		return err
	}
	ctx.Logger.Log("migrate: %s", out)
	return nil
}

type RestartStep struct{}

func (s *RestartStep) Name() string { return "restart" }

func (s *RestartStep) Run(ctx *StepContext) error {
	out, err := ctx.Target.Restart(ctx.Ctx)
	if err != nil {
		return err
	}
	ctx.Logger.Log("restart: %s", out)
	return nil
}
