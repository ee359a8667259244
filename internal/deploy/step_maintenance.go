package deploy

// MaintenanceStep runs Steps with the app in maintenance mode. Maintenance is
// turned off again even when one of them fails.
type MaintenanceStep struct {
	Steps []Step
}

func (s *MaintenanceStep) Name() string { return "maintenance" }

func (s *MaintenanceStep) Run(ctx *StepContext) error {
	ctx.Logger.Log("enabling maintenance mode")
	err := ctx.Target.WithMaintenance(ctx.Ctx, func() error {
		return runSteps(ctx, s.Steps)
	})
	ctx.Logger.Log("maintenance window closed")
	return err
}
