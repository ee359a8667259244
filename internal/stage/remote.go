package stage

import (
	"context"
	"strings"

	"github.com/reviewapps-dev/san/internal/deploy"
	"github.com/reviewapps-dev/san/internal/heroku"
)

var _ deploy.Target = (*Stage)(nil)

type Action string

const (
	On  Action = "on"
	Off Action = "off"
)

var maintenanceModes = map[Action]heroku.MaintenanceMode{
	On:  heroku.MaintenanceOn,
	Off: heroku.MaintenanceOff,
}

// Maintenance turns maintenance mode on or off.
func (s *Stage) Maintenance(ctx context.Context, action Action) error {
	mode, ok := maintenanceModes[action]
	if !ok {
		return &InvalidMaintenanceActionError{Action: action}
	}
	app, err := s.App()
	if err != nil {
		return err
	}
	return s.api.PostAppMaintenance(ctx, app, mode)
}

// WithMaintenance runs fn with maintenance mode on and turns it off again
// however fn exits. fn is not run if maintenance mode cannot be turned on.
// An error from fn takes precedence over one from turning maintenance off.
func (s *Stage) WithMaintenance(ctx context.Context, fn func() error) (err error) {
	app, err := s.App()
	if err != nil {
		return err
	}
	if err := s.api.PostAppMaintenance(ctx, app, heroku.MaintenanceOn); err != nil {
		return err
	}
	defer func() {
		// ctx may be what made fn fail; the release must still go out.
		offErr := s.api.PostAppMaintenance(context.WithoutCancel(ctx), app, heroku.MaintenanceOff)
		if offErr == nil {
			return
		}
		if err != nil {
			s.logger.Warn("maintenance off: %v", offErr)
			return
		}
		err = offErr
	}()
	return fn()
}

// Create provisions the stage's app from the app and stack settings and
// returns the name Heroku gave it. The stage itself is not updated.
func (s *Stage) Create(ctx context.Context) (string, error) {
	app, err := s.api.PostApp(ctx, heroku.AppParams{
		Name:  s.settings.App,
		Stack: s.settings.Stack,
	})
	if err != nil {
		return "", err
	}
	return app.Name, nil
}

func (s *Stage) Destroy(ctx context.Context) error {
	app, err := s.App()
	if err != nil {
		return err
	}
	return s.api.DeleteApp(ctx, app)
}

// LongConfig returns the config vars currently set on Heroku.
func (s *Stage) LongConfig(ctx context.Context) (map[string]string, error) {
	app, err := s.App()
	if err != nil {
		return nil, err
	}
	return s.api.GetConfigVars(ctx, app)
}

// PushConfig sends overrides, or the stage's config when overrides is nil,
// and returns the config Heroku ends up with.
func (s *Stage) PushConfig(ctx context.Context, overrides map[string]string) (map[string]string, error) {
	app, err := s.App()
	if err != nil {
		return nil, err
	}
	vars := overrides
	if vars == nil {
		vars = s.Config()
	}
	return s.api.PutConfigVars(ctx, app, vars)
}

func (s *Stage) InstalledAddons(ctx context.Context) ([]heroku.Addon, error) {
	app, err := s.App()
	if err != nil {
		return nil, err
	}
	return s.api.GetAddons(ctx, app)
}

// InstallAddons installs the configured add-ons missing from the app. A
// failed install does not stop the others; the returned list is what Heroku
// reports afterwards.
func (s *Stage) InstallAddons(ctx context.Context) ([]heroku.Addon, error) {
	desired := s.Addons()
	if len(desired) == 0 {
		return nil, nil
	}
	app, err := s.App()
	if err != nil {
		return nil, err
	}

	installed, err := s.api.GetAddons(ctx, app)
	if err != nil {
		return nil, err
	}
	// A stage file may name just the service ("heroku-postgresql"); any
	// installed plan of that service satisfies it.
	present := make(map[string]bool, len(installed))
	for _, a := range installed {
		present[a.Name] = true
		if service, _, ok := strings.Cut(a.Name, ":"); ok {
			present[service] = true
		}
	}

	var missing []string
	for _, name := range desired {
		if !present[name] {
			missing = append(missing, name)
			present[name] = true
		}
	}
	if len(missing) == 0 {
		return installed, nil
	}

	for _, name := range missing {
		s.logger.Log("installing addon %s", name)
		if _, err := s.api.PostAddon(ctx, app, name); err != nil {
			s.logger.Warn("addon %s not installed: %v", name, err)
		}
	}
	return s.api.GetAddons(ctx, app)
}
