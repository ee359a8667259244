// Package heroku talks to the Heroku Platform API.
//
// API enumerates the calls the stage operations make. Client implements it
// over HTTP; WithErrors wraps any implementation so that failed calls are
// reported on a diagnostic stream and returned as *APIError.
package heroku

import "context"

// MaintenanceMode is the toggle value sent with PostAppMaintenance.
type MaintenanceMode string

const (
	MaintenanceOn  MaintenanceMode = "1"
	MaintenanceOff MaintenanceMode = "0"
)

type Stack struct {
	Name    string `json:"name"`
	Current bool   `json:"current"`
}

type Addon struct {
	Name string `json:"name"`
}

type App struct {
	Name  string `json:"name"`
	Stack string `json:"stack,omitempty"`
}

// AppParams is the body of an app creation request. Empty fields let the
// platform pick a generated name or its default stack.
type AppParams struct {
	Name  string `json:"name,omitempty"`
	Stack string `json:"stack,omitempty"`
}

type API interface {
	// GetStack lists the stacks available to app, flagging the one it runs on.
	GetStack(ctx context.Context, app string) ([]Stack, error)
	GetConfigVars(ctx context.Context, app string) (map[string]string, error)
	// PutConfigVars merges vars into the app's config and returns the result.
	PutConfigVars(ctx context.Context, app string, vars map[string]string) (map[string]string, error)
	GetAddons(ctx context.Context, app string) ([]Addon, error)
	PostAddon(ctx context.Context, app, addon string) (*Addon, error)
	PostPSRestart(ctx context.Context, app string) error
	PostAppMaintenance(ctx context.Context, app string, mode MaintenanceMode) error
	PostApp(ctx context.Context, params AppParams) (*App, error)
	DeleteApp(ctx context.Context, app string) error
}
