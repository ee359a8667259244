package stage

import "fmt"

// MissingApplicationError is returned by every operation that needs the
// Heroku app of a stage whose settings do not name one.
type MissingApplicationError struct {
	Stage string
}

func (e *MissingApplicationError) Error() string {
	return fmt.Sprintf("%s: is missing the app: configuration value. I don't know what to access on Heroku.", e.Stage)
}

// InvalidMaintenanceActionError is returned by Maintenance for anything but
// on and off.
type InvalidMaintenanceActionError struct {
	Action Action
}

func (e *InvalidMaintenanceActionError) Error() string {
	return fmt.Sprintf("Action %q must be one of (on, off)", string(e.Action))
}
