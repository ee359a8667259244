package heroku

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/logrusorgru/aurora"
)

// ResponseError is a non-2xx answer from the platform.
type ResponseError struct {
	Method     string
	Path       string
	StatusCode int
	// Status is the full status line, e.g. "404 Not Found".
	Status string
	Body   []byte
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("heroku: %s %s: %s", e.Method, e.Path, e.Status)
}

// APIError is what every failed call returns once it has passed through
// WithErrors. The underlying *ResponseError stays reachable via errors.As.
type APIError struct {
	Status  string
	Message string
	err     *ResponseError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("heroku API error: %s (%s)", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.err
}

const unknownMessage = "???"

// message extracts the human readable part of an error body. Legacy
// endpoints answer {"error": ...}, v3 answers {"id": ..., "message": ...}.
func message(body []byte) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return unknownMessage
	}
	switch {
	case parsed.Error != "":
		return parsed.Error
	case parsed.Message != "":
		return parsed.Message
	default:
		return unknownMessage
	}
}

func status(e *ResponseError) string {
	if e.Status != "" {
		return e.Status
	}
	return strconv.Itoa(e.StatusCode)
}

// WithErrors decorates api so that every *ResponseError is reported as one
// diagnostic line on w and returned as *APIError. Other errors are returned
// unchanged. There are no retries.
func WithErrors(api API, w io.Writer, color bool) API {
	return &reporting{api: api, w: w, au: aurora.NewAurora(color)}
}

type reporting struct {
	api API
	w   io.Writer
	au  aurora.Aurora
}

func (r *reporting) translate(err error) error {
	var respErr *ResponseError
	if !errors.As(err, &respErr) {
		return err
	}
	apiErr := &APIError{
		Status:  status(respErr),
		Message: message(respErr.Body),
		err:     respErr,
	}
	if r.w != nil {
		fmt.Fprintf(r.w, "\n%s: %s (%s)\n\n",
			r.au.Bold("Heroku API ERROR"), r.au.Red(apiErr.Status), apiErr.Message)
	}
	return apiErr
}

func (r *reporting) GetStack(ctx context.Context, app string) ([]Stack, error) {
	stacks, err := r.api.GetStack(ctx, app)
	return stacks, r.translate(err)
}

func (r *reporting) GetConfigVars(ctx context.Context, app string) (map[string]string, error) {
	vars, err := r.api.GetConfigVars(ctx, app)
	return vars, r.translate(err)
}

func (r *reporting) PutConfigVars(ctx context.Context, app string, vars map[string]string) (map[string]string, error) {
	result, err := r.api.PutConfigVars(ctx, app, vars)
	return result, r.translate(err)
}

func (r *reporting) GetAddons(ctx context.Context, app string) ([]Addon, error) {
	addons, err := r.api.GetAddons(ctx, app)
	return addons, r.translate(err)
}

func (r *reporting) PostAddon(ctx context.Context, app, addon string) (*Addon, error) {
	a, err := r.api.PostAddon(ctx, app, addon)
	return a, r.translate(err)
}

func (r *reporting) PostPSRestart(ctx context.Context, app string) error {
	return r.translate(r.api.PostPSRestart(ctx, app))
}

func (r *reporting) PostAppMaintenance(ctx context.Context, app string, mode MaintenanceMode) error {
	return r.translate(r.api.PostAppMaintenance(ctx, app, mode))
}

func (r *reporting) PostApp(ctx context.Context, params AppParams) (*App, error) {
	a, err := r.api.PostApp(ctx, params)
	return a, r.translate(err)
}

func (r *reporting) DeleteApp(ctx context.Context, app string) error {
	return r.translate(r.api.DeleteApp(ctx, app))
}
