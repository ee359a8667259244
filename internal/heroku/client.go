package heroku

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	herokugo "github.com/heroku/heroku-go/v5"
	"go.uber.org/ratelimit"
)

const accept = "application/vnd.heroku+json; version=3"

// Client is an API implementation backed by the Heroku Platform API v3
// client. It is configured entirely through ClientOptions and does not
// consult the process environment.
type Client struct {
	service    *herokugo.Service
	httpClient *http.Client
}

type ClientOptions struct {
	Endpoint  string
	Key       string
	UserAgent string
	// RateLimit is the maximum number of requests per second; zero disables
	// throttling.
	RateLimit int
	Timeout   time.Duration
}

func NewClient(opts ClientOptions) *Client {
	var transport http.RoundTripper = cleanhttp.DefaultPooledTransport()
	if opts.RateLimit > 0 {
		transport = &rateLimitedRoundTripper{
			limiter:              ratelimit.New(opts.RateLimit),
			internalRoundTripper: transport,
		}
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	httpClient := &http.Client{
		Transport: &platformRoundTripper{
			key:                  opts.Key,
			userAgent:            opts.UserAgent,
			internalRoundTripper: transport,
		},
		Timeout: timeout,
	}
	service := herokugo.NewService(httpClient)
	if opts.Endpoint != "" {
		service.URL = strings.TrimSuffix(opts.Endpoint, "/")
	}
	return &Client{service: service, httpClient: httpClient}
}

type rateLimitedRoundTripper struct {
	limiter              ratelimit.Limiter
	internalRoundTripper http.RoundTripper
}

func (r *rateLimitedRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	r.limiter.Take()
	return r.internalRoundTripper.RoundTrip(req)
}

// platformRoundTripper authenticates requests and turns non-2xx answers into
// *ResponseError, keeping the body for WithErrors to report.
type platformRoundTripper struct {
	key                  string
	userAgent            string
	internalRoundTripper http.RoundTripper
}

func (p *platformRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Accept", accept)
	if p.key != "" {
		req.Header.Set("Authorization", "Bearer "+p.key)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.internalRoundTripper.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return nil, &ResponseError{
		Method:     req.Method,
		Path:       req.URL.Path,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       body,
	}
}

func (c *Client) GetStack(ctx context.Context, app string) ([]Stack, error) {
	info, err := c.service.AppInfo(ctx, app)
	if err != nil {
		return nil, err
	}
	available, err := c.service.StackList(ctx, nil)
	if err != nil {
		return nil, err
	}
	stacks := make([]Stack, 0, len(available))
	for _, s := range available {
		stacks = append(stacks, Stack{Name: s.Name, Current: s.Name == info.BuildStack.Name})
	}
	return stacks, nil
}

func (c *Client) GetConfigVars(ctx context.Context, app string) (map[string]string, error) {
	vars, err := c.service.ConfigVarInfoForApp(ctx, app)
	if err != nil {
		return nil, err
	}
	return fromConfigVars(vars), nil
}

func (c *Client) PutConfigVars(ctx context.Context, app string, vars map[string]string) (map[string]string, error) {
	update := make(map[string]*string, len(vars))
	for k, v := range vars {
		v := v
		update[k] = &v
	}
	result, err := c.service.ConfigVarUpdate(ctx, app, update)
	if err != nil {
		return nil, err
	}
	return fromConfigVars(result), nil
}

// fromConfigVars drops unset (null) vars.
func fromConfigVars(vars map[string]*string) map[string]string {
	out := make(map[string]string, len(vars))
	for k, v := range vars {
		if v != nil {
			out[k] = *v
		}
	}
	return out
}

// addonName is the plan name ("heroku-postgresql:essential-0"), which is how
// stage files list add-ons.
func addonName(name, plan string) string {
	if plan != "" {
		return plan
	}
	return name
}

func (c *Client) GetAddons(ctx context.Context, app string) ([]Addon, error) {
	infos, err := c.service.AddOnListByApp(ctx, app, nil)
	if err != nil {
		return nil, err
	}
	addons := make([]Addon, 0, len(infos))
	for _, info := range infos {
		addons = append(addons, Addon{Name: addonName(info.Name, info.Plan.Name)})
	}
	return addons, nil
}

func (c *Client) PostAddon(ctx context.Context, app, addon string) (*Addon, error) {
	info, err := c.service.AddOnCreate(ctx, app, herokugo.AddOnCreateOpts{Plan: addon})
	if err != nil {
		return nil, err
	}
	return &Addon{Name: addonName(info.Name, info.Plan.Name)}, nil
}

func (c *Client) PostPSRestart(ctx context.Context, app string) error {
	_, err := c.service.DynoRestartAll(ctx, app)
	return err
}

func (c *Client) PostAppMaintenance(ctx context.Context, app string, mode MaintenanceMode) error {
	on := mode == MaintenanceOn
	_, err := c.service.AppUpdate(ctx, app, herokugo.AppUpdateOpts{Maintenance: &on})
	return err
}

func (c *Client) PostApp(ctx context.Context, params AppParams) (*App, error) {
	var opts herokugo.AppCreateOpts
	if params.Name != "" {
		opts.Name = &params.Name
	}
	if params.Stack != "" {
		opts.Stack = &params.Stack
	}
	info, err := c.service.AppCreate(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &App{Name: info.Name, Stack: info.BuildStack.Name}, nil
}

func (c *Client) DeleteApp(ctx context.Context, app string) error {
	_, err := c.service.AppDelete(ctx, app)
	return err
}
