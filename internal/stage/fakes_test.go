package stage

import (
	"context"
	"fmt"
	"strings"

	"github.com/reviewapps-dev/san/internal/heroku"
)

type fakeAPI struct {
	calls []string

	stacks      []heroku.Stack
	config      map[string]string
	addons      [][]heroku.Addon // successive GetAddons answers
	addonErrs   map[string]error
	created     *heroku.App
	err         error
	maintenance map[heroku.MaintenanceMode]error
}

func (f *fakeAPI) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeAPI) GetStack(_ context.Context, app string) ([]heroku.Stack, error) {
	f.record("get_stack %s", app)
	return f.stacks, f.err
}

func (f *fakeAPI) GetConfigVars(_ context.Context, app string) (map[string]string, error) {
	f.record("get_config_vars %s", app)
	return f.config, f.err
}

func (f *fakeAPI) PutConfigVars(_ context.Context, app string, vars map[string]string) (map[string]string, error) {
	f.record("put_config_vars %s", app)
	if f.err != nil {
		return nil, f.err
	}
	merged := map[string]string{}
	for k, v := range f.config {
		merged[k] = v
	}
	for k, v := range vars {
		merged[k] = v
	}
	return merged, nil
}

func (f *fakeAPI) GetAddons(_ context.Context, app string) ([]heroku.Addon, error) {
	f.record("get_addons %s", app)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.addons) == 0 {
		return nil, nil
	}
	answer := f.addons[0]
	if len(f.addons) > 1 {
		f.addons = f.addons[1:]
	}
	return answer, nil
}

func (f *fakeAPI) PostAddon(_ context.Context, app, addon string) (*heroku.Addon, error) {
	f.record("post_addon %s %s", app, addon)
	if err := f.addonErrs[addon]; err != nil {
		return nil, err
	}
	return &heroku.Addon{Name: addon}, nil
}

func (f *fakeAPI) PostPSRestart(_ context.Context, app string) error {
	f.record("post_ps_restart %s", app)
	return f.err
}

func (f *fakeAPI) PostAppMaintenance(_ context.Context, app string, mode heroku.MaintenanceMode) error {
	f.record("post_app_maintenance %s %s", app, mode)
	return f.maintenance[mode]
}

func (f *fakeAPI) PostApp(_ context.Context, params heroku.AppParams) (*heroku.App, error) {
	f.record("post_app name=%s stack=%s", params.Name, params.Stack)
	if f.err != nil {
		return nil, f.err
	}
	if f.created != nil {
		return f.created, nil
	}
	return &heroku.App{Name: params.Name, Stack: params.Stack}, nil
}

func (f *fakeAPI) DeleteApp(_ context.Context, app string) error {
	f.record("delete_app %s", app)
	return f.err
}

type fakeVCS struct {
	calls   []string
	tags    map[string]string
	remote  string
	named   map[string]string
	pushErr error
}

func (f *fakeVCS) ResolveTag(pattern string) (string, error) {
	f.calls = append(f.calls, "resolve_tag "+pattern)
	return f.tags[pattern], nil
}

func (f *fakeVCS) RemoteRevision(_ context.Context, repoURL string) (string, error) {
	f.calls = append(f.calls, "remote_revision "+repoURL)
	return f.remote, nil
}

func (f *fakeVCS) NamedRevision(_ context.Context, rev string) (string, error) {
	f.calls = append(f.calls, "named_revision "+rev)
	return f.named[rev], nil
}

func (f *fakeVCS) Push(_ context.Context, rev, repoURL string, flags ...string) error {
	f.calls = append(f.calls, strings.TrimSpace(fmt.Sprintf("push %s %s %s", rev, repoURL, strings.Join(flags, " "))))
	return f.pushErr
}

type fakeShell struct {
	commands []string
	errs     map[string]error
}

func (f *fakeShell) Run(_ context.Context, command string) error {
	f.commands = append(f.commands, command)
	return f.errs[command]
}
