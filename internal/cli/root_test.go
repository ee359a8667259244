package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/reviewapps-dev/san/internal/heroku"
	"github.com/reviewapps-dev/san/internal/stage"
)

const testStages = `
staging:
  app: awesomeapp-staging
  stack: heroku-24
production:
  app: awesomeapp
  stack: heroku-24
  deploy: sinatra
  config:
    RACK_ENV: production
`

type recorder struct {
	calls []string
}

func (r *recorder) record(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) Run(_ context.Context, command string) error {
	r.record("sh %s", command)
	return nil
}

func (r *recorder) ResolveTag(pattern string) (string, error) { return "", nil }

func (r *recorder) RemoteRevision(_ context.Context, repoURL string) (string, error) {
	return "", nil
}

func (r *recorder) NamedRevision(_ context.Context, rev string) (string, error) { return "", nil }

func (r *recorder) Push(_ context.Context, rev, repoURL string, flags ...string) error {
	r.record("push %s %v", repoURL, flags)
	return nil
}

func (r *recorder) GetStack(_ context.Context, app string) ([]heroku.Stack, error) {
	return []heroku.Stack{{Name: "heroku-24", Current: true}}, nil
}

func (r *recorder) GetConfigVars(_ context.Context, app string) (map[string]string, error) {
	return map[string]string{"LANG": "en_US.UTF-8"}, nil
}

func (r *recorder) PutConfigVars(_ context.Context, app string, vars map[string]string) (map[string]string, error) {
	r.record("put_config_vars %s %v", app, vars)
	return vars, nil
}

func (r *recorder) GetAddons(_ context.Context, app string) ([]heroku.Addon, error) {
	return nil, nil
}

func (r *recorder) PostAddon(_ context.Context, app, addon string) (*heroku.Addon, error) {
	return &heroku.Addon{Name: addon}, nil
}

func (r *recorder) PostPSRestart(_ context.Context, app string) error {
	r.record("restart %s", app)
	return nil
}

func (r *recorder) PostAppMaintenance(_ context.Context, app string, mode heroku.MaintenanceMode) error {
	r.record("maintenance %s %s", app, mode)
	return nil
}

func (r *recorder) PostApp(_ context.Context, params heroku.AppParams) (*heroku.App, error) {
	r.record("create %s", params.Name)
	return &heroku.App{Name: params.Name}, nil
}

func (r *recorder) DeleteApp(_ context.Context, app string) error {
	r.record("destroy %s", app)
	return nil
}

func execute(t *testing.T, stagesFile string, args ...string) (*recorder, string, error) {
	t.Helper()
	rec := &recorder{}
	a := &app{
		stageOptions: func(*app, *cobra.Command) []stage.Option {
			return []stage.Option{stage.WithAPI(rec), stage.WithVCS(rec), stage.WithShell(rec)}
		},
	}
	cmd := newRootCommand(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{
		"--config", filepath.Join(t.TempDir(), "missing.toml"),
		"--stages", stagesFile,
	}, args...))
	err := cmd.ExecuteContext(context.Background())
	return rec, out.String(), err
}

func writeStages(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "heroku.yml")
	require.NoError(t, os.WriteFile(path, []byte(testStages), 0644))
	return path
}

func TestStageSelection(t *testing.T) {
	testCases := []struct {
		name       string
		args       []string
		assertions func(*recorder, string, error)
	}{
		{
			name: "nothing selected",
			args: []string{"restart"},
			assertions: func(rec *recorder, _ string, err error) {
				require.EqualError(t, err, "no stage selected: pass --stage <name> or --all (available: production, staging)")
				require.Empty(t, rec.calls)
			},
		},
		{
			name: "unknown stage",
			args: []string{"restart", "-s", "demo"},
			assertions: func(rec *recorder, _ string, err error) {
				require.ErrorContains(t, err, `unknown stage "demo"`)
				require.Empty(t, rec.calls)
			},
		},
		{
			name: "all in name order",
			args: []string{"restart", "--all"},
			assertions: func(rec *recorder, out string, err error) {
				require.NoError(t, err)
				require.Equal(t, []string{"restart awesomeapp", "restart awesomeapp-staging"}, rec.calls)
				require.Contains(t, out, "production")
			},
		},
		{
			name: "repeated stage flags",
			args: []string{"restart", "-s", "staging", "-s", "production", "-s", "staging"},
			assertions: func(rec *recorder, _ string, err error) {
				require.NoError(t, err)
				require.Equal(t, []string{"restart awesomeapp", "restart awesomeapp-staging"}, rec.calls)
			},
		},
		{
			name: "all and stage together",
			args: []string{"restart", "--all", "-s", "staging"},
			assertions: func(rec *recorder, _ string, err error) {
				require.ErrorContains(t, err, "mutually exclusive")
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			testCase.assertions(execute(t, writeStages(t), testCase.args...))
		})
	}
}

func TestCommands(t *testing.T) {
	testCases := []struct {
		name       string
		args       []string
		assertions func(*recorder, string, error)
	}{
		{
			name: "list",
			args: []string{"list"},
			assertions: func(_ *recorder, out string, err error) {
				require.NoError(t, err)
				require.Regexp(t, `(?s)STAGE.*production\s+awesomeapp\s+heroku-24\s+sinatra.*staging\s+awesomeapp-staging\s+heroku-24\s+rails`, out)
			},
		},
		{
			name: "deploy uses each stage's strategy",
			args: []string{"deploy", "--all", "--force"},
			assertions: func(rec *recorder, _ string, err error) {
				require.NoError(t, err)
				require.Equal(t, []string{
					"push git@heroku.com:awesomeapp.git [--force]",
					"push git@heroku.com:awesomeapp-staging.git [--force]",
					"sh heroku run rake db:migrate --app awesomeapp-staging",
					"restart awesomeapp-staging",
				}, rec.calls)
			},
		},
		{
			name: "push",
			args: []string{"push", "-s", "staging", "--revision", "deadbeef"},
			assertions: func(rec *recorder, _ string, err error) {
				require.NoError(t, err)
				require.Equal(t, []string{"push git@heroku.com:awesomeapp-staging.git []"}, rec.calls)
			},
		},
		{
			name: "run",
			args: []string{"run", "-s", "staging", "rake", "db:seed", "VERBOSE=1"},
			assertions: func(rec *recorder, _ string, err error) {
				require.NoError(t, err)
				require.Equal(t, []string{"sh heroku run rake db:seed VERBOSE=1 --app awesomeapp-staging"}, rec.calls)
			},
		},
		{
			name: "maintenance on",
			args: []string{"maintenance", "on", "-s", "production"},
			assertions: func(rec *recorder, _ string, err error) {
				require.NoError(t, err)
				require.Equal(t, []string{"maintenance awesomeapp 1"}, rec.calls)
			},
		},
		{
			name: "maintenance busy",
			args: []string{"maintenance", "busy", "-s", "production"},
			assertions: func(rec *recorder, _ string, err error) {
				require.ErrorContains(t, err, `Action "busy" must be one of (on, off)`)
				require.Empty(t, rec.calls)
			},
		},
		{
			name: "config push",
			args: []string{"config", "push", "-s", "production"},
			assertions: func(rec *recorder, out string, err error) {
				require.NoError(t, err)
				require.Equal(t, []string{"put_config_vars awesomeapp map[RACK_ENV:production]"}, rec.calls)
				require.Contains(t, out, `RACK_ENV="production"`)
			},
		},
		{
			name: "destroy without confirmation",
			args: []string{"destroy", "-s", "production", "--confirm", "awesomeapp-staging"},
			assertions: func(rec *recorder, _ string, err error) {
				require.ErrorContains(t, err, "refusing to destroy awesomeapp")
				require.Empty(t, rec.calls)
			},
		},
		{
			name: "destroy",
			args: []string{"destroy", "-s", "production", "--confirm", "awesomeapp"},
			assertions: func(rec *recorder, _ string, err error) {
				require.NoError(t, err)
				require.Equal(t, []string{"destroy awesomeapp"}, rec.calls)
			},
		},
		{
			name: "revision never deployed",
			args: []string{"revision", "-s", "staging"},
			assertions: func(_ *recorder, out string, err error) {
				require.NoError(t, err)
				require.Contains(t, out, "not deployed")
			},
		},
		{
			name: "sharing",
			args: []string{"sharing", "add", "dev@example.com", "-s", "staging"},
			assertions: func(rec *recorder, _ string, err error) {
				require.NoError(t, err)
				require.Equal(t, []string{"sh heroku sharing:add dev@example.com --app awesomeapp-staging"}, rec.calls)
			},
		},
		{
			name: "tail logs",
			args: []string{"logs", "--tail", "-s", "staging"},
			assertions: func(rec *recorder, _ string, err error) {
				require.NoError(t, err)
				require.Equal(t, []string{"sh heroku logs --tail --app awesomeapp-staging"}, rec.calls)
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			testCase.assertions(execute(t, writeStages(t), testCase.args...))
		})
	}
}

func TestConfigFiles(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")

	_, _, err := execute(t, writeStages(t), "config", "pull", "-s", "production", "--file", dotenv)
	require.NoError(t, err)
	data, err := os.ReadFile(dotenv)
	require.NoError(t, err)
	require.Equal(t, "LANG=\"en_US.UTF-8\"\n", string(data))

	rec, _, err := execute(t, writeStages(t), "config", "push", "-s", "production", "--file", dotenv)
	require.NoError(t, err)
	require.Equal(t, []string{"put_config_vars awesomeapp map[LANG:en_US.UTF-8]"}, rec.calls)

	_, _, err = execute(t, writeStages(t), "config", "pull", "--all", "--file", dotenv)
	require.ErrorContains(t, err, "--file needs exactly one stage")
}

func TestGenerate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "heroku.yml")

	_, out, err := execute(t, path, "generate")
	require.NoError(t, err)
	require.Contains(t, out, "wrote "+path)
	require.FileExists(t, path)

	_, _, err = execute(t, path, "generate")
	require.ErrorContains(t, err, "already exists")
}

func TestTranscript(t *testing.T) {
	stagesFile := writeStages(t)
	transcript := filepath.Join(t.TempDir(), "deploy.log")

	_, _, err := execute(t, stagesFile, "deploy", "--all", "--transcript", transcript)
	require.NoError(t, err)

	data, err := os.ReadFile(transcript)
	require.NoError(t, err)
	text := string(data)
	require.True(t, strings.HasPrefix(text, "# production\n"), text)
	require.Contains(t, text, "starting sinatra deploy")
	require.Contains(t, text, "# staging\n")
	require.Contains(t, text, "rails deploy complete")
	require.Less(t, strings.Index(text, "sinatra deploy complete"), strings.Index(text, "# staging"))

	_, _, err = execute(t, stagesFile, "deploy", "--stage", "production", "--transcript", transcript)
	require.NoError(t, err)
	data, err = os.ReadFile(transcript)
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(string(data), "# production\n"))
}

func TestDeployHelpListsStrategies(t *testing.T) {
	cmd, _, err := newRootCommand(&app{}).Find([]string{"deploy"})
	require.NoError(t, err)
	for _, name := range []string{"base", "rails", "rails-maintenance", "sinatra"} {
		require.Contains(t, cmd.Long, name)
	}
}
