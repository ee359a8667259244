// Package stage models one named deployment environment of an application
// on Heroku and the operations that can be run against it.
//
// Properties are resolved from the stage settings on first use. The ones
// that need work (the repository URL, the stack) are memoized for the life
// of the Stage and never refreshed. A Stage is not safe for concurrent use;
// distinct stages share nothing and can be driven in parallel.
package stage

import (
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/reviewapps-dev/san/internal/deploy"
	"github.com/reviewapps-dev/san/internal/heroku"
	"github.com/reviewapps-dev/san/internal/logging"
	"github.com/reviewapps-dev/san/internal/shell"
	"github.com/reviewapps-dev/san/internal/stagesyml"
)

// VCS is the version control the stage deploys from.
type VCS interface {
	ResolveTag(pattern string) (string, error)
	RemoteRevision(ctx context.Context, repoURL string) (string, error)
	NamedRevision(ctx context.Context, rev string) (string, error)
	Push(ctx context.Context, rev, repoURL string, flags ...string) error
}

// modernStack matches the stacks that take `heroku run <cmd>` rather than
// the legacy `heroku run:<cmd>`.
var modernStack = regexp.MustCompile(`cedar|heroku-\d+|container`)

type Stage struct {
	name     string
	settings stagesyml.Settings

	api      heroku.API
	vcs      VCS
	shell    shell.Runner
	strategy deploy.Strategy
	logger   *logging.StageLogger
	cliBin   string
	gitHost  string

	repo          string
	repoResolved  bool
	stack         string
	stackResolved bool
}

type Option func(*Stage)

func WithAPI(api heroku.API) Option {
	return func(s *Stage) { s.api = api }
}

func WithVCS(vcs VCS) Option {
	return func(s *Stage) { s.vcs = vcs }
}

func WithShell(r shell.Runner) Option {
	return func(s *Stage) { s.shell = r }
}

func WithStrategy(strategy deploy.Strategy) Option {
	return func(s *Stage) { s.strategy = strategy }
}

// WithCLI sets the Heroku CLI executable used for shell operations.
func WithCLI(bin string) Option {
	return func(s *Stage) { s.cliBin = bin }
}

// WithGitHost sets the host of the default repository URL.
func WithGitHost(host string) Option {
	return func(s *Stage) { s.gitHost = host }
}

func WithLogger(l *logging.StageLogger) Option {
	return func(s *Stage) { s.logger = l }
}

func New(name string, settings stagesyml.Settings, opts ...Option) *Stage {
	settings.Config = maps.Clone(settings.Config)
	settings.Addons = slices.Clone(settings.Addons)
	s := &Stage{
		name:     name,
		settings: settings,
		cliBin:   "heroku",
		gitHost:  "heroku.com",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewStageLogger(name)
	}
	return s
}

func (s *Stage) Name() string { return s.name }

// Settings returns a copy of the stage's raw settings.
func (s *Stage) Settings() stagesyml.Settings {
	settings := s.settings
	settings.Config = maps.Clone(settings.Config)
	settings.Addons = slices.Clone(settings.Addons)
	return settings
}

// Logger records what is done to the stage.
func (s *Stage) Logger() *logging.StageLogger { return s.logger }

// Strategy is the deploy strategy Release runs.
func (s *Stage) Strategy() deploy.Strategy { return s.strategy }

// App is the Heroku application name.
func (s *Stage) App() (string, error) {
	if s.settings.App == "" {
		return "", &MissingApplicationError{Stage: s.name}
	}
	return s.settings.App, nil
}

// Repo is the git remote deploys are pushed to, by default the app's
// Heroku repository.
func (s *Stage) Repo() (string, error) {
	if s.repoResolved {
		return s.repo, nil
	}
	repo := s.settings.Repo
	if repo == "" {
		app, err := s.App()
		if err != nil {
			return "", err
		}
		repo = fmt.Sprintf("git@%s:%s.git", s.gitHost, app)
	}
	s.repo, s.repoResolved = repo, true
	return s.repo, nil
}

// Stack is the configured stack, or else the one Heroku reports as current
// for the app.
func (s *Stage) Stack(ctx context.Context) (string, error) {
	if s.stackResolved {
		return s.stack, nil
	}
	stack := s.settings.Stack
	if stack == "" {
		app, err := s.App()
		if err != nil {
			return "", err
		}
		stacks, err := s.api.GetStack(ctx, app)
		if err != nil {
			return "", fmt.Errorf("%s: stack: %w", s.name, err)
		}
		for _, st := range stacks {
			if st.Current {
				stack = st.Name
				break
			}
		}
		if stack == "" {
			return "", fmt.Errorf("%s: stack: heroku reports no current stack for %s", s.name, app)
		}
	}
	s.stack, s.stackResolved = stack, true
	return s.stack, nil
}

// Tag is the glob of the git tags deploys pick from, if any.
func (s *Stage) Tag() string {
	return s.settings.Tag
}

func (s *Stage) Config() map[string]string {
	if s.settings.Config == nil {
		return map[string]string{}
	}
	return maps.Clone(s.settings.Config)
}

func (s *Stage) Addons() []string {
	if s.settings.Addons == nil {
		return []string{}
	}
	return slices.Clone([]string(s.settings.Addons))
}

// heroku runs the Heroku CLI against the stage's app.
func (s *Stage) heroku(ctx context.Context, command string) error {
	app, err := s.App()
	if err != nil {
		return err
	}
	return s.shell.Run(ctx, fmt.Sprintf("%s %s --app %s", s.cliBin, command, app))
}

// Run runs a one-off command on a dyno.
func (s *Stage) Run(ctx context.Context, command, args string) error {
	stack, err := s.Stack(ctx)
	if err != nil {
		return err
	}
	cmdline := "run:" + command
	if modernStack.MatchString(stack) {
		cmdline = "run " + command
	}
	if args != "" {
		cmdline += " " + args
	}
	return s.heroku(ctx, cmdline)
}

func (s *Stage) Rake(ctx context.Context, args ...string) error {
	return s.Run(ctx, "rake", strings.Join(args, " "))
}

// Deploy pushes revision to the stage's repository. Without a revision the
// latest tag matching Tag is pushed.
func (s *Stage) Deploy(ctx context.Context, revision string, force bool) error {
	if revision == "" {
		rev, err := s.vcs.ResolveTag(s.Tag())
		if err != nil {
			return fmt.Errorf("%s: deploy: %w", s.name, err)
		}
		revision = rev
	}
	repo, err := s.Repo()
	if err != nil {
		return err
	}
	var flags []string
	if force {
		flags = append(flags, "--force")
	}
	return s.vcs.Push(ctx, revision, repo, flags...)
}

// Release runs the stage's deploy strategy.
func (s *Stage) Release(ctx context.Context, revision string, force bool) error {
	strategy := s.strategy
	if strategy == nil {
		var err error
		if strategy, err = deploy.Lookup(deploy.DefaultStrategy); err != nil {
			return err
		}
	}
	return strategy.Execute(ctx, s, revision, force)
}

// Migrate runs the database migrations and then restarts the app. A failed
// migration is not rolled back and the app is not restarted.
func (s *Stage) Migrate(ctx context.Context) (string, error) {
	if err := s.Rake(ctx, "db:migrate"); err != nil {
		return "", err
	}
	return s.Restart(ctx)
}

func (s *Stage) Restart(ctx context.Context) (string, error) {
	app, err := s.App()
	if err != nil {
		return "", err
	}
	// The platform answers a restart with 202 and an empty object, so any
	// successful response counts.
	if err := s.api.PostPSRestart(ctx, app); err != nil {
		return "", err
	}
	return "restarted", nil
}

func (s *Stage) Logs(ctx context.Context, tail bool) error {
	command := "logs"
	if tail {
		command += " --tail"
	}
	return s.heroku(ctx, command)
}

func (s *Stage) SharingAdd(ctx context.Context, email string) error {
	return s.heroku(ctx, "sharing:add "+shellquote.Join(strings.TrimSpace(email)))
}

func (s *Stage) SharingRemove(ctx context.Context, email string) error {
	return s.heroku(ctx, "sharing:remove "+shellquote.Join(strings.TrimSpace(email)))
}

// Revision names the revision currently deployed to the stage, or returns ""
// if nothing has been pushed yet.
func (s *Stage) Revision(ctx context.Context) (string, error) {
	repo, err := s.Repo()
	if err != nil {
		return "", err
	}
	rev, err := s.vcs.RemoteRevision(ctx, repo)
	if err != nil {
		return "", err
	}
	return s.vcs.NamedRevision(ctx, rev)
}
