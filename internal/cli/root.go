// Package cli is the san command tree.
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/logrusorgru/aurora"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/reviewapps-dev/san/internal/config"
	"github.com/reviewapps-dev/san/internal/configuration"
	"github.com/reviewapps-dev/san/internal/git"
	"github.com/reviewapps-dev/san/internal/heroku"
	"github.com/reviewapps-dev/san/internal/logging"
	"github.com/reviewapps-dev/san/internal/shell"
	"github.com/reviewapps-dev/san/internal/stage"
	"github.com/reviewapps-dev/san/internal/version"
)

// app is the state shared by every command of one invocation.
type app struct {
	configPath string
	stagesFile string
	logLevel   string
	stageNames []string
	all        bool
	transcript string

	cfg   *config.Config
	color bool

	// stageOptions wires a stage to Heroku, git and the shell.
	stageOptions func(a *app, cmd *cobra.Command) []stage.Option
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{
		color:        isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
		stageOptions: defaultStageOptions,
	})
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "san",
		Short:   "Deploy and manage the stages of a Heroku application",
		Version: version.String(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return a.load(cmd)
		},
		SilenceErrors: true,
	}
	setPersistentFlags(rootCmd.PersistentFlags(), a)

	rootCmd.AddCommand(
		newListCommand(a),
		newDeployCommand(a),
		newPushCommand(a),
		newMigrateCommand(a),
		newMaintenanceCommand(a),
		newRunCommand(a),
		newRestartCommand(a),
		newLogsCommand(a),
		newConfigCommand(a),
		newAddonsCommand(a),
		newCreateCommand(a),
		newDestroyCommand(a),
		newRevisionCommand(a),
		newSharingCommand(a),
		newGenerateCommand(a),
		newVersionCommand(),
	)
	return rootCmd
}

func setPersistentFlags(fs *pflag.FlagSet, a *app) {
	fs.StringVar(&a.configPath, "config", config.DefaultPath, "path to config.toml")
	fs.StringVar(&a.stagesFile, "stages", "", "path to the stage file (default from config)")
	fs.StringVar(&a.logLevel, "log-level", "", "log level (default from config)")
	fs.StringSliceVarP(&a.stageNames, "stage", "s", nil, "stage to operate on (repeatable)")
	fs.BoolVar(&a.all, "all", false, "operate on every stage")
	fs.StringVar(&a.transcript, "transcript", "", "append each stage's log lines to this file")
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.stagesFile != "" {
		cfg.Stages.File = a.stagesFile
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := logging.Setup(cfg.Log.Level, cmd.ErrOrStderr()); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func defaultStageOptions(a *app, cmd *cobra.Command) []stage.Option {
	client := heroku.NewClient(heroku.ClientOptions{
		Endpoint:  a.cfg.API.Endpoint,
		Key:       a.cfg.API.Key,
		UserAgent: version.UserAgent(),
		RateLimit: a.cfg.API.RateLimit,
		Timeout:   time.Duration(a.cfg.API.TimeoutSeconds) * time.Second,
	})
	sh := shell.New()
	sh.Stdin = cmd.InOrStdin()
	sh.Stdout = cmd.OutOrStdout()
	sh.Stderr = cmd.ErrOrStderr()
	return []stage.Option{
		stage.WithAPI(heroku.WithErrors(client, cmd.ErrOrStderr(), a.color)),
		stage.WithVCS(git.New(".", a.cfg.Git.Branch)),
		stage.WithShell(sh),
		stage.WithCLI(a.cfg.CLI.Bin),
		stage.WithGitHost(a.cfg.Git.Host),
	}
}

func (a *app) configuration(cmd *cobra.Command) *configuration.Configuration {
	return configuration.New(
		a.cfg.Stages.File,
		map[string]string{configuration.DeployOption: a.cfg.Stages.Deploy},
		a.stageOptions(a, cmd)...,
	)
}

func (a *app) au() aurora.Aurora {
	return aurora.NewAurora(a.color)
}

// header announces the stage the following output belongs to.
func (a *app) header(w io.Writer, s *stage.Stage) {
	fmt.Fprintf(w, "%s %s\n", a.au().Cyan("--->"), a.au().Bold(s.Name()))
}
