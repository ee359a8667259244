package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reviewapps-dev/san/internal/deploy"
	"github.com/reviewapps-dev/san/internal/stage"
)

func addRevisionFlags(cmd *cobra.Command) {
	cmd.Flags().String("revision", "", "revision to deploy (default: latest tag matching the stage tag, else HEAD)")
	cmd.Flags().Bool("force", false, "force push")
}

func revisionFlags(cmd *cobra.Command) (string, bool, error) {
	revision, err := cmd.Flags().GetString("revision")
	if err != nil {
		return "", false, err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return "", false, err
	}
	return revision, force, nil
}

func newDeployCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy with each stage's deploy strategy",
		Long: "Deploy with each stage's deploy strategy.\n\n" +
			"Strategies: " + strings.Join(deploy.Names(), ", "),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			revision, force, err := revisionFlags(cmd)
			if err != nil {
				return err
			}
			return a.eachStage(cmd, func(s *stage.Stage) error {
				return s.Release(cmd.Context(), revision, force)
			})
		},
	}
	addRevisionFlags(cmd)
	return cmd
}

func newPushCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Push code without running the deploy strategy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			revision, force, err := revisionFlags(cmd)
			if err != nil {
				return err
			}
			return a.eachStage(cmd, func(s *stage.Stage) error {
				return s.Deploy(cmd.Context(), revision, force)
			})
		},
	}
	addRevisionFlags(cmd)
	return cmd
}

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations and restart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.eachStage(cmd, func(s *stage.Stage) error {
				out, err := s.Migrate(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}

func newRestartCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Restart every dyno",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.eachStage(cmd, func(s *stage.Stage) error {
				out, err := s.Restart(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}

func newMaintenanceCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "maintenance on|off",
		Short:     "Turn maintenance mode on or off",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(stage.On), string(stage.Off)},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := stage.Action(args[0])
			return a.eachStage(cmd, func(s *stage.Stage) error {
				if err := s.Maintenance(cmd.Context(), action); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "maintenance %s\n", action)
				return nil
			})
		},
	}
}

func newRunCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run <command> [args...]",
		Short: "Run a one-off command on a dyno",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.eachStage(cmd, func(s *stage.Stage) error {
				return s.Run(cmd.Context(), args[0], strings.Join(args[1:], " "))
			})
		},
	}
}

func newLogsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the application logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tail, err := cmd.Flags().GetBool("tail")
			if err != nil {
				return err
			}
			return a.eachStage(cmd, func(s *stage.Stage) error {
				return s.Logs(cmd.Context(), tail)
			})
		},
	}
	cmd.Flags().BoolP("tail", "t", false, "keep streaming new log lines")
	return cmd
}
