package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reviewapps-dev/san/internal/env"
	"github.com/reviewapps-dev/san/internal/stage"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Sync config vars between the stage file and Heroku",
	}
	cmd.AddCommand(newConfigPushCommand(a), newConfigPullCommand(a))
	return cmd
}

func newConfigPushCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Push config vars to Heroku",
		Long: `Push the config vars of the stage file to Heroku. With --file, the
vars are read from a dotenv file instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := cmd.Flags().GetString("file")
			if err != nil {
				return err
			}
			var overrides map[string]string
			if file != "" {
				if overrides, err = env.ReadFile(file); err != nil {
					return err
				}
			}
			return a.eachStage(cmd, func(s *stage.Stage) error {
				vars, err := s.PushConfig(cmd.Context(), overrides)
				if err != nil {
					return err
				}
				return printVars(cmd, vars)
			})
		},
	}
	cmd.Flags().StringP("file", "f", "", "dotenv file to push instead of the stage config")
	return cmd
}

func newConfigPullCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Show or save the config vars set on Heroku",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := cmd.Flags().GetString("file")
			if err != nil {
				return err
			}
			stages, err := a.selectStages(cmd)
			if err != nil {
				return err
			}
			if file != "" && len(stages) > 1 {
				return fmt.Errorf("--file needs exactly one stage, got %d", len(stages))
			}
			for _, s := range stages {
				vars, err := s.LongConfig(cmd.Context())
				if err != nil {
					return fmt.Errorf("%s: %w", s.Name(), err)
				}
				if file != "" {
					if err := env.WriteFile(file, vars); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "wrote %d vars of %s to %s\n", len(vars), s.Name(), file)
					continue
				}
				a.header(cmd.OutOrStdout(), s)
				if err := printVars(cmd, vars); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringP("file", "f", "", "write the vars to this dotenv file")
	return cmd
}

func printVars(cmd *cobra.Command, vars map[string]string) error {
	out, err := env.Format(vars)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
