package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reviewapps-dev/san/internal/stage"
	"github.com/reviewapps-dev/san/internal/version"
)

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List the configured stages",
		Args:    cobra.NoArgs,
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a.all, a.stageNames = true, nil
			stages, err := a.selectStages(cmd)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STAGE\tAPP\tSTACK\tTAG\tDEPLOY")
			for _, s := range stages {
				settings := s.Settings()
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.Name(), settings.App, settings.Stack, settings.Tag, settings.Deploy)
			}
			return w.Flush()
		},
	}
}

func newAddonsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "addons",
		Short: "Install the configured add-ons missing from each app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.eachStage(cmd, func(s *stage.Stage) error {
				addons, err := s.InstallAddons(cmd.Context())
				if err != nil {
					return err
				}
				if addons == nil {
					if addons, err = s.InstalledAddons(cmd.Context()); err != nil {
						return err
					}
				}
				for _, addon := range addons {
					fmt.Fprintln(cmd.OutOrStdout(), addon.Name)
				}
				return nil
			})
		},
	}
}

func newCreateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create the Heroku app of each stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.eachStage(cmd, func(s *stage.Stage) error {
				name, err := s.Create(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", name)
				return nil
			})
		},
	}
}

func newDestroyCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Permanently delete the Heroku app of a stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			confirm, err := cmd.Flags().GetString("confirm")
			if err != nil {
				return err
			}
			return a.eachStage(cmd, func(s *stage.Stage) error {
				name, err := s.App()
				if err != nil {
					return err
				}
				if confirm != name {
					return fmt.Errorf("refusing to destroy %s without --confirm %s", name, name)
				}
				if err := s.Destroy(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "destroyed %s\n", name)
				return nil
			})
		},
	}
	cmd.Flags().String("confirm", "", "name of the app being destroyed")
	return cmd
}

func newRevisionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "revision",
		Short: "Show the revision deployed to each stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.eachStage(cmd, func(s *stage.Stage) error {
				rev, err := s.Revision(cmd.Context())
				if err != nil {
					return err
				}
				if rev == "" {
					rev = "not deployed"
				}
				fmt.Fprintln(cmd.OutOrStdout(), rev)
				return nil
			})
		},
	}
}

func newSharingCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sharing",
		Short: "Manage app collaborators",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <email>",
			Short: "Add a collaborator",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.eachStage(cmd, func(s *stage.Stage) error {
					return s.SharingAdd(cmd.Context(), args[0])
				})
			},
		},
		&cobra.Command{
			Use:     "remove <email>",
			Short:   "Remove a collaborator",
			Aliases: []string{"rm"},
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.eachStage(cmd, func(s *stage.Stage) error {
					return s.SharingRemove(cmd.Context(), args[0])
				})
			},
		},
	)
	return cmd
}

func newGenerateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Write an example stage file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.configuration(cmd)
			file := c.File()
			written, err := c.Generate()
			if err != nil {
				return err
			}
			if !written {
				return fmt.Errorf("%s already exists", file)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", file)
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// No config needed.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "san %s\n", version.String())
		},
	}
}
