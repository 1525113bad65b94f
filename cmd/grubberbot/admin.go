package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/itbasis/go-clock"
	"github.com/spf13/cobra"
	"github.com/vietd88/grubberbot/controller"
	"github.com/vietd88/grubberbot/db"
	"github.com/vietd88/grubberbot/model"
)

// run builds a controller and hands it to f, for the one-shot admin commands.
func (a *app) run(f func(ctx context.Context, ctrl controller.C) error) error {
	ctx := context.Background()
	ctrl, err := a.newController(ctx, clock.New())
	if err != nil {
		return err
	}
	return f(ctx, ctrl)
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "migrate",
		Short:        "Apply pending database migrations",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return db.Migrate(a.cfg.PostgresConnStr)
		},
	}
}

func (a *app) seasonsCmd() *cobra.Command {
	seasonsCmd := &cobra.Command{
		Use:   "seasons",
		Short: "Manage seasons",
	}
	seasonsCmd.AddCommand(&cobra.Command{
		Use:          "init",
		Short:        "Create the current season and the upcoming ones with their default teams",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(func(ctx context.Context, ctrl controller.C) error {
				created, err := ctrl.EnsureSeasons(ctx)
				if err != nil {
					return err
				}
				if len(created) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "All seasons already exist")
				}
				for _, name := range created {
					fmt.Fprintf(cmd.OutOrStdout(), "Created season %s\n", name)
				}
				return nil
			})
		},
	})
	return seasonsCmd
}

func (a *app) teamsCmd() *cobra.Command {
	teamsCmd := &cobra.Command{
		Use:   "teams",
		Short: "Manage the teams of a season",
	}
	teamsCmd.AddCommand(&cobra.Command{
		Use:          "add <season> <team>...",
		Short:        "Add teams to a season",
		Args:         cobra.MinimumNArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(func(ctx context.Context, ctrl controller.C) error {
				if err := ctrl.AddTeams(ctx, args[0], args[1:]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %d teams to %s\n", len(args)-1, args[0])
				return nil
			})
		},
	})
	return teamsCmd
}

func roleFlag(cmd *cobra.Command, role *string) {
	cmd.Flags().StringVar(role, "role", string(model.ROLE_PLAYER), "Which members to move, player or substitute")
}

func parseRoleFlag(role string) (model.Role, error) {
	r := model.ParseRole(role)
	if r == model.ROLE_UNKNOWN {
		return r, fmt.Errorf("--role must be %s or %s, got %q", model.ROLE_PLAYER, model.ROLE_SUBSTITUTE, role)
	}
	return r, nil
}

func (a *app) balanceCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:          "balance <season>",
		Short:        "Spread the signed up members over the teams with balanced ratings",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseRoleFlag(role)
			if err != nil {
				return err
			}
			return a.run(func(ctx context.Context, ctrl controller.C) error {
				result, err := ctrl.BalanceTeams(ctx, args[0], r)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Balanced %d teams in %d iterations, score %.2f (was %.2f)\n",
					len(result.Teams), result.Iterations, result.Score, result.InitialScore)
				return nil
			})
		},
	}
	roleFlag(cmd, &role)
	return cmd
}

func (a *app) resetCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:          "reset <season>",
		Short:        "Move members back to the signup team",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseRoleFlag(role)
			if err != nil {
				return err
			}
			return a.run(func(ctx context.Context, ctrl controller.C) error {
				n, err := ctrl.ResetTeams(ctx, args[0], r)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved %d members back to signups\n", n)
				return nil
			})
		},
	}
	roleFlag(cmd, &role)
	return cmd
}

func (a *app) pairCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "pair <season> <week>",
		Short:        "Create the games of a week",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			week, err := strconv.Atoi(args[1])
			if err != nil || !model.ValidWeek(week) {
				return model.WeekError(week)
			}
			return a.run(func(ctx context.Context, ctrl controller.C) error {
				games, err := ctrl.PairWeek(ctx, args[0], week)
				if err != nil {
					return err
				}
				for _, g := range games {
					fmt.Fprintf(cmd.OutOrStdout(), "g%d %s (%s) vs %s (%s)\n", g.ID, g.White.DisplayName, g.White.TeamName, g.Black.DisplayName, g.Black.TeamName)
				}
				return nil
			})
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:          "export <season>",
		Short:        "Upload the season workbook, or write it to a file with --out",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(func(ctx context.Context, ctrl controller.C) error {
				if out == "" {
					url, err := ctrl.Export(ctx, args[0])
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), url)
					return nil
				}

				f, err := ctrl.Workbook(ctx, args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				if err := f.SaveAs(out); err != nil {
					return fmt.Errorf("error writing workbook: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the workbook to this path instead of uploading it")
	return cmd
}
