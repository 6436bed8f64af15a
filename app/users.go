package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/postdeck/postdeck/internal/auth"
	"github.com/postdeck/postdeck/internal/db/models"
)

func init() { //nolint: gochecknoinits
	userAddCmd.Flags().StringVar(&firstName, "first-name", "", "first name")
	userAddCmd.Flags().StringVar(&lastName, "last-name", "", "last name")
	tokenAddCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime, 0 never expires")
	tokenAddCmd.Flags().StringVar(&tokenName, "name", "cli", "token name")

	userCmd.AddCommand(userAddCmd)
	teamCmd.AddCommand(teamAddCmd)
	memberCmd.AddCommand(memberAddCmd)
	tokenCmd.AddCommand(tokenAddCmd)
	rootCmd.AddCommand(userCmd, teamCmd, memberCmd, tokenCmd)
}

var (
	firstName string
	lastName  string
	tokenTTL  time.Duration
	tokenName string

	userCmd   = &cobra.Command{Use: "user", Short: "Manage users"}
	teamCmd   = &cobra.Command{Use: "team", Short: "Manage teams"}
	memberCmd = &cobra.Command{Use: "member", Short: "Manage team memberships"}
	tokenCmd  = &cobra.Command{Use: "token", Short: "Manage API tokens"}

	userAddCmd = &cobra.Command{
		Use:   "add USERNAME EMAIL",
		Short: "Create a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, err := openAuth()
			if err != nil {
				return err
			}

			u, err := svc.CreateUser(cmd.Context(), args[0], args[1], firstName, lastName)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "user %s created with id %d\n", u.Username, u.ID)

			return err
		},
	}

	teamAddCmd = &cobra.Command{
		Use:   "add NAME OWNER_USERNAME",
		Short: "Create a team owned by an existing user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, err := openAuth()
			if err != nil {
				return err
			}

			owner, err := svc.GetUserByUsername(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			team, err := svc.CreateTeam(cmd.Context(), args[0], owner.ID)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "team %s created with id %d\n", team.Name, team.ID)

			return err
		},
	}

	memberAddCmd = &cobra.Command{
		Use:   "add TEAM_ID USERNAME ROLE|custom:ID",
		Short: "Add a user to a team with a built-in or custom role",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			teamID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return auth.ErrTeamNotFound.With("%q", args[0])
			}

			basis, err := parseBasis(args[2])
			if err != nil {
				return err
			}

			_, svc, err := openAuth()
			if err != nil {
				return err
			}

			u, err := svc.GetUserByUsername(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			m, err := svc.AddMember(cmd.Context(), teamID, u.ID, basis)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "membership %d created: %s in team %d as %s\n",
				m.ID, u.Username, teamID, basis)

			return err
		},
	}

	tokenAddCmd = &cobra.Command{
		Use:   "add USERNAME",
		Short: "Issue an API token. The plaintext is shown once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, err := openAuth()
			if err != nil {
				return err
			}

			u, err := svc.GetUserByUsername(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			plaintext, token, err := svc.IssueToken(cmd.Context(), u.ID, tokenName, tokenTTL)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "token %d for %s: %s\n", token.ID, u.Username, plaintext)

			return err
		},
	}
)

// parseBasis reads a built-in role name or custom:ID.
func parseBasis(s string) (models.AuthorizationBasis, error) {
	if raw, ok := strings.CutPrefix(s, "custom:"); ok {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, auth.ErrInvalidRole.With("%q", s)
		}

		return models.CustomRoleBasis{ID: id}, nil
	}

	role, ok := models.ParseRole(strings.ToUpper(s))
	if !ok {
		return nil, auth.ErrInvalidRole.With("%q", s)
	}

	return models.BuiltinRole{Role: role}, nil
}
