package app

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/postdeck/postdeck/internal/auth"
	"github.com/postdeck/postdeck/internal/db/models"
)

const rolesActor = "cli"

func init() { //nolint: gochecknoinits
	rolesAuditCmd.Flags().IntVar(&auditLimit, "limit", 50, "number of entries to show")

	rolesCmd.AddCommand(rolesListCmd, rolesSetCmd, rolesAuditCmd)
	rootCmd.AddCommand(rolesCmd)
}

var (
	auditLimit int

	rolesCmd = &cobra.Command{
		Use:   "roles",
		Short: "Inspect and change built-in role default permissions",
	}

	rolesListCmd = &cobra.Command{
		Use:   "list",
		Short: "List the default permissions of every built-in role",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, svc, err := openAuth()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ROLE\tPERMISSIONS")

			for _, role := range models.BuiltinRoles() {
				codes, err := svc.RoleDefaultPermissions(cmd.Context(), role)
				if err != nil {
					return err
				}

				_, _ = fmt.Fprintf(w, "%s\t%s\n", role, strings.Join(codes, ","))
			}

			return w.Flush()
		},
	}

	rolesSetCmd = &cobra.Command{
		Use:   "set ROLE [PERMISSION...]",
		Short: "Replace the default permissions of a built-in role",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, ok := models.ParseRole(strings.ToUpper(args[0]))
			if !ok {
				return auth.ErrInvalidRole.With("%q", args[0])
			}

			_, svc, err := openAuth()
			if err != nil {
				return err
			}

			changes, err := svc.Defaults().SetRolePermissions(cmd.Context(), role, args[1:], rolesActor)
			if err != nil {
				return err
			}

			for _, c := range changes {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", c.Action, c.Role, c.Code)
			}

			return nil
		},
	}

	rolesAuditCmd = &cobra.Command{
		Use:   "audit ROLE",
		Short: "Show the change history of a built-in role's default permissions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, ok := models.ParseRole(strings.ToUpper(args[0]))
			if !ok {
				return auth.ErrInvalidRole.With("%q", args[0])
			}

			_, svc, err := openAuth()
			if err != nil {
				return err
			}

			entries, err := svc.Defaults().Audit(cmd.Context(), role, auditLimit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "TIME\tACTION\tPERMISSION\tACTOR")

			for _, e := range entries {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					e.CreatedAt.Format("2006-01-02 15:04:05"), e.Action, e.PermissionCode, e.Actor)
			}

			return w.Flush()
		},
	}
)
