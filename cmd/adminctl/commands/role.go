package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sos-expat/backend/internal/domain/user"
)

// setRoleCmd bootstraps the first admin; the HTTP role route is
// admin-only.
func setRoleCmd() *cobra.Command {
	var uid, role string
	cmd := &cobra.Command{
		Use:   "set-role",
		Short: "Store a user's role and mirror it into custom claims",
		RunE: func(cmd *cobra.Command, args []string) error {
			uid = strings.TrimSpace(uid)
			role = strings.ToLower(strings.TrimSpace(role))
			if uid == "" {
				return fmt.Errorf("--uid is required")
			}
			if !user.IsValidRole(role) {
				return fmt.Errorf("--role must be one of %s", strings.Join(user.ValidRoles, ", "))
			}

			ctx := cmd.Context()
			if err := user.NewRepo(clients.Firestore).SetRole(ctx, uid, role); err != nil {
				return fmt.Errorf("save role: %w", err)
			}
			claims, err := user.MergeClaims(ctx, clients.Auth, uid, user.RoleClaims(role))
			if err != nil {
				return fmt.Errorf("set claims: %w", err)
			}
			return printJSON(map[string]any{"uid": uid, "role": role, "claims": claims})
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "target firebase uid")
	cmd.Flags().StringVar(&role, "role", user.RoleAdmin, "role to grant")
	return cmd
}
