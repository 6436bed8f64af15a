// Package auth resolves effective permissions and administers everything they are built from.
//
// A user's permissions in a team come from their active membership:
//   - Owners hold the whole permission catalog, overrides are ignored
//   - Everybody else starts from their custom role or the defaults of their built-in role
//   - Per-member grants are added, then per-member denies are removed
//
// Deny is applied last, so a deny beats both the role and a grant.
//
// # Role defaults
//
// Built-in role defaults are global. RoleDefaults caches them in process and
// SetRolePermissions is their only writer; it records an audit entry per change.
//
// # Authorization
//
// Authorize returns a Forbidden error naming the missing permission. Can collapses
// every failure to false and is meant for display decisions only.
//
// Example usage:
//
//	authService := auth.NewService(db, auth.NewRoleDefaults(db, 32<<20))
//
//	if err := authService.Authorize(ctx, userID, teamID, auth.PermWorkflowManage); err != nil {
//	    return err
//	}
//
//	app.Post("/api/v1/teams/:teamId/workflows",
//	    auth.RequirePermission(authService, auth.PermWorkflowManage),
//	    handler,
//	)
package auth
