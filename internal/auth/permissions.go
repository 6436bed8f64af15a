package auth

import "github.com/postdeck/postdeck/internal/db/models"

// Permission constants define the permission catalog.
// Codes are resource.action strings checked by the resolver.
const (
	// PermContentCreate allows composing new posts.
	PermContentCreate = "content.create"
	// PermContentEdit allows editing posts.
	PermContentEdit = "content.edit"
	// PermContentDelete allows deleting posts.
	PermContentDelete = "content.delete"
	// PermContentView allows reading posts.
	PermContentView = "content.view"
	// PermContentSubmit allows submitting posts into an approval workflow.
	PermContentSubmit = "content.submit"
	// PermContentApprove allows reviewing posts.
	PermContentApprove = "content.approve"
	// PermContentSchedule allows scheduling approved posts.
	PermContentSchedule = "content.schedule"
	// PermContentPublish allows publishing posts immediately.
	PermContentPublish = "content.publish"

	// PermWorkflowManage allows creating, editing and deleting approval workflows.
	PermWorkflowManage = "workflow.manage"
	// PermWorkflowView allows listing workflows and approval instances.
	PermWorkflowView = "workflow.view"

	// PermTeamManage allows editing team settings.
	PermTeamManage = "team.manage"
	// PermTeamMembersManage allows changing memberships and their roles.
	PermTeamMembersManage = "team.members.manage"
	// PermTeamRolesManage allows managing the team's custom roles.
	PermTeamRolesManage = "team.roles.manage"
	// PermPermissionsManage allows per-member permission grants and denies.
	PermPermissionsManage = "permissions.manage"

	// PermAnalyticsView allows viewing engagement analytics.
	PermAnalyticsView = "analytics.view"
	// PermAccountsManage allows connecting and removing social accounts.
	PermAccountsManage = "accounts.manage"
)

// Catalog returns the permission catalog seeded at startup.
func Catalog() []models.Permission {
	return []models.Permission{
		models.NewPermission(PermContentCreate, "Compose new posts"),
		models.NewPermission(PermContentEdit, "Edit posts"),
		models.NewPermission(PermContentDelete, "Delete posts"),
		models.NewPermission(PermContentView, "View posts"),
		models.NewPermission(PermContentSubmit, "Submit posts for approval"),
		models.NewPermission(PermContentApprove, "Review posts in approval workflows"),
		models.NewPermission(PermContentSchedule, "Schedule approved posts"),
		models.NewPermission(PermContentPublish, "Publish posts"),
		models.NewPermission(PermWorkflowManage, "Manage approval workflows"),
		models.NewPermission(PermWorkflowView, "View approval workflows and requests"),
		models.NewPermission(PermTeamManage, "Manage team settings"),
		models.NewPermission(PermTeamMembersManage, "Manage team members"),
		models.NewPermission(PermTeamRolesManage, "Manage custom roles"),
		models.NewPermission(PermPermissionsManage, "Grant and deny member permissions"),
		models.NewPermission(PermAnalyticsView, "View analytics"),
		models.NewPermission(PermAccountsManage, "Manage connected social accounts"),
	}
}

// DefaultRolePermissions returns the initial permission set of every built-in role except the owner,
// which bypasses role defaults.
func DefaultRolePermissions() map[models.Role][]string {
	return map[models.Role][]string{
		models.RoleAdmin: {
			PermContentCreate, PermContentEdit, PermContentDelete, PermContentView,
			PermContentSubmit, PermContentApprove, PermContentSchedule, PermContentPublish,
			PermWorkflowManage, PermWorkflowView,
			PermTeamManage, PermTeamMembersManage, PermTeamRolesManage, PermPermissionsManage,
			PermAnalyticsView, PermAccountsManage,
		},
		models.RoleManager: {
			PermContentCreate, PermContentEdit, PermContentDelete, PermContentView,
			PermContentSubmit, PermContentApprove, PermContentSchedule, PermContentPublish,
			PermWorkflowManage, PermWorkflowView, PermAnalyticsView,
		},
		models.RoleEditor: {
			PermContentCreate, PermContentEdit, PermContentView, PermContentSubmit, PermContentSchedule,
		},
		models.RoleClientReviewer: {
			PermContentView, PermContentApprove, PermWorkflowView,
		},
		models.RoleViewer: {
			PermContentView, PermAnalyticsView,
		},
	}
}
