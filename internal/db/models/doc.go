// Package models contains the database model definitions.
//
// Every persisted entity of the permission resolver, the approval engine and the
// notification outbox lives here so a single AutoMigrate call covers the schema.
package models

// All returns every model in migration order.
func All() []any {
	return []any{
		&Setting{},
		&Permission{},
		&RolePermission{},
		&RolePermissionAudit{},
		&Team{},
		&User{},
		&APIToken{},
		&CustomRole{},
		&CustomRolePermission{},
		&Membership{},
		&MembershipGrant{},
		&MembershipDeny{},
		&Post{},
		&ApprovalWorkflow{},
		&ApprovalStep{},
		&ApprovalInstance{},
		&ApprovalAssignment{},
		&OutboxMessage{},
	}
}
