package auth

import "github.com/postdeck/postdeck/internal/apperr"

var (
	// ErrNotAMember is returned when the user has no active membership in the team.
	ErrNotAMember = apperr.New(apperr.KindForbidden, "NOT_A_MEMBER", "user is not an active member of the team")

	// ErrPermissionMissing is returned by Authorize. The message names the missing permission.
	ErrPermissionMissing = apperr.New(apperr.KindForbidden, "PERMISSION_MISSING", "missing permission")

	// ErrOwnerRequired is returned when a non-owner tries to hand out or take away the owner role.
	ErrOwnerRequired = apperr.New(apperr.KindForbidden, "OWNER_REQUIRED", "only owners can change owner memberships")

	// ErrPermissionNotFound is returned when a permission code is not in the catalog.
	ErrPermissionNotFound = apperr.New(apperr.KindNotFound, "PERMISSION_NOT_FOUND", "permission not found")

	// ErrMembershipNotFound is returned when a membership does not exist in the team.
	ErrMembershipNotFound = apperr.New(apperr.KindNotFound, "MEMBERSHIP_NOT_FOUND", "membership not found")

	// ErrCustomRoleNotFound is returned when a custom role does not exist in the team.
	ErrCustomRoleNotFound = apperr.New(apperr.KindNotFound, "CUSTOM_ROLE_NOT_FOUND", "custom role not found")

	// ErrUserNotFound is returned when a user cannot be found.
	ErrUserNotFound = apperr.New(apperr.KindNotFound, "USER_NOT_FOUND", "user not found")

	// ErrTeamNotFound is returned when a team cannot be found.
	ErrTeamNotFound = apperr.New(apperr.KindNotFound, "TEAM_NOT_FOUND", "team not found")

	// ErrCustomRoleExists is returned when a custom role name is already taken in the team.
	ErrCustomRoleExists = apperr.New(apperr.KindConflict, "CUSTOM_ROLE_EXISTS", "custom role already exists")

	// ErrUserNameOrEmailExists is returned when attempting to create a user with a username or email that already exists.
	ErrUserNameOrEmailExists = apperr.New(apperr.KindConflict, "USER_EXISTS", "user with username or email already exists")

	// ErrAlreadyMember is returned when the user already has a membership in the team.
	ErrAlreadyMember = apperr.New(apperr.KindConflict, "ALREADY_MEMBER", "user is already a member of the team")

	// ErrInvalidRole is returned for unknown built-in role names.
	ErrInvalidRole = apperr.New(apperr.KindValidation, "INVALID_ROLE", "invalid role")

	// ErrInvalidToken is returned for malformed, unknown or wrong API tokens.
	ErrInvalidToken = apperr.New(apperr.KindUnauthorized, "INVALID_TOKEN", "invalid api token")

	// ErrTokenExpired is returned for API tokens past their expiry.
	ErrTokenExpired = apperr.New(apperr.KindUnauthorized, "TOKEN_EXPIRED", "api token expired")

	// ErrUserAccountDisabled is returned when a disabled user tries to authenticate.
	ErrUserAccountDisabled = apperr.New(apperr.KindUnauthorized, "USER_DISABLED", "user account is disabled")
)
