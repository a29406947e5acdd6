package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserCreatedEvent fires once a signup command commits.
type UserCreatedEvent struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
}

func (UserCreatedEvent) EventType() string { return "user.created" }

// UserAuthenticatedEvent fires on a successful login.
type UserAuthenticatedEvent struct {
	UserID      uuid.UUID `json:"user_id"`
	Fingerprint string    `json:"fingerprint"`
	Timestamp   time.Time `json:"timestamp"`
}

func (UserAuthenticatedEvent) EventType() string { return "user.authenticated" }

// SessionReplayDetectedEvent fires when rotate observes a refresh token that
// no longer matches the active session list entry, triggering a full
// session-list purge for the user.
type SessionReplayDetectedEvent struct {
	UserID      uuid.UUID `json:"user_id"`
	Fingerprint string    `json:"fingerprint"`
	Timestamp   time.Time `json:"timestamp"`
}

func (SessionReplayDetectedEvent) EventType() string { return "session.replay_detected" }

// RoleAssignmentChangedEvent covers both AssignUserRole and RevokeUserRole.
type RoleAssignmentChangedEvent struct {
	UserID    uuid.UUID `json:"user_id"`
	RoleID    uuid.UUID `json:"role_id"`
	Assigned  bool      `json:"assigned"`
	Timestamp time.Time `json:"timestamp"`
}

func (RoleAssignmentChangedEvent) EventType() string { return "rbac.user_role.changed" }

// PermissionGrantChangedEvent covers role-permission and role-permission-
// field grant/revoke; FieldID is the zero UUID for a plain permission grant.
type PermissionGrantChangedEvent struct {
	RoleID       uuid.UUID `json:"role_id"`
	PermissionID uuid.UUID `json:"permission_id"`
	FieldID      uuid.UUID `json:"field_id,omitempty"`
	Granted      bool      `json:"granted"`
	Timestamp    time.Time `json:"timestamp"`
}

func (PermissionGrantChangedEvent) EventType() string { return "rbac.permission.changed" }
