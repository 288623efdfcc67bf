package service

import (
	"strings"

	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/infra"
)

// Role ids issued by the central auth service.
const (
	RoleIDAdmin   int64 = 1
	RoleIDAlmacen int64 = 2
	RoleIDVentas  int64 = 3
)

// DefaultUserID is the legacy fallback applied when a session carries no
// usable user id. Kept for parity with the admin UI until the auth service
// exposes a uniform context.
const DefaultUserID int64 = 22

// Session is the acting user's context: identity, acting role for the
// transfer protocol, home sede, and the bearer credential to forward.
type Session struct {
	UserID         int64
	Role           string // infra.RoleAdministrador | infra.RoleJefeAlmacen
	HeadquartersID string
	Token          string
}

// SessionProvider yields the current session. The HTTP layer builds one from
// the validated JWT; library consumers and tests can supply a fixed session.
type SessionProvider interface {
	Current() Session
}

// StaticSession is a SessionProvider that always returns the same session.
type StaticSession Session

func (s StaticSession) Current() Session { return Session(s) }

// EffectiveUserID returns the session's user id, falling back to
// DefaultUserID when the claim is missing or invalid.
func (s Session) EffectiveUserID() int64 {
	if s.UserID > 0 {
		return s.UserID
	}
	return DefaultUserID
}

// IsAdmin reports whether the session acts with the administrator role.
func (s Session) IsAdmin() bool {
	return s.Role == infra.RoleAdministrador
}

// MapRole resolves the acting transfer role from a role id and/or role name.
// Unknown roles fall back to warehouse chief, the least privileged role the
// transfer protocol accepts.
func MapRole(roleID int64, roleName string) string {
	switch roleID {
	case RoleIDAdmin:
		return infra.RoleAdministrador
	case RoleIDAlmacen:
		return infra.RoleJefeAlmacen
	}

	normalized := strings.ToUpper(strings.TrimSpace(roleName))
	switch {
	case strings.Contains(normalized, "ADMIN"):
		return infra.RoleAdministrador
	case strings.Contains(normalized, "ALMACEN"), strings.Contains(normalized, "JEFE"):
		return infra.RoleJefeAlmacen
	}
	return infra.RoleJefeAlmacen
}
