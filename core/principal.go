package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Role names the relation a principal belongs to.
type Role string

const (
	RoleUser   Role = "user"
	RoleWorker Role = "worker"
)

// ParseRole accepts "user" or "worker".
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleWorker:
		return RoleWorker, nil
	default:
		return "", validationError("role must be %q or %q", RoleUser, RoleWorker)
	}
}

// Principal is an authenticated identity: either a UserPrincipal or a WorkerPrincipal.
// The interface is sealed; type switches over it only need those two cases.
type Principal interface {
	Role() Role
	PrincipalID() int64
	sealed()
}

type UserPrincipal struct{ ID int64 }

type WorkerPrincipal struct{ ID int64 }

func (UserPrincipal) Role() Role           { return RoleUser }
func (p UserPrincipal) PrincipalID() int64 { return p.ID }
func (UserPrincipal) sealed()              {}

func (WorkerPrincipal) Role() Role           { return RoleWorker }
func (p WorkerPrincipal) PrincipalID() int64 { return p.ID }
func (WorkerPrincipal) sealed()              {}

// NewPrincipal builds the variant matching role.
func NewPrincipal(role Role, id int64) (Principal, error) {
	switch role {
	case RoleUser:
		return UserPrincipal{ID: id}, nil
	case RoleWorker:
		return WorkerPrincipal{ID: id}, nil
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
}

// encodePrincipal renders p as "role:id" for the session table.
func encodePrincipal(p Principal) string {
	return string(p.Role()) + ":" + strconv.FormatInt(p.PrincipalID(), 10)
}

func decodePrincipal(s string) (Principal, error) {
	role, rawID, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("malformed principal %q", s)
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("malformed principal id %q", rawID)
	}
	return NewPrincipal(Role(role), id)
}
