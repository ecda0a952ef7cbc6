package domain

import "fmt"

// Role enumerates the closed set of platform roles.
type Role string

const (
	RoleStudent       Role = "student"
	RoleParent        Role = "parent"
	RoleTeacher       Role = "teacher"
	RoleSchoolAdmin   Role = "school_admin"
	RoleSocialWorker  Role = "social_worker"
	RolePlatformAdmin Role = "platform_admin"
	RoleSubAdmin      Role = "sub_admin"
)

var allRoles = map[Role]struct{}{
	RoleStudent:       {},
	RoleParent:        {},
	RoleTeacher:       {},
	RoleSchoolAdmin:   {},
	RoleSocialWorker:  {},
	RolePlatformAdmin: {},
	RoleSubAdmin:      {},
}

// privileged roles may not be self-assigned at registration unless the
// admission policy explicitly allows it.
var privilegedRoles = map[Role]struct{}{
	RolePlatformAdmin: {},
	RoleSubAdmin:      {},
}

// ParseRole validates a raw role tag against the enumeration.
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	if _, ok := allRoles[role]; !ok {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}

// IsPrivileged reports whether the role requires elevated assignment rights.
func (r Role) IsPrivileged() bool {
	_, ok := privilegedRoles[r]
	return ok
}

// RoleSet is an ordered, duplicate-free collection of roles.
type RoleSet []Role

// DefaultRoleSet is assigned when registration supplies no roles.
func DefaultRoleSet() RoleSet {
	return RoleSet{RoleStudent}
}

// ParseRoleSet validates and deduplicates raw role tags.
// An empty input yields the default role set; the result is never empty.
func ParseRoleSet(raw []string) (RoleSet, error) {
	if len(raw) == 0 {
		return DefaultRoleSet(), nil
	}

	seen := make(map[Role]struct{}, len(raw))
	set := make(RoleSet, 0, len(raw))
	for _, tag := range raw {
		role, err := ParseRole(tag)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		set = append(set, role)
	}

	if len(set) == 0 {
		return DefaultRoleSet(), nil
	}
	return set, nil
}

// Contains reports membership of a single role.
func (s RoleSet) Contains(role Role) bool {
	for _, r := range s {
		if r == role {
			return true
		}
	}
	return false
}

// Intersects reports whether any required role is present in the set.
func (s RoleSet) Intersects(required ...Role) bool {
	for _, req := range required {
		if s.Contains(req) {
			return true
		}
	}
	return false
}

// HasPrivileged reports whether the set includes any privileged role.
func (s RoleSet) HasPrivileged() bool {
	for _, r := range s {
		if r.IsPrivileged() {
			return true
		}
	}
	return false
}

// Strings renders the set as raw tags for claims and storage.
func (s RoleSet) Strings() []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = string(r)
	}
	return out
}

// RoleSetFromStrings converts stored tags back into a role set without
// validation. Intended for trusted sources (database rows, verified claims).
func RoleSetFromStrings(raw []string) RoleSet {
	set := make(RoleSet, len(raw))
	for i, tag := range raw {
		set[i] = Role(tag)
	}
	return set
}
