package domain

import (
	"strings"
)

const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"

	rolePrefix = "ROLE_"
)

// SystemUser is an account allowed to call the API. Password always holds a
// bcrypt digest, optionally prefixed with "{bcrypt}".
type SystemUser struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Username    string   `json:"username"`
	Password    string   `json:"-"`
	Authorities []string `json:"authorities"`
}

// HasAuthority reports whether the user holds role.
func (u *SystemUser) HasAuthority(role string) bool {
	for _, a := range u.Authorities {
		if a == role {
			return true
		}
	}
	return false
}

// Principal is the authenticated identity attached to a request.
type Principal struct {
	Username    string   `json:"username"`
	Authorities []string `json:"authorities"`
	// Source names the credential provider that authenticated the request.
	Source string `json:"source"`
}

// HasAuthority reports whether the principal holds role.
func (p *Principal) HasAuthority(role string) bool {
	if p == nil {
		return false
	}
	for _, a := range p.Authorities {
		if a == role {
			return true
		}
	}
	return false
}

// NormalizeRole upper-cases a role label and adds the ROLE_ prefix when
// missing, so "admin" and "ROLE_ADMIN" are the same authority.
func NormalizeRole(role string) string {
	r := strings.ToUpper(strings.TrimSpace(role))
	if r == "" {
		return ""
	}
	if !strings.HasPrefix(r, rolePrefix) {
		r = rolePrefix + r
	}
	return r
}

// ParseAuthorities splits a comma-delimited role string, normalising and
// de-duplicating entries.
func ParseAuthorities(s string) []string {
	return NormalizeRoles(strings.Split(s, ","))
}

// NormalizeRoles normalises every role and drops blanks and duplicates,
// keeping first-seen order.
func NormalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	seen := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		n := NormalizeRole(r)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// JoinAuthorities is the inverse of ParseAuthorities.
func JoinAuthorities(roles []string) string {
	return strings.Join(roles, ",")
}
