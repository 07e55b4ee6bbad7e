// Package access maps roles to permissions and guards routes with them.
package access

import (
	_ "embed"
	"fmt"
	"net/http"
	"slices"
	"sort"

	"leadlift_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

// Permission is a capability granted to roles.
type Permission string

const (
	CreateUsers    Permission = "create_users"
	DeleteUsers    Permission = "delete_users"
	ManageClients  Permission = "manage_clients"
	ViewAnalytics  Permission = "view_analytics"
	ManageSettings Permission = "manage_settings"
)

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user"
)

//go:embed permissions.yaml
var embeddedPolicy []byte

var defaultPolicy = MustLoad(embeddedPolicy)

type policyFile struct {
	Roles map[string][]Permission `yaml:"roles"`
}

// Policy is an immutable role -> permission table.
type Policy struct {
	roles map[string][]Permission
}

// Load parses a YAML policy.
func Load(data []byte) (*Policy, error) {
	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse permissions: %w", err)
	}
	if len(file.Roles) == 0 {
		return nil, fmt.Errorf("parse permissions: no roles defined")
	}
	return &Policy{roles: file.Roles}, nil
}

// MustLoad is Load that panics on error.
func MustLoad(data []byte) *Policy {
	p, err := Load(data)
	if err != nil {
		panic(err)
	}
	return p
}

// Default returns the embedded policy.
func Default() *Policy {
	return defaultPolicy
}

// Allows reports whether role grants perm.
func (p *Policy) Allows(role string, perm Permission) bool {
	return slices.Contains(p.roles[role], perm)
}

// AllowsAny reports whether any of roles grants perm.
func (p *Policy) AllowsAny(roles []string, perm Permission) bool {
	for _, role := range roles {
		if p.Allows(role, perm) {
			return true
		}
	}
	return false
}

// IsRole reports whether role is defined.
func (p *Policy) IsRole(role string) bool {
	_, ok := p.roles[role]
	return ok
}

// Roles lists the defined roles in sorted order.
func (p *Policy) Roles() []string {
	out := make([]string, 0, len(p.roles))
	for role := range p.roles {
		out = append(out, role)
	}
	sort.Strings(out)
	return out
}

// Permissions returns the permissions granted to role.
func (p *Policy) Permissions(role string) []Permission {
	return slices.Clone(p.roles[role])
}

// Require aborts with 403 unless the caller holds perm under the default policy.
func Require(perm Permission) gin.HandlerFunc {
	return defaultPolicy.Require(perm)
}

// Require aborts with 401 for anonymous callers and 403 when perm is missing.
func (p *Policy) Require(perm Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := httpkit.MustGetIdentity(c)
		if identity == nil {
			return
		}
		if !p.AllowsAny(identity.Roles(), perm) {
			c.AbortWithStatusJSON(http.StatusForbidden, httpkit.ErrorResponse{Error: "insufficient permissions"})
			return
		}
		c.Next()
	}
}
