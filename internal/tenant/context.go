// Package tenant carries the capability context the authentication
// middleware resolves for each request. The core never reads ambient or
// global session state; handlers receive an Actor explicitly.
package tenant

type Role string

const (
	RoleSuperAdmin   Role = "super_admin"
	RoleCompanyAdmin Role = "company_admin"
)

// Actor identifies who a request acts on behalf of
type Actor struct {
	CompanyID int64
	Role      Role
}

// IsSuper reports whether the actor manages all tenants
func (a Actor) IsSuper() bool {
	return a.Role == RoleSuperAdmin
}

// CanAccess reports whether the actor may touch resources owned by the given
// company. Resources without an owning company are visible to super admins
// only.
func (a Actor) CanAccess(companyID *int64) bool {
	if a.IsSuper() {
		return true
	}
	return companyID != nil && *companyID == a.CompanyID
}
