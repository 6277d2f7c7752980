package rbac

import "sort"

// Permission is a named capability a role grants.
type Permission string

const (
	PermTicketView             Permission = "ticket.view"
	PermTicketCreate           Permission = "ticket.create"
	PermTicketVerify           Permission = "ticket.verify"
	PermTicketReject           Permission = "ticket.reject"
	PermTicketAssignDepartment Permission = "ticket.assign_department"
	PermTicketAssignStaff      Permission = "ticket.assign_staff"
	PermTicketUpdateStatus     Permission = "ticket.update_status"
	PermTicketUpdateProgress   Permission = "ticket.update_progress"
	PermTicketSetPriority      Permission = "ticket.set_priority"
	PermTicketAddNote          Permission = "ticket.add_note"
	PermTicketViewHistory      Permission = "ticket.view_history"
)

// AllPermissions lists every permission known to the catalog.
var AllPermissions = []Permission{
	PermTicketView,
	PermTicketCreate,
	PermTicketVerify,
	PermTicketReject,
	PermTicketAssignDepartment,
	PermTicketAssignStaff,
	PermTicketUpdateStatus,
	PermTicketUpdateProgress,
	PermTicketSetPriority,
	PermTicketAddNote,
	PermTicketViewHistory,
}

// Category is the coded behavior class of a role. Visibility and transition
// rules are keyed on the category, never on the role name.
type Category string

const (
	CategoryCityWide        Category = "city_wide"
	CategoryVerifier        Category = "verifier"
	CategoryDepartmentHead  Category = "department_head"
	CategoryDepartmentStaff Category = "department_staff"
	CategoryDistrictHead    Category = "district_head"
	CategoryDistrictStaff   Category = "district_staff"
	CategorySubDistrict     Category = "sub_district"
	CategoryCitizen         Category = "citizen"
)

// Role names shipped with the catalog.
const (
	RoleSuperAdmin       = "super_admin"
	RoleCityAdmin        = "city_admin"
	RoleVerifier         = "verifier"
	RoleDepartmentHead   = "department_head"
	RoleDistrictHead     = "district_head"
	RoleSubDistrictHead  = "sub_district_head"
	RoleDepartmentStaff  = "department_staff"
	RoleFieldTechnician  = "field_technician"
	RoleDistrictStaff    = "district_staff"
	RoleSubDistrictStaff = "sub_district_staff"
	RoleCitizen          = "citizen"
)

// Role is a catalog entry. Lower rank means more authority.
type Role struct {
	ID          int
	Name        string
	Rank        int
	Category    Category
	Permissions []Permission
	Active      bool
}

// Has reports whether the role grants p.
func (r Role) Has(p Permission) bool {
	for _, granted := range r.Permissions {
		if granted == p {
			return true
		}
	}
	return false
}

// Catalog is the static role registry.
type Catalog struct {
	roles map[string]Role
}

var (
	staffReadPerms = []Permission{PermTicketView, PermTicketViewHistory, PermTicketAddNote}
	fieldPerms     = append(append([]Permission{}, staffReadPerms...), PermTicketUpdateStatus, PermTicketUpdateProgress)
)

// DefaultCatalog returns the built-in municipal role set.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		Role{ID: 1, Name: RoleSuperAdmin, Rank: 1, Category: CategoryCityWide, Permissions: AllPermissions, Active: true},
		Role{ID: 2, Name: RoleCityAdmin, Rank: 2, Category: CategoryCityWide, Permissions: AllPermissions, Active: true},
		Role{ID: 3, Name: RoleVerifier, Rank: 3, Category: CategoryVerifier, Active: true,
			Permissions: append([]Permission{PermTicketVerify, PermTicketReject, PermTicketUpdateStatus}, staffReadPerms...)},
		Role{ID: 4, Name: RoleDepartmentHead, Rank: 4, Category: CategoryDepartmentHead, Active: true,
			Permissions: append([]Permission{PermTicketAssignStaff, PermTicketSetPriority}, fieldPerms...)},
		Role{ID: 5, Name: RoleDistrictHead, Rank: 5, Category: CategoryDistrictHead, Permissions: staffReadPerms, Active: true},
		Role{ID: 6, Name: RoleSubDistrictHead, Rank: 6, Category: CategorySubDistrict, Permissions: staffReadPerms, Active: true},
		Role{ID: 7, Name: RoleDepartmentStaff, Rank: 7, Category: CategoryDepartmentStaff, Permissions: fieldPerms, Active: true},
		Role{ID: 8, Name: RoleFieldTechnician, Rank: 8, Category: CategoryDepartmentStaff, Permissions: fieldPerms, Active: true},
		Role{ID: 9, Name: RoleDistrictStaff, Rank: 9, Category: CategoryDistrictStaff, Permissions: staffReadPerms, Active: true},
		Role{ID: 10, Name: RoleSubDistrictStaff, Rank: 10, Category: CategorySubDistrict, Permissions: staffReadPerms, Active: true},
		Role{ID: 11, Name: RoleCitizen, Rank: 100, Category: CategoryCitizen, Active: true,
			Permissions: []Permission{PermTicketView, PermTicketCreate, PermTicketViewHistory}},
	)
}

// NewCatalog builds a catalog from explicit roles.
func NewCatalog(roles ...Role) *Catalog {
	c := &Catalog{roles: make(map[string]Role, len(roles))}
	for _, role := range roles {
		c.roles[role.Name] = role
	}
	return c
}

// Lookup resolves a role by name.
func (c *Catalog) Lookup(name string) (Role, bool) {
	role, ok := c.roles[name]
	return role, ok
}

// Roles returns all roles ordered by rank.
func (c *Catalog) Roles() []Role {
	out := make([]Role, 0, len(c.roles))
	for _, role := range c.roles {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}
