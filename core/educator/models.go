package educator

import (
	"strings"
)

// Roles
const (
	// Admin
	RoleAdmin      = "admin:"
	RoleAdminOwner = "admin:owner"

	// Educator
	RoleEducator       = "educator:"
	RoleEducatorMentor = "educator:mentor"

	// Student
	RoleStudent = "student:"
)

var (
	AdminRoles    = []string{RoleAdmin, RoleAdminOwner}
	EducatorRoles = []string{RoleEducator, RoleEducatorMentor}
	StudentRoles  = []string{RoleStudent}
	AllRoles      = getAllRoles()
)

func getAllRoles() []string {
	all := make([]string, 0, 5)
	all = append(all, AdminRoles...)
	all = append(all, EducatorRoles...)
	all = append(all, StudentRoles...)
	return all
}

// Educator is the dashboard user, as described by the claims of the token the auth service issued.
// The service never stores educators.
type Educator struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

func (e *Educator) RoleStartsWith(prefix string) bool {
	for _, role := range e.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (e *Educator) IsAdmin() bool {
	return e.RoleStartsWith(RoleAdmin)
}

// IsEducator reports whether e may use the dashboard. Admins may act on behalf of educators.
func (e *Educator) IsEducator() bool {
	return e.RoleStartsWith(RoleEducator) || e.IsAdmin()
}

func (e *Educator) IsStudent() bool {
	return e.RoleStartsWith(RoleStudent)
}
