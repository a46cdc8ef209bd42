package auth

import (
	"github.com/spec-kit/miniticker/internal/domain"
)

// Section is an area of the console guarded by role.
type Section string

const (
	SectionHome           Section = "home"
	SectionCrearSolicitud Section = "crear-solicitud"
	SectionSolicitudes    Section = "solicitudes"
	SectionDepartamentos  Section = "departamentos"
	SectionActividad      Section = "actividad"
	SectionUsuarios       Section = "usuarios"
	SectionDashboard      Section = "dashboard"
)

// sectionRoles lists the roles allowed per section; absent means any signed-in user.
var sectionRoles = map[Section][]domain.Role{
	SectionCrearSolicitud: {domain.RoleSolicitante, domain.RoleAdmin, domain.RoleSuperAdmin},
	SectionDepartamentos:  {domain.RoleAdmin, domain.RoleSuperAdmin},
	SectionActividad:      {domain.RoleAdmin, domain.RoleSuperAdmin},
	SectionUsuarios:       {domain.RoleSuperAdmin},
	SectionDashboard:      {domain.RoleGestor, domain.RoleAdmin, domain.RoleSuperAdmin},
}

// AllowedRoles returns the roles that may open s.
func AllowedRoles(s Section) []domain.Role {
	return sectionRoles[s]
}

// CanAccess reports whether user may open s.
func CanAccess(user *domain.User, s Section) bool {
	if user == nil {
		return false
	}
	allowed, guarded := sectionRoles[s]
	if !guarded {
		return true
	}
	return user.HasRole(allowed...)
}
