package domain

// Role is the access level of a user.
type Role string

const (
	RoleSolicitante Role = "Solicitante"
	RoleGestor      Role = "Gestor"
	RoleAdmin       Role = "Admin"
	RoleSuperAdmin  Role = "SuperAdmin"
)

// Roles lists every known role.
var Roles = []Role{RoleSolicitante, RoleGestor, RoleAdmin, RoleSuperAdmin}

// User is an account as returned by the backend.
type User struct {
	ID                  string `json:"id"`
	Nombre              string `json:"nombre"`
	Email               string `json:"email"`
	Rol                 Role   `json:"rol"`
	Activo              bool   `json:"activo"`
	AreaID              string `json:"areaId,omitempty"`
	AreaNombre          string `json:"areaNombre,omitempty"`
	FotoPerfilURL       string `json:"fotoPerfilUrl,omitempty"`
	DebeCambiarPassword bool   `json:"debeCambiarPassword,omitempty"`
	FechaCreacion       string `json:"fechaCreacion,omitempty"`
}

// HasRole reports whether the user holds one of roles.
func (u *User) HasRole(roles ...Role) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Rol == r {
			return true
		}
	}
	return false
}

// Manager is an entry of the managers-selection catalog.
type Manager struct {
	ID            string `json:"id"`
	Nombre        string `json:"nombre"`
	Email         string `json:"email,omitempty"`
	FotoPerfilURL string `json:"fotoPerfilUrl,omitempty"`
	AreaID        string `json:"areaId,omitempty"`
}
