package dto

// LoginRequest payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordResetRequest payload for POST /auth/password/reset.
type PasswordResetRequest struct {
	Email  string `json:"email"`
	Codigo string `json:"codigo"`
}

// UserListQuery captures the user list filters.
type UserListQuery struct {
	Search string `query:"search"`
	Role   string `query:"role"`
	Status string `query:"status"`
}

// UserRequest payload for creating or editing a user.
type UserRequest struct {
	Nombre   string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Rol      string `json:"rol"`
	AreaID   string `json:"areaId"`
}

// ToggleRequest flips an active flag.
type ToggleRequest struct {
	Activo bool `json:"activo"`
}

// ViewModeRequest payload for PUT /ui/view-mode.
type ViewModeRequest struct {
	Mode string `json:"mode"`
}
