package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

// profileFieldsRequest carries the role-specific registration fields. The
// Spanish keys are accepted for compatibility with the legacy frontend.
type profileFieldsRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	SpecialtyID int64  `json:"specialtyId"`
	NationalID  string `json:"nationalId"`

	Nombre         string `json:"nombre"`
	Correo         string `json:"correo"`
	Telefono       string `json:"telefono"`
	IDEspecialidad int64  `json:"idEspecialidad"`
	Cedula         string `json:"cedula"`
}

type registerRequest struct {
	LoginName     string               `json:"loginName"     validate:"required"`
	Password      string               `json:"password"      validate:"required"`
	Role          string               `json:"role"          validate:"required,oneof=ADMIN DOCTOR PATIENT"`
	ProfileFields profileFieldsRequest `json:"profileFields"`
}

type registerResponse struct {
	LoginName string `json:"loginName"`
	Role      string `json:"role"`
}

type loginRequest struct {
	LoginName string `json:"loginName" validate:"required"`
	Password  string `json:"password"  validate:"required"`
}

type loginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt *time.Time      `json:"expiresAt,omitempty"`
	Profile   profileResponse `json:"profile"`
}

type sessionResponse struct {
	Profile profileResponse `json:"profile"`
}

// profileResponse is the denormalized summary of an account and its role
// profile. Fields that do not apply to the role are omitted.
type profileResponse struct {
	ID          string `json:"id"`
	LoginName   string `json:"loginName"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName"`
	AvatarPath  string `json:"avatarPath"`
	ProfileID   string `json:"profileId"`

	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	SpecialtyID   int64  `json:"specialtyId,omitempty"`
	SpecialtyName string `json:"specialtyName,omitempty"`
	NationalID    string `json:"nationalId,omitempty"`
}

// --- Users ---

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

type renameRequest struct {
	LoginName string `json:"loginName" validate:"required"`
}

type avatarRequest struct {
	AvatarPath string `json:"avatarPath"`
}

type listUsersResponse struct {
	Users []profileResponse `json:"users"`
}

// --- Specialties ---

type createSpecialtyRequest struct {
	Name string `json:"name" validate:"required"`
}

type listSpecialtiesResponse struct {
	Specialties []specialtyResponse `json:"specialties"`
}

type specialtyResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
