package handler

import (
	"fmt"

	"github.com/proyectoveris/clinic-api/internal/core/domain"
)

// --- Request → Service input ---

func toProfileFields(f profileFieldsRequest) domain.ProfileFields {
	return domain.ProfileFields{
		Name:        firstNonEmpty(f.Name, f.Nombre),
		Email:       firstNonEmpty(f.Email, f.Correo),
		Phone:       firstNonEmpty(f.Phone, f.Telefono),
		SpecialtyID: firstNonZero(f.SpecialtyID, f.IDEspecialidad),
		NationalID:  firstNonEmpty(f.NationalID, f.Cedula),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(values ...int64) int64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

// --- Domain → Response ---

func toProfileResponse(u *domain.User) profileResponse {
	resp := profileResponse{
		ID:         u.ID,
		LoginName:  u.LoginName,
		Role:       string(u.Role),
		AvatarPath: u.AvatarPath,
	}
	if u.Profile == nil {
		return resp
	}
	resp.ProfileID = u.Profile.ProfileID()
	resp.DisplayName = u.Profile.DisplayName()

	switch p := u.Profile.(type) {
	case *domain.AdminProfile:
		resp.Email = p.Email
	case *domain.DoctorProfile:
		resp.SpecialtyID = p.SpecialtyID
		resp.SpecialtyName = p.SpecialtyName
		resp.Phone = p.Phone
	case *domain.PatientProfile:
		resp.NationalID = p.NationalID
		resp.Phone = p.Phone
		resp.Email = p.Email
	default:
		panic(fmt.Sprintf("handler: unknown profile variant %T", p))
	}
	return resp
}

func toProfileResponses(users []*domain.User) []profileResponse {
	out := make([]profileResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toProfileResponse(u))
	}
	return out
}

func toSpecialtyResponse(s domain.Specialty) specialtyResponse {
	return specialtyResponse{ID: s.ID, Name: s.Name}
}
