package domain

import (
	"fmt"
	"strings"
)

// Profile is the role-specific record a user account owns. The set of
// variants is closed: AdminProfile, DoctorProfile and PatientProfile.
type Profile interface {
	ProfileID() string
	DisplayName() string
	validate() error
	isProfile()
}

// AdminProfile is the administrator variant.
type AdminProfile struct {
	ID    string
	Name  string
	Email string
}

// DoctorProfile is the doctor variant. SpecialtyName is filled on reads only.
type DoctorProfile struct {
	ID            string
	Name          string
	SpecialtyID   int64
	SpecialtyName string
	Phone         string
}

// PatientProfile is the patient variant.
type PatientProfile struct {
	ID         string
	Name       string
	NationalID string
	Phone      string
	Email      string
}

func (p *AdminProfile) ProfileID() string   { return p.ID }
func (p *DoctorProfile) ProfileID() string  { return p.ID }
func (p *PatientProfile) ProfileID() string { return p.ID }

func (p *AdminProfile) DisplayName() string   { return p.Name }
func (p *DoctorProfile) DisplayName() string  { return p.Name }
func (p *PatientProfile) DisplayName() string { return p.Name }

func (*AdminProfile) isProfile()   {}
func (*DoctorProfile) isProfile()  {}
func (*PatientProfile) isProfile() {}

func (p *AdminProfile) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &MissingFieldError{Field: "name"}
	}
	if strings.TrimSpace(p.Email) == "" {
		return &MissingFieldError{Field: "email"}
	}
	return nil
}

func (p *DoctorProfile) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &MissingFieldError{Field: "name"}
	}
	if p.SpecialtyID <= 0 {
		return &MissingFieldError{Field: "specialtyId"}
	}
	return nil
}

func (p *PatientProfile) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &MissingFieldError{Field: "name"}
	}
	if strings.TrimSpace(p.NationalID) == "" {
		return &MissingFieldError{Field: "nationalId"}
	}
	return nil
}

// ProfileRole returns the role a profile variant belongs to.
func ProfileRole(p Profile) Role {
	switch p.(type) {
	case *AdminProfile:
		return RoleAdmin
	case *DoctorProfile:
		return RoleDoctor
	case *PatientProfile:
		return RolePatient
	default:
		panic(fmt.Sprintf("domain: unknown profile variant %T", p))
	}
}

// WithProfileID returns a copy of p carrying id.
func WithProfileID(p Profile, id string) Profile {
	switch v := p.(type) {
	case *AdminProfile:
		c := *v
		c.ID = id
		return &c
	case *DoctorProfile:
		c := *v
		c.ID = id
		return &c
	case *PatientProfile:
		c := *v
		c.ID = id
		return &c
	default:
		panic(fmt.Sprintf("domain: unknown profile variant %T", p))
	}
}

// ProfileFields is the raw role-specific input collected at registration.
type ProfileFields struct {
	Name        string
	Email       string
	Phone       string
	SpecialtyID int64
	NationalID  string
}

// NewProfile builds the profile variant for role from raw fields.
func NewProfile(role Role, f ProfileFields) (Profile, error) {
	var p Profile
	switch role {
	case RoleAdmin:
		p = &AdminProfile{Name: f.Name, Email: f.Email}
	case RoleDoctor:
		p = &DoctorProfile{Name: f.Name, SpecialtyID: f.SpecialtyID, Phone: f.Phone}
	case RolePatient:
		p = &PatientProfile{Name: f.Name, NationalID: f.NationalID, Phone: f.Phone, Email: f.Email}
	default:
		return nil, ErrInvalidRole
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}
