package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/proyectoveris/clinic-api/internal/core/domain"
	"github.com/proyectoveris/clinic-api/internal/core/ports"
	"github.com/proyectoveris/clinic-api/internal/pkg/password"
	"github.com/proyectoveris/clinic-api/internal/pkg/token"
)

func doctorInput(login, pw string) ports.RegisterInput {
	return ports.RegisterInput{
		LoginName:     login,
		Password:      pw,
		Role:          string(domain.RoleDoctor),
		ProfileFields: domain.ProfileFields{Name: "Dr. X", SpecialtyID: 3},
	}
}

func newTestAuthService(repo *stubUserRepo, opts ...AuthOption) (*AuthService, *countingHasher, *stubIssuer) {
	hasher := &countingHasher{}
	issuer := &stubIssuer{}
	return NewAuthService(repo, hasher, issuer, zerolog.Nop(), opts...), hasher, issuer
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	hasher := password.New(password.WithBcryptCost(bcrypt.MinCost))
	svc := NewAuthService(repo, hasher, &stubIssuer{}, zerolog.Nop())

	user, err := svc.Register(context.Background(), doctorInput("doc1", "abc"))
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.ID == "" || user.Profile.ProfileID() == "" {
		t.Fatalf("expected ids to be assigned: %+v", user)
	}
	if user.PasswordHash == "abc" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("abc")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.Role != domain.RoleDoctor || user.AvatarPath != domain.NoAvatar {
		t.Fatalf("unexpected user: %+v", user)
	}
	doc, ok := user.Profile.(*domain.DoctorProfile)
	if !ok || doc.SpecialtyID != 3 || doc.Name != "Dr. X" {
		t.Fatalf("unexpected profile: %#v", user.Profile)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, _, _ := newTestAuthService(newStubUserRepo())
	ctx := context.Background()

	cases := []struct {
		name  string
		in    ports.RegisterInput
		want  error
		field string
	}{
		{"missing login", doctorInput("", "pw"), domain.ErrMissingField, "loginName"},
		{"missing password", doctorInput("doc", ""), domain.ErrMissingField, "password"},
		{"unknown role", ports.RegisterInput{LoginName: "x", Password: "pw", Role: "NURSE"}, domain.ErrInvalidRole, ""},
		{"lowercase role", ports.RegisterInput{LoginName: "x", Password: "pw", Role: "doctor"}, domain.ErrInvalidRole, ""},
		{"doctor without specialty", ports.RegisterInput{
			LoginName: "x", Password: "pw", Role: "DOCTOR",
			ProfileFields: domain.ProfileFields{Name: "Dr"},
		}, domain.ErrMissingField, "specialtyId"},
		{"patient without national id", ports.RegisterInput{
			LoginName: "x", Password: "pw", Role: "PATIENT",
			ProfileFields: domain.ProfileFields{Name: "Ana"},
		}, domain.ErrMissingField, "nationalId"},
		{"missing name", ports.RegisterInput{
			LoginName: "x", Password: "pw", Role: "PATIENT",
			ProfileFields: domain.ProfileFields{NationalID: "0912345678"},
		}, domain.ErrMissingField, "name"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			var mf *domain.MissingFieldError
			if tc.field != "" && (!errors.As(err, &mf) || mf.Field != tc.field) {
				t.Fatalf("expected missing field %q, got %v", tc.field, err)
			}
		})
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	repo := newStubUserRepo()
	svc, _, _ := newTestAuthService(repo)
	ctx := context.Background()

	first, err := svc.Register(ctx, doctorInput("doc1", "abc"))
	if err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(ctx, doctorInput("doc1", "other")); !errors.Is(err, domain.ErrLoginTaken) {
		t.Fatalf("expected ErrLoginTaken, got %v", err)
	}

	stored, err := repo.FindByID(ctx, first.ID)
	if err != nil || stored.PasswordHash != first.PasswordHash {
		t.Fatalf("first registration was modified: %+v %v", stored, err)
	}
}

func TestAuthService_Register_LoginNameIsCaseSensitive(t *testing.T) {
	svc, _, _ := newTestAuthService(newStubUserRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, doctorInput("Doc1", "abc")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, doctorInput("doc1", "abc")); err != nil {
		t.Fatalf("login names differing in case must both be accepted: %v", err)
	}
}

func TestAuthService_Register_AdminRequiresAdminActor(t *testing.T) {
	ctx := context.Background()
	in := ports.RegisterInput{
		LoginName:     "boss",
		Password:      "pw",
		Role:          "ADMIN",
		ProfileFields: domain.ProfileFields{Name: "Boss", Email: "boss@clinic.local"},
	}

	svc, _, _ := newTestAuthService(newStubUserRepo())
	if _, err := svc.Register(ctx, in); !errors.Is(err, domain.ErrInsufficientRole) {
		t.Fatalf("anonymous admin signup: expected ErrInsufficientRole, got %v", err)
	}

	in.Actor = &domain.Identity{UserID: "u", Role: domain.RoleDoctor}
	if _, err := svc.Register(ctx, in); !errors.Is(err, domain.ErrInsufficientRole) {
		t.Fatalf("doctor creating admin: expected ErrInsufficientRole, got %v", err)
	}

	in.Actor = &domain.Identity{UserID: "u", Role: domain.RoleAdmin}
	if _, err := svc.Register(ctx, in); err != nil {
		t.Fatalf("admin creating admin: %v", err)
	}

	open, _, _ := newTestAuthService(newStubUserRepo(), WithAdminSignup(true))
	in.Actor = nil
	if _, err := open.Register(ctx, in); err != nil {
		t.Fatalf("admin signup enabled: %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc, _, issuer := newTestAuthService(repo)
	ctx := context.Background()

	registered, err := svc.Register(ctx, doctorInput("doc1", "abc"))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	tok, user, err := svc.Login(ctx, "doc1", "abc")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if tok != "token-for-"+registered.ID {
		t.Fatalf("unexpected token %q", tok)
	}
	if user.Role != domain.RoleDoctor || user.LoginName != "doc1" {
		t.Fatalf("unexpected user: %+v", user)
	}
	want := domain.Identity{UserID: registered.ID, LoginName: "doc1", Role: domain.RoleDoctor}
	if len(issuer.issued) != 1 || issuer.issued[0] != want {
		t.Fatalf("unexpected issued claims: %+v", issuer.issued)
	}
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	repo := newStubUserRepo()
	svc, hasher, _ := newTestAuthService(repo)
	ctx := context.Background()

	_, _ = svc.Register(ctx, doctorInput("doc1", "goodpass"))

	_, _, errWrong := svc.Login(ctx, "doc1", "badpass")
	verifiesAfterWrong := hasher.verifies
	_, _, errGhost := svc.Login(ctx, "ghost", "badpass")

	if errWrong != domain.ErrInvalidCredentials || errGhost != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v / %v", errWrong, errGhost)
	}
	if errWrong.Error() != errGhost.Error() {
		t.Fatalf("error messages differ: %q vs %q", errWrong, errGhost)
	}
	if hasher.verifies-verifiesAfterWrong != 1 {
		t.Fatalf("unknown login should still run one hash verification")
	}
}

func TestAuthService_Login_EmptyInput(t *testing.T) {
	svc, _, _ := newTestAuthService(newStubUserRepo())
	if _, _, err := svc.Login(context.Background(), "", "x"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_TrimsLoginNameLikeRegister(t *testing.T) {
	svc, _, _ := newTestAuthService(newStubUserRepo())
	ctx := context.Background()

	registered, err := svc.Register(ctx, doctorInput("doc1 ", "abc"))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if registered.LoginName != "doc1" {
		t.Fatalf("expected stored login name %q, got %q", "doc1", registered.LoginName)
	}

	for _, login := range []string{"doc1 ", "doc1", "  doc1\t"} {
		if _, user, err := svc.Login(ctx, login, "abc"); err != nil || user.ID != registered.ID {
			t.Fatalf("login %q: expected success, got %v", login, err)
		}
	}
	if _, _, err := svc.Login(ctx, "   ", "abc"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for blank login, got %v", err)
	}
}

func TestAuthService_VerifySession(t *testing.T) {
	repo := newStubUserRepo()
	svc, _, _ := newTestAuthService(repo)
	ctx := context.Background()

	u, _ := svc.Register(ctx, doctorInput("doc1", "abc"))
	id := domain.Identity{UserID: u.ID, LoginName: u.LoginName, Role: u.Role}

	// profile edits after issuance are visible
	_ = repo.UpdateAvatar(ctx, u.ID, "avatars/doc1.png")
	got, err := svc.VerifySession(ctx, id)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.AvatarPath != "avatars/doc1.png" {
		t.Fatalf("expected fresh profile, got %+v", got)
	}

	_ = repo.Delete(ctx, u.ID)
	_, err = svc.VerifySession(ctx, id)
	if !errors.Is(err, domain.ErrInvalidToken) || !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected stale-token error, got %v", err)
	}
}

// Register → Login → token verification with the real hasher and token
// manager.
func TestAuthService_RegisterLoginVerifyRoundTrip(t *testing.T) {
	repo := newStubUserRepo()
	tokens, err := token.NewManager("secret", time.Hour)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	hasher := password.New(password.WithBcryptCost(bcrypt.MinCost))
	svc := NewAuthService(repo, hasher, tokens, zerolog.Nop())
	ctx := context.Background()

	pairs := map[string]string{"doc1": "abc", "doc2": "contraseña segura", "doc3": "x"}
	for login, pw := range pairs {
		if _, err := svc.Register(ctx, doctorInput(login, pw)); err != nil {
			t.Fatalf("register %s: %v", login, err)
		}
	}
	for login, pw := range pairs {
		raw, user, err := svc.Login(ctx, login, pw)
		if err != nil {
			t.Fatalf("login %s: %v", login, err)
		}
		claims, err := tokens.Verify(raw)
		if err != nil {
			t.Fatalf("verify %s: %v", login, err)
		}
		if claims.UserID != user.ID || claims.LoginName != login || claims.Role != domain.RoleDoctor {
			t.Fatalf("unexpected claims: %+v", claims)
		}
	}
}
