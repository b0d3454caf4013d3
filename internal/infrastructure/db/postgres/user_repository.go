package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/proyectoveris/clinic-api/internal/core/domain"
	"github.com/proyectoveris/clinic-api/internal/core/ports"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"

	constraintLoginName  = "users_login_name_key"
	constraintNationalID = "patients_national_id_key"
	constraintSpecialty  = "specialties_name_key"
)

// UserRepository stores accounts and their role profiles in PostgreSQL.
// An account and its profile are always written and removed in one
// transaction.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

var _ ports.UserRepository = (*UserRepository)(nil)

const selectUser = `SELECT u.id, u.login_name, u.password_hash, u.role, u.avatar_path, u.created_at, u.updated_at,
		a.id, a.name, a.email,
		d.id, d.name, d.specialty_id, s.name, d.phone,
		p.id, p.name, p.national_id, p.phone, p.email
	FROM users u
	LEFT JOIN administrators a ON a.id = u.admin_id
	LEFT JOIN doctors d ON d.id = u.doctor_id
	LEFT JOIN specialties s ON s.id = d.specialty_id
	LEFT JOIN patients p ON p.id = u.patient_id`

func (r *UserRepository) CreateWithProfile(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	profileID := uuid.NewString()
	var adminID, doctorID, patientID *string

	switch p := user.Profile.(type) {
	case *domain.AdminProfile:
		_, err = tx.Exec(ctx, `INSERT INTO administrators (id, name, email) VALUES ($1, $2, $3)`,
			profileID, p.Name, p.Email)
		adminID = &profileID
	case *domain.DoctorProfile:
		_, err = tx.Exec(ctx, `INSERT INTO doctors (id, name, specialty_id, phone) VALUES ($1, $2, $3, $4)`,
			profileID, p.Name, p.SpecialtyID, p.Phone)
		doctorID = &profileID
	case *domain.PatientProfile:
		_, err = tx.Exec(ctx, `INSERT INTO patients (id, name, national_id, phone, email) VALUES ($1, $2, $3, $4, $5)`,
			profileID, p.Name, p.NationalID, p.Phone, p.Email)
		patientID = &profileID
	default:
		panic(fmt.Sprintf("postgres: unknown profile variant %T", p))
	}
	if err != nil {
		return nil, translateError(err)
	}

	created := *user
	created.ID = uuid.NewString()
	created.Profile = domain.WithProfileID(user.Profile, profileID)
	if created.AvatarPath == "" {
		created.AvatarPath = domain.NoAvatar
	}

	const insertUser = `INSERT INTO users (id, login_name, password_hash, role, admin_id, doctor_id, patient_id, avatar_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := tx.Exec(ctx, insertUser,
		created.ID,
		created.LoginName,
		created.PasswordHash,
		string(created.Role),
		adminID,
		doctorID,
		patientID,
		created.AvatarPath,
		created.CreatedAt,
		created.UpdatedAt,
	); err != nil {
		return nil, translateError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	// re-read so doctor profiles carry their specialty name
	return r.FindByID(ctx, created.ID)
}

func (r *UserRepository) FindByLoginName(ctx context.Context, loginName string) (*domain.User, error) {
	return scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE u.login_name = $1`, loginName))
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrUserNotFound
	}
	return scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE u.id = $1`, id))
}

func (r *UserRepository) List(ctx context.Context, filter ports.UserFilter) ([]*domain.User, error) {
	query := selectUser
	args := []any{}
	if filter.Role != "" {
		query += ` WHERE u.role = $1`
		args = append(args, string(filter.Role))
	}
	query += ` ORDER BY u.created_at, u.login_name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Delete removes the account and the profile row it references.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrUserNotFound
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var adminID, doctorID, patientID *string
	err = tx.QueryRow(ctx,
		`DELETE FROM users WHERE id = $1 RETURNING admin_id, doctor_id, patient_id`, id,
	).Scan(&adminID, &doctorID, &patientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrUserNotFound
		}
		return err
	}

	switch {
	case adminID != nil:
		_, err = tx.Exec(ctx, `DELETE FROM administrators WHERE id = $1`, *adminID)
	case doctorID != nil:
		_, err = tx.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, *doctorID)
	case patientID != nil:
		_, err = tx.Exec(ctx, `DELETE FROM patients WHERE id = $1`, *patientID)
	}
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	return r.updateColumn(ctx, id, "password_hash", hash)
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id, path string) error {
	return r.updateColumn(ctx, id, "avatar_path", path)
}

func (r *UserRepository) UpdateLoginName(ctx context.Context, id, loginName string) error {
	return r.updateColumn(ctx, id, "login_name", loginName)
}

// updateColumn is only called with the fixed column names above.
func (r *UserRepository) updateColumn(ctx context.Context, id, column, value string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrUserNotFound
	}
	query := `UPDATE users SET ` + column + ` = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, value)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u                                    domain.User
		role                                 string
		createdAt, updatedAt                 time.Time
		adminID, adminName, adminEmail       *string
		doctorID, doctorName, doctorPhone    *string
		specialtyID                          *int64
		specialtyName                        *string
		patientID, patientName, patientNatID *string
		patientPhone, patientEmail           *string
	)
	err := row.Scan(
		&u.ID, &u.LoginName, &u.PasswordHash, &role, &u.AvatarPath, &createdAt, &updatedAt,
		&adminID, &adminName, &adminEmail,
		&doctorID, &doctorName, &specialtyID, &specialtyName, &doctorPhone,
		&patientID, &patientName, &patientNatID, &patientPhone, &patientEmail,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	u.Role = domain.Role(role)
	u.CreatedAt = createdAt.UTC()
	u.UpdatedAt = updatedAt.UTC()

	switch u.Role {
	case domain.RoleAdmin:
		if adminID != nil {
			u.Profile = &domain.AdminProfile{ID: *adminID, Name: deref(adminName), Email: deref(adminEmail)}
		}
	case domain.RoleDoctor:
		if doctorID != nil {
			p := &domain.DoctorProfile{ID: *doctorID, Name: deref(doctorName), SpecialtyName: deref(specialtyName), Phone: deref(doctorPhone)}
			if specialtyID != nil {
				p.SpecialtyID = *specialtyID
			}
			u.Profile = p
		}
	case domain.RolePatient:
		if patientID != nil {
			u.Profile = &domain.PatientProfile{
				ID:         *patientID,
				Name:       deref(patientName),
				NationalID: deref(patientNatID),
				Phone:      deref(patientPhone),
				Email:      deref(patientEmail),
			}
		}
	}
	if u.Profile == nil {
		return nil, fmt.Errorf("user %s: profile row missing for role %s", u.ID, role)
	}
	return &u, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// translateError maps constraint violations onto domain errors.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		switch pgErr.ConstraintName {
		case constraintLoginName:
			return domain.ErrLoginTaken
		case constraintNationalID:
			return domain.ErrNationalIDTaken
		case constraintSpecialty:
			return domain.ErrSpecialtyExists
		}
	case codeForeignKeyViolation:
		return domain.ErrSpecialtyNotFound
	}
	return err
}
