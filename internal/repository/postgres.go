package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
)

const uniqueViolation = "23505"

// DB is the subset of *pgxpool.Pool the repositories need.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Compile-time interface assertions.
var (
	_ OrganizationRepository = (*PostgresOrganizationRepo)(nil)
	_ UserRepository         = (*PostgresUserRepo)(nil)
	_ AccountRepository      = (*PostgresAccountRepo)(nil)
	_ ExerciseRepository     = (*PostgresExerciseRepo)(nil)
)

// withTx runs fn inside a transaction, rolling back when fn fails.
func withTx(ctx context.Context, db DB, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func translate(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// PostgresOrganizationRepo implements OrganizationRepository.
type PostgresOrganizationRepo struct {
	db DB
}

func NewPostgresOrganizationRepo(db DB) *PostgresOrganizationRepo {
	return &PostgresOrganizationRepo{db: db}
}

const organizationColumns = `id, name, subscription_tier, subscription_status, billing_customer_id, billing_subscription_id, created_at, updated_at`

func (r *PostgresOrganizationRepo) GetByID(ctx context.Context, id int64) (domain.Organization, error) {
	row := r.db.QueryRow(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE id = $1`, id)
	org, err := scanOrganization(row)
	if err != nil {
		return domain.Organization{}, translate("get organization", err)
	}
	return org, nil
}

const updateOrganizationSQL = `UPDATE organizations
SET name = $2, subscription_tier = $3, subscription_status = $4, billing_customer_id = $5, billing_subscription_id = $6, updated_at = now()
WHERE id = $1`

func (r *PostgresOrganizationRepo) Update(ctx context.Context, org domain.Organization) error {
	tag, err := r.db.Exec(ctx, updateOrganizationSQL,
		org.ID,
		org.Name,
		string(org.SubscriptionTier),
		string(org.SubscriptionStatus),
		org.BillingCustomerID,
		org.BillingSubscriptionID,
	)
	if err != nil {
		return translate("update organization", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update organization: %w", ErrNotFound)
	}
	return nil
}

func scanOrganization(row pgx.Row) (domain.Organization, error) {
	var (
		org    domain.Organization
		tier   string
		status string
	)
	if err := row.Scan(
		&org.ID,
		&org.Name,
		&tier,
		&status,
		&org.BillingCustomerID,
		&org.BillingSubscriptionID,
		&org.CreatedAt,
		&org.UpdatedAt,
	); err != nil {
		return domain.Organization{}, err
	}
	org.SubscriptionTier = domain.SubscriptionTier(tier)
	org.SubscriptionStatus = domain.SubscriptionStatus(status)
	return org, nil
}

// PostgresUserRepo implements UserRepository.
type PostgresUserRepo struct {
	db DB
}

func NewPostgresUserRepo(db DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, organization_id, email, password_hash, full_name, role, is_active, is_verified, profile_image_url, deletion_requested_at, created_at, updated_at`

func (r *PostgresUserRepo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return domain.User{}, translate("get user by id", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return domain.User{}, translate("get user by email", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists); err != nil {
		return false, translate("check user email", err)
	}
	return exists, nil
}

func (r *PostgresUserRepo) ListByOrganization(ctx context.Context, orgID int64) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE organization_id = $1 ORDER BY created_at, id`, orgID)
	if err != nil {
		return nil, translate("list users", err)
	}
	return collectUsers(rows, "list users")
}

func (r *PostgresUserRepo) ListDeletionDue(ctx context.Context, requestedBefore time.Time) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE deletion_requested_at IS NOT NULL AND deletion_requested_at <= $1 ORDER BY deletion_requested_at`, requestedBefore)
	if err != nil {
		return nil, translate("list deletion due", err)
	}
	return collectUsers(rows, "list deletion due")
}

const updateUserSQL = `UPDATE users
SET email = $2, password_hash = $3, full_name = $4, role = $5, is_active = $6, is_verified = $7, profile_image_url = $8, deletion_requested_at = $9, updated_at = now()
WHERE id = $1`

func (r *PostgresUserRepo) Update(ctx context.Context, user domain.User) error {
	tag, err := r.db.Exec(ctx, updateUserSQL,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FullName,
		string(user.Role),
		user.IsActive,
		user.IsVerified,
		user.ProfileImageURL,
		user.DeletionRequestedAt,
	)
	if err != nil {
		return translate("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update user: %w", ErrNotFound)
	}
	return nil
}

func collectUsers(rows pgx.Rows, op string) ([]domain.User, error) {
	defer rows.Close()
	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, translate(op, err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(op, err)
	}
	return users, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		user domain.User
		role string
	)
	if err := row.Scan(
		&user.ID,
		&user.OrganizationID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&role,
		&user.IsActive,
		&user.IsVerified,
		&user.ProfileImageURL,
		&user.DeletionRequestedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return domain.User{}, err
	}
	user.Role = domain.Role(role)
	return user, nil
}

// PostgresAccountRepo implements AccountRepository with explicit transactions.
type PostgresAccountRepo struct {
	db DB
}

func NewPostgresAccountRepo(db DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

const insertOrganizationSQL = `INSERT INTO organizations (id, name, subscription_tier, subscription_status, billing_customer_id, billing_subscription_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const insertUserSQL = `INSERT INTO users (id, organization_id, email, password_hash, full_name, role, is_active, is_verified, profile_image_url, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

func (r *PostgresAccountRepo) CreateAccount(ctx context.Context, org domain.Organization, user domain.User) error {
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertOrganizationSQL,
			org.ID,
			org.Name,
			string(org.SubscriptionTier),
			string(org.SubscriptionStatus),
			org.BillingCustomerID,
			org.BillingSubscriptionID,
			org.CreatedAt,
			org.UpdatedAt,
		); err != nil {
			return translate("insert organization", err)
		}
		if _, err := tx.Exec(ctx, insertUserSQL,
			user.ID,
			user.OrganizationID,
			user.Email,
			user.PasswordHash,
			user.FullName,
			string(user.Role),
			user.IsActive,
			user.IsVerified,
			user.ProfileImageURL,
			user.CreatedAt,
			user.UpdatedAt,
		); err != nil {
			return translate("insert user", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *PostgresAccountRepo) DeleteAccount(ctx context.Context, userID int64) (bool, error) {
	var orgDeleted bool
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var orgID int64
		if err := tx.QueryRow(ctx, `DELETE FROM users WHERE id = $1 RETURNING organization_id`, userID).Scan(&orgID); err != nil {
			return translate("delete user", err)
		}

		var remaining int64
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM users WHERE organization_id = $1`, orgID).Scan(&remaining); err != nil {
			return translate("count members", err)
		}
		if remaining > 0 {
			return nil
		}

		// exercises and any other owned rows go with the organization via ON DELETE CASCADE
		if _, err := tx.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, orgID); err != nil {
			return translate("delete organization", err)
		}
		orgDeleted = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete account: %w", err)
	}
	return orgDeleted, nil
}

// PostgresExerciseRepo implements ExerciseRepository.
type PostgresExerciseRepo struct {
	db DB
}

func NewPostgresExerciseRepo(db DB) *PostgresExerciseRepo {
	return &PostgresExerciseRepo{db: db}
}

const exerciseColumns = `id, organization_id, created_by, name, muscle_group, equipment, description, created_at, updated_at`

const insertExerciseSQL = `INSERT INTO exercises (id, organization_id, created_by, name, muscle_group, equipment, description, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

func (r *PostgresExerciseRepo) Create(ctx context.Context, e domain.Exercise) error {
	if _, err := r.db.Exec(ctx, insertExerciseSQL,
		e.ID,
		e.OrganizationID,
		e.CreatedBy,
		e.Name,
		e.MuscleGroup,
		e.Equipment,
		e.Description,
		e.CreatedAt,
		e.UpdatedAt,
	); err != nil {
		return translate("insert exercise", err)
	}
	return nil
}

func (r *PostgresExerciseRepo) GetByID(ctx context.Context, orgID, id int64) (domain.Exercise, error) {
	e, err := scanExercise(r.db.QueryRow(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE organization_id = $1 AND id = $2`, orgID, id))
	if err != nil {
		return domain.Exercise{}, translate("get exercise", err)
	}
	return e, nil
}

func (r *PostgresExerciseRepo) ListByOrganization(ctx context.Context, orgID int64) ([]domain.Exercise, error) {
	rows, err := r.db.Query(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE organization_id = $1 ORDER BY name, id`, orgID)
	if err != nil {
		return nil, translate("list exercises", err)
	}
	defer rows.Close()

	var out []domain.Exercise
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, translate("list exercises", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list exercises", err)
	}
	return out, nil
}

func (r *PostgresExerciseRepo) Delete(ctx context.Context, orgID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM exercises WHERE organization_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return translate("delete exercise", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete exercise: %w", ErrNotFound)
	}
	return nil
}

func scanExercise(row pgx.Row) (domain.Exercise, error) {
	var e domain.Exercise
	err := row.Scan(
		&e.ID,
		&e.OrganizationID,
		&e.CreatedBy,
		&e.Name,
		&e.MuscleGroup,
		&e.Equipment,
		&e.Description,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	return e, err
}

// PostgresProgramRepo implements ProgramRepository.
type PostgresProgramRepo struct {
	db DB
}

func NewPostgresProgramRepo(db DB) *PostgresProgramRepo {
	return &PostgresProgramRepo{db: db}
}

const programColumns = `id, organization_id, created_by, name, description, split_type, days_per_week, duration_weeks, created_at, updated_at`

const insertProgramSQL = `INSERT INTO training_programs (id, organization_id, created_by, name, description, split_type, days_per_week, duration_weeks, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

func (r *PostgresProgramRepo) Create(ctx context.Context, p domain.Program) error {
	if _, err := r.db.Exec(ctx, insertProgramSQL,
		p.ID,
		p.OrganizationID,
		p.CreatedBy,
		p.Name,
		p.Description,
		string(p.SplitType),
		p.DaysPerWeek,
		p.DurationWeeks,
		p.CreatedAt,
		p.UpdatedAt,
	); err != nil {
		return translate("insert program", err)
	}
	return nil
}

func (r *PostgresProgramRepo) GetByID(ctx context.Context, orgID, id int64) (domain.Program, error) {
	p, err := scanProgram(r.db.QueryRow(ctx, `SELECT `+programColumns+` FROM training_programs WHERE organization_id = $1 AND id = $2`, orgID, id))
	if err != nil {
		return domain.Program{}, translate("get program", err)
	}
	return p, nil
}

func (r *PostgresProgramRepo) ListByOrganization(ctx context.Context, orgID int64) ([]domain.Program, error) {
	rows, err := r.db.Query(ctx, `SELECT `+programColumns+` FROM training_programs WHERE organization_id = $1 ORDER BY created_at DESC, id DESC`, orgID)
	if err != nil {
		return nil, translate("list programs", err)
	}
	defer rows.Close()

	var out []domain.Program
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, translate("list programs", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list programs", err)
	}
	return out, nil
}

func (r *PostgresProgramRepo) Delete(ctx context.Context, orgID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM training_programs WHERE organization_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return translate("delete program", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete program: %w", ErrNotFound)
	}
	return nil
}

func scanProgram(row pgx.Row) (domain.Program, error) {
	var (
		p     domain.Program
		split string
	)
	err := row.Scan(
		&p.ID,
		&p.OrganizationID,
		&p.CreatedBy,
		&p.Name,
		&p.Description,
		&split,
		&p.DaysPerWeek,
		&p.DurationWeeks,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	p.SplitType = domain.SplitType(split)
	return p, err
}
