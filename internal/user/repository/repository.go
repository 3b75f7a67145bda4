package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"

	"github.com/AlibekovAA/session-auth/internal/common/db"
	"github.com/AlibekovAA/session-auth/internal/user/domain"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailAlreadyExists   = errors.New("email already exists")
	ErrAccountAlreadyLinked = errors.New("account already linked")
)

type Repository interface {
	Create(ctx context.Context, user domain.User) error
	CreateWithAccount(ctx context.Context, user domain.User, account domain.Account) error
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByID(ctx context.Context, id domain.ID) (domain.User, error)
	FindByAccount(ctx context.Context, provider, providerAccountID string) (domain.User, error)
	LinkAccount(ctx context.Context, account domain.Account) error
	UpdateProfile(ctx context.Context, id domain.ID, update domain.ProfileUpdate, now time.Time) (domain.User, error)
}

const userColumns = `u.id, u.email, u.password_hash, u.name, u.given_name, u.family_name, u.image, u.preferences, u.created_at, u.updated_at`

type PgRepository struct {
	pool db.Pool
}

func NewPgRepository(pool db.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Create(ctx context.Context, user domain.User) error {
	return insertUser(ctx, r.pool, user)
}

func (r *PgRepository) CreateWithAccount(ctx context.Context, user domain.User, account domain.Account) error {
	return db.WithTx(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		return insertAccount(ctx, tx, account)
	})
}

func (r *PgRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	start := time.Now()
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.email = $1`, domain.NormalizeEmail(email))

	user, err := scanUser(row)
	if err := db.HandleQueryError(err, ErrUserNotFound, "find user by email", start); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *PgRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	start := time.Now()
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, string(id))

	user, err := scanUser(row)
	if err := db.HandleQueryError(err, ErrUserNotFound, "find user by id", start); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *PgRepository) FindByAccount(ctx context.Context, provider, providerAccountID string) (domain.User, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`SELECT `+userColumns+`
		 FROM accounts a
		 JOIN users u ON u.id = a.user_id
		 WHERE a.provider = $1 AND a.provider_account_id = $2`,
		provider,
		providerAccountID,
	)

	user, err := scanUser(row)
	if err := db.HandleQueryError(err, ErrUserNotFound, "find user by account", start); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *PgRepository) LinkAccount(ctx context.Context, account domain.Account) error {
	return insertAccount(ctx, r.pool, account)
}

func (r *PgRepository) UpdateProfile(ctx context.Context, id domain.ID, update domain.ProfileUpdate, now time.Time) (domain.User, error) {
	start := time.Now()

	var prefs []byte
	if len(update.Preferences) > 0 {
		prefs = update.Preferences
	}

	row := r.pool.QueryRow(
		ctx,
		`UPDATE users u SET
		 	name        = COALESCE($2, u.name),
		 	given_name  = COALESCE($3, u.given_name),
		 	family_name = COALESCE($4, u.family_name),
		 	image       = COALESCE($5, u.image),
		 	preferences = COALESCE($6::jsonb, u.preferences),
		 	updated_at  = $7
		 WHERE u.id = $1
		 RETURNING `+userColumns,
		string(id),
		update.Name,
		update.GivenName,
		update.FamilyName,
		update.Image,
		prefs,
		now,
	)

	user, err := scanUser(row)
	if err := db.HandleQueryError(err, ErrUserNotFound, "update user profile", start); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func insertUser(ctx context.Context, q querier, user domain.User) error {
	start := time.Now()

	prefs := user.Preferences
	if len(prefs) == 0 {
		prefs = json.RawMessage(`{}`)
	}

	_, err := q.Exec(
		ctx,
		`INSERT INTO users (id, email, password_hash, name, given_name, family_name, image, preferences, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		string(user.ID),
		domain.NormalizeEmail(user.Email),
		nullable(user.PasswordHash),
		nullable(user.Name),
		nullable(user.GivenName),
		nullable(user.FamilyName),
		nullable(user.Image),
		[]byte(prefs),
		user.CreatedAt,
	)
	if db.IsUniqueViolation(err) {
		db.MeasureQueryDuration("create user", start)
		return ErrEmailAlreadyExists
	}
	return db.HandleExecError(err, "create user", start)
}

func insertAccount(ctx context.Context, q querier, account domain.Account) error {
	start := time.Now()
	_, err := q.Exec(
		ctx,
		`INSERT INTO accounts (provider, provider_account_id, user_id, created_at) VALUES ($1, $2, $3, $4)`,
		account.Provider,
		account.ProviderAccountID,
		string(account.UserID),
		account.CreatedAt,
	)
	if db.IsUniqueViolation(err) {
		db.MeasureQueryDuration("link account", start)
		return ErrAccountAlreadyLinked
	}
	return db.HandleExecError(err, "link account", start)
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		user                                             domain.User
		passwordHash, name, givenName, familyName, image *string
		prefs                                            []byte
	)

	err := row.Scan(
		&user.ID,
		&user.Email,
		&passwordHash,
		&name,
		&givenName,
		&familyName,
		&image,
		&prefs,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}

	user.PasswordHash = deref(passwordHash)
	user.Name = deref(name)
	user.GivenName = deref(givenName)
	user.FamilyName = deref(familyName)
	user.Image = deref(image)
	if len(prefs) > 0 {
		user.Preferences = json.RawMessage(prefs)
	}

	return user, nil
}

func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
