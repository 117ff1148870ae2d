package repository

import (
	"database/sql"
	"strings"
	"time"

	"sos/pkg/models"
)

type AuthRepository interface {
	// CreateUserWithProfile inserts the auth user and its profile row in
	// one transaction, so a failed profile insert never leaves an
	// orphaned user behind.
	CreateUserWithProfile(id, email, hashedPassword string, profile models.Profile) (models.User, error)
	GetUserByEmail(email string) (models.User, string, error)
	GetUserByID(id string) (models.User, error)
	CreateSession(userID, refreshToken, userAgent, ip string, expiresAt time.Time) error
	GetSessionByToken(token string) (models.Session, models.User, error)
	UpdateSession(sessionID int, newRefresh string, expiresAt time.Time) error
	DeleteSessionByID(sessionID int) error
	DeleteSessionByToken(token string) error
	DeleteAllSessionsByUserID(userID string) error
	DeleteExpiredSessions() error
}

type authRepository struct {
	db *sql.DB
}

func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

func (r *authRepository) CreateUserWithProfile(id, email, hashedPassword string, profile models.Profile) (models.User, error) {
	var user models.User

	tx, err := r.db.Begin()
	if err != nil {
		return user, err
	}
	defer tx.Rollback()

	err = tx.QueryRow(
		`INSERT INTO users (id, email, password) VALUES ($1, $2, $3)
		 RETURNING id, email, created_at`,
		id, strings.ToLower(email), hashedPassword,
	).Scan(&user.ID, &user.Email, &user.CreatedAt)
	if err != nil {
		return user, err
	}

	_, err = tx.Exec(
		`INSERT INTO profiles (id, name, blood_type, phone)
		 VALUES ($1, $2, $3, $4)`,
		user.ID, profile.Name, profile.BloodType, profile.Phone,
	)
	if err != nil {
		return user, err
	}

	return user, tx.Commit()
}

func (r *authRepository) GetUserByEmail(email string) (models.User, string, error) {
	var user models.User
	var hashedPw string
	err := r.db.QueryRow(
		`SELECT id, email, password, created_at FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&user.ID, &user.Email, &hashedPw, &user.CreatedAt)
	return user, hashedPw, err
}

func (r *authRepository) GetUserByID(id string) (models.User, error) {
	var user models.User
	err := r.db.QueryRow(
		`SELECT id, email, created_at FROM users WHERE id = $1`, id,
	).Scan(&user.ID, &user.Email, &user.CreatedAt)
	return user, err
}

func (r *authRepository) CreateSession(userID, refreshToken, userAgent, ip string, expiresAt time.Time) error {
	_, err := r.db.Exec(
		`INSERT INTO sessions (user_id, refresh_token, user_agent, ip, expires_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		userID, refreshToken, userAgent, ip, expiresAt,
	)
	return err
}

func (r *authRepository) GetSessionByToken(token string) (models.Session, models.User, error) {
	var session models.Session
	var user models.User
	err := r.db.QueryRow(
		`SELECT s.id, s.user_id, s.expires_at, u.email, u.created_at
		 FROM sessions s JOIN users u ON u.id = s.user_id
		 WHERE s.refresh_token = $1`, token,
	).Scan(&session.ID, &session.UserID, &session.ExpiresAt, &user.Email, &user.CreatedAt)
	user.ID = session.UserID
	return session, user, err
}

func (r *authRepository) UpdateSession(sessionID int, newRefresh string, expiresAt time.Time) error {
	_, err := r.db.Exec(
		`UPDATE sessions SET refresh_token = $1, expires_at = $2 WHERE id = $3`,
		newRefresh, expiresAt, sessionID,
	)
	return err
}

func (r *authRepository) DeleteSessionByID(sessionID int) error {
	_, err := r.db.Exec(`DELETE FROM sessions WHERE id = $1`, sessionID)
	return err
}

func (r *authRepository) DeleteSessionByToken(token string) error {
	_, err := r.db.Exec(`DELETE FROM sessions WHERE refresh_token = $1`, token)
	return err
}

func (r *authRepository) DeleteAllSessionsByUserID(userID string) error {
	_, err := r.db.Exec(`DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}

func (r *authRepository) DeleteExpiredSessions() error {
	_, err := r.db.Exec(`DELETE FROM sessions WHERE expires_at < NOW()`)
	return err
}
