package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cardiac-assistant/pkg"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when the email is unknown or the
// password does not match its hash. Callers must not distinguish the two.
var ErrInvalidCredentials = errors.New("invalid credentials")

// User is a stored account row.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      pkg.Role  `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// LoggedMessage is one row of the server-side message log.
type LoggedMessage struct {
	ID             int64      `json:"id"`
	ConversationID string     `json:"conversation_id"`
	Sender         pkg.Sender `json:"sender"`
	Content        string     `json:"content"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Repository wraps database operations for users and the message log.
type Repository struct {
	DB *sql.DB
}

// NewRepository constructs a Repository from an existing sql.DB.
// The caller is responsible for managing the DB connection lifecycle.
func NewRepository(db *sql.DB) *Repository { return &Repository{DB: db} }

// CreateUser inserts an account with a bcrypt-hashed password.
func (r *Repository) CreateUser(ctx context.Context, email, password string, role pkg.Role) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	var u User
	err = r.DB.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash, role)
         VALUES ($1, $2, $3)
         RETURNING id, email, role, created_at`,
		email, string(hash), role,
	).Scan(&u.ID, &u.Email, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// Authenticate looks up the account for the email and checks the password
// against the stored hash. Unknown emails and wrong passwords both come
// back as ErrInvalidCredentials.
func (r *Repository) Authenticate(ctx context.Context, email, password string) (*User, error) {
	var u User
	var hash string
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, email, password_hash, role, created_at
         FROM users
         WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &hash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}

// NewConversationID mints the id grouping one /ask exchange's log rows.
func NewConversationID() string { return uuid.NewString() }

// LogMessage appends one message to the server-side log.
func (r *Repository) LogMessage(ctx context.Context, conversationID string, sender pkg.Sender, content string) (*LoggedMessage, error) {
	var m LoggedMessage
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO message_log (conversation_id, sender, content)
         VALUES ($1, $2, $3)
         RETURNING id, conversation_id, sender, content, created_at`,
		conversationID, sender, content,
	).Scan(&m.ID, &m.ConversationID, &m.Sender, &m.Content, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("log message: %w", err)
	}
	return &m, nil
}

// GetConversation returns the logged messages for a conversation ordered by
// creation time.
func (r *Repository) GetConversation(ctx context.Context, conversationID string) ([]LoggedMessage, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, conversation_id, sender, content, created_at
         FROM message_log
         WHERE conversation_id = $1
         ORDER BY created_at ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LoggedMessage
	for rows.Next() {
		var m LoggedMessage
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Sender, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
