package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatterbox/server/internal/models"
)

const uniqueViolation = "23505"

// PostgresUsers implements Users on top of a pgx connection pool.
type PostgresUsers struct {
	pool *pgxpool.Pool
}

// NewPostgresUsers creates a Users store backed by the given pool.
func NewPostgresUsers(pool *pgxpool.Pool) *PostgresUsers {
	return &PostgresUsers{pool: pool}
}

func (s *PostgresUsers) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, name, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, user.ID, user.Name, user.Email, user.PasswordHash).Scan(&user.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresUsers) ByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, created_at
		FROM users WHERE id = $1
	`, id).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if user.Friends, err = s.friendIDs(ctx, id); err != nil {
		return nil, err
	}
	if user.Pending, err = s.pendingRequests(ctx, id); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *PostgresUsers) friendIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT friend_id FROM friendships WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("load friend ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan friend id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PostgresUsers) pendingRequests(ctx context.Context, userID string) ([]models.FriendRequest, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, sender_id, status, created_at
		FROM friend_requests
		WHERE receiver_id = $1 AND status = 'pending'
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("load pending requests: %w", err)
	}
	defer rows.Close()

	var reqs []models.FriendRequest
	for rows.Next() {
		var req models.FriendRequest
		if err := rows.Scan(&req.ID, &req.SenderID, &req.Status, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending request: %w", err)
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func (s *PostgresUsers) ByEmail(ctx context.Context, email string) (*models.User, error) {
	var id string
	err := s.pool.QueryRow(ctx, `
		SELECT id FROM users WHERE lower(email) = lower($1)
	`, email).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user by email: %w", err)
	}
	return s.ByID(ctx, id)
}

func (s *PostgresUsers) EmailTaken(ctx context.Context, email string) (bool, error) {
	var taken bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1))
	`, email).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return taken, nil
}

func (s *PostgresUsers) UpdateProfile(ctx context.Context, user *models.User) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET name = $1, email = $2, password_hash = $3 WHERE id = $4
	`, user.Name, user.Email, user.PasswordHash, user.ID)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresUsers) Search(ctx context.Context, query, excludeID string) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, email, created_at
		FROM users
		WHERE id != $1 AND (name ILIKE $2 OR email ILIKE $2)
		ORDER BY name
	`, excludeID, "%"+query+"%")
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *PostgresUsers) Friends(ctx context.Context, userID string) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT u.id, u.name, u.email, u.created_at
		FROM friendships f
		INNER JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = $1
		ORDER BY u.name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("load friends: %w", err)
	}
	defer rows.Close()

	var friends []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		friends = append(friends, u)
	}
	return friends, rows.Err()
}

func (s *PostgresUsers) Pending(ctx context.Context, userID string) ([]models.PendingRequestView, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.status, r.created_at, u.id, u.name, u.email
		FROM friend_requests r
		INNER JOIN users u ON u.id = r.sender_id
		WHERE r.receiver_id = $1 AND r.status = 'pending'
		ORDER BY r.created_at, r.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("load pending views: %w", err)
	}
	defer rows.Close()

	var views []models.PendingRequestView
	for rows.Next() {
		var v models.PendingRequestView
		if err := rows.Scan(&v.ID, &v.Status, &v.CreatedAt,
			&v.Sender.ID, &v.Sender.Name, &v.Sender.Email); err != nil {
			return nil, fmt.Errorf("scan pending view: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

func (s *PostgresUsers) AddPending(ctx context.Context, receiverID string, req models.FriendRequest) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO friend_requests (id, receiver_id, sender_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, req.ID, receiverID, req.SenderID, req.Status, req.CreatedAt)
	if err != nil {
		return fmt.Errorf("add pending request: %w", err)
	}
	return nil
}

func (s *PostgresUsers) TakePending(ctx context.Context, receiverID, requestID string) (models.FriendRequest, error) {
	var req models.FriendRequest
	err := s.pool.QueryRow(ctx, `
		DELETE FROM friend_requests
		WHERE id = $1 AND receiver_id = $2 AND status = 'pending'
		RETURNING id, sender_id, status, created_at
	`, requestID, receiverID).Scan(&req.ID, &req.SenderID, &req.Status, &req.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return models.FriendRequest{}, ErrNotFound
	}
	if err != nil {
		return models.FriendRequest{}, fmt.Errorf("take pending request: %w", err)
	}
	return req, nil
}

func (s *PostgresUsers) AddFriendship(ctx context.Context, userID, friendID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin friendship tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Both directions of the symmetric edge land in one transaction so the
	// graph can never be observed half-written.
	for _, pair := range [][2]string{{userID, friendID}, {friendID, userID}} {
		_, err := tx.Exec(ctx, `
			INSERT INTO friendships (user_id, friend_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, pair[0], pair[1])
		if err != nil {
			return fmt.Errorf("insert friendship edge: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit friendship: %w", err)
	}
	return nil
}

// PostgresMessages implements Messages on top of a pgx connection pool.
type PostgresMessages struct {
	pool *pgxpool.Pool
}

// NewPostgresMessages creates a Messages store backed by the given pool.
func NewPostgresMessages(pool *pgxpool.Pool) *PostgresMessages {
	return &PostgresMessages{pool: pool}
}

func (s *PostgresMessages) Save(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO messages (id, sender_id, sender_name, receiver_id, receiver_name, content)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq, created_at
	`, msg.ID, msg.Sender.ID, msg.Sender.Name, msg.Receiver.ID, msg.Receiver.Name, msg.Content).
		Scan(&msg.Seq, &msg.Timestamp)
	if err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	return nil
}

func (s *PostgresMessages) ByID(ctx context.Context, id string) (*models.Message, error) {
	var msg models.Message
	err := s.pool.QueryRow(ctx, `
		SELECT id, sender_id, sender_name, receiver_id, receiver_name, content, created_at, seq
		FROM messages WHERE id = $1
	`, id).Scan(&msg.ID, &msg.Sender.ID, &msg.Sender.Name, &msg.Receiver.ID,
		&msg.Receiver.Name, &msg.Content, &msg.Timestamp, &msg.Seq)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load message: %w", err)
	}
	return &msg, nil
}

func (s *PostgresMessages) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM messages WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresMessages) Conversation(ctx context.Context, userID, friendID string) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, sender_id, sender_name, receiver_id, receiver_name, content, created_at, seq
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at, seq
	`, userID, friendID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.Sender.ID, &msg.Sender.Name, &msg.Receiver.ID,
			&msg.Receiver.Name, &msg.Content, &msg.Timestamp, &msg.Seq); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}
