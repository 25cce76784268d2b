package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateFriend   = errors.New("friend already added")
	ErrSelfFriend        = errors.New("cannot befriend yourself")
)

const userColumns = `id, username, first_name, last_name, password_hash,
	education, employment, music, movie, nationality, birthday, created_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.PasswordHash,
		&u.Education, &u.Employment, &u.Music, &u.Movie, &u.Nationality, &u.Birthday, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func constraintErr(err error, code sqlite3.ErrNoExtended) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == code
}

func UsernameExists(ctx context.Context, db *sql.DB, username string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE username = ?`, username).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return n > 0, nil
}

// CreateUser inserts u and returns its id. A taken username yields
// ErrDuplicateUsername whether caught by the pre-check or the constraint.
func CreateUser(ctx context.Context, db *sql.DB, u NewUser) (int64, error) {
	taken, err := UsernameExists(ctx, db, u.Username)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, ErrDuplicateUsername
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO users (username, first_name, last_name, password_hash) VALUES (?, ?, ?, ?)`,
		u.Username, u.FirstName, u.LastName, u.PasswordHash)
	if err != nil {
		if constraintErr(err, sqlite3.ErrConstraintUnique) && strings.Contains(err.Error(), "users.username") {
			return 0, ErrDuplicateUsername
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}

func GetUserByUsername(ctx context.Context, db *sql.DB, username string) (*User, error) {
	row := db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func GetUserByID(ctx context.Context, db *sql.DB, id int64) (*User, error) {
	row := db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func UpdateProfile(ctx context.Context, db *sql.DB, userID int64, p Profile) error {
	res, err := db.ExecContext(ctx, `UPDATE users
		SET education = ?, employment = ?, music = ?, movie = ?, nationality = ?, birthday = ?
		WHERE id = ?`,
		p.Education, p.Employment, p.Music, p.Movie, p.Nationality, p.Birthday, userID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func CreateSession(ctx context.Context, db *sql.DB, userID int64, sessionID string, expires time.Time) error {
	// revoke existing
	_, err := db.ExecContext(ctx, `UPDATE sessions SET revoked_at = CURRENT_TIMESTAMP WHERE user_id = ? AND revoked_at IS NULL`, userID)
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	_, err = db.ExecContext(ctx, `INSERT INTO sessions (id, user_id, expires_at) VALUES (?, ?, ?)`, sessionID, userID, expires)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func GetSession(ctx context.Context, db *sql.DB, id string) (*Session, error) {
	row := db.QueryRowContext(ctx, `SELECT id, user_id, created_at, expires_at, revoked_at FROM sessions WHERE id = ?`, id)
	var s Session
	var revoked sql.NullTime
	err := row.Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.ExpiresAt, &revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if revoked.Valid {
		s.RevokedAt = &revoked.Time
	}
	return &s, nil
}

func RevokeSession(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx, `UPDATE sessions SET revoked_at = CURRENT_TIMESTAMP WHERE id = ? AND revoked_at IS NULL`, id)
	return err
}

func CreatePost(ctx context.Context, db *sql.DB, userID int64, content, image string) (int64, error) {
	res, err := db.ExecContext(ctx, `INSERT INTO posts (user_id, content, image) VALUES (?, ?, ?)`, userID, content, image)
	if err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}
	return res.LastInsertId()
}

// ListStream returns the posts of userID and of everyone connected to userID
// by a friend edge in either direction, newest first.
func ListStream(ctx context.Context, db *sql.DB, userID int64) ([]StreamPost, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT p.id, p.user_id, p.content, p.image, p.created_at,
		       u.username, u.first_name, u.last_name,
		       (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id)
		FROM posts p JOIN users u ON u.id = p.user_id
		WHERE p.user_id = ?
		   OR p.user_id IN (SELECT user_id FROM friends WHERE friend_id = ?)
		   OR p.user_id IN (SELECT friend_id FROM friends WHERE user_id = ?)
		ORDER BY p.created_at DESC, p.id DESC`, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list stream: %w", err)
	}
	defer rows.Close()
	var posts []StreamPost
	for rows.Next() {
		var p StreamPost
		if err := rows.Scan(&p.ID, &p.UserID, &p.Content, &p.Image, &p.CreatedAt,
			&p.Username, &p.FirstName, &p.LastName, &p.CommentCount); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func GetPost(ctx context.Context, db *sql.DB, id int64) (*StreamPost, error) {
	row := db.QueryRowContext(ctx, `
		SELECT p.id, p.user_id, p.content, p.image, p.created_at,
		       u.username, u.first_name, u.last_name,
		       (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id)
		FROM posts p JOIN users u ON u.id = p.user_id
		WHERE p.id = ?`, id)
	var p StreamPost
	err := row.Scan(&p.ID, &p.UserID, &p.Content, &p.Image, &p.CreatedAt,
		&p.Username, &p.FirstName, &p.LastName, &p.CommentCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func CreateComment(ctx context.Context, db *sql.DB, postID, userID int64, body string) (int64, error) {
	res, err := db.ExecContext(ctx, `INSERT INTO comments (post_id, user_id, body) VALUES (?, ?, ?)`, postID, userID, body)
	if err != nil {
		return 0, fmt.Errorf("insert comment: %w", err)
	}
	return res.LastInsertId()
}

func ListComments(ctx context.Context, db *sql.DB, postID int64) ([]CommentView, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT c.id, c.post_id, c.user_id, c.body, c.created_at, u.username
		FROM comments c JOIN users u ON u.id = c.user_id
		WHERE c.post_id = ?
		ORDER BY c.created_at DESC, c.id DESC`, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()
	var cs []CommentView
	for rows.Next() {
		var c CommentView
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Body, &c.CreatedAt, &c.Username); err != nil {
			return nil, err
		}
		cs = append(cs, c)
	}
	return cs, rows.Err()
}

func FriendExists(ctx context.Context, db *sql.DB, userID, friendID int64) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM friends WHERE user_id = ? AND friend_id = ?`, userID, friendID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check friend: %w", err)
	}
	return n > 0, nil
}

// AddFriend creates the directed edge userID -> friendID.
func AddFriend(ctx context.Context, db *sql.DB, userID, friendID int64) error {
	if userID == friendID {
		return ErrSelfFriend
	}
	exists, err := FriendExists(ctx, db, userID, friendID)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateFriend
	}
	_, err = db.ExecContext(ctx, `INSERT INTO friends (user_id, friend_id) VALUES (?, ?)`, userID, friendID)
	switch {
	case err == nil:
		return nil
	case constraintErr(err, sqlite3.ErrConstraintPrimaryKey), constraintErr(err, sqlite3.ErrConstraintUnique):
		return ErrDuplicateFriend
	case constraintErr(err, sqlite3.ErrConstraintCheck):
		return ErrSelfFriend
	default:
		return fmt.Errorf("insert friend: %w", err)
	}
}

// ListFriends returns the users userID has added, excluding userID itself.
func ListFriends(ctx context.Context, db *sql.DB, userID int64) ([]User, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT u.id, u.username, u.first_name, u.last_name, u.password_hash,
		       u.education, u.employment, u.music, u.movie, u.nationality, u.birthday, u.created_at
		FROM friends f JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = ? AND f.friend_id <> ?
		ORDER BY u.username`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	defer rows.Close()
	var friends []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		friends = append(friends, *u)
	}
	return friends, rows.Err()
}
