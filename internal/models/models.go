package models

import "time"

type User struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	PasswordHash string
	Profile
	CreatedAt time.Time
}

// Profile holds the free-text fields a user edits on the profile page.
type Profile struct {
	Education   string
	Employment  string
	Music       string
	Movie       string
	Nationality string
	Birthday    string
}

type NewUser struct {
	Username     string
	FirstName    string
	LastName     string
	PasswordHash string
}

type Session struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

type Post struct {
	ID        int64
	UserID    int64
	Content   string
	Image     string
	CreatedAt time.Time
}

// StreamPost is a post joined with its author and the number of comments.
type StreamPost struct {
	Post
	Username     string
	FirstName    string
	LastName     string
	CommentCount int
}

type Comment struct {
	ID        int64
	PostID    int64
	UserID    int64
	Body      string
	CreatedAt time.Time
}

type CommentView struct {
	Comment
	Username string
}
