// Package models holds the row types shared by the repositories and services.
package models

import (
	"time"

	"github.com/Zhouyi071021/campus-circle/internal/auth"
	"github.com/goccy/go-json"
)

type User struct {
	ID             int        `json:"id"`
	Username       string     `json:"username"`
	PasswordHash   string     `json:"-"`
	Nickname       string     `json:"nickname"`
	Avatar         string     `json:"avatar"`
	Bio            string     `json:"bio"`
	Role           auth.Role  `json:"role"`
	IsActive       bool       `json:"is_active"`
	BanReason      string     `json:"ban_reason,omitempty"`
	FollowersCount int        `json:"followers_count"`
	FollowingCount int        `json:"following_count"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// PublicUser is what other users get to see.
type PublicUser struct {
	ID             int       `json:"id"`
	Username       string    `json:"username"`
	Nickname       string    `json:"nickname"`
	Avatar         string    `json:"avatar"`
	Bio            string    `json:"bio"`
	Role           auth.Role `json:"role"`
	FollowersCount int       `json:"followers_count"`
	FollowingCount int       `json:"following_count"`
	CreatedAt      time.Time `json:"created_at"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:             u.ID,
		Username:       u.Username,
		Nickname:       u.Nickname,
		Avatar:         u.Avatar,
		Bio:            u.Bio,
		Role:           u.Role,
		FollowersCount: u.FollowersCount,
		FollowingCount: u.FollowingCount,
		CreatedAt:      u.CreatedAt,
	}
}

// Identity is the token payload for u.
func (u *User) Identity() auth.Identity {
	return auth.Identity{SubjectID: u.ID, Username: u.Username, Role: u.Role}
}

type LoginRecord struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

// BlockedUser is one row of a user's blacklist.
type BlockedUser struct {
	UserID    int       `json:"user_id"`
	Username  string    `json:"username"`
	Nickname  string    `json:"nickname"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	ConversationPrivate = "private"
	MessageText         = "text"
)

type Conversation struct {
	ID        int       `json:"id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Message struct {
	ID             int             `json:"id"`
	ConversationID int             `json:"conversation_id"`
	SenderID       int             `json:"sender_id"`
	Content        string          `json:"content"`
	Type           string          `json:"type"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Peer is the other side of a private conversation.
type Peer struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

type ConversationSummary struct {
	ID          int       `json:"id"`
	Type        string    `json:"type"`
	UpdatedAt   time.Time `json:"updated_at"`
	OtherUser   *Peer     `json:"other_user"`
	LastMessage *Message  `json:"last_message"`
	UnreadCount int       `json:"unread_count"`
}

type UnreadCount struct {
	ConversationID int `json:"id"`
	Unread         int `json:"unread"`
}

type AdminLog struct {
	ID         int       `json:"id"`
	AdminID    int       `json:"admin_id"`
	AdminName  string    `json:"admin_username,omitempty"`
	Action     string    `json:"action"`
	TargetType string    `json:"target_type"`
	TargetID   int       `json:"target_id"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}

type DashboardStats struct {
	Users         int `json:"users"`
	Posts         int `json:"posts"`
	Messages      int `json:"messages"`
	Conversations int `json:"conversations"`
}
