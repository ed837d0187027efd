package models

import "time"

// User is the subset of the account record the chat service reads.
type User struct {
	ID              int       `db:"id" json:"id"`
	Username        string    `db:"username" json:"username"`
	Email           string    `db:"email" json:"email"`
	PrimaryLanguage *string   `db:"primary_language" json:"primary_language"`
	RefAudioURL     *string   `db:"ref_audio_url" json:"ref_audio_url"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Language returns the primary language or "" when none is configured.
func (u User) Language() string {
	if u.PrimaryLanguage == nil {
		return ""
	}
	return *u.PrimaryLanguage
}

// ReferenceAudio returns the reference voice URL or "" when none is configured.
func (u User) ReferenceAudio() string {
	if u.RefAudioURL == nil {
		return ""
	}
	return *u.RefAudioURL
}

// UserUpdate changes profile fields. Nil fields are left untouched; an empty
// PrimaryLanguage clears the language.
type UserUpdate struct {
	Username        *string
	Email           *string
	PrimaryLanguage *string
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.Username == nil && u.Email == nil && u.PrimaryLanguage == nil
}
