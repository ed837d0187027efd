package models

import "time"

// Conversation is a chat thread shared by its participants.
type Conversation struct {
	ID        int       `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Participant links a user to a conversation.
type Participant struct {
	ID             int       `db:"id" json:"id"`
	ConversationID int       `db:"conversation_id" json:"conversation_id"`
	UserID         int       `db:"user_id" json:"user_id"`
	JoinedAt       time.Time `db:"joined_at" json:"joined_at"`
}

// ParticipantWithUser is the API view of a participant.
type ParticipantWithUser struct {
	Participant
	User *User `json:"user,omitempty"`
}

// ConversationDetail is a conversation with its membership.
type ConversationDetail struct {
	Conversation
	Participants []Participant `json:"participants"`
}

// CreatorParticipantID returns the lowest participant id, which is treated
// as the conversation's privileged remover. ok is false for an empty list.
func CreatorParticipantID(participants []Participant) (id int, ok bool) {
	for i, p := range participants {
		if i == 0 || p.ID < id {
			id = p.ID
		}
	}
	return id, len(participants) > 0
}
