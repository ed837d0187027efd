package services

import (
	"context"
	"errors"
	"log"

	"voicechat-service/internal/models"
	"voicechat-service/internal/repositories"
	"voicechat-service/internal/telemetry"
)

type ParticipantService struct {
	conversations repositories.ConversationRepository
	participants  repositories.ParticipantRepository
	users         repositories.UserRepository
	notifier      Notifier
	audit         *telemetry.AuditEmitter
}

func NewParticipantService(
	conversations repositories.ConversationRepository,
	participants repositories.ParticipantRepository,
	users repositories.UserRepository,
	notifier Notifier,
	audit *telemetry.AuditEmitter,
) *ParticipantService {
	return &ParticipantService{
		conversations: conversations,
		participants:  participants,
		users:         users,
		notifier:      notifier,
		audit:         audit,
	}
}

// Add puts userID into the conversation. Callers outside the conversation
// may only add themselves.
func (s *ParticipantService) Add(ctx context.Context, conversationID int, userID int, callerID int) (models.ParticipantWithUser, error) {
	if _, err := s.conversations.Get(ctx, conversationID); err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			return models.ParticipantWithUser{}, ErrConversationNotFound
		}
		return models.ParticipantWithUser{}, err
	}

	if callerID != userID {
		member, err := s.participants.IsParticipant(ctx, conversationID, callerID)
		if err != nil {
			return models.ParticipantWithUser{}, err
		}
		if !member {
			return models.ParticipantWithUser{}, ErrNotParticipant
		}
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.ParticipantWithUser{}, ErrUserNotFound
		}
		return models.ParticipantWithUser{}, err
	}

	p, err := s.participants.Add(ctx, conversationID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrAlreadyParticipant) {
			return models.ParticipantWithUser{}, ErrAlreadyParticipant
		}
		return models.ParticipantWithUser{}, err
	}

	s.audit.Emit(ctx, telemetry.ActionParticipantAdded, callerID, telemetry.AuditResource{Type: "participant", ID: p.ID})
	return models.ParticipantWithUser{Participant: p, User: &user}, nil
}

// List returns the participants of a conversation with their user records.
func (s *ParticipantService) List(ctx context.Context, conversationID int, callerID int) ([]models.ParticipantWithUser, error) {
	if err := requireMember(ctx, s.conversations, s.participants, conversationID, callerID); err != nil {
		return nil, err
	}

	participants, err := s.participants.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	out := make([]models.ParticipantWithUser, 0, len(participants))
	for _, p := range participants {
		item := models.ParticipantWithUser{Participant: p}
		user, err := s.users.Get(ctx, p.UserID)
		switch {
		case err == nil:
			item.User = &user
		case errors.Is(err, repositories.ErrUserNotFound):
			log.Printf("participants: user missing participant_id=%d user_id=%d", p.ID, p.UserID)
		default:
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// Remove deletes a participant. Allowed for the participant themself or the
// conversation creator.
func (s *ParticipantService) Remove(ctx context.Context, participantID int, callerID int) error {
	target, err := s.participants.Get(ctx, participantID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return err
	}

	caller, err := s.participants.GetByUserAndConversation(ctx, target.ConversationID, callerID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrNotParticipant
		}
		return err
	}

	if callerID != target.UserID {
		all, err := s.participants.ListByConversation(ctx, target.ConversationID)
		if err != nil {
			return err
		}
		creatorID, ok := models.CreatorParticipantID(all)
		if !ok || caller.ID != creatorID {
			return ErrForbidden
		}
	}

	if err := s.participants.Remove(ctx, participantID); err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return err
	}

	s.notifier.ParticipantRemoved(ctx, target.ConversationID, target.UserID)
	s.audit.Emit(ctx, telemetry.ActionParticipantRemoved, callerID, telemetry.AuditResource{Type: "participant", ID: participantID})
	return nil
}
