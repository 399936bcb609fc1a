package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/dto"
	"github.com/org-tasks-api/internal/policy"
	"github.com/org-tasks-api/internal/repository"
)

// ConversationService определяет интерфейс бизнес-логики для диалогов и сообщений
type ConversationService interface {
	List(ctx context.Context, s policy.Subject) ([]domain.Conversation, error)
	Get(ctx context.Context, s policy.Subject, id uuid.UUID) (*domain.Conversation, error)
	Create(ctx context.Context, s policy.Subject, req *dto.CreateConversationRequest) (*domain.Conversation, error)
	Delete(ctx context.Context, s policy.Subject, id uuid.UUID) error
	Messages(ctx context.Context, s policy.Subject, conversationID uuid.UUID) ([]domain.Message, error)
	Send(ctx context.Context, s policy.Subject, conversationID uuid.UUID, req *dto.CreateMessageRequest) (*domain.Message, error)
}

type conversationService struct {
	tx            repository.TxManager
	conversations repository.ConversationRepository
	users         repository.UserRepository
}

// NewConversationService создаёт новый экземпляр сервиса
func NewConversationService(tx repository.TxManager, conversations repository.ConversationRepository, users repository.UserRepository) ConversationService {
	return &conversationService{
		tx:            tx,
		conversations: conversations,
		users:         users,
	}
}

func (svc *conversationService) List(ctx context.Context, s policy.Subject) ([]domain.Conversation, error) {
	if err := policy.Authorize(s, policy.ActionList, policy.ResourceConversation); err != nil {
		return nil, err
	}
	return svc.conversations.List(ctx, policy.ScopeFor(s, policy.ResourceConversation))
}

func (svc *conversationService) Get(ctx context.Context, s policy.Subject, id uuid.UUID) (*domain.Conversation, error) {
	if err := policy.Authorize(s, policy.ActionRead, policy.ResourceConversation); err != nil {
		return nil, err
	}
	return svc.conversations.GetVisible(ctx, policy.ScopeFor(s, policy.ResourceConversation), id)
}

// Create - создатель всегда становится участником диалога
func (svc *conversationService) Create(ctx context.Context, s policy.Subject, req *dto.CreateConversationRequest) (*domain.Conversation, error) {
	if err := policy.Authorize(s, policy.ActionCreate, policy.ResourceConversation); err != nil {
		return nil, err
	}

	participants := []uuid.UUID{s.UserID}
	for _, id := range req.ParticipantIDs {
		if !policy.IsParticipant(policy.Subject{UserID: id}, participants) {
			participants = append(participants, id)
		}
	}
	if len(participants) < 2 {
		return nil, domain.NewValidationError("participant_ids", "a conversation needs at least one other participant")
	}
	if !req.IsGroup && len(participants) > 2 {
		return nil, domain.NewValidationError("participant_ids", "a direct conversation has exactly two participants")
	}

	conversation := &domain.Conversation{
		Name:    strings.TrimSpace(req.Name),
		IsGroup: req.IsGroup,
	}

	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := requireUsers(ctx, svc.users, "participant_ids", participants); err != nil {
			return err
		}
		return svc.conversations.Create(ctx, conversation, participants)
	})
	if err != nil {
		return nil, err
	}

	return svc.conversations.GetVisible(ctx, policy.ScopeFor(s, policy.ResourceConversation), conversation.ID)
}

func (svc *conversationService) Delete(ctx context.Context, s policy.Subject, id uuid.UUID) error {
	if err := policy.Authorize(s, policy.ActionDelete, policy.ResourceConversation); err != nil {
		return err
	}
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := svc.checkParticipant(ctx, s, policy.ActionDelete, policy.ResourceConversation, id); err != nil {
			return err
		}
		return svc.conversations.Delete(ctx, id)
	})
}

func (svc *conversationService) Messages(ctx context.Context, s policy.Subject, conversationID uuid.UUID) ([]domain.Message, error) {
	if err := policy.Authorize(s, policy.ActionList, policy.ResourceMessage); err != nil {
		return nil, err
	}
	if err := svc.checkParticipant(ctx, s, policy.ActionList, policy.ResourceMessage, conversationID); err != nil {
		return nil, err
	}
	return svc.conversations.ListMessages(ctx, policy.ScopeFor(s, policy.ResourceMessage), conversationID)
}

func (svc *conversationService) Send(ctx context.Context, s policy.Subject, conversationID uuid.UUID, req *dto.CreateMessageRequest) (*domain.Message, error) {
	if err := policy.Authorize(s, policy.ActionCreate, policy.ResourceMessage); err != nil {
		return nil, err
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, domain.NewValidationError("content", "content cannot be blank")
	}
	message := &domain.Message{
		ConversationID: conversationID,
		SenderID:       s.UserID,
		Content:        content,
	}

	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := svc.checkParticipant(ctx, s, policy.ActionCreate, policy.ResourceMessage, conversationID); err != nil {
			return err
		}
		return svc.conversations.CreateMessage(ctx, message)
	})
	if err != nil {
		return nil, err
	}
	return message, nil
}

// checkParticipant перечитывает участников диалога в момент запроса.
// Диалог, в котором субъект не участвует, для него не существует.
func (svc *conversationService) checkParticipant(ctx context.Context, s policy.Subject, action policy.Action, resource policy.Resource, id uuid.UUID) error {
	ids, err := svc.conversations.ParticipantIDs(ctx, id)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return domain.ErrConversationNotFound
	}
	if !policy.IsParticipant(s, ids) {
		if s.IsAdmin() {
			return policy.Deny(action, resource)
		}
		return domain.ErrConversationNotFound
	}
	return nil
}
