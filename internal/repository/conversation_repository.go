package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/policy"
)

// ConversationRepository определяет интерфейс для работы с диалогами и сообщениями
type ConversationRepository interface {
	Create(ctx context.Context, conversation *domain.Conversation, participantIDs []uuid.UUID) error
	GetVisible(ctx context.Context, scope policy.Scope, id uuid.UUID) (*domain.Conversation, error)
	List(ctx context.Context, scope policy.Scope) ([]domain.Conversation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ParticipantIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
	CreateMessage(ctx context.Context, message *domain.Message) error
	ListMessages(ctx context.Context, scope policy.Scope, conversationID uuid.UUID) ([]domain.Message, error)
}

type conversationRepository struct {
	base
}

// NewConversationRepository создаёт новый экземпляр репозитория
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{base{db: db}}
}

func (r *conversationRepository) Create(ctx context.Context, conversation *domain.Conversation, participantIDs []uuid.UUID) error {
	db := r.conn(ctx)
	if err := db.Omit(clause.Associations).Create(conversation).Error; err != nil {
		return err
	}
	return replaceLinks(db, "conversation_participants", "conversation_id", "user_id", conversation.ID, participantIDs)
}

func (r *conversationRepository) GetVisible(ctx context.Context, scope policy.Scope, id uuid.UUID) (*domain.Conversation, error) {
	var conversation domain.Conversation
	err := r.conn(ctx).
		Scopes(conversationScope(scope)).
		Preload("Participants").
		First(&conversation, "conversations.id = ?", id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrConversationNotFound)
	}
	return &conversation, nil
}

func (r *conversationRepository) List(ctx context.Context, scope policy.Scope) ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	err := r.conn(ctx).
		Scopes(conversationScope(scope)).
		Preload("Participants").
		Order("conversations.updated_at DESC").
		Find(&conversations).Error
	return conversations, err
}

func (r *conversationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.conn(ctx)
	if err := db.Where("conversation_id = ?", id).Delete(&domain.Message{}).Error; err != nil {
		return err
	}
	if err := db.Exec("DELETE FROM conversation_participants WHERE conversation_id = ?", id).Error; err != nil {
		return err
	}
	result := db.Delete(&domain.Conversation{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}

// ParticipantIDs читает участников заново при каждом вызове
func (r *conversationRepository) ParticipantIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.conn(ctx).Table("conversation_participants").Where("conversation_id = ?", id).Pluck("user_id", &ids).Error
	return ids, err
}

func (r *conversationRepository) CreateMessage(ctx context.Context, message *domain.Message) error {
	db := r.conn(ctx)
	if err := db.Omit(clause.Associations).Create(message).Error; err != nil {
		return err
	}
	return db.Model(&domain.Conversation{}).Where("id = ?", message.ConversationID).Update("updated_at", message.CreatedAt).Error
}

func (r *conversationRepository) ListMessages(ctx context.Context, scope policy.Scope, conversationID uuid.UUID) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.conn(ctx).
		Scopes(messageScope(scope)).
		Where("messages.conversation_id = ?", conversationID).
		Order("messages.created_at ASC").
		Find(&messages).Error
	return messages, err
}
