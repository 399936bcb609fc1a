package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/policy"
	"github.com/org-tasks-api/internal/repository"
	"github.com/org-tasks-api/internal/storage"
)

// Upload - загружаемый файл и его цель
type Upload struct {
	Name        string
	Body        io.Reader
	RelatedTo   string
	RelatedID   *uuid.UUID
	IsEncrypted bool
}

// AttachmentService определяет интерфейс бизнес-логики для вложений
type AttachmentService interface {
	List(ctx context.Context, s policy.Subject, relation domain.Relation) ([]domain.Attachment, error)
	Get(ctx context.Context, s policy.Subject, id uuid.UUID) (*domain.Attachment, error)
	Upload(ctx context.Context, s policy.Subject, in Upload) (*domain.Attachment, error)
	Open(ctx context.Context, s policy.Subject, id uuid.UUID) (*domain.Attachment, io.ReadCloser, error)
	Delete(ctx context.Context, s policy.Subject, id uuid.UUID) error
}

type attachmentService struct {
	attachments repository.AttachmentRepository
	tasks       repository.TaskRepository
	projects    repository.ProjectRepository
	users       repository.UserRepository
	store       storage.Store
	maxBytes    int64
}

// NewAttachmentService создаёт новый экземпляр сервиса
func NewAttachmentService(
	attachments repository.AttachmentRepository,
	tasks repository.TaskRepository,
	projects repository.ProjectRepository,
	users repository.UserRepository,
	store storage.Store,
	maxBytes int64,
) AttachmentService {
	return &attachmentService{
		attachments: attachments,
		tasks:       tasks,
		projects:    projects,
		users:       users,
		store:       store,
		maxBytes:    maxBytes,
	}
}

func (svc *attachmentService) List(ctx context.Context, s policy.Subject, relation domain.Relation) ([]domain.Attachment, error) {
	if err := policy.Authorize(s, policy.ActionList, policy.ResourceAttachment); err != nil {
		return nil, err
	}
	return svc.attachments.List(ctx, policy.ScopeFor(s, policy.ResourceAttachment), relation)
}

func (svc *attachmentService) Get(ctx context.Context, s policy.Subject, id uuid.UUID) (*domain.Attachment, error) {
	if err := policy.Authorize(s, policy.ActionRead, policy.ResourceAttachment); err != nil {
		return nil, err
	}
	return svc.attachments.GetVisible(ctx, policy.ScopeFor(s, policy.ResourceAttachment), id)
}

// Upload проверяет цель вложения, считает SHA-256 по байтам файла и сохраняет содержимое
func (svc *attachmentService) Upload(ctx context.Context, s policy.Subject, in Upload) (*domain.Attachment, error) {
	if err := policy.Authorize(s, policy.ActionCreate, policy.ResourceAttachment); err != nil {
		return nil, err
	}

	name := path.Base(strings.TrimSpace(in.Name))
	if name == "" || name == "." || name == "/" {
		return nil, domain.NewValidationError("file", "file name is required")
	}

	rel, err := domain.ParseRelation(in.RelatedTo, in.RelatedID)
	if err != nil {
		return nil, err
	}
	facts, err := svc.facts(ctx, rel, s.UserID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAttachTo(s, rel, facts.Task, facts.Project) {
		return nil, policy.Deny(policy.ActionCreate, policy.ResourceAttachment)
	}

	reader := in.Body
	if svc.maxBytes > 0 {
		reader = io.LimitReader(in.Body, svc.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, domain.NewValidationError("file", "file is empty")
	}
	if svc.maxBytes > 0 && int64(len(data)) > svc.maxBytes {
		return nil, domain.NewValidationError("file", "file is too large")
	}

	sum := sha256.Sum256(data)
	attachment := &domain.Attachment{
		Base:        domain.Base{ID: uuid.New()},
		Name:        name,
		MimeType:    mimetype.Detect(data).String(),
		Size:        int64(len(data)),
		Checksum:    hex.EncodeToString(sum[:]),
		IsEncrypted: in.IsEncrypted,
		UploadedBy:  s.UserID,
	}
	attachment.SetRelation(rel)
	attachment.StorageKey = storageKey(attachment)

	if err := svc.store.Put(ctx, attachment.StorageKey, bytes.NewReader(data), attachment.Size, attachment.MimeType); err != nil {
		return nil, err
	}
	if err := svc.attachments.Create(ctx, attachment); err != nil {
		removeBlobs(ctx, svc.store, []domain.Attachment{*attachment})
		return nil, err
	}
	return attachment, nil
}

// Open возвращает метаданные и содержимое видимого вложения
func (svc *attachmentService) Open(ctx context.Context, s policy.Subject, id uuid.UUID) (*domain.Attachment, io.ReadCloser, error) {
	attachment, err := svc.Get(ctx, s, id)
	if err != nil {
		return nil, nil, err
	}
	body, err := svc.store.Get(ctx, attachment.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, domain.ErrAttachmentNotFound
		}
		return nil, nil, err
	}
	return attachment, body, nil
}

func (svc *attachmentService) Delete(ctx context.Context, s policy.Subject, id uuid.UUID) error {
	if err := policy.Authorize(s, policy.ActionDelete, policy.ResourceAttachment); err != nil {
		return err
	}

	attachment, err := svc.attachments.GetVisible(ctx, policy.ScopeFor(s, policy.ResourceAttachment), id)
	if err != nil {
		return err
	}
	rel, err := attachment.Relation()
	if err != nil {
		return err
	}
	facts, err := svc.facts(ctx, rel, attachment.UploadedBy)
	if err != nil {
		return err
	}
	if !policy.CanAccessAttachment(s, *facts) {
		return policy.Deny(policy.ActionDelete, policy.ResourceAttachment)
	}

	if err := svc.attachments.Delete(ctx, id); err != nil {
		return err
	}
	removeBlobs(ctx, svc.store, []domain.Attachment{*attachment})
	return nil
}

// facts загружает факты о цели вложения; отсутствующая цель - ошибка валидации
func (svc *attachmentService) facts(ctx context.Context, rel domain.Relation, uploadedBy uuid.UUID) (*policy.AttachmentFacts, error) {
	facts := &policy.AttachmentFacts{Relation: rel, UploadedBy: uploadedBy}

	switch r := rel.(type) {
	case nil:
	case domain.TaskRelation:
		task, err := svc.tasks.Facts(ctx, r.TaskID)
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, domain.NewValidationError("related_id", "task does not exist")
		}
		if err != nil {
			return nil, err
		}
		facts.Task = task
	case domain.ProjectRelation:
		project, err := svc.projects.Facts(ctx, r.ProjectID)
		if errors.Is(err, domain.ErrProjectNotFound) {
			return nil, domain.NewValidationError("related_id", "project does not exist")
		}
		if err != nil {
			return nil, err
		}
		facts.Project = project
	case domain.UserRelation:
		if err := requireUsers(ctx, svc.users, "related_id", []uuid.UUID{r.UserID}); err != nil {
			return nil, err
		}
	}
	return facts, nil
}

func storageKey(a *domain.Attachment) string {
	kind := string(a.RelatedTo)
	if kind == "" {
		kind = "unlinked"
	}
	return path.Join("attachments", kind, a.ID.String())
}

// removeBlobs удаляет содержимое уже удалённых вложений. Ошибки только логируются:
// метаданные к этому моменту зафиксированы.
func removeBlobs(ctx context.Context, store storage.Store, attachments []domain.Attachment) {
	for _, a := range attachments {
		if err := store.Delete(ctx, a.StorageKey); err != nil {
			slog.WarnContext(ctx, "failed to delete attachment content",
				slog.String("attachment_id", a.ID.String()),
				slog.String("key", a.StorageKey),
				slog.Any("error", err),
			)
		}
	}
}
