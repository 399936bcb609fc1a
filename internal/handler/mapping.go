package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/dto"
)

const dateLayout = "2006-01-02"

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func toUserResponse(u *domain.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		FullName:     u.FullName(),
		Phone:        u.Phone,
		Bio:          u.Bio,
		Role:         u.Role.String(),
		IsAdmin:      u.IsAdmin,
		DepartmentID: u.DepartmentID,
		IsActive:     u.IsActive,
		LastSeenAt:   u.LastSeenAt,
		CreatedAt:    u.CreatedAt,
	}
	if u.Department != nil {
		name := u.Department.Name
		resp.DepartmentName = &name
	}
	return resp
}

func toUserResponses(users []domain.User) []dto.UserResponse {
	resp := make([]dto.UserResponse, len(users))
	for i := range users {
		resp[i] = toUserResponse(&users[i])
	}
	return resp
}

func toProfileResponse(u *domain.User) dto.ProfileResponse {
	return dto.ProfileResponse{
		UserResponse: toUserResponse(u),
		Groups:       u.GroupNames(),
		Permissions:  u.PermissionCodenames(),
	}
}

func toDepartmentResponse(d *domain.Department) dto.DepartmentResponse {
	resp := dto.DepartmentResponse{
		ID:               d.ID,
		Name:             d.Name,
		Description:      d.Description,
		Color:            d.Color,
		WorkloadCapacity: d.WorkloadCapacity,
		LeaderID:         d.LeaderID,
		CreatedAt:        d.CreatedAt,
	}
	if d.Leader != nil {
		name := d.Leader.FullName()
		resp.LeaderName = &name
	}
	return resp
}

func toDepartmentResponses(depts []domain.Department) []dto.DepartmentResponse {
	resp := make([]dto.DepartmentResponse, len(depts))
	for i := range depts {
		resp[i] = toDepartmentResponse(&depts[i])
	}
	return resp
}

func toPublicDepartments(depts []domain.Department) []dto.PublicDepartmentResponse {
	resp := make([]dto.PublicDepartmentResponse, len(depts))
	for i, d := range depts {
		resp[i] = dto.PublicDepartmentResponse{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Color:       d.Color,
		}
	}
	return resp
}

func toProjectResponse(p *domain.Project, now time.Time) dto.ProjectResponse {
	resp := dto.ProjectResponse{
		ID:                  p.ID,
		Name:                p.Name,
		Description:         p.Description,
		Status:              string(p.Status),
		RiskLevel:           string(p.RiskLevel),
		StartDate:           formatDate(p.StartDate),
		EndDate:             formatDate(p.EndDate),
		ActualEndDate:       formatDate(p.ActualEndDate),
		Progress:            p.Progress,
		Color:               p.Color,
		CreatorID:           p.CreatorID,
		LeaderID:            p.LeaderID,
		DepartmentID:        p.DepartmentID,
		MemberIDs:           make([]uuid.UUID, 0, len(p.Members)),
		DepartmentIDs:       make([]uuid.UUID, 0, len(p.Departments)),
		IsOverdue:           p.IsOverdue(now),
		PlannedDurationDays: p.PlannedDurationDays(),
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
	for _, m := range p.Members {
		resp.MemberIDs = append(resp.MemberIDs, m.ID)
	}
	for _, d := range p.Departments {
		resp.DepartmentIDs = append(resp.DepartmentIDs, d.ID)
	}
	return resp
}

func toProjectResponses(projects []domain.Project, now time.Time) []dto.ProjectResponse {
	resp := make([]dto.ProjectResponse, len(projects))
	for i := range projects {
		resp[i] = toProjectResponse(&projects[i], now)
	}
	return resp
}

func toTaskResponse(t *domain.Task) dto.TaskResponse {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return dto.TaskResponse{
		ID:               t.ID,
		Type:             string(t.Type),
		Title:            t.Title,
		Description:      t.Description,
		Status:           string(t.Status),
		Priority:         string(t.Priority),
		Deadline:         t.Deadline,
		CompletedAt:      t.CompletedAt,
		CreatorID:        t.CreatorID,
		DepartmentID:     t.DepartmentID,
		ProjectID:        t.ProjectID,
		AssigneeIDs:      t.AssigneeIDs(),
		EstimatedMinutes: t.EstimatedMinutes,
		TrackedMinutes:   t.TrackedMinutes,
		WorkloadPoints:   t.WorkloadPoints,
		Tags:             tags,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func toTaskResponses(tasks []domain.Task) []dto.TaskResponse {
	resp := make([]dto.TaskResponse, len(tasks))
	for i := range tasks {
		resp[i] = toTaskResponse(&tasks[i])
	}
	return resp
}

func toAttachmentResponse(a *domain.Attachment) dto.AttachmentResponse {
	resp := dto.AttachmentResponse{
		ID:          a.ID,
		Name:        a.Name,
		MimeType:    a.MimeType,
		Size:        a.Size,
		Checksum:    a.Checksum,
		IsEncrypted: a.IsEncrypted,
		RelatedID:   a.RelatedID,
		UploadedBy:  a.UploadedBy,
		CreatedAt:   a.CreatedAt,
	}
	if a.RelatedTo != "" {
		kind := string(a.RelatedTo)
		resp.RelatedTo = &kind
	}
	return resp
}

func toAttachmentResponses(attachments []domain.Attachment) []dto.AttachmentResponse {
	resp := make([]dto.AttachmentResponse, len(attachments))
	for i := range attachments {
		resp[i] = toAttachmentResponse(&attachments[i])
	}
	return resp
}
