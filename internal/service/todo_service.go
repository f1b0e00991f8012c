package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Tomlord1122/family-todo/internal/domain"
	"github.com/Tomlord1122/family-todo/internal/repository"
)

// CreateTodoRequest holds the data needed to create a new todo.
// due_date is a string so the date-only and datetime-local forms sent by
// browsers can be accepted alongside RFC 3339.
type CreateTodoRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
	AssigneeID  *uint   `json:"assignee_id"`
	Completed   *bool   `json:"completed"`
}

// ListTodosFilter carries the optional query parameters of GET /todos.
type ListTodosFilter struct {
	Query    string
	Assignee string
	Status   string
}

// TodoResponse is the standard representation of a Todo returned by the service.
type TodoResponse struct {
	ID            uint    `json:"id"`
	Title         string  `json:"title"`
	Description   *string `json:"description"`
	DueDate       *string `json:"due_date"`
	AssigneeID    *uint   `json:"assignee_id"`
	AssigneeEmail *string `json:"assignee_email"`
	Completed     bool    `json:"completed"`
	CreatedBy     uint    `json:"created_by"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// TodoService defines the operations for managing a family's todos.
// Every call is scoped by family; a todo belonging to another family is
// reported as ErrTodoNotFound.
type TodoService interface {
	ListTodos(ctx context.Context, familyID uint, filter ListTodosFilter) ([]TodoResponse, error)
	GetTodo(ctx context.Context, id, familyID uint) (*TodoResponse, error)
	CreateTodo(ctx context.Context, familyID, creatorID uint, req CreateTodoRequest) (*TodoResponse, error)
	UpdateTodo(ctx context.Context, id, familyID uint, patch TodoPatch) (*TodoResponse, error)
	DeleteTodo(ctx context.Context, id, familyID uint) error
}

type todoService struct {
	todos       repository.TodoRepository
	memberships repository.MembershipRepository
}

// NewTodoService creates a new instance of todoService.
func NewTodoService(todos repository.TodoRepository, memberships repository.MembershipRepository) TodoService {
	return &todoService{
		todos:       todos,
		memberships: memberships,
	}
}

func (s *todoService) ListTodos(ctx context.Context, familyID uint, filter ListTodosFilter) ([]TodoResponse, error) {
	repoFilter := repository.TodoFilter{
		Query:         strings.TrimSpace(filter.Query),
		AssigneeEmail: normalizeEmail(filter.Assignee),
	}

	switch strings.ToLower(strings.TrimSpace(filter.Status)) {
	case "", "all":
	case "completed":
		done := true
		repoFilter.Completed = &done
	case "pending":
		done := false
		repoFilter.Completed = &done
	default:
		return nil, invalid("status must be one of completed, pending")
	}

	rows, err := s.todos.ListByFamily(ctx, familyID, repoFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]TodoResponse, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, toTodoResponse(row))
	}
	return responses, nil
}

func (s *todoService) GetTodo(ctx context.Context, id, familyID uint) (*TodoResponse, error) {
	row, err := s.findTodo(ctx, id, familyID)
	if err != nil {
		return nil, err
	}
	resp := toTodoResponse(*row)
	return &resp, nil
}

func (s *todoService) CreateTodo(ctx context.Context, familyID, creatorID uint, req CreateTodoRequest) (*TodoResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, invalid("title cannot be empty")
	}

	todo := &domain.Todo{
		Title:       title,
		Description: trimmedOrNil(req.Description),
		FamilyID:    familyID,
		CreatedBy:   creatorID,
	}
	if req.Completed != nil {
		todo.Completed = *req.Completed
	}

	if req.DueDate != nil {
		due, err := parseDueDate(*req.DueDate)
		if err != nil {
			return nil, err
		}
		todo.DueDate = due
	}

	if req.AssigneeID != nil && *req.AssigneeID != 0 {
		if err := s.checkAssignee(ctx, *req.AssigneeID, familyID); err != nil {
			return nil, err
		}
		assignee := *req.AssigneeID
		todo.AssigneeID = &assignee
	}

	if err := s.todos.Create(ctx, todo); err != nil {
		return nil, err
	}

	return s.GetTodo(ctx, todo.ID, familyID)
}

func (s *todoService) UpdateTodo(ctx context.Context, id, familyID uint, patch TodoPatch) (*TodoResponse, error) {
	existing, err := s.findTodo(ctx, id, familyID)
	if err != nil {
		return nil, err
	}

	if patch.Empty() {
		resp := toTodoResponse(*existing)
		return &resp, nil
	}

	if patch.AssigneeID.Set && patch.AssigneeID.Value != nil {
		if err := s.checkAssignee(ctx, *patch.AssigneeID.Value, familyID); err != nil {
			return nil, err
		}
	}

	err = s.todos.Update(ctx, id, familyID, patch.Changes())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTodoNotFound
	}
	if err != nil {
		return nil, err
	}

	return s.GetTodo(ctx, id, familyID)
}

func (s *todoService) DeleteTodo(ctx context.Context, id, familyID uint) error {
	err := s.todos.Delete(ctx, id, familyID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTodoNotFound
	}
	return err
}

func (s *todoService) findTodo(ctx context.Context, id, familyID uint) (*repository.TodoRow, error) {
	row, err := s.todos.FindInFamily(ctx, id, familyID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTodoNotFound
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *todoService) checkAssignee(ctx context.Context, userID, familyID uint) error {
	ok, err := s.memberships.IsMember(ctx, userID, familyID)
	if err != nil {
		return fmt.Errorf("check assignee: %w", err)
	}
	if !ok {
		return invalid("assignee must be a member of your family")
	}
	return nil
}

func toTodoResponse(row repository.TodoRow) TodoResponse {
	resp := TodoResponse{
		ID:            row.ID,
		Title:         row.Title,
		Description:   row.Description,
		AssigneeID:    row.AssigneeID,
		AssigneeEmail: row.AssigneeEmail,
		Completed:     row.Completed,
		CreatedBy:     row.CreatedBy,
		CreatedAt:     row.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     row.UpdatedAt.Format(time.RFC3339),
	}
	if row.DueDate != nil {
		due := row.DueDate.UTC().Format(time.RFC3339)
		resp.DueDate = &due
	}
	return resp
}
