package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Tomlord1122/family-todo/internal/domain"
)

// TodoRow is a todo joined with its assignee's email.
type TodoRow struct {
	domain.Todo   `gorm:"embedded"`
	AssigneeEmail *string
}

// TodoFilter narrows ListByFamily. Zero values mean "no filter".
type TodoFilter struct {
	Query         string
	AssigneeEmail string
	Completed     *bool
}

// TodoRepository defines the data operations for todos. Every lookup is
// scoped by family; a todo in another family is reported as ErrNotFound.
type TodoRepository interface {
	Create(ctx context.Context, todo *domain.Todo) error
	FindInFamily(ctx context.Context, id, familyID uint) (*TodoRow, error)
	ListByFamily(ctx context.Context, familyID uint, filter TodoFilter) ([]TodoRow, error)
	Update(ctx context.Context, id, familyID uint, changes map[string]any) error
	Delete(ctx context.Context, id, familyID uint) error
}

// gormTodoRepository implements TodoRepository using GORM
type gormTodoRepository struct {
	db *gorm.DB
}

// NewGormTodoRepository creates a new GORM todo repository
func NewGormTodoRepository(db *gorm.DB) TodoRepository {
	return &gormTodoRepository{db: db}
}

func (r *gormTodoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	if err := r.db.WithContext(ctx).Create(todo).Error; err != nil {
		return fmt.Errorf("create todo: %w", err)
	}
	return nil
}

func (r *gormTodoRepository) FindInFamily(ctx context.Context, id, familyID uint) (*TodoRow, error) {
	var rows []TodoRow
	err := r.rows(ctx, familyID).
		Where("todos.id = ?", id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find todo: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

func (r *gormTodoRepository) ListByFamily(ctx context.Context, familyID uint, filter TodoFilter) ([]TodoRow, error) {
	q := r.rows(ctx, familyID)

	if filter.Query != "" {
		like := "%" + escapeLike(filter.Query) + "%"
		q = q.Where("(todos.title ILIKE ? OR todos.description ILIKE ?)", like, like)
	}
	if filter.AssigneeEmail != "" {
		q = q.Where("users.email = ?", strings.ToLower(filter.AssigneeEmail))
	}
	if filter.Completed != nil {
		q = q.Where("todos.completed = ?", *filter.Completed)
	}

	rows := []TodoRow{}
	if err := q.Order("todos.created_at DESC, todos.id DESC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return rows, nil
}

func (r *gormTodoRepository) Update(ctx context.Context, id, familyID uint, changes map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Todo{}).
		Where("id = ? AND family_id = ?", id, familyID).
		Updates(changes)
	if res.Error != nil {
		return fmt.Errorf("update todo: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete soft-deletes the todo (gorm.Model carries DeletedAt).
func (r *gormTodoRepository) Delete(ctx context.Context, id, familyID uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND family_id = ?", id, familyID).
		Delete(&domain.Todo{})
	if res.Error != nil {
		return fmt.Errorf("delete todo: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormTodoRepository) rows(ctx context.Context, familyID uint) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&domain.Todo{}).
		Select("todos.*, users.email AS assignee_email").
		Joins("LEFT JOIN users ON users.id = todos.assignee_id").
		Where("todos.family_id = ?", familyID)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
