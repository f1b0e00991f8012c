package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/Tomlord1122/family-todo/internal/auth"
	"github.com/Tomlord1122/family-todo/internal/config"
	"github.com/Tomlord1122/family-todo/internal/domain"
	"github.com/Tomlord1122/family-todo/internal/service"
)

const goodToken = "good-token"

// Each stub answers from its function fields; unset fields fail the call.

type stubAuth struct {
	signup func(service.SignupRequest) (*service.AuthResponse, error)
	login  func(service.LoginRequest) (*service.AuthResponse, error)
	userID uint
}

func (s *stubAuth) Signup(ctx context.Context, req service.SignupRequest) (*service.AuthResponse, error) {
	if s.signup == nil {
		return nil, errors.New("unexpected Signup")
	}
	return s.signup(req)
}

func (s *stubAuth) Login(ctx context.Context, req service.LoginRequest) (*service.AuthResponse, error) {
	if s.login == nil {
		return nil, errors.New("unexpected Login")
	}
	return s.login(req)
}

func (s *stubAuth) Authenticate(token string) (auth.AuthContext, error) {
	if token != goodToken {
		return auth.AuthContext{}, service.ErrUnauthorized
	}
	return auth.AuthContext{UserID: s.userID, Email: "caller@example.com"}, nil
}

type stubFamilies struct {
	family  *domain.Family
	members []service.MemberResponse
}

func (s *stubFamilies) ResolveFamily(ctx context.Context, userID uint) (*domain.Family, error) {
	if s.family == nil {
		return nil, service.ErrNotInFamily
	}
	return s.family, nil
}

func (s *stubFamilies) GetFamily(ctx context.Context, userID uint) (*service.FamilyResponse, error) {
	f, err := s.ResolveFamily(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &service.FamilyResponse{ID: f.ID, Name: f.Name, CreatedAt: f.CreatedAt.Format(time.RFC3339)}, nil
}

func (s *stubFamilies) ListMembers(ctx context.Context, userID uint) ([]service.MemberResponse, error) {
	if s.family == nil {
		return nil, service.ErrNotInFamily
	}
	return s.members, nil
}

func (s *stubFamilies) SearchEligibleUsers(ctx context.Context, userID uint) ([]service.PotentialMemberResponse, error) {
	if s.family == nil {
		return nil, service.ErrNotInFamily
	}
	return []service.PotentialMemberResponse{}, nil
}

type stubInvites struct {
	create func(inviterID, targetID uint) (*service.InviteResponse, error)
	redeem func(userID uint, token string) (*service.FamilyResponse, error)
}

func (s *stubInvites) CreateInvite(ctx context.Context, inviterID, targetUserID uint) (*service.InviteResponse, error) {
	if s.create == nil {
		return nil, errors.New("unexpected CreateInvite")
	}
	return s.create(inviterID, targetUserID)
}

func (s *stubInvites) ListInvites(ctx context.Context, userID uint) ([]service.PendingInviteResponse, error) {
	return []service.PendingInviteResponse{}, nil
}

func (s *stubInvites) RedeemInvite(ctx context.Context, userID uint, token string) (*service.FamilyResponse, error) {
	if s.redeem == nil {
		return nil, errors.New("unexpected RedeemInvite")
	}
	return s.redeem(userID, token)
}

type stubTodos struct {
	list   func(familyID uint, filter service.ListTodosFilter) ([]service.TodoResponse, error)
	create func(familyID, creatorID uint, req service.CreateTodoRequest) (*service.TodoResponse, error)
	update func(id, familyID uint, patch service.TodoPatch) (*service.TodoResponse, error)
	delete func(id, familyID uint) error
}

func (s *stubTodos) ListTodos(ctx context.Context, familyID uint, filter service.ListTodosFilter) ([]service.TodoResponse, error) {
	if s.list == nil {
		return nil, errors.New("unexpected ListTodos")
	}
	return s.list(familyID, filter)
}

func (s *stubTodos) GetTodo(ctx context.Context, id, familyID uint) (*service.TodoResponse, error) {
	return nil, service.ErrTodoNotFound
}

func (s *stubTodos) CreateTodo(ctx context.Context, familyID, creatorID uint, req service.CreateTodoRequest) (*service.TodoResponse, error) {
	if s.create == nil {
		return nil, errors.New("unexpected CreateTodo")
	}
	return s.create(familyID, creatorID, req)
}

func (s *stubTodos) UpdateTodo(ctx context.Context, id, familyID uint, patch service.TodoPatch) (*service.TodoResponse, error) {
	if s.update == nil {
		return nil, errors.New("unexpected UpdateTodo")
	}
	return s.update(id, familyID, patch)
}

func (s *stubTodos) DeleteTodo(ctx context.Context, id, familyID uint) error {
	if s.delete == nil {
		return errors.New("unexpected DeleteTodo")
	}
	return s.delete(id, familyID)
}

type stubDB struct {
	down bool
}

func (d *stubDB) Health() map[string]string {
	if d.down {
		return map[string]string{"status": "down"}
	}
	return map[string]string{"status": "up"}
}

func (d *stubDB) Migrate() error { return nil }

func (d *stubDB) Close() error { return nil }

func (d *stubDB) GetDB() *gorm.DB { return nil }

type testServer struct {
	auth     *stubAuth
	families *stubFamilies
	invites  *stubInvites
	todos    *stubTodos
	db       *stubDB
}

func newTestServer() *testServer {
	return &testServer{
		auth:     &stubAuth{userID: 1},
		families: &stubFamilies{family: &domain.Family{ID: 10, Name: "Smiths"}},
		invites:  &stubInvites{},
		todos:    &stubTodos{},
		db:       &stubDB{},
	}
}

func (ts *testServer) handler() http.Handler {
	cfg := &config.Config{CORSAllowedOrigins: []string{"http://localhost:5173"}}
	return NewServer(cfg, Services{
		Auth:     ts.auth,
		Families: ts.families,
		Invites:  ts.invites,
		Todos:    ts.todos,
	}, ts.db).Handler
}
