package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Tomlord1122/family-todo/internal/domain"
	"github.com/Tomlord1122/family-todo/internal/notify"
	"github.com/Tomlord1122/family-todo/internal/repository"
)

// store is an in-memory stand-in for the repositories, used by the unit
// tests. Integration tests in scenario_test.go run against Postgres.
type store struct {
	mu       sync.Mutex
	users    map[uint]*domain.User
	families map[uint]*domain.Family
	members  map[uint]domain.Membership
	invites  map[string]domain.Invite
	todos    map[uint]*domain.Todo
	nextID   uint
	failWith error
	// afterRedeem runs once a redemption has committed, before Redeem
	// returns. It must not take mu.
	afterRedeem func(userID uint)
}

func newStore() *store {
	return &store{
		users:    map[uint]*domain.User{},
		families: map[uint]*domain.Family{},
		members:  map[uint]domain.Membership{},
		invites:  map[string]domain.Invite{},
		todos:    map[uint]*domain.Todo{},
	}
}

func (s *store) id() uint {
	s.nextID++
	return s.nextID
}

// --- users ---

type fakeUsers struct{ *store }

func (r fakeUsers) CreateWithFamily(ctx context.Context, user *domain.User, familyName string) (*domain.Family, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, repository.ErrDuplicate
		}
	}
	family := &domain.Family{ID: r.id(), Name: familyName, CreatedAt: time.Now()}
	r.families[family.ID] = family
	user.ID = r.id()
	user.FamilyName = familyName
	stored := *user
	r.users[user.ID] = &stored
	r.members[user.ID] = domain.Membership{UserID: user.ID, FamilyID: family.ID, Role: domain.RoleAdmin}
	return family, nil
}

func (r fakeUsers) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r fakeUsers) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

// --- memberships ---

type fakeMemberships struct{ *store }

func (r fakeMemberships) ResolveFamily(ctx context.Context, userID uint) (*domain.Family, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	f := *r.families[m.FamilyID]
	return &f, nil
}

func (r fakeMemberships) ListMembers(ctx context.Context, familyID uint) ([]repository.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := []repository.Member{}
	for uid, m := range r.members {
		if m.FamilyID != familyID {
			continue
		}
		u := r.users[uid]
		members = append(members, repository.Member{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: m.Role})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Email < members[j].Email })
	return members, nil
}

func (r fakeMemberships) IsMember(ctx context.Context, userID, familyID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[userID]
	return ok && m.FamilyID == familyID, nil
}

func (r fakeMemberships) Transfer(ctx context.Context, userID, familyID uint, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transfer(userID, familyID, role)
}

func (s *store) transfer(userID, familyID uint, role string) error {
	f, ok := s.families[familyID]
	if !ok {
		return repository.ErrNotFound
	}
	u, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.FamilyName = f.Name
	s.members[userID] = domain.Membership{UserID: userID, FamilyID: familyID, Role: role, JoinedAt: time.Now()}
	return nil
}

func (r fakeMemberships) SearchEligible(ctx context.Context, userID, familyID uint) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	me, ok := r.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	users := []domain.User{}
	for _, u := range r.users {
		if u.ID == userID || u.FamilyName != me.FamilyName {
			continue
		}
		if m, ok := r.members[u.ID]; ok && m.FamilyID == familyID {
			continue
		}
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

// --- invites ---

type fakeInvites struct{ *store }

func (r fakeInvites) Create(ctx context.Context, invite *domain.Invite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invites[invite.Token]; ok {
		return repository.ErrDuplicate
	}
	invite.ID = r.id()
	invite.CreatedAt = time.Now()
	r.invites[invite.Token] = *invite
	return nil
}

func (r fakeInvites) ListForEmail(ctx context.Context, email string) ([]repository.PendingInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pending := []repository.PendingInvite{}
	for _, inv := range r.invites {
		if inv.Email != email {
			continue
		}
		pending = append(pending, repository.PendingInvite{
			Token:      inv.Token,
			FamilyID:   inv.FamilyID,
			FamilyName: r.families[inv.FamilyID].Name,
			CreatedAt:  inv.CreatedAt,
		})
	}
	return pending, nil
}

func (r fakeInvites) Redeem(ctx context.Context, token string, userID uint) (*domain.Family, error) {
	family, err := r.redeem(token, userID)
	if err == nil && r.afterRedeem != nil {
		r.afterRedeem(userID)
	}
	return family, err
}

func (r fakeInvites) redeem(token string, userID uint) (*domain.Family, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invites[token]
	u, found := r.users[userID]
	if !ok || !found || inv.Email != u.Email {
		return nil, repository.ErrInviteNotFound
	}
	delete(r.invites, token)
	if err := r.transfer(userID, inv.FamilyID, domain.RoleMember); err != nil {
		r.invites[token] = inv
		return nil, err
	}
	family := *r.families[inv.FamilyID]
	return &family, nil
}

// --- todos ---

type fakeTodos struct{ *store }

func (r fakeTodos) Create(ctx context.Context, todo *domain.Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	todo.ID = r.id()
	todo.CreatedAt = time.Now()
	todo.UpdatedAt = todo.CreatedAt
	c := *todo
	r.todos[todo.ID] = &c
	return nil
}

func (r fakeTodos) row(t *domain.Todo) repository.TodoRow {
	row := repository.TodoRow{Todo: *t}
	if t.AssigneeID != nil {
		if u, ok := r.users[*t.AssigneeID]; ok {
			email := u.Email
			row.AssigneeEmail = &email
		}
	}
	return row
}

func (r fakeTodos) FindInFamily(ctx context.Context, id, familyID uint) (*repository.TodoRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.todos[id]
	if !ok || t.FamilyID != familyID {
		return nil, repository.ErrNotFound
	}
	row := r.row(t)
	return &row, nil
}

func (r fakeTodos) ListByFamily(ctx context.Context, familyID uint, filter repository.TodoFilter) ([]repository.TodoRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := []repository.TodoRow{}
	for _, t := range r.todos {
		if t.FamilyID != familyID {
			continue
		}
		if filter.Completed != nil && t.Completed != *filter.Completed {
			continue
		}
		row := r.row(t)
		if filter.AssigneeEmail != "" && (row.AssigneeEmail == nil || *row.AssigneeEmail != filter.AssigneeEmail) {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID > rows[j].ID })
	return rows, nil
}

func (r fakeTodos) Update(ctx context.Context, id, familyID uint, changes map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.todos[id]
	if !ok || t.FamilyID != familyID {
		return repository.ErrNotFound
	}
	for k, v := range changes {
		switch k {
		case "title":
			t.Title = v.(string)
		case "description":
			t.Description = v.(*string)
		case "due_date":
			t.DueDate = v.(*time.Time)
		case "assignee_id":
			t.AssigneeID = v.(*uint)
		case "completed":
			t.Completed = v.(bool)
		default:
			return errors.New("unexpected column " + k)
		}
	}
	t.UpdatedAt = time.Now()
	return nil
}

func (r fakeTodos) Delete(ctx context.Context, id, familyID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.todos[id]
	if !ok || t.FamilyID != familyID {
		return repository.ErrNotFound
	}
	delete(r.todos, id)
	return nil
}

// --- notifier ---

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Invite
	err  error
}

func (n *recordingNotifier) InviteCreated(ctx context.Context, invite notify.Invite) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, invite)
	return n.err
}

// addUser registers a user with their own family, as signup would.
func (s *store) addUser(email, familyName string) (*domain.User, *domain.Family) {
	user := &domain.User{Email: email, PasswordHash: "hash"}
	family, err := fakeUsers{s}.CreateWithFamily(context.Background(), user, familyName)
	if err != nil {
		panic(err)
	}
	return user, family
}

// addLoneUser registers a user without any membership.
func (s *store) addLoneUser(email, familyName string) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &domain.User{ID: s.id(), Email: email, FamilyName: familyName}
	s.users[u.ID] = u
	c := *u
	return &c
}
