package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Tomlord1122/family-todo/internal/domain"
)

func TestInviteRedeem(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInviteRepository(db)
	ctx := context.Background()

	_, smiths := signup(t, db, "a@example.com", "Smiths")
	b, _ := signup(t, db, "b@example.com", "Joneses")

	if err := repo.Create(ctx, &domain.Invite{Token: "tok-1", FamilyID: smiths.ID, Email: b.Email}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	pending, err := repo.ListForEmail(ctx, b.Email)
	if err != nil {
		t.Fatalf("ListForEmail: %v", err)
	}
	if len(pending) != 1 || pending[0].Token != "tok-1" || pending[0].FamilyName != "Smiths" {
		t.Fatalf("ListForEmail = %+v", pending)
	}

	family, err := repo.Redeem(ctx, "tok-1", b.ID)
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if family.ID != smiths.ID || family.Name != "Smiths" {
		t.Errorf("redeemed family = %+v, want Smiths (%d)", family, smiths.ID)
	}

	var m domain.Membership
	db.First(&m, "user_id = ?", b.ID)
	if m.FamilyID != smiths.ID || m.Role != domain.RoleMember {
		t.Errorf("membership = %+v, want family %d as member", m, smiths.ID)
	}

	if _, err := repo.Redeem(ctx, "tok-1", b.ID); !errors.Is(err, ErrInviteNotFound) {
		t.Errorf("second Redeem error = %v, want ErrInviteNotFound", err)
	}
	pending, _ = repo.ListForEmail(ctx, b.Email)
	if len(pending) != 0 {
		t.Errorf("pending after redeem = %d, want 0", len(pending))
	}
}

func TestInviteRedeemWrongEmail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInviteRepository(db)
	ctx := context.Background()

	_, smiths := signup(t, db, "a@example.com", "Smiths")
	b, joneses := signup(t, db, "b@example.com", "Joneses")
	c, _ := signup(t, db, "c@example.com", "Browns")

	if err := repo.Create(ctx, &domain.Invite{Token: "for-b", FamilyID: smiths.ID, Email: b.Email}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := repo.Redeem(ctx, "for-b", c.ID); !errors.Is(err, ErrInviteNotFound) {
		t.Fatalf("Redeem by other user error = %v, want ErrInviteNotFound", err)
	}

	// Invite untouched, b still redeemable, b's membership unchanged so far.
	var fam domain.Membership
	db.First(&fam, "user_id = ?", b.ID)
	if fam.FamilyID != joneses.ID {
		t.Errorf("b moved without redeeming")
	}
	if _, err := repo.Redeem(ctx, "for-b", b.ID); err != nil {
		t.Errorf("Redeem by addressee: %v", err)
	}
}

func TestInviteRedeemConcurrentSingleWinner(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInviteRepository(db)
	ctx := context.Background()

	_, smiths := signup(t, db, "a@example.com", "Smiths")
	b, _ := signup(t, db, "b@example.com", "Joneses")
	if err := repo.Create(ctx, &domain.Invite{Token: "race", FamilyID: smiths.ID, Email: b.Email}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	const attempts = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		invalid   int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Redeem(context.Background(), "race", b.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrInviteNotFound):
				invalid++
			default:
				t.Errorf("Redeem: unexpected error %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("successes = %d, want 1", successes)
	}
	if invalid != attempts-1 {
		t.Errorf("invalid = %d, want %d", invalid, attempts-1)
	}
	if n := membershipCount(t, db, b.ID); n != 1 {
		t.Errorf("memberships = %d, want 1", n)
	}
	var left int64
	db.Model(&domain.Invite{}).Count(&left)
	if left != 0 {
		t.Errorf("invites left = %d, want 0", left)
	}
}

func TestInviteRedeemRollsBackOnTransferFailure(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInviteRepository(db)
	ctx := context.Background()

	b, _ := signup(t, db, "b@example.com", "Joneses")
	// Points at a family that does not exist, so the transfer step fails.
	if err := repo.Create(ctx, &domain.Invite{Token: "dangling", FamilyID: 999, Email: b.Email}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := repo.Redeem(ctx, "dangling", b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Redeem error = %v, want ErrNotFound", err)
	}

	var left int64
	db.Model(&domain.Invite{}).Where("token = ?", "dangling").Count(&left)
	if left != 1 {
		t.Errorf("invite consumed despite failed transfer")
	}
}

func TestInviteCreateDuplicateToken(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInviteRepository(db)
	ctx := context.Background()
	_, smiths := signup(t, db, "a@example.com", "Smiths")

	if err := repo.Create(ctx, &domain.Invite{Token: "same", FamilyID: smiths.ID, Email: "x@example.com"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := repo.Create(ctx, &domain.Invite{Token: "same", FamilyID: smiths.ID, Email: "y@example.com"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("Create duplicate error = %v, want ErrDuplicate", err)
	}
}
