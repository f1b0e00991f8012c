package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Tomlord1122/family-todo/internal/domain"
	"github.com/Tomlord1122/family-todo/internal/repository"
)

type FamilyResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

type MemberResponse struct {
	ID       uint    `json:"id"`
	Email    string  `json:"email"`
	FullName *string `json:"full_name"`
	Role     string  `json:"role"`
}

type PotentialMemberResponse struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

// FamilyService resolves which family a user belongs to and who else is in it.
type FamilyService interface {
	// ResolveFamily returns ErrNotInFamily when the user has no membership.
	ResolveFamily(ctx context.Context, userID uint) (*domain.Family, error)
	GetFamily(ctx context.Context, userID uint) (*FamilyResponse, error)
	ListMembers(ctx context.Context, userID uint) ([]MemberResponse, error)
	// SearchEligibleUsers lists users sharing the caller's family-name tag who
	// are not yet in the caller's family.
	SearchEligibleUsers(ctx context.Context, userID uint) ([]PotentialMemberResponse, error)
}

type familyService struct {
	memberships repository.MembershipRepository
}

func NewFamilyService(memberships repository.MembershipRepository) FamilyService {
	return &familyService{memberships: memberships}
}

func (s *familyService) ResolveFamily(ctx context.Context, userID uint) (*domain.Family, error) {
	return resolveFamily(ctx, s.memberships, userID)
}

func (s *familyService) GetFamily(ctx context.Context, userID uint) (*FamilyResponse, error) {
	family, err := s.ResolveFamily(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toFamilyResponse(family), nil
}

func (s *familyService) ListMembers(ctx context.Context, userID uint) ([]MemberResponse, error) {
	family, err := s.ResolveFamily(ctx, userID)
	if err != nil {
		return nil, err
	}

	members, err := s.memberships.ListMembers(ctx, family.ID)
	if err != nil {
		return nil, err
	}

	responses := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		responses = append(responses, MemberResponse{
			ID:       m.ID,
			Email:    m.Email,
			FullName: m.FullName,
			Role:     m.Role,
		})
	}
	return responses, nil
}

func (s *familyService) SearchEligibleUsers(ctx context.Context, userID uint) ([]PotentialMemberResponse, error) {
	family, err := s.ResolveFamily(ctx, userID)
	if err != nil {
		return nil, err
	}

	users, err := s.memberships.SearchEligible(ctx, userID, family.ID)
	if err != nil {
		return nil, err
	}

	responses := make([]PotentialMemberResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, PotentialMemberResponse{ID: u.ID, Email: u.Email})
	}
	return responses, nil
}

func resolveFamily(ctx context.Context, memberships repository.MembershipRepository, userID uint) (*domain.Family, error) {
	family, err := memberships.ResolveFamily(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotInFamily
	}
	if err != nil {
		return nil, fmt.Errorf("resolve family: %w", err)
	}
	return family, nil
}

func toFamilyResponse(f *domain.Family) *FamilyResponse {
	return &FamilyResponse{
		ID:        f.ID,
		Name:      f.Name,
		CreatedAt: f.CreatedAt.Format(time.RFC3339),
	}
}
