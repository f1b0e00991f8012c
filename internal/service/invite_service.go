package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Tomlord1122/family-todo/internal/domain"
	"github.com/Tomlord1122/family-todo/internal/notify"
	"github.com/Tomlord1122/family-todo/internal/repository"
)

// inviteTokenBytes gives 256 bits of entropy per token.
const inviteTokenBytes = 32

type InviteResponse struct {
	Token string `json:"token"`
}

type PendingInviteResponse struct {
	Token      string `json:"token"`
	FamilyName string `json:"family_name"`
}

// InviteService issues and redeems single-use family invites.
type InviteService interface {
	CreateInvite(ctx context.Context, inviterID, targetUserID uint) (*InviteResponse, error)
	ListInvites(ctx context.Context, userID uint) ([]PendingInviteResponse, error)
	// RedeemInvite moves the user into the invite's family. A token that does
	// not exist, was already used, or is addressed to someone else yields
	// ErrInvalidToken.
	RedeemInvite(ctx context.Context, userID uint, token string) (*FamilyResponse, error)
}

type inviteService struct {
	invites     repository.InviteRepository
	memberships repository.MembershipRepository
	users       repository.UserRepository
	notifier    notify.InviteNotifier
}

func NewInviteService(
	invites repository.InviteRepository,
	memberships repository.MembershipRepository,
	users repository.UserRepository,
	notifier notify.InviteNotifier,
) InviteService {
	return &inviteService{
		invites:     invites,
		memberships: memberships,
		users:       users,
		notifier:    notifier,
	}
}

func (s *inviteService) CreateInvite(ctx context.Context, inviterID, targetUserID uint) (*InviteResponse, error) {
	if targetUserID == 0 {
		return nil, invalid("userId is required")
	}

	family, err := resolveFamily(ctx, s.memberships, inviterID)
	if err != nil {
		return nil, err
	}

	target, err := s.users.FindByID(ctx, targetUserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find invitee: %w", err)
	}

	already, err := s.memberships.IsMember(ctx, target.ID, family.ID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, invalid("user is already a member of this family")
	}

	token, err := generateInviteToken()
	if err != nil {
		return nil, err
	}

	invite := &domain.Invite{
		Token:    token,
		FamilyID: family.ID,
		Email:    target.Email,
	}
	if err := s.invites.Create(ctx, invite); err != nil {
		return nil, err
	}

	// The invite is stored; delivery is best effort since it also shows up
	// under GET /invites.
	err = s.notifier.InviteCreated(ctx, notify.Invite{
		Email:      target.Email,
		FamilyName: family.Name,
		Token:      token,
	})
	if err != nil {
		slog.WarnContext(ctx, "invite notification failed", "family_id", family.ID, "error", err)
	}

	return &InviteResponse{Token: token}, nil
}

func (s *inviteService) ListInvites(ctx context.Context, userID uint) ([]PendingInviteResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	pending, err := s.invites.ListForEmail(ctx, user.Email)
	if err != nil {
		return nil, err
	}

	responses := make([]PendingInviteResponse, 0, len(pending))
	for _, p := range pending {
		responses = append(responses, PendingInviteResponse{Token: p.Token, FamilyName: p.FamilyName})
	}
	return responses, nil
}

func (s *inviteService) RedeemInvite(ctx context.Context, userID uint, token string) (*FamilyResponse, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, invalid("invite token is required")
	}

	family, err := s.invites.Redeem(ctx, token, userID)
	if errors.Is(err, repository.ErrInviteNotFound) || errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("redeem invite: %w", err)
	}

	slog.InfoContext(ctx, "invite redeemed", "user_id", userID, "family_id", family.ID)
	return toFamilyResponse(family), nil
}

func generateInviteToken() (string, error) {
	b := make([]byte, inviteTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate invite token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
