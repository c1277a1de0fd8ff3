package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/roomscan/backend/model"
)

// MemoryInviteStore is an in-memory InviteStore used when no database is
// configured, and in tests. Semantics match the Postgres store: duplicate ids
// or a second pending invite for the same email fail the insert.
type MemoryInviteStore struct {
	invites    map[string]*model.Invite
	mu         sync.RWMutex
	maxInvites int // maximum invites to keep, 0 = unlimited
}

func NewMemoryInviteStore(maxInvites int) *MemoryInviteStore {
	if maxInvites < 0 {
		maxInvites = 0
	}
	return &MemoryInviteStore{
		invites:    make(map[string]*model.Invite),
		maxInvites: maxInvites,
	}
}

func (s *MemoryInviteStore) Create(_ context.Context, invite *model.Invite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.invites[invite.ID]; ok {
		return ErrInviteExists
	}
	for _, existing := range s.invites {
		if existing.Code == invite.Code {
			return ErrInviteExists
		}
		if existing.Email == invite.Email && existing.Status == model.InviteStatusPending {
			return ErrInviteExists
		}
	}

	copied := *invite
	s.invites[invite.ID] = &copied
	s.cleanupIfNeeded()
	return nil
}

func (s *MemoryInviteStore) Get(_ context.Context, id string) (*model.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	invite, ok := s.invites[id]
	if !ok {
		return nil, ErrInviteNotFound
	}
	copied := *invite
	return &copied, nil
}

func (s *MemoryInviteStore) List(_ context.Context, status string) ([]*model.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.Invite
	for _, invite := range s.invites {
		if status != "" && invite.Status != status {
			continue
		}
		copied := *invite
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryInviteStore) Revoke(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	invite, ok := s.invites[id]
	if !ok || invite.Status != model.InviteStatusPending {
		return ErrInviteNotFound
	}
	invite.Status = model.InviteStatusRevoked
	return nil
}

func (s *MemoryInviteStore) Accept(_ context.Context, code string, now time.Time) (*model.Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, invite := range s.invites {
		if invite.Code != code || invite.Status != model.InviteStatusPending {
			continue
		}
		if invite.IsExpired(now) {
			return nil, ErrInviteExpired
		}
		invite.Status = model.InviteStatusAccepted
		copied := *invite
		return &copied, nil
	}
	return nil, ErrInviteNotFound
}

// Count returns the number of invites in the store
func (s *MemoryInviteStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.invites)
}

// cleanupIfNeeded removes oldest invites if the store exceeds maxInvites.
// Must be called with lock held.
func (s *MemoryInviteStore) cleanupIfNeeded() {
	if s.maxInvites <= 0 {
		return // Unlimited
	}

	if len(s.invites) <= s.maxInvites {
		return
	}

	invites := make([]*model.Invite, 0, len(s.invites))
	for _, invite := range s.invites {
		invites = append(invites, invite)
	}
	sort.Slice(invites, func(i, j int) bool {
		return invites[i].CreatedAt.Before(invites[j].CreatedAt)
	})

	removeCount := len(invites) - s.maxInvites
	for i := 0; i < removeCount; i++ {
		slog.Info("auto-cleaning old invite",
			"invite_id", invites[i].ID,
			"created_at", invites[i].CreatedAt,
		)
		delete(s.invites, invites[i].ID)
	}
}
