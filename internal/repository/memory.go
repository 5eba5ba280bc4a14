package repository

import (
	"context"
	"sync"
	"time"

	"frontdesk/internal/models"
)

// MemoryDraftRepository keeps drafts in process. Drafts older than ttl are
// treated as missing.
type MemoryDraftRepository struct {
	mu         sync.Mutex
	drafts     map[string]*models.Draft
	rateLimits map[string]*rateLimitEntry
	ttl        time.Duration
	now        func() time.Time
}

func NewMemoryDraftRepository(ttl time.Duration) *MemoryDraftRepository {
	return &MemoryDraftRepository{
		drafts:     make(map[string]*models.Draft),
		rateLimits: make(map[string]*rateLimitEntry),
		ttl:        ttl,
		now:        time.Now,
	}
}

func (r *MemoryDraftRepository) GetDraft(ctx context.Context, deskID string) (*models.Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drafts[deskID]
	if !ok {
		return nil, nil
	}
	if r.ttl > 0 && r.now().Sub(d.UpdatedAt) > r.ttl {
		delete(r.drafts, deskID)
		return nil, nil
	}
	return cloneDraft(d), nil
}

func (r *MemoryDraftRepository) SaveDraft(ctx context.Context, draft *models.Draft) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneDraft(draft)
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = r.now()
	}
	r.drafts[draft.DeskID] = stored
	return nil
}

func (r *MemoryDraftRepository) ClearDraft(ctx context.Context, deskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drafts, deskID)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

// CheckRateLimit is a fixed-window counter per desk.
func (r *MemoryDraftRepository) CheckRateLimit(ctx context.Context, deskID string, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	entry, ok := r.rateLimits[deskID]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.rateLimits[deskID] = entry
	}
	entry.count++

	return entry.count <= limit, nil
}

func cloneDraft(d *models.Draft) *models.Draft {
	out := &models.Draft{DeskID: d.DeskID, UpdatedAt: d.UpdatedAt}
	if d.Fields != nil {
		out.Fields = make(map[string]interface{}, len(d.Fields))
		for k, v := range d.Fields {
			out.Fields[k] = v
		}
	}
	return out
}
