// Package memory is an in-process UserProvider, suitable for tests and
// examples. Not durable.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	socialauth "github.com/nexfeed/socialauth"
)

// Provider stores user records in process memory, keyed by id with
// username and email lookup indexes.
type Provider struct {
	mu      sync.RWMutex
	byID    map[string]*socialauth.UserRecord
	byName  map[string]string
	byEmail map[string]string
}

func New() *Provider {
	return &Provider{
		byID:    make(map[string]*socialauth.UserRecord),
		byName:  make(map[string]string),
		byEmail: make(map[string]string),
	}
}

func (p *Provider) FindByIdentifier(_ context.Context, identifier string) (*socialauth.UserRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	id, ok := p.byName[identifier]
	if !ok {
		id, ok = p.byEmail[identifier]
	}
	if !ok {
		return nil, socialauth.ErrUserNotFound
	}

	return cloneRecord(p.byID[id]), nil
}

func (p *Provider) FindByID(_ context.Context, id string) (*socialauth.UserRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	rec, ok := p.byID[id]
	if !ok {
		return nil, socialauth.ErrUserNotFound
	}

	return cloneRecord(rec), nil
}

func (p *Provider) Create(_ context.Context, in socialauth.CreateUserInput) (*socialauth.UserRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, taken := p.byName[in.Username]; taken {
		return nil, socialauth.ErrAccountExists
	}
	if _, taken := p.byEmail[in.Email]; taken {
		return nil, socialauth.ErrAccountExists
	}

	rec := &socialauth.UserRecord{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		Active:       true,
	}

	p.byID[rec.ID] = rec
	p.byName[rec.Username] = rec.ID
	p.byEmail[rec.Email] = rec.ID

	return cloneRecord(rec), nil
}

func (p *Provider) UpdatePasswordHash(_ context.Context, id, hash string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec, ok := p.byID[id]
	if !ok {
		return socialauth.ErrUserNotFound
	}

	rec.PasswordHash = hash
	return nil
}

// SetActive flips the account flag, used by deactivation flows and tests.
func (p *Provider) SetActive(_ context.Context, id string, active bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec, ok := p.byID[id]
	if !ok {
		return socialauth.ErrUserNotFound
	}

	rec.Active = active
	return nil
}

func cloneRecord(rec *socialauth.UserRecord) *socialauth.UserRecord {
	cp := *rec
	return &cp
}
