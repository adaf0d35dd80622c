package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"athleteapi/internal/models"
	"athleteapi/internal/repositories"
	"athleteapi/internal/utils"
)

type fakeProvider struct {
	mu          sync.Mutex
	startResp   *utils.VerifyResponse
	startErr    error
	checkResp   *utils.CheckResponse
	checkErr    error
	startCalls  int
	checkCalls  int
	lastPhone   string
	lastRequest string
	lastCode    string
}

func (p *fakeProvider) StartChallenge(_ context.Context, phone string) (*utils.VerifyResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.startCalls++
	p.lastPhone = phone
	return p.startResp, p.startErr
}

func (p *fakeProvider) CheckChallenge(_ context.Context, requestID, code string) (*utils.CheckResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkCalls++
	p.lastRequest = requestID
	p.lastCode = code
	return p.checkResp, p.checkErr
}

func echo(id string) *utils.CheckResponse {
	return &utils.CheckResponse{RequestID: &id, Status: utils.NexmoStatusSuccess}
}

type fakeVerificationStore struct {
	mu        sync.Mutex
	rows      []models.PhoneVerification
	createErr error
	getErr    error
	calls     int
}

func (s *fakeVerificationStore) Create(_ context.Context, requestID, phone string) (*models.PhoneVerification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.createErr != nil {
		return nil, s.createErr
	}
	v := models.PhoneVerification{
		ID:        int64(len(s.rows) + 1),
		RequestID: requestID,
		Phone:     phone,
		CreatedAt: time.Now(),
	}
	s.rows = append(s.rows, v)
	return &v, nil
}

func (s *fakeVerificationStore) GetLatestByRequestID(_ context.Context, requestID string) (*models.PhoneVerification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.getErr != nil {
		return nil, s.getErr
	}
	for i := len(s.rows) - 1; i >= 0; i-- {
		if s.rows[i].RequestID == requestID {
			v := s.rows[i]
			return &v, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// fakeUserRepo enforces phone uniqueness across active users like the
// partial unique index does.
type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[int64]*models.User
	nextID    int64
	findDelay time.Duration
	creates   int
	findErr   error
	createErr error

	// findGate, when set, holds FindByPhone until closed or ctx is done.
	findGate    chan struct{}
	findEntered chan struct{}
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*models.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.createErr != nil {
		return r.createErr
	}
	if u.Phone != nil {
		for _, existing := range r.users {
			if existing.Phone != nil && *existing.Phone == *u.Phone && existing.DeletedAt == nil {
				return repositories.ErrDuplicatePhone
			}
		}
	}
	if u.ID == 0 {
		r.nextID++
		u.ID = r.nextID
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	if r.findDelay > 0 {
		time.Sleep(r.findDelay)
	}
	if r.findGate != nil {
		select {
		case r.findEntered <- struct{}{}:
		default:
		}
		select {
		case <-r.findGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.Phone != nil && *u.Phone == phone && u.DeletedAt == nil {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

type fakeBannedRepo struct {
	mu        sync.Mutex
	tokens    map[string]bool
	existsErr error
	lookups   int
}

func newFakeBannedRepo(tokens ...string) *fakeBannedRepo {
	r := &fakeBannedRepo{tokens: map[string]bool{}}
	for _, t := range tokens {
		r.tokens[t] = true
	}
	return r
}

func (r *fakeBannedRepo) Exists(_ context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	if r.existsErr != nil {
		return false, r.existsErr
	}
	return r.tokens[token], nil
}

func (r *fakeBannedRepo) Insert(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = true
	return nil
}

type fakeCache struct {
	set map[string]bool
	err error
}

func (c *fakeCache) Contains(_ context.Context, token string) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	return c.set[token], nil
}

func (c *fakeCache) Add(_ context.Context, token string) error {
	if c.err != nil {
		return c.err
	}
	c.set[token] = true
	return nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads []interface{}
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) has(subject string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.subjects {
		if s == subject {
			return true
		}
	}
	return false
}

func (p *recordingPublisher) last(subject string) interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.subjects) - 1; i >= 0; i-- {
		if p.subjects[i] == subject {
			return p.payloads[i]
		}
	}
	return nil
}

var errDB = errors.New("connection refused")
