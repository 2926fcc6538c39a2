package application

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/uzimatech/borehole-api/internal/domain/apperr"
	"github.com/uzimatech/borehole-api/internal/domain/entity"
	"github.com/uzimatech/borehole-api/internal/gateway"
	"github.com/uzimatech/borehole-api/internal/geo"
)

// In-memory repositories used by the service tests. They mirror the
// persistence semantics the Postgres implementations provide, including the
// version check on Save.

type memUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]entity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]entity.User{}}
}

func (m *memUserRepo) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	u.ID = fmt.Sprintf("user-%d", m.seq)
	m.users[u.ID] = *u
	return nil
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	return &u, nil
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (m *memUserRepo) GetByEmailOrPhone(_ context.Context, email, phone string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email || u.PhoneNumber == phone {
			u := u
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (m *memUserRepo) Update(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return apperr.NotFound("user not found")
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memUserRepo) UpdatePassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return apperr.NotFound("user not found")
	}
	u.Password = hash
	m.users[id] = u
	return nil
}

func (m *memUserRepo) SetEmailVerified(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return apperr.NotFound("user not found")
	}
	u.EmailVerified = true
	m.users[id] = u
	return nil
}

func (m *memUserRepo) TouchLastLogin(_ context.Context, id string) error { return nil }

type memRequestRepo struct {
	mu       sync.Mutex
	seq      int
	requests map[string]entity.ServiceRequest
}

func newMemRequestRepo() *memRequestRepo {
	return &memRequestRepo{requests: map[string]entity.ServiceRequest{}}
}

func (m *memRequestRepo) Create(_ context.Context, r *entity.ServiceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	r.ID = fmt.Sprintf("req-%d", m.seq)
	r.Version = 1
	m.requests[r.ID] = *r
	return nil
}

func (m *memRequestRepo) GetByID(_ context.Context, id string) (*entity.ServiceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, apperr.NotFound("service request not found")
	}
	return &r, nil
}

func (m *memRequestRepo) GetOwned(_ context.Context, id, userID string) (*entity.ServiceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok || r.UserID != userID {
		return nil, apperr.NotFound("service request not found")
	}
	return &r, nil
}

func (m *memRequestRepo) ListByUser(_ context.Context, userID string) ([]*entity.ServiceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.ServiceRequest
	for _, r := range m.requests {
		if r.UserID == userID {
			r := r
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memRequestRepo) Save(_ context.Context, r *entity.ServiceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.requests[r.ID]
	if !ok {
		return apperr.NotFound("service request not found")
	}
	if stored.Version != r.Version {
		return apperr.Conflict("service request was modified concurrently")
	}
	r.Version++
	m.requests[r.ID] = *r
	return nil
}

type memPaymentRepo struct {
	mu       sync.Mutex
	seq      int
	payments map[string]entity.Payment
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{payments: map[string]entity.Payment{}}
}

func (m *memPaymentRepo) Create(_ context.Context, p *entity.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	p.ID = fmt.Sprintf("pay-%d", m.seq)
	p.Version = 1
	m.payments[p.ID] = *p
	return nil
}

func (m *memPaymentRepo) GetByID(_ context.Context, id string) (*entity.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, apperr.NotFound("payment not found")
	}
	return &p, nil
}

func (m *memPaymentRepo) ListByUser(_ context.Context, userID string) ([]*entity.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Payment
	for _, p := range m.payments {
		if p.UserID == userID {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memPaymentRepo) Save(_ context.Context, p *entity.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.payments[p.ID]
	if !ok {
		return apperr.NotFound("payment not found")
	}
	if stored.Version != p.Version {
		return apperr.Conflict("payment was modified concurrently")
	}
	p.Version++
	m.payments[p.ID] = *p
	return nil
}

type memNotificationRepo struct {
	mu      sync.Mutex
	seq     int
	notices []entity.Notification
}

func newMemNotificationRepo() *memNotificationRepo {
	return &memNotificationRepo{}
}

func (m *memNotificationRepo) Create(_ context.Context, n *entity.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	n.ID = fmt.Sprintf("ntf-%d", m.seq)
	m.notices = append(m.notices, *n)
	return nil
}

func (m *memNotificationRepo) ListByUser(_ context.Context, userID string, limit int) ([]*entity.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Notification
	// newest first: iterate insertion order backwards
	for i := len(m.notices) - 1; i >= 0 && len(out) < limit; i-- {
		n := m.notices[i]
		if n.UserID == userID && !n.IsDeleted {
			out = append(out, &n)
		}
	}
	return out, nil
}

func (m *memNotificationRepo) GetOwned(_ context.Context, id, userID string) (*entity.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notices {
		if n.ID == id && n.UserID == userID && !n.IsDeleted {
			n := n
			return &n, nil
		}
	}
	return nil, apperr.NotFound("notification not found")
}

func (m *memNotificationRepo) MarkRead(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.notices {
		if n.ID == id && n.UserID == userID && !n.IsDeleted {
			m.notices[i].IsRead = true
			return nil
		}
	}
	return apperr.NotFound("notification not found")
}

func (m *memNotificationRepo) SoftDelete(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.notices {
		if n.ID == id && n.UserID == userID && !n.IsDeleted {
			m.notices[i].IsDeleted = true
			return nil
		}
	}
	return apperr.NotFound("notification not found")
}

// fakeGateway scripts one authorization outcome per call.
type fakeGateway struct {
	mu          sync.Mutex
	calls       int
	response    *gateway.AuthResult
	errs        []error // consumed in order; nil entry means success
	onAuthorize func()  // runs inside each call, before the scripted outcome
}

func (f *fakeGateway) Authorize(_ context.Context, amount float64, currency string, _ gateway.Credentials) (*gateway.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.onAuthorize != nil {
		f.onAuthorize()
	}
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if f.response != nil {
		return f.response, nil
	}
	return &gateway.AuthResult{ProviderReference: "prov-ref-001", Status: "successful", CardLast4: "4242", CardBrand: "visa"}, nil
}

// recordingNotifier captures live pushes.
type recordingNotifier struct {
	mu     sync.Mutex
	pushed []entity.Notification
}

func (r *recordingNotifier) Push(_ context.Context, _ string, n *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushed = append(r.pushed, *n)
	return nil
}

// fakeGeocoder returns a fixed point or an error.
type fakeGeocoder struct {
	fail bool
}

func (f *fakeGeocoder) Resolve(_ context.Context, address string) (*geo.Result, error) {
	if f.fail {
		return nil, apperr.External(nil, "geocoder unavailable")
	}
	return &geo.Result{
		Coordinates: entity.Coordinates{Longitude: 36.8219, Latitude: -1.2921},
		Address:     entity.Address{Street: address, City: "Nairobi", Country: "KE"},
	}, nil
}

// memEnqueuer records queued email jobs.
type memEnqueuer struct {
	mu   sync.Mutex
	jobs []any
}

func (m *memEnqueuer) PublishJSON(_ context.Context, body any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, body)
	return nil
}
