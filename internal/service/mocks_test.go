package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/errors"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/interfaces"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/models"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/repository"
)

// In-memory fakes mirroring the conditional-update semantics of the Postgres
// repositories, safe for concurrent use.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*models.User)}
}

func (r *fakeUserRepo) add(u *models.User) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	stored := *u
	r.users[u.ID] = &stored
	return u
}

func (r *fakeUserRepo) get(id uuid.UUID) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied
	}
	return nil
}

func (r *fakeUserRepo) GetOrCreate(ctx context.Context, contact repository.UserContact, now time.Time) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.TelegramID == contact.TelegramID {
			u.Username = contact.Username
			u.FirstName = contact.FirstName
			u.LastName = contact.LastName
			u.LastActivity = now
			copied := *u
			return &copied, nil
		}
	}
	u := &models.User{
		ID:           uuid.New(),
		TelegramID:   contact.TelegramID,
		Username:     contact.Username,
		FirstName:    contact.FirstName,
		LastName:     contact.LastName,
		LastActivity: now,
		CreatedAt:    now,
	}
	r.users[u.ID] = u
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u := r.get(id); u != nil {
		return u, nil
	}
	return nil, domainErrors.ErrUserNotFound
}

func (r *fakeUserRepo) FindByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.TelegramID == telegramID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domainErrors.ErrUserNotFound
}

func (r *fakeUserRepo) mutate(id uuid.UUID, fn func(u *models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domainErrors.ErrUserNotFound
	}
	fn(u)
	return nil
}

func (r *fakeUserRepo) SetBanned(ctx context.Context, id uuid.UUID, banned bool) error {
	return r.mutate(id, func(u *models.User) {
		u.Banned = banned
		u.IsActive = !banned
	})
}

func (r *fakeUserRepo) SetLocked(ctx context.Context, id uuid.UUID, locked bool) error {
	return r.mutate(id, func(u *models.User) { u.Locked = locked })
}

func (r *fakeUserRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.mutate(id, func(u *models.User) { u.IsActive = active })
}

func (r *fakeUserRepo) ClearLicense(ctx context.Context, id uuid.UUID) error {
	return r.mutate(id, func(u *models.User) {
		u.LicenseKey = nil
		u.LicenseExpires = nil
		u.ScriptExecutions = 0
	})
}

func (r *fakeUserRepo) ExtendLicense(ctx context.Context, id uuid.UUID, days float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domainErrors.ErrUserNotFound
	}
	if u.LicenseExpires == nil {
		return domainErrors.ErrNoActiveLicense
	}
	extended := u.LicenseExpires.Add(models.DurationFromDays(days))
	u.LicenseExpires = &extended
	return nil
}

func (r *fakeUserRepo) RecordExecution(ctx context.Context, id uuid.UUID, now time.Time) error {
	return r.mutate(id, func(u *models.User) {
		u.ScriptExecutions++
		u.LastLogin = &now
	})
}

func (r *fakeUserRepo) Purge(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domainErrors.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, limit int) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		copied := *u
		out = append(out, &copied)
	}
	return out, nil
}

type fakeLicenseRepo struct {
	mu       sync.Mutex
	licenses map[string]*models.License
	users    *fakeUserRepo
}

var _ repository.LicenseRepository = (*fakeLicenseRepo)(nil)

func newFakeLicenseRepo(users *fakeUserRepo) *fakeLicenseRepo {
	return &fakeLicenseRepo{licenses: make(map[string]*models.License), users: users}
}

func (r *fakeLicenseRepo) Create(ctx context.Context, license *models.License) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *license
	r.licenses[license.Key] = &stored
	return nil
}

func (r *fakeLicenseRepo) FindByKey(ctx context.Context, key string) (*models.License, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.licenses[key]; ok {
		copied := *l
		return &copied, nil
	}
	return nil, domainErrors.ErrLicenseNotFound
}

func (r *fakeLicenseRepo) KeyExists(ctx context.Context, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.licenses[key]
	return ok, nil
}

func (r *fakeLicenseRepo) Redeem(ctx context.Context, key string, user *models.User, now time.Time) (*models.License, error) {
	r.mu.Lock()
	l, ok := r.licenses[key]
	if !ok || l.IsUsed {
		r.mu.Unlock()
		return nil, domainErrors.ErrLicenseInvalidOrUsed
	}
	l.IsUsed = true
	l.UsedByUser = &user.ID
	l.UsedByIdentifier = &user.TelegramID
	activatedAt := now
	expiresAt := now.Add(models.DurationFromDays(l.DurationDays))
	l.ActivatedAt = &activatedAt
	l.ExpiresAt = &expiresAt
	copied := *l
	r.mu.Unlock()

	err := r.users.mutate(user.ID, func(u *models.User) {
		u.LicenseKey = &copied.Key
		u.LicenseExpires = copied.ExpiresAt
		u.IsActive = true
		u.Locked = false
	})
	if err != nil {
		return nil, err
	}
	return &copied, nil
}

func (r *fakeLicenseRepo) MarkReset(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.licenses[key]
	if !ok {
		return domainErrors.ErrLicenseNotFound
	}
	l.IsReset = true
	return nil
}

func (r *fakeLicenseRepo) RecordExecution(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.licenses[key]
	if !ok {
		return domainErrors.ErrLicenseNotFound
	}
	l.ExecutionsUsed++
	return nil
}

func (r *fakeLicenseRepo) List(ctx context.Context, limit int) ([]*models.License, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.License, 0, len(r.licenses))
	for _, l := range r.licenses {
		copied := *l
		out = append(out, &copied)
	}
	return out, nil
}

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[uuid.UUID]*models.Ticket
}

var _ repository.TicketRepository = (*fakeTicketRepo)(nil)

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[uuid.UUID]*models.Ticket)}
}

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *models.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	stored := *ticket
	r.tickets[ticket.ID] = &stored
	return nil
}

func (r *fakeTicketRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tickets[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, domainErrors.ErrTicketNotFound
}

func (r *fakeTicketRepo) Close(ctx context.Context, id uuid.UUID, response string, now time.Time) (*models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok || t.Status != models.TicketOpen {
		return nil, domainErrors.ErrTicketNotFound
	}
	t.Status = models.TicketClosed
	t.AdminResponse = &response
	t.UpdatedAt = now
	copied := *t
	return &copied, nil
}

func (r *fakeTicketRepo) List(ctx context.Context, limit int) ([]*models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Ticket, 0, len(r.tickets))
	for _, t := range r.tickets {
		copied := *t
		out = append(out, &copied)
	}
	return out, nil
}

type fakeActivityRepo struct {
	mu      sync.Mutex
	entries []*models.Activity
}

var _ repository.ActivityRepository = (*fakeActivityRepo)(nil)

func (r *fakeActivityRepo) Insert(ctx context.Context, activity *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *activity
	r.entries = append(r.entries, &copied)
	return nil
}

func (r *fakeActivityRepo) List(ctx context.Context, limit int) ([]*models.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Activity(nil), r.entries...), nil
}

func (r *fakeActivityRepo) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
	return nil
}

type fakeExecutionRepo struct {
	mu      sync.Mutex
	entries []*models.ScriptExecution
}

var _ repository.ExecutionRepository = (*fakeExecutionRepo)(nil)

func (r *fakeExecutionRepo) Insert(ctx context.Context, execution *models.ScriptExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *execution
	r.entries = append(r.entries, &copied)
	return nil
}

func (r *fakeExecutionRepo) List(ctx context.Context, limit int) ([]*models.ScriptExecution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.ScriptExecution(nil), r.entries...), nil
}

func (r *fakeExecutionRepo) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
	return nil
}

type sentMessage struct {
	ChatID  int64
	Text    string
	Buttons []interfaces.Button
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

var _ interfaces.Notifier = (*fakeNotifier)(nil)

func (n *fakeNotifier) Notify(ctx context.Context, chatID int64, text string, buttons ...interfaces.Button) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMessage{ChatID: chatID, Text: text, Buttons: buttons})
	return nil
}

func (n *fakeNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

type publishedEvent struct {
	Topic   string
	Type    string
	Subject string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

var _ interfaces.EventPublisher = (*fakePublisher)(nil)

func (p *fakePublisher) Publish(ctx context.Context, topic string, eventType string, subject string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Topic: topic, Type: eventType, Subject: subject})
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
