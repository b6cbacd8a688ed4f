package auth

import (
	"context"
	"sync"

	"github.com/Sokol111/student-housing/pkg/messaging/producer"
	"github.com/Sokol111/student-housing/pkg/persistence"
	"github.com/Sokol111/student-housing/pkg/security/token"
)

type memoryRepository struct {
	mu        sync.Mutex
	users     map[string]*User
	insertErr error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{users: map[string]*User{}}
}

func (r *memoryRepository) Insert(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	if _, ok := r.users[u.Email]; ok {
		return ErrEmailExists
	}
	r.users[u.Email] = u
	return nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, persistence.ErrEntityNotFound
	}
	return u, nil
}

func (r *memoryRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[email]
	return ok, nil
}

func (r *memoryRepository) DeleteAll(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.users))
	r.users = map[string]*User{}
	return n, nil
}

type fakeIssuer struct {
	issueFunc func(subject, role string) (string, error)
}

func (f *fakeIssuer) Issue(subject, role string) (string, error) {
	if f.issueFunc != nil {
		return f.issueFunc(subject, role)
	}
	return "token-" + subject, nil
}

type fakeValidator struct {
	validateFunc func(tok string) (*token.Claims, error)
}

func (f *fakeValidator) Validate(tok string) (*token.Claims, error) {
	return f.validateFunc(tok)
}

type emitted struct {
	topic string
	event producer.Event
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []emitted
	err    error
}

func (f *fakeEmitter) Emit(_ context.Context, topic string, ev producer.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, emitted{topic: topic, event: ev})
	return nil
}
