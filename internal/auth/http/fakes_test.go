package http

import (
	"context"
	"strings"
	"sync"
	"time"

	userdomain "github.com/AlibekovAA/session-auth/internal/user/domain"
	userrepo "github.com/AlibekovAA/session-auth/internal/user/repository"
)

type memUserRepo struct {
	mu       sync.Mutex
	users    map[userdomain.ID]userdomain.User
	accounts map[string]userdomain.ID
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		users:    make(map[userdomain.ID]userdomain.User),
		accounts: make(map[string]userdomain.ID),
	}
}

func accountKey(provider, id string) string {
	return strings.ToLower(provider) + "/" + id
}

func (m *memUserRepo) Create(_ context.Context, user userdomain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(user)
}

func (m *memUserRepo) insertLocked(user userdomain.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return userrepo.ErrEmailAlreadyExists
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *memUserRepo) CreateWithAccount(_ context.Context, user userdomain.User, account userdomain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[accountKey(account.Provider, account.ProviderAccountID)]; ok {
		return userrepo.ErrAccountAlreadyLinked
	}
	if err := m.insertLocked(user); err != nil {
		return err
	}
	m.accounts[accountKey(account.Provider, account.ProviderAccountID)] = user.ID
	return nil
}

func (m *memUserRepo) FindByEmail(_ context.Context, email string) (userdomain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *memUserRepo) FindByID(_ context.Context, id userdomain.ID) (userdomain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return userdomain.User{}, userrepo.ErrUserNotFound
	}
	return u, nil
}

func (m *memUserRepo) FindByAccount(_ context.Context, provider, providerAccountID string) (userdomain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.accounts[accountKey(provider, providerAccountID)]
	if !ok {
		return userdomain.User{}, userrepo.ErrUserNotFound
	}
	return m.users[id], nil
}

func (m *memUserRepo) LinkAccount(_ context.Context, account userdomain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := accountKey(account.Provider, account.ProviderAccountID)
	if _, ok := m.accounts[key]; ok {
		return userrepo.ErrAccountAlreadyLinked
	}
	m.accounts[key] = account.UserID
	return nil
}

func (m *memUserRepo) UpdateProfile(_ context.Context, id userdomain.ID, update userdomain.ProfileUpdate, now time.Time) (userdomain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return userdomain.User{}, userrepo.ErrUserNotFound
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.GivenName != nil {
		u.GivenName = *update.GivenName
	}
	if update.FamilyName != nil {
		u.FamilyName = *update.FamilyName
	}
	if update.Image != nil {
		u.Image = *update.Image
	}
	if len(update.Preferences) > 0 {
		u.Preferences = update.Preferences
	}
	u.UpdatedAt = now
	m.users[id] = u
	return u, nil
}
