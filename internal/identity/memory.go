package identity

import (
	"context"
	"sync"
	"time"
)

type memoryAccounts struct {
	mu       sync.RWMutex
	accounts map[string]Account
	now      func() time.Time
}

// NewMemoryAccountStore keeps accounts in process memory. It backs local
// development when no Postgres DSN is configured.
func NewMemoryAccountStore() AccountStore {
	return &memoryAccounts{accounts: make(map[string]Account), now: time.Now}
}

func (m *memoryAccounts) Create(_ context.Context, account *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if existing.Email == account.Email {
			return ErrEmailExists
		}
	}
	now := m.now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	m.accounts[account.UID] = *account
	return nil
}

func (m *memoryAccounts) GetByID(_ context.Context, uid string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	account, ok := m.accounts[uid]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &account, nil
}

func (m *memoryAccounts) GetByEmail(_ context.Context, email string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, account := range m.accounts {
		if account.Email == email {
			found := account
			return &found, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (m *memoryAccounts) SetDisabled(_ context.Context, uid string, disabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[uid]
	if !ok {
		return ErrAccountNotFound
	}
	account.Disabled = disabled
	account.UpdatedAt = m.now().UTC()
	m.accounts[uid] = account
	return nil
}

func (m *memoryAccounts) Delete(_ context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[uid]; !ok {
		return ErrAccountNotFound
	}
	delete(m.accounts, uid)
	return nil
}

func (m *memoryAccounts) Ping(context.Context) error {
	return nil
}

type memoryRevocations struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

// NewMemoryRevocationStore keeps revocation markers in process memory.
func NewMemoryRevocationStore() RevocationStore {
	return &memoryRevocations{revoked: make(map[string]time.Time)}
}

func (m *memoryRevocations) Revoke(_ context.Context, uid string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[uid] = at
	return nil
}

func (m *memoryRevocations) RevokedAt(_ context.Context, uid string) (time.Time, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	at, ok := m.revoked[uid]
	return at, ok, nil
}
