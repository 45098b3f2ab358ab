package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/lexakit/lexa/internal/common"
)

// RoleAdmin grants access to every endpoint, including job inspection
// across users.
const RoleAdmin = "admin"

// User is an API account. Only the bcrypt hash is kept in memory.
type User struct {
	Username     string
	PasswordHash []byte
	Roles        []string
}

// UserStore is a mutex-guarded in-memory account registry seeded from
// configuration. There is no signup flow; accounts are provisioned at boot.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]*User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*User)}
}

// Seed registers an account, replacing any existing one with the same name.
func (s *UserStore) Seed(username, password string, roles ...string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = &User{Username: username, PasswordHash: hash, Roles: roles}
	return nil
}

// Authenticate checks credentials and returns the account. The error is the
// same for an unknown user and a wrong password.
func (s *UserStore) Authenticate(username, password string) (*User, error) {
	s.mu.RLock()
	user, ok := s.users[username]
	s.mu.RUnlock()

	if !ok {
		// Burn a comparison anyway so lookups and mismatches take similar time.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, invalidCredentials()
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, invalidCredentials()
	}
	return user, nil
}

func invalidCredentials() error {
	return common.NewAppError("INVALID_CREDENTIALS", "incorrect username or password", common.ErrUnauthorized)
}

var dummyHash = func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("placeholder"), bcrypt.DefaultCost)
	return h
}()

// HasRole reports whether the user carries the given role.
func HasRole(roles []string, want string) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}
