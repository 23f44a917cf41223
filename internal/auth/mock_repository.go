package auth

import (
	"sync"
	"time"
)

type mockRepository struct {
	users        map[string]*User
	usersByEmail map[string]*User
	otps         []*OTP
	nextUserID   uint
	nextOTPID    uint

	// failActivate forces ActivateUser to error, for rollback tests.
	failActivate error

	mu sync.RWMutex
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:        make(map[string]*User),
		usersByEmail: make(map[string]*User),
	}
}

func (r *mockRepository) CreateUser(user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.Username]; exists {
		return ErrUserExists
	}
	if _, exists := r.usersByEmail[user.Email]; exists {
		return ErrUserExists
	}

	r.nextUserID++
	now := time.Now().UTC()
	stored := &User{
		ID:           r.nextUserID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		DateOfBirth:  user.DateOfBirth,
		IsActive:     user.IsActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.users[stored.Username] = stored
	r.usersByEmail[stored.Email] = stored
	*user = *stored
	return nil
}

func (r *mockRepository) GetUserByUsername(username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[username]
	if !exists {
		return nil, ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *mockRepository) GetUserByEmail(email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.usersByEmail[email]
	if !exists {
		return nil, ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *mockRepository) ActivateUser(username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failActivate != nil {
		return r.failActivate
	}
	user, exists := r.users[username]
	if !exists {
		return ErrUserNotFound
	}
	user.IsActive = true
	user.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *mockRepository) CreateOTP(otp *OTP) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextOTPID++
	otp.ID = r.nextOTPID
	otp.CreatedAt = time.Now().UTC()
	clone := *otp
	r.otps = append(r.otps, &clone)
	return nil
}

func (r *mockRepository) ConsumeOTP(username, code string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var match *OTP
	for _, otp := range r.otps {
		if otp.Username != username || otp.Code != code {
			continue
		}
		if otp.IsUsed || !otp.ExpiresAt.After(now) {
			continue
		}
		if match == nil || otp.CreatedAt.After(match.CreatedAt) {
			match = otp
		}
	}
	if match == nil {
		return false, nil
	}
	match.IsUsed = true
	return true, nil
}

// InTx snapshots the state and restores it when fn fails, mimicking a real
// transaction rollback.
func (r *mockRepository) InTx(fn func(Repository) error) error {
	snapshot := r.snapshot()
	if err := fn(r); err != nil {
		r.restore(snapshot)
		return err
	}
	return nil
}

type mockState struct {
	users      map[string]*User
	otps       []*OTP
	nextUserID uint
	nextOTPID  uint
}

func (r *mockRepository) snapshot() mockState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make(map[string]*User, len(r.users))
	for name, user := range r.users {
		clone := *user
		users[name] = &clone
	}
	otps := make([]*OTP, len(r.otps))
	for i, otp := range r.otps {
		clone := *otp
		otps[i] = &clone
	}
	return mockState{users: users, otps: otps, nextUserID: r.nextUserID, nextOTPID: r.nextOTPID}
}

func (r *mockRepository) restore(state mockState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users = state.users
	r.usersByEmail = make(map[string]*User, len(state.users))
	for _, user := range state.users {
		r.usersByEmail[user.Email] = user
	}
	r.otps = state.otps
	r.nextUserID = state.nextUserID
	r.nextOTPID = state.nextOTPID
}

// unusedOTPs returns the user's pending codes, newest first. Test helper.
func (r *mockRepository) unusedOTPs(username string) []*OTP {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*OTP
	for _, otp := range r.otps {
		if otp.Username == username && !otp.IsUsed {
			clone := *otp
			out = append(out, &clone)
		}
	}
	return out
}
