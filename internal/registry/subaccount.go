package registry

import "github.com/google/uuid"

// SubAccountRegistry records the one-per-user mapping to the venue
// sub-account identity. The identity itself is minted by the venue;
// the registry only guarantees uniqueness per user.
type SubAccountRegistry struct {
	accounts map[uuid.UUID]string
}

func NewSubAccountRegistry() *SubAccountRegistry {
	return &SubAccountRegistry{
		accounts: make(map[uuid.UUID]string),
	}
}

// Register stores the venue account for a user. A second registration
// for the same user fails with ErrAccountAlreadyExists.
func (r *SubAccountRegistry) Register(userID uuid.UUID, account string) error {
	if _, ok := r.accounts[userID]; ok {
		return ErrAccountAlreadyExists
	}
	r.accounts[userID] = account
	return nil
}

// Lookup returns the venue account for a user, if registered
func (r *SubAccountRegistry) Lookup(userID uuid.UUID) (string, bool) {
	account, ok := r.accounts[userID]
	return account, ok
}

// Count returns the number of registered sub-accounts
func (r *SubAccountRegistry) Count() int {
	return len(r.accounts)
}
