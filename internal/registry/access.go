package registry

import (
	"sort"

	"github.com/google/uuid"
)

// DefaultIndexAssets are the index assets supported at startup
var DefaultIndexAssets = []string{"WETH", "WBTC"}

// AccessRegistry holds the whitelist and the supported index-asset set.
// All mutation is owner-gated; the role check runs before anything else.
// Not safe for concurrent use; callers serialize access.
type AccessRegistry struct {
	owner     uuid.UUID
	whitelist map[uuid.UUID]struct{}
	assets    map[string]struct{}
}

func NewAccessRegistry(owner uuid.UUID, indexAssets []string) *AccessRegistry {
	assets := make(map[string]struct{}, len(indexAssets))
	for _, a := range indexAssets {
		assets[a] = struct{}{}
	}

	return &AccessRegistry{
		owner:     owner,
		whitelist: make(map[uuid.UUID]struct{}),
		assets:    assets,
	}
}

func (r *AccessRegistry) Owner() uuid.UUID {
	return r.owner
}

func (r *AccessRegistry) requireOwner(caller uuid.UUID) error {
	if caller != r.owner {
		return ErrNotOwner
	}
	return nil
}

// AddToWhitelist adds a user. Returns false if already present.
func (r *AccessRegistry) AddToWhitelist(caller, userID uuid.UUID) (bool, error) {
	if err := r.requireOwner(caller); err != nil {
		return false, err
	}
	if _, ok := r.whitelist[userID]; ok {
		return false, nil
	}
	r.whitelist[userID] = struct{}{}
	return true, nil
}

// RemoveFromWhitelist removes a user. Returns false if absent.
// Removal blocks future mutating calls only; held balances and open
// orders are untouched.
func (r *AccessRegistry) RemoveFromWhitelist(caller, userID uuid.UUID) (bool, error) {
	if err := r.requireOwner(caller); err != nil {
		return false, err
	}
	if _, ok := r.whitelist[userID]; !ok {
		return false, nil
	}
	delete(r.whitelist, userID)
	return true, nil
}

func (r *AccessRegistry) IsWhitelisted(userID uuid.UUID) bool {
	_, ok := r.whitelist[userID]
	return ok
}

// AddAsset adds an index asset symbol. Returns false if already present.
func (r *AccessRegistry) AddAsset(caller uuid.UUID, symbol string) (bool, error) {
	if err := r.requireOwner(caller); err != nil {
		return false, err
	}
	if _, ok := r.assets[symbol]; ok {
		return false, nil
	}
	r.assets[symbol] = struct{}{}
	return true, nil
}

// RemoveAsset removes an index asset symbol. Returns false if absent.
func (r *AccessRegistry) RemoveAsset(caller uuid.UUID, symbol string) (bool, error) {
	if err := r.requireOwner(caller); err != nil {
		return false, err
	}
	if _, ok := r.assets[symbol]; !ok {
		return false, nil
	}
	delete(r.assets, symbol)
	return true, nil
}

func (r *AccessRegistry) IsAssetSupported(symbol string) bool {
	_, ok := r.assets[symbol]
	return ok
}

// SupportedAssets returns the asset symbols in sorted order
func (r *AccessRegistry) SupportedAssets() []string {
	out := make([]string, 0, len(r.assets))
	for a := range r.assets {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
