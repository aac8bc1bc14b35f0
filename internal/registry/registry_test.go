package registry_test

import (
	"errors"
	"reflect"
	"testing"

	"PerpGateway/internal/registry"

	"github.com/google/uuid"
)

// ============================================================
// Whitelist
// ============================================================

func TestWhitelistOwnerGate(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()
	user := uuid.New()
	reg := registry.NewAccessRegistry(owner, nil)

	if _, err := reg.AddToWhitelist(stranger, user); !errors.Is(err, registry.ErrNotOwner) {
		t.Errorf("add by stranger: err = %v, want ErrNotOwner", err)
	}
	if _, err := reg.RemoveFromWhitelist(stranger, user); !errors.Is(err, registry.ErrNotOwner) {
		t.Errorf("remove by stranger: err = %v, want ErrNotOwner", err)
	}
	if reg.IsWhitelisted(user) {
		t.Error("user whitelisted after rejected calls")
	}
}

func TestWhitelistIdempotentToggles(t *testing.T) {
	owner := uuid.New()
	user := uuid.New()
	reg := registry.NewAccessRegistry(owner, nil)

	changed, err := reg.AddToWhitelist(owner, user)
	if err != nil || !changed {
		t.Fatalf("first add: changed=%v err=%v", changed, err)
	}
	changed, err = reg.AddToWhitelist(owner, user)
	if err != nil || changed {
		t.Fatalf("second add: changed=%v err=%v, want no-op", changed, err)
	}
	if !reg.IsWhitelisted(user) {
		t.Fatal("user not whitelisted after add")
	}

	changed, err = reg.RemoveFromWhitelist(owner, user)
	if err != nil || !changed {
		t.Fatalf("first remove: changed=%v err=%v", changed, err)
	}
	changed, err = reg.RemoveFromWhitelist(owner, user)
	if err != nil || changed {
		t.Fatalf("second remove: changed=%v err=%v, want no-op", changed, err)
	}
	if reg.IsWhitelisted(user) {
		t.Fatal("user still whitelisted after remove")
	}
}

// ============================================================
// Supported assets
// ============================================================

func TestAssetRegistry(t *testing.T) {
	owner := uuid.New()
	reg := registry.NewAccessRegistry(owner, registry.DefaultIndexAssets)

	if !reg.IsAssetSupported("WETH") || !reg.IsAssetSupported("WBTC") {
		t.Fatal("default assets not supported")
	}
	if reg.IsAssetSupported("DOGE") {
		t.Fatal("unknown asset reported supported")
	}

	if changed, err := reg.AddAsset(owner, "ARB"); err != nil || !changed {
		t.Fatalf("add ARB: changed=%v err=%v", changed, err)
	}
	if changed, _ := reg.AddAsset(owner, "ARB"); changed {
		t.Fatal("duplicate add reported change")
	}

	want := []string{"ARB", "WBTC", "WETH"}
	if got := reg.SupportedAssets(); !reflect.DeepEqual(got, want) {
		t.Errorf("SupportedAssets() = %v, want %v", got, want)
	}

	if changed, err := reg.RemoveAsset(owner, "WBTC"); err != nil || !changed {
		t.Fatalf("remove WBTC: changed=%v err=%v", changed, err)
	}
	if reg.IsAssetSupported("WBTC") {
		t.Fatal("WBTC still supported after remove")
	}

	if _, err := reg.AddAsset(uuid.New(), "SOL"); !errors.Is(err, registry.ErrNotOwner) {
		t.Errorf("add by stranger: err = %v, want ErrNotOwner", err)
	}
}

// ============================================================
// Sub-accounts
// ============================================================

func TestSubAccountOnePerUser(t *testing.T) {
	reg := registry.NewSubAccountRegistry()
	user := uuid.New()

	if _, ok := reg.Lookup(user); ok {
		t.Fatal("lookup before registration succeeded")
	}

	if err := reg.Register(user, "acct-1"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := reg.Register(user, "acct-2"); !errors.Is(err, registry.ErrAccountAlreadyExists) {
		t.Fatalf("second register: err = %v, want ErrAccountAlreadyExists", err)
	}

	account, ok := reg.Lookup(user)
	if !ok || account != "acct-1" {
		t.Errorf("Lookup = (%q, %v), want (acct-1, true)", account, ok)
	}
	if reg.Count() != 1 {
		t.Errorf("Count = %d, want 1", reg.Count())
	}
}
