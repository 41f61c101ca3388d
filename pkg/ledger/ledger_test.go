package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/Imtguy97/mindharbor-bot/pkg/kv"
	"github.com/Imtguy97/mindharbor-bot/pkg/ledger"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestLedger(t *testing.T, kvs kv.Store) *ledger.Ledger {
	t.Helper()
	l, err := ledger.New(ledger.Config{
		KV:  kvs,
		Now: func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func testKV(t *testing.T) kv.Store {
	t.Helper()
	s := kv.NewMemory(nil)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAccountCreatesOnFirstTouch(t *testing.T) {
	ctx := context.Background()
	kvs := testKV(t)
	l := newTestLedger(t, kvs)

	acct, err := l.Account(ctx, "lena")
	if err != nil {
		t.Fatalf("Account: %v", err)
	}
	if acct.UserID != "lena" || acct.Tokens != 0 || !acct.PassExpiry.IsZero() {
		t.Fatalf("fresh account = %+v, want zero balance and no pass", acct)
	}

	// First touch persists the row: a second ledger over the same kv
	// reads it back rather than re-creating it.
	if _, err := l.AddTokens(ctx, "lena", 4); err != nil {
		t.Fatalf("AddTokens: %v", err)
	}
	l2 := newTestLedger(t, kvs)
	acct, err = l2.Account(ctx, "lena")
	if err != nil {
		t.Fatalf("Account via second ledger: %v", err)
	}
	if acct.Tokens != 4 {
		t.Fatalf("Tokens = %d, want 4", acct.Tokens)
	}
}

func TestAddTokens(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, testKV(t))

	acct, err := l.AddTokens(ctx, "sam", 5)
	if err != nil {
		t.Fatalf("AddTokens: %v", err)
	}
	if acct.Tokens != 5 {
		t.Fatalf("Tokens = %d, want 5", acct.Tokens)
	}

	acct, err = l.AddTokens(ctx, "sam", 3)
	if err != nil {
		t.Fatalf("AddTokens: %v", err)
	}
	if acct.Tokens != 8 {
		t.Fatalf("Tokens = %d, want 8", acct.Tokens)
	}

	// Revoking more than the balance clamps at zero.
	acct, err = l.AddTokens(ctx, "sam", -100)
	if err != nil {
		t.Fatalf("AddTokens: %v", err)
	}
	if acct.Tokens != 0 {
		t.Fatalf("Tokens = %d, want 0 after over-revoke", acct.Tokens)
	}
}

func TestSpend(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, testKV(t))

	if _, err := l.AddTokens(ctx, "noa", 2); err != nil {
		t.Fatalf("AddTokens: %v", err)
	}

	for i := 0; i < 2; i++ {
		ok, err := l.Spend(ctx, "noa")
		if err != nil {
			t.Fatalf("Spend #%d: %v", i+1, err)
		}
		if !ok {
			t.Fatalf("Spend #%d = false, want true", i+1)
		}
	}

	// Balance exhausted: spending fails without error and the balance
	// stays at zero.
	ok, err := l.Spend(ctx, "noa")
	if err != nil {
		t.Fatalf("Spend at zero: %v", err)
	}
	if ok {
		t.Fatal("Spend at zero = true, want false")
	}
	acct, err := l.Account(ctx, "noa")
	if err != nil {
		t.Fatalf("Account: %v", err)
	}
	if acct.Tokens != 0 {
		t.Fatalf("Tokens = %d, want 0", acct.Tokens)
	}
}

func TestSpendUnknownUser(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, testKV(t))

	ok, err := l.Spend(ctx, "stranger")
	if err != nil {
		t.Fatalf("Spend: %v", err)
	}
	if ok {
		t.Fatal("Spend for a brand-new account = true, want false")
	}
}

func TestGrantPass(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, testKV(t))

	acct, err := l.GrantPass(ctx, "mika", 30)
	if err != nil {
		t.Fatalf("GrantPass: %v", err)
	}

	wantExpiry := fixedNow.Add(30 * 24 * time.Hour)
	if !acct.PassExpiry.Equal(wantExpiry) {
		t.Fatalf("PassExpiry = %v, want %v", acct.PassExpiry, wantExpiry)
	}

	if !acct.PassValid(fixedNow) {
		t.Error("pass should be valid immediately after grant")
	}
	if !acct.PassValid(fixedNow.Add(29 * 24 * time.Hour)) {
		t.Error("pass should be valid on day 29")
	}
	if acct.PassValid(fixedNow.Add(31 * 24 * time.Hour)) {
		t.Error("pass should be expired on day 31")
	}
}

func TestGrantPassReplacesExisting(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, testKV(t))

	if _, err := l.GrantPass(ctx, "mika", 30); err != nil {
		t.Fatalf("GrantPass: %v", err)
	}
	acct, err := l.GrantPass(ctx, "mika", 1)
	if err != nil {
		t.Fatalf("GrantPass (replace): %v", err)
	}

	// The shorter grant wins: expiry is absolute, not extended.
	want := fixedNow.Add(24 * time.Hour)
	if !acct.PassExpiry.Equal(want) {
		t.Fatalf("PassExpiry = %v, want %v", acct.PassExpiry, want)
	}
}

func TestPassValidWithoutPass(t *testing.T) {
	var acct ledger.Account
	if acct.PassValid(fixedNow) {
		t.Fatal("account with no pass should never be valid")
	}
}

func TestCorruptAccountErrors(t *testing.T) {
	ctx := context.Background()
	kvs := testKV(t)
	l := newTestLedger(t, kvs)

	if err := kvs.Set(ctx, kv.Key{"mh", "user", "broken"}, []byte{0xC1}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := l.Account(ctx, "broken"); err == nil {
		t.Fatal("expected a decode error for corrupt account data")
	}
}

func TestNewRequiresKV(t *testing.T) {
	if _, err := ledger.New(ledger.Config{}); err == nil {
		t.Fatal("New without KV: expected error")
	}
}
