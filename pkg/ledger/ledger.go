// Package ledger tracks per-user message credits and access passes.
//
// Every user has an Account holding a token balance and an optional
// pass expiry. Accounts are created on first touch with a zero balance,
// stored as msgpack blobs under {prefix}:user:{id}, and mutated through
// read-modify-write operations serialized by the Ledger.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Imtguy97/mindharbor-bot/pkg/kv"
)

const (
	defaultPrefix = "mh"
	userKeyspace  = "user"
)

// Account is a user's credit state.
type Account struct {
	UserID     string    `json:"user_id" msgpack:"user_id"`
	Tokens     int       `json:"tokens_remaining" msgpack:"tokens_remaining"`
	PassExpiry time.Time `json:"pass_expiry,omitzero" msgpack:"pass_expiry"`
}

// PassValid reports whether the account holds a pass that is still
// valid at the given instant. An account with no pass is never valid.
func (a Account) PassValid(now time.Time) bool {
	return !a.PassExpiry.IsZero() && a.PassExpiry.After(now)
}

// Config configures a Ledger.
type Config struct {
	// KV is the durable store accounts are kept in. Required.
	KV kv.Store

	// Prefix namespaces the ledger's keys. Defaults to "mh".
	Prefix string

	// Now supplies the current time for pass grants. Defaults to
	// time.Now. Tests override it.
	Now func() time.Time
}

// Ledger is the account store. Mutations are serialized so concurrent
// spends against one balance cannot both succeed on the last token.
type Ledger struct {
	mu     sync.Mutex
	kv     kv.Store
	prefix string
	now    func() time.Time
}

// New creates a Ledger over the given kv store.
func New(cfg Config) (*Ledger, error) {
	if cfg.KV == nil {
		return nil, errors.New("ledger: Config.KV is required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Ledger{kv: cfg.KV, prefix: cfg.Prefix, now: cfg.Now}, nil
}

// Account returns the account for id, creating and persisting a
// zero-balance account if none exists.
func (l *Ledger) Account(ctx context.Context, id string) (Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx, id)
}

// AddTokens credits n tokens to the account. A negative n revokes
// credits; the balance never drops below zero. Returns the updated
// account.
func (l *Ledger) AddTokens(ctx context.Context, id string, n int) (Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, err := l.load(ctx, id)
	if err != nil {
		return Account{}, err
	}
	acct.Tokens += n
	if acct.Tokens < 0 {
		acct.Tokens = 0
	}
	if err := l.save(ctx, acct); err != nil {
		return Account{}, err
	}
	return acct, nil
}

// Spend consumes one token. It reports false, without error, when the
// balance is already zero.
func (l *Ledger) Spend(ctx context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, err := l.load(ctx, id)
	if err != nil {
		return false, err
	}
	if acct.Tokens <= 0 {
		return false, nil
	}
	acct.Tokens--
	if err := l.save(ctx, acct); err != nil {
		return false, err
	}
	return true, nil
}

// GrantPass sets the account's pass to expire the given number of days
// from now, replacing any existing pass. Returns the updated account.
func (l *Ledger) GrantPass(ctx context.Context, id string, days int) (Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, err := l.load(ctx, id)
	if err != nil {
		return Account{}, err
	}
	acct.PassExpiry = l.now().UTC().Add(time.Duration(days) * 24 * time.Hour)
	if err := l.save(ctx, acct); err != nil {
		return Account{}, err
	}
	return acct, nil
}

func (l *Ledger) key(id string) kv.Key {
	return kv.Key{l.prefix, userKeyspace, id}
}

// load fetches an account, creating and persisting it on first touch.
// Callers hold l.mu.
func (l *Ledger) load(ctx context.Context, id string) (Account, error) {
	data, err := l.kv.Get(ctx, l.key(id))
	if errors.Is(err, kv.ErrNotFound) {
		acct := Account{UserID: id}
		if err := l.save(ctx, acct); err != nil {
			return Account{}, err
		}
		return acct, nil
	}
	if err != nil {
		return Account{}, fmt.Errorf("ledger: load account %q: %w", id, err)
	}

	var acct Account
	if err := msgpack.Unmarshal(data, &acct); err != nil {
		return Account{}, fmt.Errorf("ledger: decode account %q: %w", id, err)
	}
	return acct, nil
}

// save persists an account. Callers hold l.mu.
func (l *Ledger) save(ctx context.Context, acct Account) error {
	data, err := msgpack.Marshal(acct)
	if err != nil {
		return fmt.Errorf("ledger: encode account %q: %w", acct.UserID, err)
	}
	if err := l.kv.Set(ctx, l.key(acct.UserID), data); err != nil {
		return fmt.Errorf("ledger: store account %q: %w", acct.UserID, err)
	}
	return nil
}
