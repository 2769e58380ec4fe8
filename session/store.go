package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ErrPersistenceUnavailable is returned when the persisted record could not be
// written or read. The in-memory state is authoritative and is never rolled
// back because of it.
var ErrPersistenceUnavailable = errors.New("session: persistence unavailable")

// Change identifies the mutation that produced a new state.
type Change int

const (
	ChangeLogin Change = iota + 1
	ChangeLogout
	ChangeProfile
	ChangeToken
	ChangeRestore
)

func (c Change) String() string {
	switch c {
	case ChangeLogin:
		return "login"
	case ChangeLogout:
		return "logout"
	case ChangeProfile:
		return "profile"
	case ChangeToken:
		return "token"
	case ChangeRestore:
		return "restore"
	default:
		return "unknown"
	}
}

// CommitHook observes every published state. Hooks run synchronously after
// persistence, on the goroutine of the mutating call, and must not call back
// into the store's mutating methods.
type CommitHook func(ctx context.Context, change Change, st State)

// Store holds the single session of the console. Reads are lock-free and
// always observe a complete state; mutations are serialized so the persisted
// record follows the same order as the in-memory one.
type Store struct {
	persister      Persister
	persistTimeout time.Duration

	mu    sync.Mutex
	cur   atomic.Pointer[state]
	hooks []CommitHook

	loading atomic.Bool
}

// NewStore creates an anonymous store. A nil persister disables persistence;
// persistTimeout bounds every persister call when positive.
func NewStore(persister Persister, persistTimeout time.Duration) *Store {
	if persister == nil {
		persister = NopPersister{}
	}
	s := &Store{persister: persister, persistTimeout: persistTimeout}
	s.cur.Store(&state{})
	return s
}

// OnCommit registers a hook. It must be called before the store is shared.
func (s *Store) OnCommit(hook CommitHook) {
	if hook == nil {
		return
	}
	s.mu.Lock()
	s.hooks = append(s.hooks, hook)
	s.mu.Unlock()
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	return State{s: s.cur.Load()}
}

// Login replaces the session with user and token and clears the loading flag.
// Any previous session is discarded.
func (s *Store) Login(ctx context.Context, user User, token string) error {
	u := cloneUser(user)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading.Store(false)
	return s.commitLocked(ctx, ChangeLogin, newState(&u, token))
}

// Logout returns the session to anonymous and clears the persisted record.
// Logging out while anonymous is allowed.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(ctx, ChangeLogout, &state{})
}

// LogoutIfToken logs out only while the session still holds token. It
// reports whether a logout happened, so a check that saw an expired token
// cannot end a session that was re-established in the meantime.
func (s *Store) LogoutIfToken(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.cur.Load()
	if cur.user == nil || cur.token != token {
		return false, nil
	}
	return true, s.commitLocked(ctx, ChangeLogout, &state{})
}

// UpdateProfile merges p into the current user. It does nothing while
// anonymous.
func (s *Store) UpdateProfile(ctx context.Context, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.cur.Load()
	if cur.user == nil {
		return nil
	}
	u := cloneUser(*cur.user)
	p.applyTo(&u)
	return s.commitLocked(ctx, ChangeProfile, newState(&u, cur.token))
}

// SetToken replaces the credential token of the current session, e.g. after a
// refresh. It does nothing while anonymous.
func (s *Store) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.cur.Load()
	if cur.user == nil {
		return nil
	}
	next := *cur
	next.token = token
	return s.commitLocked(ctx, ChangeToken, &next)
}

// SetLoading sets the transient loading flag shown while a login is in flight.
func (s *Store) SetLoading(v bool) {
	s.loading.Store(v)
}

// Loading reports the transient loading flag.
func (s *Store) Loading() bool {
	return s.loading.Load()
}

// Restore loads the persisted record into memory. A missing record leaves the
// store anonymous and is not an error. A corrupt or unreadable record leaves
// the store anonymous and is reported as [ErrPersistenceUnavailable].
func (s *Store) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loadCtx, cancel := s.persistCtx(ctx)
	data, err := s.persister.Load(loadCtx)
	cancel()

	next := &state{}
	var restoreErr error
	switch {
	case errors.Is(err, ErrNoRecord):
	case err != nil:
		restoreErr = fmt.Errorf("%w: load: %v", ErrPersistenceUnavailable, err)
	default:
		rec, derr := Decode(data)
		if derr != nil {
			restoreErr = fmt.Errorf("%w: %w", ErrPersistenceUnavailable, derr)
			break
		}
		if st := stateFromRecord(rec); st.s != nil {
			next = st.s
		}
	}

	s.cur.Store(next)
	s.fireLocked(ctx, ChangeRestore, State{s: next})
	return restoreErr
}

// IsAuthenticated reports whether a user is logged in.
func (s *Store) IsAuthenticated() bool { return s.Snapshot().IsAuthenticated() }

// Token returns the current credential token.
func (s *Store) Token() string { return s.Snapshot().Token() }

// DisplayName returns the current user's display name.
func (s *Store) DisplayName() string { return s.Snapshot().DisplayName() }

// HasPermission reports whether the current user holds code.
func (s *Store) HasPermission(code string) bool { return s.Snapshot().HasPermission(code) }

// HasRole reports whether the current user holds the role code.
func (s *Store) HasRole(code string) bool { return s.Snapshot().HasRole(code) }

func (s *Store) commitLocked(ctx context.Context, change Change, next *state) error {
	s.cur.Store(next)
	err := s.persistLocked(ctx, State{s: next})
	s.fireLocked(ctx, change, State{s: next})
	return err
}

func (s *Store) persistLocked(ctx context.Context, st State) error {
	ctx, cancel := s.persistCtx(ctx)
	defer cancel()

	if !st.IsAuthenticated() {
		if err := s.persister.Clear(ctx); err != nil {
			return fmt.Errorf("%w: clear: %v", ErrPersistenceUnavailable, err)
		}
		return nil
	}
	data, err := Encode(st.record())
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrPersistenceUnavailable, err)
	}
	if err := s.persister.Save(ctx, data); err != nil {
		return fmt.Errorf("%w: save: %v", ErrPersistenceUnavailable, err)
	}
	return nil
}

func (s *Store) fireLocked(ctx context.Context, change Change, st State) {
	for _, h := range s.hooks {
		h(ctx, change, st)
	}
}

func (s *Store) persistCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.persistTimeout > 0 {
		return context.WithTimeout(ctx, s.persistTimeout)
	}
	return context.WithCancel(ctx)
}
