// Package memory provides a process-local repository.Store. Writers are
// serialized; a transaction works on a private copy of the data that is
// swapped in on commit, so readers never observe partial writes.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

type state struct {
	nextRoleID    int64
	nextUserID    int64
	nextTicketID  int64
	nextHistoryID int64

	roles   []domain.RoleRecord
	users   map[int64]domain.User
	tickets map[int64]domain.Ticket
	history []domain.HistoryEntry
}

func newState() *state {
	return &state{
		users:   map[int64]domain.User{},
		tickets: map[int64]domain.Ticket{},
	}
}

func (s *state) clone() *state {
	out := &state{
		nextRoleID:    s.nextRoleID,
		nextUserID:    s.nextUserID,
		nextTicketID:  s.nextTicketID,
		nextHistoryID: s.nextHistoryID,
		roles:         append([]domain.RoleRecord(nil), s.roles...),
		users:         make(map[int64]domain.User, len(s.users)),
		tickets:       make(map[int64]domain.Ticket, len(s.tickets)),
		history:       append([]domain.HistoryEntry(nil), s.history...),
	}
	for id, user := range s.users {
		out.users[id] = user
	}
	for id, ticket := range s.tickets {
		out.tickets[id] = ticket
	}
	return out
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store is an in-memory repository.Store.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *state
	now  func() time.Time
}

// New returns an empty store with the default roles present.
func New(opts ...Option) *Store {
	s := &Store{data: newState(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	for _, role := range domain.Roles {
		s.data.nextRoleID++
		s.data.roles = append(s.data.roles, domain.RoleRecord{ID: s.data.nextRoleID, Name: role})
	}
	return s
}

func (s *Store) root() *view { return &view{store: s} }

func (s *Store) Users() repository.UserRepository            { return s.root().Users() }
func (s *Store) Roles() repository.RoleRepository            { return s.root().Roles() }
func (s *Store) Tickets() repository.TicketRepository        { return s.root().Tickets() }
func (s *Store) History() repository.TicketHistoryRepository { return s.root().History() }
func (s *Store) Reports() repository.ReportRepository        { return s.root().Reports() }

func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.root().WithinTx(ctx, fn)
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// view is either the committed store or a transaction over a private copy.
type view struct {
	store *Store
	tx    *state
}

func (v *view) Users() repository.UserRepository            { return &userRepository{v: v} }
func (v *view) Roles() repository.RoleRepository            { return &roleRepository{v: v} }
func (v *view) Tickets() repository.TicketRepository        { return &ticketRepository{v: v} }
func (v *view) History() repository.TicketHistoryRepository { return &historyRepository{v: v} }
func (v *view) Reports() repository.ReportRepository        { return &reportRepository{v: v} }

func (v *view) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if v.tx != nil {
		return fn(v)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s := v.store
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	working := s.data.clone()
	s.mu.RUnlock()

	if err := fn(&view{store: s, tx: working}); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = working
	s.mu.Unlock()
	return nil
}

func (v *view) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (v *view) read(ctx context.Context, fn func(*state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	return fn(v.store.data)
}

func (v *view) write(ctx context.Context, fn func(*state) error) error {
	if v.tx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(v.tx)
	}
	return v.WithinTx(ctx, func(tx repository.Store) error {
		return fn(tx.(*view).tx)
	})
}

func (v *view) clock() time.Time {
	return v.store.now().UTC()
}

var (
	_ repository.Store = (*Store)(nil)
	_ repository.Store = (*view)(nil)
)
