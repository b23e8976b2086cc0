// Package memory keeps every table in process memory. It backs DB_DRIVER=memory
// and the service and handler tests.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/database"
)

type txKey struct{}

type refreshToken struct {
	userID    string
	expiresAt int64
	revoked   bool
	session   auth.SessionTrackingRequest
}

// Store holds the tables shared by the repositories it hands out.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	users         map[string]user.User
	attendances   map[string]attendance.Attendance
	refreshTokens map[string]refreshToken
}

func NewStore() *Store {
	return &Store{
		users:         make(map[string]user.User),
		attendances:   make(map[string]attendance.Attendance),
		refreshTokens: make(map[string]refreshToken),
	}
}

func (s *Store) Users() user.UserRepository {
	return &userRepository{store: s}
}

func (s *Store) Attendances() attendance.AttendanceRepository {
	return &attendanceRepository{store: s}
}

func (s *Store) RefreshTokens() auth.RefreshTokenRepository {
	return &refreshTokenRepository{store: s}
}

func (s *Store) TxManager() database.TxManager {
	return s
}

type snapshot struct {
	users         map[string]user.User
	attendances   map[string]attendance.Attendance
	refreshTokens map[string]refreshToken
}

// lockWrite takes the table lock for a write. Writes outside a transaction
// also wait for any open transaction, so a rollback only undoes its own writes.
func (s *Store) lockWrite(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

// WithinTransaction implements database.TxManager. Transactions and writes are
// serialized; when fn fails every table is restored to its state before fn ran.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snap := snapshot{
		users:         maps.Clone(s.users),
		attendances:   maps.Clone(s.attendances),
		refreshTokens: maps.Clone(s.refreshTokens),
	}
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.users = snap.users
		s.attendances = snap.attendances
		s.refreshTokens = snap.refreshTokens
		s.mu.Unlock()
		return err
	}
	return nil
}
