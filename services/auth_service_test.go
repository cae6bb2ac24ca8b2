package services

import (
	"sync"
	"testing"
	"time"

	"chat-graph/auth"
	"chat-graph/contract"
	"chat-graph/domain/event"
	"chat-graph/errors"
	"chat-graph/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

// recordingDispatcher captures published events for assertions.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (d *recordingDispatcher) Subscribe(string, string, contract.EventSink) {}
func (d *recordingDispatcher) Unsubscribe(string, string)                   {}

func (d *recordingDispatcher) Publish(e event.DomainEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
}

func (d *recordingDispatcher) published() []event.DomainEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]event.DomainEvent{}, d.events...)
}

func newTestUserRepository(t *testing.T) *repositories.UserRepository {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repositories.NewUserRepository(db)
}

func TestAuthService_Register(t *testing.T) {
	users := newTestUserRepository(t)
	svc := NewAuthService(users, 24*time.Hour)

	t.Run("should register successfully when input is valid", func(t *testing.T) {
		req := require.New(t)

		token, err := svc.Register("test@example.com", "alice", "ComplexPass123!")
		req.NoError(err)
		req.NotEmpty(token)

		// The stored hash is not the plain password.
		user, err := users.GetUserByEmail("test@example.com")
		req.NoError(err)
		req.NotEqual("ComplexPass123!", user.PasswordHash)
	})

	t.Run("should fail when password complexity is not met", func(t *testing.T) {
		req := require.New(t)

		token, err := svc.Register("weak@example.com", "weak", "simple")
		req.ErrorIs(err, errors.ErrValidation)
		req.Empty(token)

		_, err = users.GetUserByEmail("weak@example.com")
		req.ErrorIs(err, errors.ErrNotFound)
	})

	t.Run("should fail when user already exists", func(t *testing.T) {
		req := require.New(t)

		_, err := svc.Register("dup@example.com", "first", "ComplexPass123!")
		req.NoError(err)

		token, err := svc.Register("dup@example.com", "second", "ComplexPass123!")
		req.ErrorIs(err, errors.ErrUserAlreadyExists)
		req.Empty(token)
	})
}

func TestAuthService_Login(t *testing.T) {
	users := newTestUserRepository(t)
	svc := NewAuthService(users, 24*time.Hour)

	_, err := svc.Register("alice@example.com", "alice", "ComplexPass123!")
	require.NoError(t, err)

	t.Run("valid credentials yield a token resolving to the user", func(t *testing.T) {
		req := require.New(t)

		token, err := svc.Login("alice@example.com", "ComplexPass123!")
		req.NoError(err)

		ctx, err := auth.ResolveContext(string(token), users)
		req.NoError(err)
		req.Equal("alice@example.com", ctx.User.Email)
	})

	t.Run("wrong password is rejected without detail", func(t *testing.T) {
		req := require.New(t)

		_, err := svc.Login("alice@example.com", "WrongPassword1!")
		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})

	t.Run("unknown email is rejected without detail", func(t *testing.T) {
		req := require.New(t)

		_, err := svc.Login("ghost@example.com", "ComplexPass123!")
		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})
}
