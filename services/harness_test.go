package services

import (
	"log/slog"
	"testing"

	"chat-graph/auth"
	"chat-graph/domain"
	"chat-graph/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

// harness wires the resolver layer over one badger store, the way cmd does.
type harness struct {
	users      *repositories.UserRepository
	groups     *repositories.GroupRepository
	messages   *repositories.MessageRepository
	dispatcher *recordingDispatcher
	groupSvc   IGroupService
	messageSvc *MessageService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	messages, err := repositories.NewMessageRepository(db, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = messages.Close() })

	h := &harness{
		users:      repositories.NewUserRepository(db),
		groups:     repositories.NewGroupRepository(db),
		messages:   messages,
		dispatcher: &recordingDispatcher{},
	}
	h.groupSvc = NewGroupService(h.groups, h.users, h.messages, h.dispatcher, slog.Default())
	h.messageSvc = NewMessageService(h.groups, h.messages, h.dispatcher, slog.Default())
	return h
}

func (h *harness) user(t *testing.T, email, username string) auth.Context {
	t.Helper()
	user, err := h.users.CreateUser(email, username, "hash")
	require.NoError(t, err)
	return auth.Context{User: user}
}

func (h *harness) befriend(t *testing.T, a, b auth.Context) {
	t.Helper()
	require.NoError(t, h.users.AddFriend(a.User.ID, b.User.ID))
}

func (h *harness) group(t *testing.T, name string, members ...auth.Context) domain.Group {
	t.Helper()
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.User.ID)
	}
	group, err := h.groups.CreateGroup(name, ids)
	require.NoError(t, err)
	return group
}
