package services

import (
	"testing"

	"chat-graph/domain/event"
	"chat-graph/errors"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestGroupService_CreateGroup(t *testing.T) {
	t.Run("membership is caller plus invited friends", func(t *testing.T) {
		req := require.New(t)
		h := newHarness(t)
		alice := h.user(t, "alice@example.com", "alice")
		bob := h.user(t, "bob@example.com", "bob")
		h.befriend(t, alice, bob)

		group, err := h.groupSvc.CreateGroup(alice, CreateGroupRequest{
			Name:    "Book Club",
			UserIDs: []string{bob.User.ID},
		})
		req.NoError(err)

		members, err := h.groups.GetMembers(group.ID)
		req.NoError(err)
		req.ElementsMatch([]string{alice.User.ID, bob.User.ID}, members)
	})

	t.Run("inviting a non-friend fails validation with no group created", func(t *testing.T) {
		req := require.New(t)
		h := newHarness(t)
		alice := h.user(t, "alice@example.com", "alice")
		stranger := h.user(t, "mallory@example.com", "mallory")

		_, err := h.groupSvc.CreateGroup(alice, CreateGroupRequest{
			Name:    "No Strangers",
			UserIDs: []string{stranger.User.ID},
		})
		req.ErrorIs(err, errors.ErrValidation)
		req.Empty(h.dispatcher.published())
	})

	t.Run("a GroupAdded event reaches each member's personal topic", func(t *testing.T) {
		req := require.New(t)
		h := newHarness(t)
		alice := h.user(t, "alice@example.com", "alice")
		bob := h.user(t, "bob@example.com", "bob")
		h.befriend(t, alice, bob)

		group, err := h.groupSvc.CreateGroup(alice, CreateGroupRequest{
			Name:    "Book Club",
			UserIDs: []string{bob.User.ID},
		})
		req.NoError(err)

		topics := lo.Map(h.dispatcher.published(), func(e event.DomainEvent, _ int) string {
			req.Equal(group.ID, e.(event.GroupAdded).Group.ID)
			return e.Topic()
		})
		req.ElementsMatch([]string{
			event.UserTopic(alice.User.ID),
			event.UserTopic(bob.User.ID),
		}, topics)
	})
}

func TestGroupService_UpdateGroup(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	alice := h.user(t, "alice@example.com", "alice")
	outsider := h.user(t, "eve@example.com", "eve")
	group := h.group(t, "Old Name", alice)

	t.Run("member renames the group", func(t *testing.T) {
		updated, err := h.groupSvc.UpdateGroup(alice, UpdateGroupRequest{
			ID:   group.ID,
			Name: lo.ToPtr("New Name"),
		})
		req.NoError(err)
		req.Equal("New Name", updated.Name)
	})

	t.Run("absent name leaves the group untouched", func(t *testing.T) {
		updated, err := h.groupSvc.UpdateGroup(alice, UpdateGroupRequest{ID: group.ID})
		req.NoError(err)
		req.Equal("New Name", updated.Name)
	})

	t.Run("non-member is unauthorized", func(t *testing.T) {
		_, err := h.groupSvc.UpdateGroup(outsider, UpdateGroupRequest{
			ID:   group.ID,
			Name: lo.ToPtr("Hijacked"),
		})
		req.ErrorIs(err, errors.ErrUnauthorized)
	})
}

func TestGroupService_LeaveGroup(t *testing.T) {
	t.Run("leaving keeps the group alive while members remain", func(t *testing.T) {
		req := require.New(t)
		h := newHarness(t)
		alice := h.user(t, "alice@example.com", "alice")
		bob := h.user(t, "bob@example.com", "bob")
		group := h.group(t, "Pair", alice, bob)

		id, err := h.groupSvc.LeaveGroup(alice, group.ID)
		req.NoError(err)
		req.Equal(group.ID, id)

		remaining, err := h.groups.GetMembers(group.ID)
		req.NoError(err)
		req.Equal([]string{bob.User.ID}, remaining)
	})

	t.Run("last member leaving cascades deletion of group and messages", func(t *testing.T) {
		req := require.New(t)
		h := newHarness(t)
		alice := h.user(t, "alice@example.com", "alice")
		group := h.group(t, "Solo", alice)

		_, err := h.messageSvc.CreateMessage(alice, CreateMessageRequest{GroupID: group.ID, Text: "bye"})
		req.NoError(err)

		id, err := h.groupSvc.LeaveGroup(alice, group.ID)
		req.NoError(err)
		req.Equal(group.ID, id)

		_, err = h.groupSvc.Group(alice, group.ID)
		req.ErrorIs(err, errors.ErrNotFound)

		orphans, err := h.messages.ListBefore(group.ID, nil, 10)
		req.NoError(err)
		req.Empty(orphans)
	})

	t.Run("operations on a deleted group fail not found", func(t *testing.T) {
		req := require.New(t)
		h := newHarness(t)
		alice := h.user(t, "alice@example.com", "alice")
		group := h.group(t, "Gone", alice)

		_, err := h.groupSvc.LeaveGroup(alice, group.ID)
		req.NoError(err)

		_, err = h.groupSvc.LeaveGroup(alice, group.ID)
		req.ErrorIs(err, errors.ErrNotFound)

		_, err = h.messageSvc.CreateMessage(alice, CreateMessageRequest{GroupID: group.ID, Text: "ghost"})
		req.ErrorIs(err, errors.ErrNotFound)
	})
}

func TestGroupService_DeleteGroup(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	alice := h.user(t, "alice@example.com", "alice")
	bob := h.user(t, "bob@example.com", "bob")
	group := h.group(t, "Doomed", alice, bob)

	_, err := h.messageSvc.CreateMessage(alice, CreateMessageRequest{GroupID: group.ID, Text: "soon gone"})
	req.NoError(err)

	deleted, err := h.groupSvc.DeleteGroup(alice, group.ID)
	req.NoError(err)
	req.Equal(group.ID, deleted.ID)

	_, err = h.groupSvc.Group(bob, group.ID)
	req.ErrorIs(err, errors.ErrNotFound)

	members, err := h.groups.GetMembers(group.ID)
	req.NoError(err)
	req.Empty(members)

	orphans, err := h.messages.ListBefore(group.ID, nil, 10)
	req.NoError(err)
	req.Empty(orphans)
}
