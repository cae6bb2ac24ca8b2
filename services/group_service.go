package services

import (
	"fmt"
	"log/slog"

	"chat-graph/auth"
	"chat-graph/contract"
	"chat-graph/domain"
	"chat-graph/domain/event"
	"chat-graph/errors"

	"github.com/samber/lo"
)

type IGroupService interface {
	Group(ctx auth.Context, id string) (domain.Group, error)
	CreateGroup(ctx auth.Context, req CreateGroupRequest) (domain.Group, error)
	UpdateGroup(ctx auth.Context, req UpdateGroupRequest) (domain.Group, error)
	LeaveGroup(ctx auth.Context, id string) (string, error)
	DeleteGroup(ctx auth.Context, id string) (domain.Group, error)
}

type GroupService struct {
	groups     contract.GroupStore
	users      contract.UserStore
	messages   contract.MessageStore
	dispatcher contract.Dispatcher
	log        *slog.Logger
}

func NewGroupService(groups contract.GroupStore, users contract.UserStore,
	messages contract.MessageStore, dispatcher contract.Dispatcher, log *slog.Logger) IGroupService {
	return &GroupService{
		groups:     groups,
		users:      users,
		messages:   messages,
		dispatcher: dispatcher,
		log:        log,
	}
}

// Group resolves a group query; only members may read a group.
func (s *GroupService) Group(ctx auth.Context, id string) (domain.Group, error) {
	return s.requireMember(ctx, id)
}

// CreateGroup creates a group whose membership is {caller} plus the invited
// users, which must all be friends of the caller.
func (s *GroupService) CreateGroup(ctx auth.Context, req CreateGroupRequest) (domain.Group, error) {
	if err := validateRequest(req); err != nil {
		return domain.Group{}, err
	}

	friends, err := s.users.GetFriends(ctx.User.ID)
	if err != nil {
		return domain.Group{}, err
	}
	if strangers, _ := lo.Difference(req.UserIDs, friends); len(strangers) > 0 {
		return domain.Group{}, fmt.Errorf("%w: users %v are not friends of the caller",
			errors.ErrValidation, strangers)
	}

	memberIDs := lo.Uniq(append([]string{ctx.User.ID}, req.UserIDs...))
	group, err := s.groups.CreateGroup(req.Name, memberIDs)
	if err != nil {
		return domain.Group{}, err
	}

	for _, userID := range memberIDs {
		s.dispatcher.Publish(event.GroupAdded{UserID: userID, Group: group})
	}
	s.log.Info("group created", "group", group.ID, "members", len(memberIDs))
	return group, nil
}

// UpdateGroup renames a group. Only the name is mutable; an absent name is
// a no-op update.
func (s *GroupService) UpdateGroup(ctx auth.Context, req UpdateGroupRequest) (domain.Group, error) {
	if err := validateRequest(req); err != nil {
		return domain.Group{}, err
	}
	group, err := s.requireMember(ctx, req.ID)
	if err != nil {
		return domain.Group{}, err
	}
	if req.Name == nil {
		return group, nil
	}
	return s.groups.RenameGroup(req.ID, *req.Name)
}

// LeaveGroup removes the caller's membership edge. When the last member
// leaves, the group and all of its messages cascade away. The id is
// returned regardless so the client can drop its local state.
func (s *GroupService) LeaveGroup(ctx auth.Context, id string) (string, error) {
	if _, err := s.requireMember(ctx, id); err != nil {
		return "", err
	}
	remaining, err := s.groups.RemoveMember(id, ctx.User.ID)
	if err != nil {
		return "", err
	}
	if remaining == 0 {
		if err := s.cascadeDelete(id); err != nil {
			return "", err
		}
		s.log.Info("group emptied and deleted", "group", id)
	}
	return id, nil
}

// DeleteGroup tears a group down explicitly: membership edges first, then
// messages, then the group record, so no message ever references a missing
// group, even transiently.
func (s *GroupService) DeleteGroup(ctx auth.Context, id string) (domain.Group, error) {
	group, err := s.requireMember(ctx, id)
	if err != nil {
		return domain.Group{}, err
	}
	if err := s.cascadeDelete(id); err != nil {
		return domain.Group{}, err
	}
	return group, nil
}

func (s *GroupService) cascadeDelete(id string) error {
	if err := s.groups.RemoveAllMembers(id); err != nil {
		return err
	}
	if err := s.messages.PurgeGroup(id); err != nil {
		return err
	}
	return s.groups.DeleteGroup(id)
}

// requireMember resolves the group and checks the caller's membership edge.
// A missing group is NotFound; an existing group without the edge is
// Unauthorized. Order matters: a deleted group id must never read as a
// permission problem.
func (s *GroupService) requireMember(ctx auth.Context, groupID string) (domain.Group, error) {
	group, err := s.groups.GetGroup(groupID)
	if err != nil {
		return domain.Group{}, err
	}
	member, err := s.groups.IsMember(groupID, ctx.User.ID)
	if err != nil {
		return domain.Group{}, err
	}
	if !member {
		return domain.Group{}, fmt.Errorf("%w: user %s is not a member of group %s",
			errors.ErrUnauthorized, ctx.User.ID, groupID)
	}
	return group, nil
}
