package services

import (
	"fmt"
	"log/slog"
	"time"

	"chat-graph/auth"
	"chat-graph/contract"
	"chat-graph/domain"
	"chat-graph/domain/event"
	"chat-graph/errors"
	"chat-graph/pagination"
)

type IMessageService interface {
	CreateMessage(ctx auth.Context, req CreateMessageRequest) (domain.Message, error)
	Messages(ctx auth.Context, groupID string, page domain.PageArgs) (domain.MessageConnection, error)
}

type MessageService struct {
	groups     contract.GroupStore
	messages   contract.MessageStore
	dispatcher contract.Dispatcher
	log        *slog.Logger
	now        func() time.Time
}

func NewMessageService(groups contract.GroupStore, messages contract.MessageStore,
	dispatcher contract.Dispatcher, log *slog.Logger) *MessageService {
	return &MessageService{
		groups:     groups,
		messages:   messages,
		dispatcher: dispatcher,
		log:        log,
		now:        time.Now,
	}
}

// CreateMessage appends a message authored by the caller and publishes the
// MessageAdded event to the group topic. Authorization runs before the
// append: a non-member leaves no trace.
func (s *MessageService) CreateMessage(ctx auth.Context, req CreateMessageRequest) (domain.Message, error) {
	if err := validateRequest(req); err != nil {
		return domain.Message{}, err
	}
	if err := s.requireMember(ctx, req.GroupID); err != nil {
		return domain.Message{}, err
	}

	msg, err := s.messages.AppendMessage(req.GroupID, ctx.User.ID, req.Text, s.now().UTC())
	if err != nil {
		return domain.Message{}, err
	}

	s.dispatcher.Publish(event.MessageAdded{GroupID: req.GroupID, Message: msg})
	s.log.Debug("message created", "group", req.GroupID, "id", msg.ID)
	return msg, nil
}

// Messages resolves the messages connection field of a group for a member.
func (s *MessageService) Messages(ctx auth.Context, groupID string, page domain.PageArgs) (domain.MessageConnection, error) {
	if err := s.requireMember(ctx, groupID); err != nil {
		return domain.MessageConnection{}, err
	}
	return pagination.Paginate(s.messages, groupID, page)
}

func (s *MessageService) requireMember(ctx auth.Context, groupID string) error {
	if _, err := s.groups.GetGroup(groupID); err != nil {
		return err
	}
	member, err := s.groups.IsMember(groupID, ctx.User.ID)
	if err != nil {
		return err
	}
	if !member {
		return fmt.Errorf("%w: user %s is not a member of group %s",
			errors.ErrUnauthorized, ctx.User.ID, groupID)
	}
	return nil
}
