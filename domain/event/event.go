package event

import "chat-graph/domain"

// DomainEvent is a fact published after a successful mutation. Topic routing
// decides which subscribers see it: message events go to the group topic,
// group events to each added member's personal topic.
type DomainEvent interface {
	Topic() string
}

// GroupTopic and UserTopic name the two topic families of the dispatcher.
func GroupTopic(groupID string) string { return "group:" + groupID }
func UserTopic(userID string) string   { return "user:" + userID }

// MessageAdded is published once per successful createMessage.
type MessageAdded struct {
	GroupID string
	Message domain.Message
}

func (e MessageAdded) Topic() string {
	return GroupTopic(e.GroupID)
}

// GroupAdded is published to one member's personal topic after createGroup;
// a group with n members produces n events.
type GroupAdded struct {
	UserID string
	Group  domain.Group
}

func (e GroupAdded) Topic() string {
	return UserTopic(e.UserID)
}
