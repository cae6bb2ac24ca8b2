package services

// Resolvers bundles the full graph surface. A transport adapter (the
// request/response cycle and the push channel are external collaborators)
// receives this bundle and maps operations onto it.
type Resolvers struct {
	Auth     IAuthService
	Users    IUserService
	Groups   IGroupService
	Messages IMessageService
}

// Operations lists the exposed query/mutation surface, mainly for startup
// logging and transport route registration.
func (Resolvers) Operations() []string {
	return []string{
		"query.group", "query.user", "query.group.messages",
		"mutation.createMessage", "mutation.createGroup", "mutation.updateGroup",
		"mutation.leaveGroup", "mutation.deleteGroup",
		"subscription.messageAdded", "subscription.groupAdded",
	}
}
