package services

import (
	"chat-graph/auth"
	"chat-graph/contract"
	"chat-graph/domain"
)

type IUserService interface {
	User(ctx auth.Context, id string) (domain.User, error)
	UserByEmail(ctx auth.Context, email string) (domain.User, error)
	AddFriend(ctx auth.Context, friendID string) error
	Friends(ctx auth.Context) ([]string, error)
}

// UserService resolves user queries. The auth.Context parameter gates the
// surface to authenticated callers; lookups themselves are not restricted
// further.
type UserService struct {
	users contract.UserStore
}

func NewUserService(users contract.UserStore) IUserService {
	return &UserService{users: users}
}

func (s *UserService) User(_ auth.Context, id string) (domain.User, error) {
	return s.users.GetUserByID(id)
}

func (s *UserService) UserByEmail(_ auth.Context, email string) (domain.User, error) {
	return s.users.GetUserByEmail(email)
}

// AddFriend records the symmetric relation between the caller and friendID.
func (s *UserService) AddFriend(ctx auth.Context, friendID string) error {
	if _, err := s.users.GetUserByID(friendID); err != nil {
		return err
	}
	return s.users.AddFriend(ctx.User.ID, friendID)
}

func (s *UserService) Friends(ctx auth.Context) ([]string, error) {
	return s.users.GetFriends(ctx.User.ID)
}
