package interview

import (
	"context"
	"errors"
	"sort"

	"nexus_server/core/domain"
	"nexus_server/core/port/out"
)

type Service struct {
	users      out.UserRepository
	interviews out.InterviewRepository
}

func NewService(users out.UserRepository, interviews out.InterviewRepository) *Service {
	return &Service{users: users, interviews: interviews}
}

// ListForEmail returns the user's interviews, soonest first with undated
// ones last. An unknown user has no interviews.
func (s *Service) ListForEmail(ctx context.Context, email string) ([]*domain.Interview, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return []*domain.Interview{}, nil
	}
	if err != nil {
		return nil, err
	}

	list, err := s.interviews.ListByUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*domain.Interview{}
	}
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i].InterviewDate, list[j].InterviewDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	return list, nil
}
