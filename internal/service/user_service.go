package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/sirupsen/logrus"

	"fleet_dispatch/internal/apperr"
	"fleet_dispatch/internal/models"
	"fleet_dispatch/internal/policy"
	"fleet_dispatch/internal/storage"
)

type CreateUserInput struct {
	Email    string      `json:"email" binding:"required"`
	FullName string      `json:"full_name" binding:"required"`
	Role     models.Role `json:"role" binding:"required"`
	Phone    *string     `json:"phone"`
	Password *string     `json:"password"`
}

type UpdateUserInput struct {
	Email    *string      `json:"email"`
	FullName *string      `json:"full_name"`
	Role     *models.Role `json:"role"`
	Phone    *string      `json:"phone"`
	Password *string      `json:"password"`
}

type UserService interface {
	List(ctx context.Context, actor policy.Actor) ([]models.User, error)
	Get(ctx context.Context, actor policy.Actor, id string) (*models.User, error)
	// Create returns the generated password when the input carried none.
	Create(ctx context.Context, actor policy.Actor, in CreateUserInput) (*models.User, string, error)
	Update(ctx context.Context, actor policy.Actor, id string, in UpdateUserInput) (*models.User, error)
}

type userService struct {
	stg storage.IUserStorage
	log logrus.FieldLogger
}

func NewUserService(stg storage.IStorage, log logrus.FieldLogger) UserService {
	return &userService{stg: stg.User(), log: log}
}

func (s *userService) List(ctx context.Context, actor policy.Actor) ([]models.User, error) {
	if err := policy.Check(actor, policy.Target{Kind: policy.KindUser, Op: policy.OpList}); err != nil {
		return nil, err
	}
	users, err := s.stg.GetAll(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return users, nil
}

func (s *userService) Get(ctx context.Context, actor policy.Actor, id string) (*models.User, error) {
	if err := policy.Check(actor, policy.Target{Kind: policy.KindUser, Op: policy.OpRead, OwnerID: id}); err != nil {
		return nil, err
	}
	user, err := s.stg.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err, "User not found")
	}
	return user, nil
}

func (s *userService) Create(ctx context.Context, actor policy.Actor, in CreateUserInput) (*models.User, string, error) {
	if err := policy.Check(actor, policy.Target{Kind: policy.KindUser, Op: policy.OpCreate}); err != nil {
		return nil, "", err
	}
	if in.Role == models.RoleDriver {
		return nil, "", apperr.NewValidation("Driver accounts are created through /drivers")
	}
	p, err := newUser(in.Email, in.FullName, in.Role, in.Phone, in.Password)
	if err != nil {
		return nil, "", err
	}
	if err := s.stg.Create(ctx, p.User); err != nil {
		return nil, "", classify(err, "User not found")
	}
	s.log.WithFields(logrus.Fields{"user_id": p.ID, "role": p.Role, "by": actor.ID}).Info("User created")
	return p.User, p.TempPassword, nil
}

func (s *userService) Update(ctx context.Context, actor policy.Actor, id string, in UpdateUserInput) (*models.User, error) {
	if err := policy.Check(actor, policy.Target{Kind: policy.KindUser, Op: policy.OpUpdate, OwnerID: id}); err != nil {
		return nil, err
	}

	fields := storage.Fields{}
	if in.Role != nil {
		if !policy.CanChangeRole(actor) {
			return nil, apperr.NewForbidden("Only administrators can change roles")
		}
		if !in.Role.Valid() {
			return nil, apperr.NewValidation("Invalid role. Must be one of: admin, dispatcher, driver")
		}
		current, err := s.stg.GetByID(ctx, id)
		if err != nil {
			return nil, classify(err, "User not found")
		}
		// a driver user and its driver profile exist together
		if *in.Role != current.Role && (*in.Role == models.RoleDriver || current.Role == models.RoleDriver) {
			return nil, apperr.NewValidation("Role cannot be changed to or from driver")
		}
		fields["role"] = *in.Role
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, apperr.NewValidation("A valid email is required")
		}
		fields["email"] = email
	}
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return nil, apperr.NewValidation("Full name is required")
		}
		fields["full_name"] = name
	}
	if in.Phone != nil {
		fields["phone"] = *in.Phone
	}
	if in.Password != nil {
		hash, err := hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hash
	}
	if len(fields) == 0 {
		return nil, apperr.NewValidation("No fields to update")
	}

	user, err := s.stg.Update(ctx, id, fields)
	if err != nil {
		return nil, classify(err, "User not found")
	}
	return user, nil
}
