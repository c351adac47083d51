package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"yamdb/internal/apperr"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/rbac"
)

// UserInput is a full user record as submitted by an admin.
type UserInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Bio       string
	Role      string
}

// UserChanges is a partial update; nil fields are left untouched.
type UserChanges struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
	Role      *string
}

type UserService interface {
	List(ctx context.Context, caller rbac.Identity, search string, page, pageSize int) ([]models.User, int64, error)
	Create(ctx context.Context, caller rbac.Identity, in UserInput) (*models.User, error)
	Get(ctx context.Context, caller rbac.Identity, username string) (*models.User, error)
	Update(ctx context.Context, caller rbac.Identity, username string, ch UserChanges) (*models.User, error)
	Delete(ctx context.Context, caller rbac.Identity, username string) error
	// Me and UpdateMe act on the caller's own record; role is never writable here.
	Me(ctx context.Context, caller rbac.Identity) (*models.User, error)
	UpdateMe(ctx context.Context, caller rbac.Identity, ch UserChanges) (*models.User, error)
}

type userService struct {
	users   repository.UserRepository
	reviews repository.ReviewRepository
	ratings *ratings
	authz   Authorizer
	logger  *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	reviews repository.ReviewRepository,
	cache RatingCache,
	authz Authorizer,
	logger *slog.Logger,
) UserService {
	return &userService{
		users:   users,
		reviews: reviews,
		ratings: newRatings(reviews, cache, logger),
		authz:   authz,
		logger:  logger,
	}
}

func (s *userService) List(ctx context.Context, caller rbac.Identity, search string, page, pageSize int) ([]models.User, int64, error) {
	if err := s.authz.Authorize(caller, rbac.ActionRead, rbac.ResourceUser, rbac.Other); err != nil {
		return nil, 0, err
	}
	list, total, err := s.users.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, 0, storeError(err, "user")
	}
	return list, total, nil
}

func (s *userService) Create(ctx context.Context, caller rbac.Identity, in UserInput) (*models.User, error) {
	if err := s.authz.Authorize(caller, rbac.ActionCreate, rbac.ResourceUser, rbac.Other); err != nil {
		return nil, err
	}

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	role := rbac.RoleUser
	fe := apperr.FieldErrors{}
	for _, err := range []error{
		ValidateUsername(in.Username),
		ValidateEmail(in.Email),
		validateOptional("first_name", in.FirstName, maxProfileLen),
		validateOptional("last_name", in.LastName, maxProfileLen),
	} {
		if err := fe.Merge(err); err != nil {
			return nil, err
		}
	}
	if in.Role != "" {
		r, err := rbac.ParseRole(in.Role)
		if err != nil {
			fe.Add("role", "Select a valid choice.")
		} else {
			role = r
		}
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, "", in.Username, in.Email); err != nil {
		return nil, err
	}

	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Bio:       in.Bio,
		Role:      role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict(apperr.NonFieldErrors, "A user with that username or email already exists.")
		}
		return nil, apperr.Internal(err)
	}
	return user, nil
}

func (s *userService) Get(ctx context.Context, caller rbac.Identity, username string) (*models.User, error) {
	return s.lookup(ctx, caller, rbac.ActionRead, username)
}

func (s *userService) Update(ctx context.Context, caller rbac.Identity, username string, ch UserChanges) (*models.User, error) {
	user, err := s.lookup(ctx, caller, rbac.ActionUpdate, username)
	if err != nil {
		return nil, err
	}
	// role changes need the right to manage other accounts
	allowRole := s.authz.Authorize(caller, rbac.ActionUpdate, rbac.ResourceUser, rbac.Other) == nil
	return s.apply(ctx, user, ch, allowRole)
}

// lookup screens by name first so callers cannot enumerate foreign usernames,
// then re-checks ownership against the stored id.
func (s *userService) lookup(ctx context.Context, caller rbac.Identity, act rbac.Action, username string) (*models.User, error) {
	if err := s.authz.Authorize(caller, act, rbac.ResourceUser, ownershipByName(caller, username)); err != nil {
		return nil, err
	}
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, storeError(err, "user")
	}
	if err := s.authz.Authorize(caller, act, rbac.ResourceUser, caller.OwnershipOf(user.ID)); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, caller rbac.Identity, username string) error {
	if err := s.authz.Authorize(caller, rbac.ActionDelete, rbac.ResourceUser, rbac.Other); err != nil {
		return err
	}
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return storeError(err, "user")
	}

	// the user's reviews go with the row, so their titles' ratings change
	reviewed, err := s.reviews.TitleIDsByAuthor(ctx, user.ID)
	if err != nil {
		return storeError(err, "user")
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return storeError(err, "user")
	}
	for _, titleID := range reviewed {
		s.ratings.invalidate(ctx, titleID)
	}
	if len(reviewed) > 0 {
		s.logger.InfoContext(ctx, "user deleted with reviews", "user_id", user.ID, "titles", len(reviewed))
	}
	return nil
}

func (s *userService) Me(ctx context.Context, caller rbac.Identity) (*models.User, error) {
	if err := s.authz.Authorize(caller, rbac.ActionRead, rbac.ResourceUser, rbac.Own); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		return nil, storeError(err, "user")
	}
	return user, nil
}

func (s *userService) UpdateMe(ctx context.Context, caller rbac.Identity, ch UserChanges) (*models.User, error) {
	if err := s.authz.Authorize(caller, rbac.ActionUpdate, rbac.ResourceUser, rbac.Own); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		return nil, storeError(err, "user")
	}
	return s.apply(ctx, user, ch, false)
}

// apply validates and persists ch. Role is ignored unless allowRole is set.
func (s *userService) apply(ctx context.Context, user *models.User, ch UserChanges, allowRole bool) (*models.User, error) {
	fe := apperr.FieldErrors{}
	merge := func(err error) error { return fe.Merge(err) }

	updated := *user
	if ch.Username != nil {
		updated.Username = strings.TrimSpace(*ch.Username)
		if err := merge(ValidateUsername(updated.Username)); err != nil {
			return nil, err
		}
	}
	if ch.Email != nil {
		updated.Email = strings.TrimSpace(*ch.Email)
		if err := merge(ValidateEmail(updated.Email)); err != nil {
			return nil, err
		}
	}
	if ch.FirstName != nil {
		updated.FirstName = *ch.FirstName
		if err := merge(validateOptional("first_name", updated.FirstName, maxProfileLen)); err != nil {
			return nil, err
		}
	}
	if ch.LastName != nil {
		updated.LastName = *ch.LastName
		if err := merge(validateOptional("last_name", updated.LastName, maxProfileLen)); err != nil {
			return nil, err
		}
	}
	if ch.Bio != nil {
		updated.Bio = *ch.Bio
	}
	if ch.Role != nil && allowRole {
		r, err := rbac.ParseRole(*ch.Role)
		if err != nil {
			fe.Add("role", "Select a valid choice.")
		} else {
			updated.Role = r
		}
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}

	var newName, newEmail string
	if updated.Username != user.Username {
		newName = updated.Username
	}
	if updated.Email != user.Email {
		newEmail = updated.Email
	}
	if err := s.checkUnique(ctx, user.ID, newName, newEmail); err != nil {
		return nil, err
	}

	if err := s.users.Update(ctx, &updated); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict(apperr.NonFieldErrors, "A user with that username or email already exists.")
		}
		return nil, storeError(err, "user")
	}
	return &updated, nil
}

// checkUnique reports taken usernames or emails as Conflict. Empty values are skipped.
func (s *userService) checkUnique(ctx context.Context, selfID, username, email string) error {
	if username != "" {
		u, err := s.users.FindByUsername(ctx, username)
		if err == nil && u.ID != selfID {
			return apperr.Conflict("username", "A user with that username already exists.")
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return apperr.Internal(err)
		}
	}
	if email != "" {
		u, err := s.users.FindByEmail(ctx, email)
		if err == nil && u.ID != selfID {
			return apperr.Conflict("email", "A user with that email already exists.")
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return apperr.Internal(err)
		}
	}
	return nil
}

func ownershipByName(caller rbac.Identity, username string) rbac.Ownership {
	if caller.IsAuthenticated() && caller.Username != "" && caller.Username == username {
		return rbac.Own
	}
	return rbac.Other
}
