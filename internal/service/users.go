package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/course-portal/internal/apperr"
	"github.com/iliyamo/course-portal/internal/model"
	"github.com/iliyamo/course-portal/internal/queue"
	"github.com/iliyamo/course-portal/internal/repository"
	"github.com/iliyamo/course-portal/internal/utils"
)

const familyUsers = string(model.FamilyUsers)

// CreateUserInput is the body of POST /api/users.
type CreateUserInput struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserInput is the body of PUT /api/users.  Only present fields
// change.
type UpdateUserInput struct {
	ID    string  `json:"-"`
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// ChangePasswordInput is the body of POST /api/users?action=change_password.
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// LoginInput is the body of POST /api/auth/login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult carries the access token handed out by Login.
type LoginResult struct {
	Token   string     `json:"token"`
	Expires int64      `json:"expires"`
	User    model.User `json:"user"`
}

// UserService manages portal accounts.
type UserService struct {
	Deps
	bcryptCost int
	jwtSecret  string
	tokenTTL   int
}

// NewUserService builds the service.  tokenTTLMin is the lifetime of
// access tokens minted by Login.
func NewUserService(d Deps, bcryptCost int, jwtSecret string, tokenTTLMin int) *UserService {
	return &UserService{Deps: d.withDefaults(), bcryptCost: bcryptCost, jwtSecret: jwtSecret, tokenTTL: tokenTTLMin}
}

func (s *UserService) List(ctx context.Context, o ListOptions) ([]model.User, error) {
	users, err := s.Store.Users.List(ctx, userSort.resolve(o))
	if err != nil {
		return nil, s.translate(ctx, err, "", "")
	}
	return users, nil
}

// Get returns one account without its password hash.
func (s *UserService) Get(ctx context.Context, id string) (model.User, error) {
	id = utils.Sanitize(id)
	if err := requireID("id", id); err != nil {
		return model.User{}, err
	}
	u, err := s.Store.Users.Get(ctx, id)
	if err != nil {
		return model.User{}, s.translate(ctx, err, "Student not found", "")
	}
	u.PasswordHash = ""
	return u, nil
}

// Create validates and stores a new account.  The id and email must both
// be unused.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (model.User, error) {
	in.ID = utils.Sanitize(in.ID)
	in.Name = utils.Sanitize(in.Name)
	in.Email = utils.Sanitize(in.Email)
	in.Password = strings.TrimSpace(in.Password)
	if err := s.Validator.Validate(in); err != nil {
		return model.User{}, err
	}
	if err := passwordFits("password", in.Password); err != nil {
		return model.User{}, err
	}

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return model.User{}, s.translate(ctx, err, "", "")
	}
	u, err := s.Store.Users.Create(ctx, model.User{ID: in.ID, Name: in.Name, Email: in.Email, PasswordHash: hash})
	if err != nil {
		return model.User{}, s.translate(ctx, err, "", "Student ID or email already exists")
	}
	u.PasswordHash = ""
	s.publish(ctx, familyUsers, queue.ActionCreated, u.ID, "")
	return u, nil
}

// Update changes name and/or email.  Passwords go through ChangePassword.
func (s *UserService) Update(ctx context.Context, in UpdateUserInput) (model.User, error) {
	id := utils.Sanitize(in.ID)
	if err := requireID("id", id); err != nil {
		return model.User{}, err
	}
	var p model.UserPatch
	var err error
	if p.Name, err = cleanRequired("name", in.Name); err != nil {
		return model.User{}, err
	}
	if p.Email, err = cleanRequired("email", in.Email); err != nil {
		return model.User{}, err
	}
	if p.Email != nil && !s.Validator.IsEmail(*p.Email) {
		return model.User{}, apperr.Validation("Invalid email format", apperr.FieldError{Field: "email", Message: "must be a valid email address"})
	}
	if p.Empty() {
		return model.User{}, apperr.Validation("No fields to update")
	}

	u, err := s.Store.Users.Update(ctx, id, p)
	if err != nil {
		return model.User{}, s.translate(ctx, err, "Student not found", "Email already exists")
	}
	u.PasswordHash = ""
	s.publish(ctx, familyUsers, queue.ActionUpdated, u.ID, "")
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	id = utils.Sanitize(id)
	if err := requireID("id", id); err != nil {
		return err
	}
	if err := s.Store.Users.Delete(ctx, id); err != nil {
		return s.translate(ctx, err, "Student not found", "")
	}
	s.publish(ctx, familyUsers, queue.ActionDeleted, id, "")
	return nil
}

// ChangePassword replaces the caller's password.  The account comes from
// the request identity, never from the body.
func (s *UserService) ChangePassword(ctx context.Context, who model.Identity, in ChangePasswordInput) error {
	if !who.Authenticated() {
		return apperr.Auth("Not logged in")
	}
	current := strings.TrimSpace(in.CurrentPassword)
	next := strings.TrimSpace(in.NewPassword)
	if current == "" {
		return missingField("current_password")
	}
	if next == "" {
		return missingField("new_password")
	}
	if len(next) < utils.MinPasswordLength {
		return apperr.Validation("New password must be at least 8 characters long.",
			apperr.FieldError{Field: "new_password", Message: "must be at least 8 characters long"})
	}
	if err := passwordFits("new_password", next); err != nil {
		return err
	}

	u, err := s.Store.Users.Get(ctx, who.UserID)
	if err != nil {
		return s.translate(ctx, err, "Student not found.", "")
	}
	if !utils.VerifyPassword(u.PasswordHash, current) {
		return apperr.Auth("Current password is incorrect")
	}
	if utils.VerifyPassword(u.PasswordHash, next) {
		return apperr.Validation("New password must be different from current password")
	}

	hash, err := utils.HashPassword(next, s.bcryptCost)
	if err != nil {
		return s.translate(ctx, err, "", "")
	}
	if err := s.Store.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return s.translate(ctx, err, "Student not found.", "")
	}
	s.publish(ctx, familyUsers, queue.ActionPasswordChanged, u.ID, "")
	return nil
}

// Login checks credentials and mints an access token whose subject is the
// user id.  Unknown emails and wrong passwords are indistinguishable.
func (s *UserService) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	in.Email = utils.Sanitize(in.Email)
	in.Password = strings.TrimSpace(in.Password)
	if err := s.Validator.Validate(in); err != nil {
		return LoginResult{}, err
	}

	u, err := s.Store.Users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, apperr.Auth("Invalid email or password")
		}
		return LoginResult{}, s.translate(ctx, err, "", "")
	}
	if !utils.VerifyPassword(u.PasswordHash, in.Password) {
		return LoginResult{}, apperr.Auth("Invalid email or password")
	}

	tok, err := utils.NewAccessToken(s.jwtSecret, u.ID, s.tokenTTL)
	if err != nil {
		return LoginResult{}, s.translate(ctx, err, "", "")
	}
	u.PasswordHash = ""
	return LoginResult{Token: tok.Token, Expires: tok.Exp.Unix(), User: u}, nil
}

// passwordFits rejects passwords bcrypt cannot hash.  The limit is in bytes,
// so multi-byte characters count more than once.
func passwordFits(field, pw string) error {
	if len(pw) > utils.MaxPasswordBytes {
		return apperr.Validation("Password must be at most 72 bytes long",
			apperr.FieldError{Field: field, Message: "must be at most 72 bytes long"})
	}
	return nil
}
