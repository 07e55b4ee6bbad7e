// Package service implements login, password changes and user administration.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"leadlift_backend/internal/auth/access"
	"leadlift_backend/internal/auth/password"
	"leadlift_backend/internal/auth/repository"
	"leadlift_backend/internal/auth/transport"
	"leadlift_backend/internal/events"
	"leadlift_backend/platform/apperr"
	"leadlift_backend/platform/config"
	"leadlift_backend/platform/httpkit"
	"leadlift_backend/platform/logger"
	"leadlift_backend/platform/sanitize"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	msgInvalidCredentials = "invalid credentials"
	msgUserNotFound       = "user not found"
	msgForbidden          = "insufficient permissions"
)

type Service struct {
	repo   repository.UserRepository
	cfg    config.AuthServiceConfig
	policy *access.Policy
	bus    events.Bus
	log    *logger.Logger
	now    func() time.Time
}

func New(repo repository.UserRepository, cfg config.AuthServiceConfig, policy *access.Policy, bus events.Bus, log *logger.Logger) *Service {
	if policy == nil {
		policy = access.Default()
	}
	return &Service{repo: repo, cfg: cfg, policy: policy, bus: bus, log: log, now: time.Now}
}

// Login authenticates by username or email and issues an access token.
func (s *Service) Login(ctx context.Context, req transport.LoginRequest) (transport.LoginResponse, error) {
	login := strings.TrimSpace(req.Username)
	user, err := s.repo.GetUserByLogin(ctx, login)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return transport.LoginResponse{}, s.internal("get_user_by_login", err)
	}
	if err != nil || !user.IsActive {
		s.log.AuthEvent("login", login, false, "unknown or inactive user")
		return transport.LoginResponse{}, apperr.Unauthorized(msgInvalidCredentials)
	}
	if err := password.Compare(user.PasswordHash, req.Password); err != nil {
		s.log.AuthEvent("login", login, false, "password mismatch")
		return transport.LoginResponse{}, apperr.Unauthorized(msgInvalidCredentials)
	}

	now := s.now().UTC()
	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return transport.LoginResponse{}, s.internal("touch_last_login", err)
	}
	user.LastLogin = &now

	token, err := s.signAccessToken(user)
	if err != nil {
		return transport.LoginResponse{}, apperr.Wrap(apperr.KindInternal, "failed to issue token", err)
	}

	s.log.AuthEvent("login", user.Username, true, "")
	return transport.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.cfg.GetAccessTokenTTL().Seconds()),
		User:        s.toResponse(user),
	}, nil
}

// Me returns the caller's account. Missing or deactivated accounts are unauthorized.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (transport.UserResponse, error) {
	user, err := s.activeUser(ctx, userID)
	if err != nil {
		return transport.UserResponse{}, err
	}
	return s.toResponse(user), nil
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, req transport.ChangePasswordRequest) error {
	user, err := s.activeUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := password.Compare(user.PasswordHash, req.CurrentPassword); err != nil {
		return apperr.BadRequest("current password is incorrect")
	}

	hash, err := password.Hash(req.NewPassword)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return s.internal("update_password", err)
	}

	s.log.AuthEvent("password_changed", user.Username, true, "")
	return nil
}

// ListUsers returns every account.
func (s *Service) ListUsers(ctx context.Context) (transport.UserListResponse, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return transport.UserListResponse{}, s.internal("list_users", err)
	}

	items := make([]transport.UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, s.toResponse(u))
	}
	return transport.UserListResponse{Items: items, Total: len(items)}, nil
}

// CreateUser creates an account on behalf of actor. Only admins may create admins.
func (s *Service) CreateUser(ctx context.Context, actor httpkit.Identity, req transport.CreateUserRequest) (transport.UserResponse, error) {
	creator, err := s.activeUser(ctx, actor.UserID())
	if err != nil {
		return transport.UserResponse{}, err
	}

	role := req.Role
	if role == "" {
		role = access.RoleUser
	}
	if !s.policy.IsRole(role) {
		return transport.UserResponse{}, apperr.Validation("invalid role")
	}
	if role == access.RoleAdmin && creator.Role != access.RoleAdmin {
		return transport.UserResponse{}, apperr.Forbidden("only admins can create admin users")
	}

	created, err := s.create(ctx, repository.User{
		Username:  strings.TrimSpace(req.Username),
		Email:     strings.TrimSpace(req.Email),
		FirstName: sanitize.Text(req.FirstName),
		LastName:  sanitize.Text(req.LastName),
		Role:      role,
		CreatedBy: &creator.ID,
	}, req.Password)
	if err != nil {
		return transport.UserResponse{}, err
	}
	return s.toResponse(created), nil
}

// GetUser returns one account. Callers without create_users may only read themselves.
func (s *Service) GetUser(ctx context.Context, actor httpkit.Identity, id uuid.UUID) (transport.UserResponse, error) {
	caller, err := s.activeUser(ctx, actor.UserID())
	if err != nil {
		return transport.UserResponse{}, err
	}
	if id != caller.ID && !s.policy.Allows(caller.Role, access.CreateUsers) {
		return transport.UserResponse{}, apperr.Forbidden(msgForbidden)
	}

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return transport.UserResponse{}, s.notFoundOr("get_user", err)
	}
	return s.toResponse(user), nil
}

// UpdateUser applies profile changes. Role and active flag are applied only
// for callers holding create_users, and only admins may grant the admin role.
func (s *Service) UpdateUser(ctx context.Context, actor httpkit.Identity, id uuid.UUID, req transport.UpdateUserRequest) (transport.UserResponse, error) {
	caller, err := s.activeUser(ctx, actor.UserID())
	if err != nil {
		return transport.UserResponse{}, err
	}
	if _, err := s.repo.GetUserByID(ctx, id); err != nil {
		return transport.UserResponse{}, s.notFoundOr("get_user", err)
	}

	canManage := s.policy.Allows(caller.Role, access.CreateUsers)
	if id != caller.ID && !canManage {
		return transport.UserResponse{}, apperr.Forbidden(msgForbidden)
	}

	upd := repository.UserUpdate{
		FirstName: sanitize.TextPtr(req.FirstName),
		LastName:  sanitize.TextPtr(req.LastName),
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		upd.Email = &email
	}
	if canManage {
		if req.Role != nil {
			if !s.policy.IsRole(*req.Role) {
				return transport.UserResponse{}, apperr.Validation("invalid role")
			}
			if *req.Role == access.RoleAdmin && caller.Role != access.RoleAdmin {
				return transport.UserResponse{}, apperr.Forbidden("only admins can assign admin role")
			}
			upd.Role = req.Role
		}
		upd.IsActive = req.IsActive
	}

	updated, err := s.repo.UpdateUser(ctx, id, upd)
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return transport.UserResponse{}, apperr.Wrap(apperr.KindConflict, "email already exists", err)
	case err != nil:
		return transport.UserResponse{}, s.notFoundOr("update_user", err)
	}
	return s.toResponse(updated), nil
}

// DeleteUser removes an account. Nobody deletes themselves; only admins delete admins.
func (s *Service) DeleteUser(ctx context.Context, actor httpkit.Identity, id uuid.UUID) error {
	caller, err := s.activeUser(ctx, actor.UserID())
	if err != nil {
		return err
	}
	target, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return s.notFoundOr("get_user", err)
	}
	if target.ID == caller.ID {
		return apperr.BadRequest("cannot delete your own account")
	}
	if target.Role == access.RoleAdmin && caller.Role != access.RoleAdmin {
		return apperr.Forbidden("only admins can delete admin users")
	}

	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return s.notFoundOr("delete_user", err)
	}
	s.log.AuthEvent("user_deleted", target.Username, true, "")
	return nil
}

// Permissions returns the role -> permission table.
func (s *Service) Permissions() transport.PermissionsResponse {
	out := make(map[string][]string)
	for _, role := range s.policy.Roles() {
		out[role] = permissionNames(s.policy.Permissions(role))
	}
	return transport.PermissionsResponse{Roles: out}
}

// EnsureBootstrapAdmin creates the default admin when no active admin exists
// and a bootstrap password is configured. It reports whether an account was created.
func (s *Service) EnsureBootstrapAdmin(ctx context.Context, cfg config.BootstrapConfig) (bool, error) {
	if cfg.GetBootstrapAdminPassword() == "" {
		return false, nil
	}

	count, err := s.repo.CountByRole(ctx, access.RoleAdmin)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	_, err = s.create(ctx, repository.User{
		Username:  cfg.GetBootstrapAdminUsername(),
		Email:     cfg.GetBootstrapAdminEmail(),
		FirstName: "Admin",
		LastName:  "User",
		Role:      access.RoleAdmin,
	}, cfg.GetBootstrapAdminPassword())
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) create(ctx context.Context, u repository.User, plainPassword string) (repository.User, error) {
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return repository.User{}, apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}
	u.ID = uuid.New()
	u.PasswordHash = hash
	u.IsActive = true

	created, err := s.repo.CreateUser(ctx, u)
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return repository.User{}, apperr.Wrap(apperr.KindConflict, "username or email already exists", err)
	case err != nil:
		return repository.User{}, s.internal("create_user", err)
	}

	if s.bus != nil {
		var createdBy uuid.UUID
		if u.CreatedBy != nil {
			createdBy = *u.CreatedBy
		}
		s.bus.Publish(ctx, events.UserCreated{
			BaseEvent: events.NewBaseEvent(),
			UserID:    created.ID,
			Username:  created.Username,
			Role:      created.Role,
			CreatedBy: createdBy,
		})
	}
	return created, nil
}

func (s *Service) activeUser(ctx context.Context, id uuid.UUID) (repository.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !user.IsActive) {
		return repository.User{}, apperr.Unauthorized("user not found or inactive")
	}
	if err != nil {
		return repository.User{}, s.internal("get_user", err)
	}
	return user, nil
}

func (s *Service) signAccessToken(user repository.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"type":  httpkit.AccessTokenType,
		"roles": []string{user.Role},
		"exp":   now.Add(s.cfg.GetAccessTokenTTL()).Unix(),
		"iat":   now.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.GetJWTAccessSecret()))
}

func (s *Service) notFoundOr(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.Wrap(apperr.KindNotFound, msgUserNotFound, err)
	}
	return s.internal(op, err)
}

func (s *Service) internal(op string, err error) error {
	s.log.DatabaseError(op, err)
	return apperr.Wrap(apperr.KindInternal, "internal server error", err).WithOp("auth." + op)
}

func (s *Service) toResponse(u repository.User) transport.UserResponse {
	resp := transport.UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        u.Role,
		IsActive:    u.IsActive,
		CreatedBy:   u.CreatedBy,
		CreatedAt:   u.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   u.UpdatedAt.UTC().Format(time.RFC3339),
		Permissions: permissionNames(s.policy.Permissions(u.Role)),
	}
	if u.LastLogin != nil {
		ts := u.LastLogin.UTC().Format(time.RFC3339)
		resp.LastLogin = &ts
	}
	return resp
}

func permissionNames(perms []access.Permission) []string {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, string(p))
	}
	return out
}
