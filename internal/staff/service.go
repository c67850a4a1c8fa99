package staff

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
	"github.com/clinicdesk/clinic-backend/internal/auth"
	"github.com/clinicdesk/clinic-backend/pkg/logging"
)

// Storer is the persistence surface the service depends on.
type Storer interface {
	List(ctx context.Context) ([]Member, error)
	Get(ctx context.Context, id int64) (*Member, error)
	Create(ctx context.Context, req CreateRequest, passwordHash string) (*Member, error)
	Update(ctx context.Context, id int64, req UpdateRequest) (*Member, error)
	Deactivate(ctx context.Context, id int64) (bool, error)
	Permissions(ctx context.Context, roleID int64) ([]string, error)

	getCredentials(ctx context.Context, username string) (*credentials, error)
	passwordHash(ctx context.Context, id int64) (string, error)
	setPasswordHash(ctx context.Context, id int64, hash string) error
	touchLastLogin(ctx context.Context, id int64) error
}

// Service owns staff account rules and the login flow.
type Service struct {
	store      Storer
	tokens     *auth.Manager
	bcryptCost int
	logger     *logging.Logger
}

// NewService creates the staff service.
func NewService(store Storer, tokens *auth.Manager, bcryptCost int, logger *logging.Logger) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, tokens: tokens, bcryptCost: bcryptCost, logger: logger}
}

// Login verifies the credentials and issues a session token. Unknown
// usernames and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, apperror.Validation("invalid login data",
			apperror.FieldError{Field: "username", Message: "username and password are required"})
	}

	creds, err := s.store.getCredentials(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if creds == nil || !creds.IsActive {
		return nil, apperror.Unauthorized("invalid username or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(req.Password)) != nil {
		return nil, apperror.Unauthorized("invalid username or password")
	}

	token, err := s.tokens.Issue(creds.ID, creds.Username, creds.RoleName)
	if err != nil {
		return nil, err
	}
	if err := s.store.touchLastLogin(ctx, creds.ID); err != nil {
		s.logger.Error("failed to record login time", "error", err, "staff_id", creds.ID)
	}
	s.logger.Info("staff logged in", "staff_id", creds.ID, "username", creds.Username)
	return &LoginResponse{Token: token, Staff: creds.Member}, nil
}

// Me returns the authenticated account.
func (s *Service) Me(ctx context.Context, staffID int64) (*Member, error) {
	member, err := s.store.Get(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, apperror.NotFound("staff member not found")
	}
	return member, nil
}

// ChangePassword verifies the current password before setting the new one.
func (s *Service) ChangePassword(ctx context.Context, staffID int64, req PasswordRequest) error {
	if len(req.NewPassword) < minPasswordLen {
		return apperror.Validation("invalid password data",
			apperror.FieldError{Field: "new_password", Message: "new_password must be at least 8 characters"})
	}
	hash, err := s.store.passwordHash(ctx, staffID)
	if err != nil {
		return err
	}
	if hash == "" {
		return apperror.NotFound("staff member not found")
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.CurrentPassword)) != nil {
		return apperror.Unauthorized("current password is incorrect")
	}
	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	return s.store.setPasswordHash(ctx, staffID, string(newHash))
}

// List returns all staff accounts.
func (s *Service) List(ctx context.Context) ([]Member, error) {
	return s.store.List(ctx)
}

// Get returns the staff member or a not-found error.
func (s *Service) Get(ctx context.Context, id int64) (*Member, error) {
	member, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, apperror.NotFound("staff member not found")
	}
	return member, nil
}

// Create validates and registers an account.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Member, error) {
	if errs := ValidateCreate(req); len(errs) > 0 {
		return nil, apperror.Validation("invalid staff data", errs...)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	member, err := s.store.Create(ctx, req, string(hash))
	if err != nil {
		return nil, err
	}
	s.logger.Info("staff account created", "id", member.ID, "username", member.Username)
	return member, nil
}

// Update applies account changes.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Member, error) {
	if errs := ValidateUpdate(req); len(errs) > 0 {
		return nil, apperror.Validation("invalid staff data", errs...)
	}
	member, err := s.store.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, apperror.NotFound("staff member not found")
	}
	return member, nil
}

// Delete deactivates the account rather than removing the row.
func (s *Service) Delete(ctx context.Context, id int64) error {
	removed, err := s.store.Deactivate(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return apperror.NotFound("staff member not found")
	}
	return nil
}

// Permissions returns the permission names of the member's role.
func (s *Service) Permissions(ctx context.Context, id int64) ([]string, error) {
	member, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.store.Permissions(ctx, member.RoleID)
}
