package staff

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clinicdesk/clinic-backend/internal/repository"
)

// Store persists staff accounts and answers the role/permission lookups the
// auth middleware needs.
type Store struct {
	db repository.Querier
}

// NewStore creates a staff store.
func NewStore(db repository.Querier) *Store {
	return &Store{db: db}
}

const memberColumns = `s.id, s.username, s.full_name, COALESCE(s.email, ''), COALESCE(s.phone, ''),
	s.role_id, r.name, s.is_active, to_char(s.last_login, 'YYYY-MM-DD"T"HH24:MI:SS"Z"'), to_char(s.created_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"')`

func scanMember(row pgx.Row) (*Member, error) {
	var m Member
	if err := row.Scan(
		&m.ID, &m.Username, &m.FullName, &m.Email, &m.Phone,
		&m.RoleID, &m.RoleName, &m.IsActive, &m.LastLogin, &m.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns all staff accounts with their role names.
func (s *Store) List(ctx context.Context) ([]Member, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+memberColumns+`
		FROM staff s
		JOIN roles r ON s.role_id = r.id
		ORDER BY s.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("staff: list: %w", err)
	}
	defer rows.Close()

	out := []Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("staff: scan list: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// Get returns the staff member with role name, or nil when absent.
func (s *Store) Get(ctx context.Context, id int64) (*Member, error) {
	m, err := scanMember(s.db.QueryRow(ctx, `
		SELECT `+memberColumns+`
		FROM staff s
		JOIN roles r ON s.role_id = r.id
		WHERE s.id = $1`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("staff: select by id: %w", err)
	}
	return m, nil
}

// getCredentials returns the account with its password hash, or nil when the
// username is unknown.
func (s *Store) getCredentials(ctx context.Context, username string) (*credentials, error) {
	var c credentials
	err := s.db.QueryRow(ctx, `
		SELECT `+memberColumns+`, s.password_hash
		FROM staff s
		JOIN roles r ON s.role_id = r.id
		WHERE s.username = $1`,
		username,
	).Scan(
		&c.ID, &c.Username, &c.FullName, &c.Email, &c.Phone,
		&c.RoleID, &c.RoleName, &c.IsActive, &c.LastLogin, &c.CreatedAt,
		&c.PasswordHash,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("staff: select by username: %w", err)
	}
	return &c, nil
}

// passwordHash returns the stored hash for an account id, or "" when absent.
func (s *Store) passwordHash(ctx context.Context, id int64) (string, error) {
	var hash string
	err := s.db.QueryRow(ctx, `SELECT password_hash FROM staff WHERE id = $1`, id).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("staff: select hash: %w", err)
	}
	return hash, nil
}

// Create inserts a staff account and returns it with the role name.
func (s *Store) Create(ctx context.Context, req CreateRequest, passwordHash string) (*Member, error) {
	var id int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO staff (username, password_hash, full_name, email, phone, role_id)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6)
		RETURNING id`,
		req.Username, passwordHash, req.FullName, req.Email, req.Phone, req.RoleID,
	).Scan(&id)
	if err != nil {
		return nil, repository.TranslateConstraint(fmt.Errorf("staff: insert: %w", err))
	}
	return s.Get(ctx, id)
}

// Update applies account changes and returns the updated member, or nil when
// absent.
func (s *Store) Update(ctx context.Context, id int64, req UpdateRequest) (*Member, error) {
	existing, err := s.Get(ctx, id)
	if err != nil || existing == nil {
		return existing, err
	}

	fullName := existing.FullName
	if req.FullName != nil {
		fullName = *req.FullName
	}
	email := existing.Email
	if req.Email != nil {
		email = *req.Email
	}
	phone := existing.Phone
	if req.Phone != nil {
		phone = *req.Phone
	}
	roleID := existing.RoleID
	if req.RoleID != nil {
		roleID = *req.RoleID
	}
	isActive := existing.IsActive
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	_, err = s.db.Exec(ctx, `
		UPDATE staff
		SET full_name = $1, email = NULLIF($2, ''), phone = NULLIF($3, ''),
		    role_id = $4, is_active = $5, updated_at = CURRENT_TIMESTAMP
		WHERE id = $6`,
		fullName, email, phone, roleID, isActive, id,
	)
	if err != nil {
		return nil, repository.TranslateConstraint(fmt.Errorf("staff: update: %w", err))
	}
	return s.Get(ctx, id)
}

// Deactivate soft-deletes the account. Historical records keep their staff
// reference.
func (s *Store) Deactivate(ctx context.Context, id int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE staff SET is_active = false, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("staff: deactivate: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// touchLastLogin records a successful login.
func (s *Store) touchLastLogin(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx, `UPDATE staff SET last_login = CURRENT_TIMESTAMP WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("staff: touch last login: %w", err)
	}
	return nil
}

// setPasswordHash replaces the stored hash.
func (s *Store) setPasswordHash(ctx context.Context, id int64, hash string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE staff SET password_hash = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2`,
		hash, id,
	)
	if err != nil {
		return fmt.Errorf("staff: set password: %w", err)
	}
	return nil
}

// ActiveRole returns the role name of an active account, or "" when the
// account is missing or deactivated. Satisfies the auth middleware.
func (s *Store) ActiveRole(ctx context.Context, staffID int64) (string, error) {
	var role string
	err := s.db.QueryRow(ctx, `
		SELECT r.name
		FROM staff s
		JOIN roles r ON s.role_id = r.id
		WHERE s.id = $1 AND s.is_active = true`,
		staffID,
	).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("staff: active role: %w", err)
	}
	return role, nil
}

// HasPermission reports whether the role holds the named permission.
// Satisfies the auth middleware.
func (s *Store) HasPermission(ctx context.Context, role, permission string) (bool, error) {
	var count int64
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM role_permissions rp
		JOIN permissions p ON rp.permission_id = p.id
		JOIN roles r ON rp.role_id = r.id
		WHERE r.name = $1 AND p.name = $2`,
		role, permission,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("staff: permission check: %w", err)
	}
	return count > 0, nil
}

// Permissions lists the permission names granted to a role.
func (s *Store) Permissions(ctx context.Context, roleID int64) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.name
		FROM role_permissions rp
		JOIN permissions p ON rp.permission_id = p.id
		WHERE rp.role_id = $1
		ORDER BY p.name`,
		roleID,
	)
	if err != nil {
		return nil, fmt.Errorf("staff: permissions: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("staff: scan permission: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
