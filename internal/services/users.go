package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"servicehours-backend-go/internal/models"
)

const (
	RoleStudent    = "Student"
	RoleCompany    = "Company"
	RoleDepartment = "Department"
	RoleAdmin      = "Admin"
	RoleFaculty    = "Faculty"
)

var Roles = []string{RoleStudent, RoleCompany, RoleDepartment, RoleAdmin, RoleFaculty}

func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

type UserInput struct {
	Username  string `json:"username" validate:"required,max=100"`
	Password  string `json:"password" validate:"required"`
	Role      string `json:"role" validate:"required,oneof=Student Company Department Admin Faculty"`
	StudentID *int64 `json:"studentId"`
}

// UserDTO is the public view of a local user.
type UserDTO struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	StudentID *int64 `json:"studentId"`
}

func ToUserDTO(u models.User) UserDTO {
	return UserDTO{ID: u.ID, Username: u.Username, Role: u.Role, StudentID: u.StudentID}
}

const userColumns = `id, username, role, student_id, salt, iterations, hash`

func NormalizeUsername(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func (s *Store) CreateUser(ctx context.Context, actor string, input UserInput) (models.User, error) {
	input.Username = NormalizeUsername(input.Username)
	if err := s.validateInput(input); err != nil {
		return models.User{}, err
	}
	if input.StudentID != nil && input.Role != RoleStudent {
		return models.User{}, ErrBadRequest("studentId is only allowed for role Student")
	}
	cred, err := HashPassword(input.Password)
	if err != nil {
		return models.User{}, WrapError(err, "hash password")
	}
	var user models.User
	err = s.mutate(ctx, actor, func(m *mutation) error {
		var taken bool
		if err := m.tx.GetContext(ctx, &taken, m.rebind(`SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`), input.Username); err != nil {
			return WrapError(err, "check username")
		}
		if taken {
			return ErrBadRequest("Username already exists")
		}
		if input.StudentID != nil {
			if err := m.requireExists(ctx, TableStudents, *input.StudentID, "Student not found"); err != nil {
				return err
			}
		}
		id, err := m.ids.Next(ctx, m.tx, TableUsers)
		if err != nil {
			return err
		}
		user = models.User{
			ID:         id,
			Username:   input.Username,
			Role:       input.Role,
			StudentID:  input.StudentID,
			Salt:       cred.Salt,
			Iterations: cred.Iterations,
			Hash:       cred.Digest,
		}
		if _, err := m.tx.ExecContext(ctx, m.rebind(`
INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
`), user.ID, user.Username, user.Role, user.StudentID, user.Salt, user.Iterations, user.Hash); err != nil {
			return storageError(err, "insert user")
		}
		return m.audit(ctx, ActionInsert, id, nil, userSnapshot(user))
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	items := []models.User{}
	if err := s.DB.SelectContext(ctx, &items, `SELECT `+userColumns+` FROM users ORDER BY id`); err != nil {
		return nil, WrapError(err, "list users")
	}
	return items, nil
}

// FindUser looks a user up by case-insensitive username.
func (s *Store) FindUser(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := s.DB.GetContext(ctx, &user, s.DB.Rebind(`SELECT `+userColumns+` FROM users WHERE username = ?`), NormalizeUsername(username))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound("User not found")
	}
	if err != nil {
		return models.User{}, WrapError(err, "find user")
	}
	return user, nil
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.DB.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, WrapError(err, "count users")
	}
	return count, nil
}

// SeedUsers creates one demo account per staff role plus a student account
// when the users table is empty. It returns the number of users created.
func (s *Store) SeedUsers(ctx context.Context, password string) (int, error) {
	count, err := s.CountUsers(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}
	seeds := []UserInput{
		{Username: "student", Role: RoleStudent},
		{Username: "company", Role: RoleCompany},
		{Username: "department", Role: RoleDepartment},
		{Username: "admin", Role: RoleAdmin},
	}
	for _, seed := range seeds {
		seed.Password = password
		if _, err := s.CreateUser(ctx, "system", seed); err != nil {
			return 0, err
		}
	}
	return len(seeds), nil
}
