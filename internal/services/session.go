package services

import (
	"context"
	"strings"

	"servicehours-backend-go/internal/identity"
)

const (
	MethodLocal     = "local"
	MethodFederated = "federated"
)

// Session is the authenticated principal of one request. The zero value is
// an anonymous session.
type Session struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username"`
	Role          string `json:"role"`
	StudentID     *int64 `json:"studentId,omitempty"`
	Email         string `json:"email,omitempty"`
	DisplayName   string `json:"displayName,omitempty"`
	Method        string `json:"method"`
}

// HasRole is false for anonymous sessions.
func (s Session) HasRole(roles ...string) bool {
	if !s.Authenticated {
		return false
	}
	for _, role := range roles {
		if s.Role == role {
			return true
		}
	}
	return false
}

// Actor is the name written to audit entries for this session.
func (s Session) Actor() string {
	if s.Email != "" {
		return s.Email
	}
	return s.Username
}

// Logout returns the anonymous session.
func Logout(Session) Session {
	return Session{}
}

type Resolver struct {
	Store         *Store
	AllowedDomain string
}

func NewResolver(store *Store, allowedDomain string) *Resolver {
	return &Resolver{Store: store, AllowedDomain: strings.ToLower(strings.TrimSpace(allowedDomain))}
}

// LoginLocal checks a username and password against the users table. Unknown
// users and wrong passwords fail identically.
func (r *Resolver) LoginLocal(ctx context.Context, username, password string) (Session, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return Session{}, ErrUnauthorized("invalid credentials")
	}
	user, err := r.Store.FindUser(ctx, username)
	if IsKind(err, KindNotFound) {
		return Session{}, ErrUnauthorized("invalid credentials")
	}
	if err != nil {
		return Session{}, err
	}
	if !VerifyPassword(password, user.Salt, user.Iterations, user.Hash) {
		return Session{}, ErrUnauthorized("invalid credentials")
	}
	return Session{
		Authenticated: true,
		Username:      user.Username,
		Role:          user.Role,
		StudentID:     user.StudentID,
		Method:        MethodLocal,
	}, nil
}

// LoginFederated turns a provider identity into a session once its email
// domain is allowed.
func (r *Resolver) LoginFederated(ctx context.Context, id identity.Identity) (Session, error) {
	email := strings.ToLower(strings.TrimSpace(id.Email))
	if email == "" || !strings.HasSuffix(email, r.AllowedDomain) {
		return Session{}, ErrForbidden("email domain not allowed")
	}
	role, err := r.DeriveRole(ctx, email)
	if err != nil {
		return Session{}, err
	}
	name := strings.TrimSpace(id.DisplayName)
	if name == "" {
		name = email
	}
	return Session{
		Authenticated: true,
		Username:      email,
		Role:          role,
		Email:         email,
		DisplayName:   name,
		Method:        MethodFederated,
	}, nil
}

// DeriveRole maps an institutional email local part to a role: letters then
// a code starting with 2 is a student (admin when the code is listed),
// letters only is faculty, anything else falls back to student.
func (r *Resolver) DeriveRole(ctx context.Context, email string) (string, error) {
	local := strings.ToLower(strings.TrimSpace(email))
	if at := strings.Index(local, "@"); at >= 0 {
		local = local[:at]
	}
	if code := StudentCode(local); code != "" {
		admin, err := r.Store.IsAdminCode(ctx, code)
		if err != nil {
			return "", err
		}
		if admin {
			return RoleAdmin, nil
		}
		return RoleStudent, nil
	}
	if facultyLocalPart.MatchString(local) {
		return RoleFaculty, nil
	}
	return RoleStudent, nil
}

// IsAdmin reports admin rights. Federated sessions are checked against the
// current admin list, so a removed code loses rights immediately.
func (r *Resolver) IsAdmin(ctx context.Context, sess Session) (bool, error) {
	if !sess.Authenticated {
		return false, nil
	}
	if sess.Method == MethodFederated {
		return r.Store.IsAdminCode(ctx, StudentCode(sess.Email))
	}
	return sess.Role == RoleAdmin, nil
}

// Refresh re-derives the role of a federated session from the current admin
// list, so codes granted or removed after the token was issued take effect on
// the next request. Local sessions are returned unchanged.
func (r *Resolver) Refresh(ctx context.Context, sess Session) (Session, error) {
	if !sess.Authenticated || sess.Method != MethodFederated {
		return sess, nil
	}
	role, err := r.DeriveRole(ctx, sess.Email)
	if err != nil {
		return Session{}, err
	}
	sess.Role = role
	return sess, nil
}

// AddAdminCode normalizes raw and adds it to the admin list. It reports
// whether the code was new.
func (r *Resolver) AddAdminCode(ctx context.Context, sess Session, raw string) (string, bool, error) {
	if err := r.requireAdmin(ctx, sess); err != nil {
		return "", false, err
	}
	code := NormalizeAdminCode(raw)
	if code == "" {
		return "", false, ErrBadRequest("invalid admin code")
	}
	added, err := r.Store.insertAdminCode(ctx, sess.Actor(), code)
	if err != nil {
		return "", false, err
	}
	return code, added, nil
}

// RemoveAdminCode drops a code from the admin list. An admin cannot remove
// the code that grants their own session.
func (r *Resolver) RemoveAdminCode(ctx context.Context, sess Session, raw string) (string, error) {
	if err := r.requireAdmin(ctx, sess); err != nil {
		return "", err
	}
	code := NormalizeAdminCode(raw)
	if code == "" {
		return "", ErrBadRequest("invalid admin code")
	}
	if own := StudentCode(sess.Email); own != "" && own == code {
		return "", ErrForbidden("cannot remove your own admin code")
	}
	removed, err := r.Store.deleteAdminCode(ctx, sess.Actor(), code)
	if err != nil {
		return "", err
	}
	if !removed {
		return "", ErrNotFound("Admin code not found")
	}
	return code, nil
}

func (r *Resolver) requireAdmin(ctx context.Context, sess Session) error {
	if !sess.Authenticated {
		return ErrUnauthorized("Authentication required")
	}
	admin, err := r.IsAdmin(ctx, sess)
	if err != nil {
		return err
	}
	if !admin {
		return ErrForbidden("Not allowed")
	}
	return nil
}
