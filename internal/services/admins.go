package services

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"servicehours-backend-go/internal/models"
)

var (
	studentLocalPart = regexp.MustCompile(`^[a-z]+(2\d+)$`)
	numericLocalPart = regexp.MustCompile(`^\d+$`)
	facultyLocalPart = regexp.MustCompile(`^[a-z]+$`)
)

// NormalizeAdminCode reduces an email address, a full code or a code missing
// its leading 2 to the canonical "2…" form. It returns "" when no code can
// be extracted.
func NormalizeAdminCode(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return ""
	}
	if at := strings.Index(value, "@"); at >= 0 {
		local := value[:at]
		if m := studentLocalPart.FindStringSubmatch(local); m != nil {
			return m[1]
		}
		if numericLocalPart.MatchString(local) {
			return ensureCodePrefix(local)
		}
		return ""
	}
	var digits strings.Builder
	for _, ch := range value {
		if ch >= '0' && ch <= '9' {
			digits.WriteRune(ch)
		}
	}
	if digits.Len() == 0 {
		return ""
	}
	return ensureCodePrefix(digits.String())
}

func ensureCodePrefix(code string) string {
	if strings.HasPrefix(code, "2") {
		return code
	}
	return "2" + code
}

// StudentCode extracts the numeric student code from an institutional email
// local part such as "jua25837", or "" when the address is not a student's.
func StudentCode(email string) string {
	local := strings.ToLower(strings.TrimSpace(email))
	if at := strings.Index(local, "@"); at >= 0 {
		local = local[:at]
	}
	if m := studentLocalPart.FindStringSubmatch(local); m != nil {
		return m[1]
	}
	return ""
}

func (s *Store) ListAdminCodes(ctx context.Context) ([]models.AdminCode, error) {
	items := []models.AdminCode{}
	if err := s.DB.SelectContext(ctx, &items, `SELECT id, code FROM admin_codes ORDER BY code`); err != nil {
		return nil, WrapError(err, "list admin codes")
	}
	return items, nil
}

func (s *Store) IsAdminCode(ctx context.Context, code string) (bool, error) {
	if code == "" {
		return false, nil
	}
	var exists bool
	if err := s.DB.GetContext(ctx, &exists, s.DB.Rebind(`SELECT EXISTS(SELECT 1 FROM admin_codes WHERE code = ?)`), code); err != nil {
		return false, WrapError(err, "check admin code")
	}
	return exists, nil
}

// SeedAdminCodes fills the admin list from configuration only while it is
// empty, so later edits made through the API survive restarts.
func (s *Store) SeedAdminCodes(ctx context.Context, codes []string) (int, error) {
	var count int
	if err := s.DB.GetContext(ctx, &count, `SELECT COUNT(*) FROM admin_codes`); err != nil {
		return 0, WrapError(err, "count admin codes")
	}
	if count > 0 {
		return 0, nil
	}
	added := 0
	for _, raw := range codes {
		ok, err := s.insertAdminCode(ctx, "system", NormalizeAdminCode(raw))
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}
	return added, nil
}

// insertAdminCode adds code unless it is empty or already listed.
func (s *Store) insertAdminCode(ctx context.Context, actor, code string) (bool, error) {
	if code == "" {
		return false, nil
	}
	added := false
	err := s.mutate(ctx, actor, func(m *mutation) error {
		var exists bool
		if err := m.tx.GetContext(ctx, &exists, m.rebind(`SELECT EXISTS(SELECT 1 FROM admin_codes WHERE code = ?)`), code); err != nil {
			return WrapError(err, "check admin code")
		}
		if exists {
			return nil
		}
		id, err := m.ids.Next(ctx, m.tx, TableAdminCodes)
		if err != nil {
			return err
		}
		if _, err := m.tx.ExecContext(ctx, m.rebind(`INSERT INTO admin_codes (id, code) VALUES (?, ?)`), id, code); err != nil {
			return storageError(err, "insert admin code")
		}
		added = true
		return m.audit(ctx, ActionInsert, id, nil, AdminCodeSnapshot{ID: id, Code: code})
	})
	return added, err
}

func (s *Store) deleteAdminCode(ctx context.Context, actor, code string) (bool, error) {
	removed := false
	err := s.mutate(ctx, actor, func(m *mutation) error {
		var item models.AdminCode
		err := m.tx.GetContext(ctx, &item, m.rebind(`SELECT id, code FROM admin_codes WHERE code = ?`), code)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return WrapError(err, "load admin code")
		}
		if _, err := m.tx.ExecContext(ctx, m.rebind(`DELETE FROM admin_codes WHERE id = ?`), item.ID); err != nil {
			return storageError(err, "delete admin code")
		}
		removed = true
		return m.audit(ctx, ActionDelete, item.ID, AdminCodeSnapshot{ID: item.ID, Code: item.Code}, nil)
	})
	return removed, err
}
