package services

import (
	"context"
	"testing"

	"servicehours-backend-go/internal/identity"
)

func newTestResolver(t *testing.T, adminCodes ...string) *Resolver {
	t.Helper()
	s := newTestStore(t)
	if _, err := s.SeedAdminCodes(context.Background(), adminCodes); err != nil {
		t.Fatalf("seed admin codes: %v", err)
	}
	return NewResolver(s, "@uvg.edu.gt")
}

func TestLoginLocal(t *testing.T) {
	r := newTestResolver(t)
	ctx := context.Background()
	student := mustStudent(t, r.Store, "Ana")
	if _, err := r.Store.CreateUser(ctx, "admin", UserInput{Username: " Ana ", Password: "secret", Role: RoleStudent, StudentID: &student}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	sess, err := r.LoginLocal(ctx, "ANA", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !sess.Authenticated || sess.Role != RoleStudent || sess.StudentID == nil || *sess.StudentID != student || sess.Method != MethodLocal {
		t.Fatalf("unexpected session %+v", sess)
	}
	if !sess.HasRole(RoleCompany, RoleStudent) || sess.HasRole(RoleAdmin) {
		t.Fatalf("unexpected role checks for %+v", sess)
	}

	_, wrongPassword := r.LoginLocal(ctx, "ana", "nope")
	_, unknownUser := r.LoginLocal(ctx, "ghost", "secret")
	if !IsKind(wrongPassword, KindAuth) || !IsKind(unknownUser, KindAuth) {
		t.Fatalf("expected auth errors, got %v and %v", wrongPassword, unknownUser)
	}
	if wrongPassword.Error() != unknownUser.Error() {
		t.Fatalf("failures must be indistinguishable: %q vs %q", wrongPassword, unknownUser)
	}
	if Logout(sess).HasRole(RoleStudent) {
		t.Fatal("logged out session must have no role")
	}
}

func TestLoginFederatedDerivesRole(t *testing.T) {
	r := newTestResolver(t, "25837")
	ctx := context.Background()
	cases := []struct {
		email string
		role  string
	}{
		{"jua25837@uvg.edu.gt", RoleAdmin},
		{"JUA25837@UVG.EDU.GT", RoleAdmin},
		{"per21001@uvg.edu.gt", RoleStudent},
		{"mperez@uvg.edu.gt", RoleFaculty},
		{"m.perez@uvg.edu.gt", RoleStudent},
		{"abc12345@uvg.edu.gt", RoleStudent},
	}
	for _, tc := range cases {
		sess, err := r.LoginFederated(ctx, identity.Identity{Email: tc.email, DisplayName: "User"})
		if err != nil {
			t.Fatalf("%s: %v", tc.email, err)
		}
		if sess.Role != tc.role || sess.Method != MethodFederated {
			t.Fatalf("%s: expected %s, got %+v", tc.email, tc.role, sess)
		}
	}
}

func TestLoginFederatedRejectsDomain(t *testing.T) {
	r := newTestResolver(t)
	ctx := context.Background()
	for _, email := range []string{"jua25837@gmail.com", "", "uvg.edu.gt@evil.com"} {
		sess, err := r.LoginFederated(ctx, identity.Identity{Email: email})
		if !IsKind(err, KindAuth) {
			t.Fatalf("%q: expected auth error, got %v", email, err)
		}
		if sess.Authenticated {
			t.Fatalf("%q: rejected login must not authenticate", email)
		}
	}
}

func TestAdminCodeManagement(t *testing.T) {
	r := newTestResolver(t, "25837")
	ctx := context.Background()
	admin, err := r.LoginFederated(ctx, identity.Identity{Email: "jua25837@uvg.edu.gt"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	student, err := r.LoginFederated(ctx, identity.Identity{Email: "per21001@uvg.edu.gt"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, _, err := r.AddAdminCode(ctx, student, "21001"); !IsKind(err, KindAuth) {
		t.Fatalf("non-admin must not add codes, got %v", err)
	}
	code, added, err := r.AddAdminCode(ctx, admin, "1001")
	if err != nil || !added || code != "21001" {
		t.Fatalf("add: code=%q added=%v err=%v", code, added, err)
	}
	if _, added, err := r.AddAdminCode(ctx, admin, "per21001@uvg.edu.gt"); err != nil || added {
		t.Fatalf("re-adding must be a no-op: added=%v err=%v", added, err)
	}
	if role, err := r.DeriveRole(ctx, "per21001@uvg.edu.gt"); err != nil || role != RoleAdmin {
		t.Fatalf("expected promoted role, got %q %v", role, err)
	}

	if _, err := r.RemoveAdminCode(ctx, admin, "jua25837@uvg.edu.gt"); !IsKind(err, KindAuth) {
		t.Fatalf("admin must not remove own code, got %v", err)
	}
	if _, err := r.RemoveAdminCode(ctx, admin, "21001"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := r.RemoveAdminCode(ctx, admin, "21001"); !IsKind(err, KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	entries, err := r.Store.ListAudit(ctx, AuditFilter{Table: TableAdminCodes})
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	actions := []string{}
	for _, entry := range entries {
		actions = append(actions, entry.Action)
	}
	if len(actions) != 3 || actions[0] != ActionInsert || actions[1] != ActionInsert || actions[2] != ActionDelete {
		t.Fatalf("unexpected admin code audit %v", actions)
	}
}

func TestFederatedAdminLosesRightsWhenRemoved(t *testing.T) {
	r := newTestResolver(t, "25837", "21001")
	ctx := context.Background()
	first, _ := r.LoginFederated(ctx, identity.Identity{Email: "jua25837@uvg.edu.gt"})
	second, _ := r.LoginFederated(ctx, identity.Identity{Email: "per21001@uvg.edu.gt"})
	if _, err := r.RemoveAdminCode(ctx, first, "21001"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if ok, err := r.IsAdmin(ctx, second); err != nil || ok {
		t.Fatalf("removed admin still has rights: %v %v", ok, err)
	}
	refreshed, err := r.Refresh(ctx, second)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.Role != RoleStudent || refreshed.HasRole(RoleCompany, RoleDepartment, RoleAdmin) {
		t.Fatalf("refreshed session keeps staff role: %+v", refreshed)
	}
}

func TestRefreshFollowsAdminList(t *testing.T) {
	r := newTestResolver(t, "25837")
	ctx := context.Background()
	admin, _ := r.LoginFederated(ctx, identity.Identity{Email: "jua25837@uvg.edu.gt"})
	student, _ := r.LoginFederated(ctx, identity.Identity{Email: "per21001@uvg.edu.gt"})
	if student.Role != RoleStudent {
		t.Fatalf("expected student, got %s", student.Role)
	}
	if _, _, err := r.AddAdminCode(ctx, admin, "21001"); err != nil {
		t.Fatalf("add: %v", err)
	}
	promoted, err := r.Refresh(ctx, student)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if promoted.Role != RoleAdmin {
		t.Fatalf("expected granted code to promote, got %s", promoted.Role)
	}

	local := Session{Authenticated: true, Username: "admin", Role: RoleAdmin, Method: MethodLocal}
	if got, err := r.Refresh(ctx, local); err != nil || got != local {
		t.Fatalf("local session must be unchanged: %+v %v", got, err)
	}
	if got, err := r.Refresh(ctx, Session{}); err != nil || got.Authenticated {
		t.Fatalf("anonymous session must stay anonymous: %+v %v", got, err)
	}
}

func TestNormalizeAdminCode(t *testing.T) {
	cases := map[string]string{
		"jua25837@uvg.edu.gt": "25837",
		" 25837 ":             "25837",
		"5837":                "25837",
		"25837@uvg.edu.gt":    "25837",
		"5837@uvg.edu.gt":     "25837",
		"code: 5837":          "25837",
		"mperez@uvg.edu.gt":   "",
		"":                    "",
		"abc":                 "",
	}
	for input, want := range cases {
		if got := NormalizeAdminCode(input); got != want {
			t.Errorf("NormalizeAdminCode(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSeedAdminCodesOnlyWhenEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	added, err := s.SeedAdminCodes(ctx, []string{"25837", "5837", "jua21001@uvg.edu.gt"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if added != 2 {
		t.Fatalf("expected 2 distinct codes, got %d", added)
	}
	added, err = s.SeedAdminCodes(ctx, []string{"29999"})
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if added != 0 {
		t.Fatalf("seeding a populated list must be a no-op, got %d", added)
	}
}
