package httpapi

import (
	"net/http"

	"servicehours-backend-go/internal/identity"
	"servicehours-backend-go/internal/services"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type FederatedCallbackRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

type TokenResponse struct {
	AccessToken string           `json:"accessToken"`
	ExpiresAt   int64            `json:"expiresAt"`
	Session     services.Session `json:"session"`
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := s.Resolver.LoginLocal(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.issueToken(w, r, sess)
}

func (s *Server) FederatedURL(w http.ResponseWriter, r *http.Request) {
	if s.Provider == nil {
		WriteError(w, http.StatusServiceUnavailable, "Federated login is not configured")
		return
	}
	verifier := identity.NewVerifier()
	state, err := s.Tokens.CreateStateToken(verifier)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"url": s.Provider.AuthURL(state, verifier), "state": state})
}

func (s *Server) FederatedCallback(w http.ResponseWriter, r *http.Request) {
	if s.Provider == nil {
		WriteError(w, http.StatusServiceUnavailable, "Federated login is not configured")
		return
	}
	var req FederatedCallbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	verifier, ok := s.Tokens.VerifyStateToken(req.State)
	if !ok {
		WriteError(w, http.StatusBadRequest, "Invalid state")
		return
	}
	id, err := s.Provider.Exchange(r.Context(), req.Code, verifier)
	if err != nil {
		writeServiceError(w, r, services.ErrProvider("Identity provider unavailable, try again"))
		return
	}
	sess, err := s.Resolver.LoginFederated(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.issueToken(w, r, sess)
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request, sess services.Session) {
	token, exp, err := s.Tokens.CreateAccessToken(sess)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, TokenResponse{AccessToken: token, ExpiresAt: exp, Session: sess})
}

// Logout is stateless: the client drops its token and gets the anonymous
// session back.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, services.Logout(CurrentSession(r)))
}

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r)
	admin, err := s.Resolver.IsAdmin(r.Context(), sess)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, struct {
		services.Session
		IsAdmin bool `json:"isAdmin"`
	}{Session: sess, IsAdmin: admin})
}
