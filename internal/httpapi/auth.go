package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	goAccess "github.com/MrEthical07/goAccess"
	"github.com/MrEthical07/goAccess/guard"
	"github.com/MrEthical07/goAccess/internal/rate"
	"github.com/MrEthical07/goAccess/session"
	"go.uber.org/zap"
)

// ErrInvalidCredentials is returned by a [CredentialVerifier] for an unknown
// username or a wrong password.
var ErrInvalidCredentials = errors.New("httpapi: invalid credentials")

// CredentialVerifier checks a username and password and returns the identity
// record of the account.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (session.User, error)
}

// Account is one entry of a [StaticCredentials] table.
type Account struct {
	Password string
	User     session.User
}

// StaticCredentials verifies against a fixed in-memory account table.
type StaticCredentials map[string]Account

// Verify implements [CredentialVerifier].
func (c StaticCredentials) Verify(_ context.Context, username, password string) (session.User, error) {
	acct, ok := c[username]
	if !ok {
		return session.User{}, ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(acct.Password), []byte(password)) != 1 {
		return session.User{}, ErrInvalidCredentials
	}
	if acct.User.Status == session.StatusInactive {
		return session.User{}, ErrInvalidCredentials
	}
	return acct.User, nil
}

// LoginLimiter throttles failed logins per username and client IP.
// [*rate.Limiter] satisfies it.
type LoginLimiter interface {
	Check(ctx context.Context, username, ip string) error
	Fail(ctx context.Context, username, ip string) error
	Reset(ctx context.Context, username, ip string) error
}

type loginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=256"`
}

type profileRequest struct {
	RealName  *string `json:"realName" validate:"omitempty,max=64"`
	Nickname  *string `json:"nickname" validate:"omitempty,max=64"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone" validate:"omitempty,max=32"`
	Avatar    *string `json:"avatar" validate:"omitempty,url"`
	JobNumber *string `json:"jobNumber" validate:"omitempty,max=32"`
}

type sessionResponse struct {
	IsAuthenticated bool          `json:"isAuthenticated"`
	Loading         bool          `json:"loading"`
	DisplayName     string        `json:"displayName,omitempty"`
	User            *session.User `json:"user"`
	Token           string        `json:"token,omitempty"`
}

func (s *Server) sessionBody() sessionResponse {
	st := s.console.Session()
	resp := sessionResponse{
		IsAuthenticated: st.IsAuthenticated(),
		Loading:         s.console.Loading(),
		DisplayName:     st.DisplayName(),
		Token:           st.Token(),
	}
	if u, ok := st.User(); ok {
		resp.User = &u
	}
	return resp
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	ip := goAccess.ClientIPFromContext(r.Context())
	if s.limiter != nil {
		if err := s.limiter.Check(r.Context(), req.Username, ip); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				s.writeError(w, err)
				return
			}
			s.logger.Warn("login throttle unavailable", zap.Error(err))
		}
	}

	s.console.SetLoading(true)
	user, err := s.creds.Verify(r.Context(), req.Username, req.Password)
	if err != nil {
		s.console.SetLoading(false)
		s.logger.Info("login rejected", zap.String("username", req.Username))
		if s.limiter != nil && errors.Is(err, ErrInvalidCredentials) {
			if ferr := s.limiter.Fail(r.Context(), req.Username, ip); ferr != nil {
				s.logger.Warn("record failed login", zap.Error(ferr))
			}
		}
		s.writeError(w, err)
		return
	}
	if s.limiter != nil {
		if err := s.limiter.Reset(r.Context(), req.Username, ip); err != nil {
			s.logger.Warn("reset login throttle", zap.Error(err))
		}
	}
	token, err := s.tokens.Issue(user.ID, user.Username, user.Roles)
	if err != nil {
		s.console.SetLoading(false)
		s.writeError(w, err)
		return
	}

	now := s.now().UTC()
	user.LatestLoginAt = &now
	if err := s.console.Login(r.Context(), user, token); !s.committed(w, err) {
		s.console.SetLoading(false)
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.sessionBody())
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.console.Logout(r.Context()); !s.committed(w, err) {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) session(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.sessionBody())
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	if !s.console.Session().IsAuthenticated() {
		s.writeError(w, goAccess.ErrNotAuthenticated)
		return
	}
	var req profileRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	p := session.Profile{
		RealName:  req.RealName,
		Nickname:  req.Nickname,
		Email:     req.Email,
		Phone:     req.Phone,
		Avatar:    req.Avatar,
		JobNumber: req.JobNumber,
	}
	if err := s.console.UpdateProfile(r.Context(), p); !s.committed(w, err) {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.sessionBody())
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	u, ok := s.console.Session().User()
	if !ok {
		s.writeError(w, goAccess.ErrNotAuthenticated)
		return
	}
	token, err := s.tokens.Issue(u.ID, u.Username, u.Roles)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.console.RefreshToken(r.Context(), token); !s.committed(w, err) {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.sessionBody())
}

type accessResponse struct {
	Path     string   `json:"path"`
	Decision string   `json:"decision"`
	Reason   string   `json:"reason"`
	Missing  []string `json:"missing,omitempty"`
	Redirect string   `json:"redirect,omitempty"`
}

// access answers whether the current session may open a console page.
func (s *Server) access(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		s.writeError(w, &validationError{fields: map[string]string{"path": "is required"}})
		return
	}
	_, res := s.console.CheckPath(r.Context(), path)
	resp := accessResponse{
		Path:     path,
		Decision: res.Decision.String(),
		Reason:   string(res.Reason),
		Missing:  res.Missing,
	}
	if res.Decision == guard.RedirectToLogin {
		resp.Redirect = s.console.LoginRedirect(path)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) can(w http.ResponseWriter, r *http.Request) {
	codes := r.URL.Query()["code"]
	if len(codes) == 0 {
		s.writeError(w, &validationError{fields: map[string]string{"code": "is required"}})
		return
	}
	out := make(map[string]bool, len(codes))
	for _, code := range codes {
		out[code] = s.console.Can(code)
	}
	s.writeJSON(w, http.StatusOK, out)
}
