package server

import (
	"net/http"
	"strings"

	"github.com/lexakit/lexa/internal/common"
)

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// handleToken exchanges credentials for a bearer token. Form-encoded bodies
// are accepted alongside JSON for OAuth2 password-flow clients.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			writeError(w, r, s.logger, common.NewAppError(
				"INVALID_FORM", "request body is not a valid form", common.ErrInvalidInput))
			return
		}
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	} else {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, s.logger, err)
			return
		}
	}

	user, err := s.users.Authenticate(req.Username, req.Password)
	if err != nil {
		s.logger.Warn("auth.login_failed", "username", req.Username)
		writeError(w, r, s.logger, err)
		return
	}

	token, err := s.issuer.Issue(user.Username, user.Roles)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	s.logger.Info("auth.login", "username", user.Username)
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.issuer.TTL().Seconds()),
	})
}
