package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nexora-ai/nexora/pkg/models"
	"github.com/nexora-ai/nexora/pkg/services"
)

type signupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleSignup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := s.users.Signup(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.issueSession(c, user.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := s.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.issueSession(c, user.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) handleLogout(c *gin.Context) {
	user := currentUser(c)
	s.users.LogAction(c.Request.Context(), user.ID, models.ActionLogout)
	s.clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (s *Server) handleRefresh(c *gin.Context) {
	token, err := c.Cookie(refreshTokenCookie)
	if err != nil || token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no refresh token"})
		return
	}
	userID, err := s.tokens.Verify(token, services.TokenTypeRefresh)
	if err != nil {
		s.clearAuthCookies(c)
		respondError(c, err)
		return
	}
	user, err := s.users.Get(c.Request.Context(), userID)
	if err != nil || !user.IsActive {
		s.clearAuthCookies(c)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "account unavailable"})
		return
	}
	if err := s.issueSession(c, userID); err != nil {
		respondError(c, err)
		return
	}
	s.users.LogAction(c.Request.Context(), userID, models.ActionRefresh)
	c.JSON(http.StatusOK, gin.H{"message": "refreshed"})
}

func (s *Server) issueSession(c *gin.Context, userID string) error {
	access, err := s.tokens.IssueAccess(userID)
	if err != nil {
		return err
	}
	refresh, err := s.tokens.IssueRefresh(userID)
	if err != nil {
		return err
	}
	s.setAuthCookies(c, access, refresh)
	return nil
}

// oauthStateCookie carries the CSRF state across the provider round-trip.
const oauthStateCookie = "oauth_state"

// handleOAuthRoute dispatches GET /auth/login/{provider} and
// GET /auth/{provider}/callback from one parameterized route.
func (s *Server) handleOAuthRoute(c *gin.Context) {
	a, b := c.Param("a"), c.Param("b")
	switch {
	case a == "login":
		s.handleOAuthLogin(c, b)
	case b == "callback":
		s.handleOAuthCallback(c, a)
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	}
}

func (s *Server) handleOAuthLogin(c *gin.Context, provider string) {
	state := uuid.NewString()
	url, err := s.oauth.AuthURL(provider, state)
	if err != nil {
		respondError(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, 600, "/", "", s.cfg.Auth.SecureCookie, true)
	c.Redirect(http.StatusFound, url)
}

func (s *Server) handleOAuthCallback(c *gin.Context, provider string) {
	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid oauth state"})
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", s.cfg.Auth.SecureCookie, true)

	identity, err := s.oauth.Exchange(c.Request.Context(), provider, c.Query("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	user, err := s.users.LoginOAuth(c.Request.Context(), identity.Email, identity.Username)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.issueSession(c, user.ID); err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, s.cfg.FrontendBaseURL)
}
