package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Cookie names and paths. The refresh cookie is scoped to its endpoint so
// it never travels with ordinary API calls.
const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
	accessCookiePath   = "/"
	refreshCookiePath  = "/api/auth/refresh"
)

// setAuthCookies issues both session cookies: HttpOnly, SameSite=Lax, and
// Secure per configuration.
func (s *Server) setAuthCookies(c *gin.Context, accessToken, refreshToken string) {
	secure := s.cfg.Auth.SecureCookie
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessTokenCookie, accessToken,
		int(s.tokens.AccessTTL().Seconds()), accessCookiePath, "", secure, true)
	c.SetCookie(refreshTokenCookie, refreshToken,
		int(s.tokens.RefreshTTL().Seconds()), refreshCookiePath, "", secure, true)
}

// clearAuthCookies expires both session cookies.
func (s *Server) clearAuthCookies(c *gin.Context) {
	secure := s.cfg.Auth.SecureCookie
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessTokenCookie, "", -1, accessCookiePath, "", secure, true)
	c.SetCookie(refreshTokenCookie, "", -1, refreshCookiePath, "", secure, true)
}
