package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	flashCookieName   = "status"
	flashCookieMaxAge = 300
)

// redirectWithStatus is the terminal success outcome of a mutating
// operation: a redirect to the relevant list plus a one-shot status
// message. The message rides a short-lived cookie and is consumed by
// the next list render, never stored server-side.
func redirectWithStatus(c *gin.Context, location, message string) {
	c.SetCookie(flashCookieName, message, flashCookieMaxAge, "/", "", false, true)
	c.Redirect(http.StatusSeeOther, location)
}

// consumeFlash returns the pending status message, clearing it so it is
// shown exactly once.
func consumeFlash(c *gin.Context) string {
	message, err := c.Cookie(flashCookieName)
	if err != nil || message == "" {
		return ""
	}
	c.SetCookie(flashCookieName, "", -1, "/", "", false, true)
	return message
}
