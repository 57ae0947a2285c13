package handlers

import (
	"encoding/base64"
	"encoding/json"

	"github.com/gin-gonic/gin"
)

const flashCookie = "console_flash"

// Flash is the single-slot transient notification: one message, one kind,
// read once. A new flash replaces any pending one; there is no queue.
type Flash struct {
	Message string `json:"message"`
	Kind    string `json:"kind"` // success | error
}

func SetFlash(c *gin.Context, kind, message string) {
	payload, err := json.Marshal(Flash{Message: message, Kind: kind})

	if err != nil {
		return
	}

	c.SetCookie(flashCookie, base64.RawURLEncoding.EncodeToString(payload), 60, "/", "", false, true)
}

// TakeFlash pops the pending flash, clearing the cookie so it shows exactly
// once. Garbage decodes to nothing.
func TakeFlash(c *gin.Context) *Flash {
	raw, err := c.Cookie(flashCookie)

	if err != nil || raw == "" {
		return nil
	}

	c.SetCookie(flashCookie, "", -1, "/", "", false, true)

	decoded, err := base64.RawURLEncoding.DecodeString(raw)

	if err != nil {
		return nil
	}

	var f Flash

	if err := json.Unmarshal(decoded, &f); err != nil || f.Message == "" {
		return nil
	}

	return &f
}
