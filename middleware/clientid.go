package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Cookie and header names for the client identity stamp. The identity is
// descriptive metadata only — it lets a customer find their own orders and is
// never used for authorization.
const (
	ClientIDCookie     = "sf_client_id"
	SessionIDCookie    = "sf_session_id"
	FingerprintHeader  = "X-Device-Fingerprint"
	clientIDMaxAge     = 365 * 24 * 60 * 60
	contextClientID    = "clientID"
	contextSessionID   = "sessionID"
	contextFingerprint = "fingerprint"
)

// ClientIdentity is the stamp attached to every order.
type ClientIdentity struct {
	ClientID    string `json:"client_id"`
	SessionID   string `json:"session_id"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// ClientIdentityStamper ensures every storefront request carries a durable
// client id and a session id, minting them on first contact. Subsequent
// requests from the same browser return the same values until cookies are
// cleared.
func ClientIdentityStamper() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID, err := c.Cookie(ClientIDCookie)
		if err != nil || clientID == "" {
			clientID = uuid.NewString()
			c.SetCookie(ClientIDCookie, clientID, clientIDMaxAge, "/", "", false, true)
		}

		sessionID, err := c.Cookie(SessionIDCookie)
		if err != nil || sessionID == "" {
			sessionID = uuid.NewString()
			// MaxAge 0 keeps it a session cookie
			c.SetCookie(SessionIDCookie, sessionID, 0, "/", "", false, true)
		}

		c.Set(contextClientID, clientID)
		c.Set(contextSessionID, sessionID)
		c.Set(contextFingerprint, c.GetHeader(FingerprintHeader))
		c.Next()
	}
}

// GetClientIdentity extracts the stamped identity from context.
func GetClientIdentity(c *gin.Context) ClientIdentity {
	return ClientIdentity{
		ClientID:    c.GetString(contextClientID),
		SessionID:   c.GetString(contextSessionID),
		Fingerprint: c.GetString(contextFingerprint),
	}
}
