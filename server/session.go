package shopserver

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	basketdomain "github.com/meganoshop/backend/internal/domains/basket/domain"
	userports "github.com/meganoshop/backend/internal/domains/users/ports"
	apierrors "github.com/meganoshop/backend/internal/shared/errors"
)

const (
	sessionCookieName = "sessionid"
	sessionCookieAge  = 60 * 60 * 24 * 14
	identityKey       = "shopserver.identity"
)

// Identity is what the session middleware resolves for every request: the
// browser's session token, plus the signed-in user when the token is bound.
type Identity struct {
	SessionKey string
	UserID     int64
}

// SignedIn reports whether the request belongs to an authenticated user.
func (i Identity) SignedIn() bool { return i.UserID != 0 }

// Owner converts the identity into a cart owner.
func (i Identity) Owner() basketdomain.Owner {
	if i.SignedIn() {
		return basketdomain.UserOwner(i.UserID)
	}
	return basketdomain.GuestOwner(i.SessionKey)
}

// SessionMiddleware issues a session cookie on first contact and resolves
// the signed-in user for bound tokens. Resolution failures degrade to a
// guest identity rather than failing the request.
func SessionMiddleware(sessions userports.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookieName)
		if err != nil || strings.TrimSpace(token) == "" {
			token = uuid.NewString()
			c.SetCookie(sessionCookieName, token, sessionCookieAge, "/", "", false, true)
		}
		identity := Identity{SessionKey: token}
		if sessions != nil {
			if userID, err := sessions.Resolve(c.Request.Context(), token); err == nil {
				identity.UserID = userID
			}
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

func identityFrom(c *gin.Context) Identity {
	if value, ok := c.Get(identityKey); ok {
		if identity, ok := value.(Identity); ok {
			return identity
		}
	}
	return Identity{}
}

// requireUser resolves the identity and rejects guests with a 401 problem.
func requireUser(c *gin.Context) (Identity, bool) {
	identity := identityFrom(c)
	if !identity.SignedIn() {
		respondProblem(c, apierrors.ErrUnauthorized.WithDetail("sign in required"))
		return identity, false
	}
	return identity, true
}
