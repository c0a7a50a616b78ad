package shopserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	userapp "github.com/meganoshop/backend/internal/domains/users/application"
	userports "github.com/meganoshop/backend/internal/domains/users/ports"
)

// UserAPI serves the minimal auth surface: sign-up, sign-in, sign-out.
// Signing in binds the session token and folds the guest cart into the
// account's basket.
type UserAPI struct {
	users userports.Service
}

// NewUserAPI wires dependencies.
func NewUserAPI(users userports.Service) UserAPI {
	return UserAPI{users: users}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Post /api/sign-up
func (api *UserAPI) SignUp(c *gin.Context) {
	var payload credentialsRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	identity := identityFrom(c)
	user, err := api.users.Register(c.Request.Context(), identity.SessionKey, payload.Username, payload.Password)
	if err != nil {
		respondUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponse{ID: user.ID, Username: user.Username, FullName: user.FullName, Email: user.Email})
}

// Post /api/sign-in
func (api *UserAPI) SignIn(c *gin.Context) {
	var payload credentialsRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	identity := identityFrom(c)
	user, err := api.users.Login(c.Request.Context(), identity.SessionKey, payload.Username, payload.Password)
	if err != nil {
		respondUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponse{ID: user.ID, Username: user.Username, FullName: user.FullName, Email: user.Email})
}

// Post /api/sign-out
func (api *UserAPI) SignOut(c *gin.Context) {
	identity := identityFrom(c)
	if err := api.users.Logout(c.Request.Context(), identity.SessionKey); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

func respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, userapp.ErrAuthentication):
		respondError(c, http.StatusUnauthorized, err)
	case errors.Is(err, userapp.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, err)
	case errors.Is(err, userports.ErrNotFound):
		respondError(c, http.StatusNotFound, err)
	default:
		respondError(c, http.StatusInternalServerError, err)
	}
}
