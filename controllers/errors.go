package controllers

import (
	"errors"
	"net/http"

	"yogastore-backend/services"
	"yogastore-backend/session"
	"yogastore-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondWithServiceError maps service error kinds to status codes and the
// messages shown to customers.
func respondWithServiceError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.RespondWithError(c, http.StatusBadRequest, verr.Message)
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, services.ErrUnauthenticated):
		utils.RespondWithError(c, http.StatusUnauthorized, "Please log in to continue")
	case errors.Is(err, services.ErrInsufficientFunds):
		utils.RespondWithError(c, http.StatusPaymentRequired, "Insufficient balance")
	case errors.Is(err, services.ErrEmailTaken):
		utils.RespondWithError(c, http.StatusConflict, "Email already registered")
	case errors.Is(err, services.ErrNotFound):
		utils.RespondWithError(c, http.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrPurchaseFailed):
		logrus.WithError(err).Error("purchase failed")
		utils.RespondWithError(c, http.StatusServiceUnavailable, "Purchase failed, please try again")
	case errors.Is(err, services.ErrStoreUnavailable):
		logrus.WithError(err).Error("store unavailable")
		utils.RespondWithError(c, http.StatusServiceUnavailable, "Service temporarily unavailable")
	default:
		logrus.WithError(err).Error("unhandled error")
		utils.RespondWithError(c, http.StatusInternalServerError, "Something went wrong")
	}
}

// currentSession returns the request's session or responds 401.
func currentSession(c *gin.Context) (*session.Session, bool) {
	s := session.FromContext(c)
	if s == nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Please log in to continue")
		return nil, false
	}
	return s, true
}
