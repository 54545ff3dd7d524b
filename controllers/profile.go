package controllers

import (
	"net/http"

	"yogastore-backend/services"
	"yogastore-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type UpdateProfileInput struct {
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	PhoneNumber     *string `json:"phoneNumber"`
	DateOfBirth     *string `json:"dateOfBirth"`
	ImageURL        *string `json:"imageUrl"`
	CurrentPassword string  `json:"currentPassword"`
	NewPassword     string  `json:"newPassword"`
	ConfirmPassword string  `json:"confirmPassword"`
}

type TopUpInput struct {
	Amount decimal.Decimal `json:"amount"`
}

type ProfileController struct {
	profiles *services.ProfileService
}

func NewProfileController(profiles *services.ProfileService) *ProfileController {
	return &ProfileController{profiles: profiles}
}

func (pc *ProfileController) GetProfile(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	customer, err := pc.profiles.Profile(c.Request.Context(), sess.CustomerID)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (pc *ProfileController) UpdateProfile(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	customer, err := pc.profiles.UpdateProfile(c.Request.Context(), sess.CustomerID, services.ProfileUpdate{
		Name:            input.Name,
		Email:           input.Email,
		PhoneNumber:     input.PhoneNumber,
		DateOfBirth:     input.DateOfBirth,
		ImageURL:        input.ImageURL,
		CurrentPassword: input.CurrentPassword,
		NewPassword:     input.NewPassword,
		ConfirmPassword: input.ConfirmPassword,
	})
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Profile updated successfully",
		"customer": customer,
	})
}

func (pc *ProfileController) GetTransactions(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	txns, err := pc.profiles.Transactions(c.Request.Context(), sess.CustomerID)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txns})
}

func (pc *ProfileController) TopUp(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	var input TopUpInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Please enter a valid amount")
		return
	}
	result, err := pc.profiles.TopUp(c.Request.Context(), sess.CustomerID, input.Amount)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (pc *ProfileController) GetLedger(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	ledger, err := pc.profiles.Ledger(c.Request.Context(), sess.CustomerID)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ledger)
}
