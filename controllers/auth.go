package controllers

import (
	"net/http"
	"strings"
	"time"

	"yogastore-backend/services"
	"yogastore-backend/utils"

	"github.com/gin-gonic/gin"
)

type RegisterInput struct {
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
	Name            string `json:"name" binding:"required"`
	PhoneNumber     string `json:"phoneNumber"`
	DateOfBirth     string `json:"dateOfBirth"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthController struct {
	auth     *services.AuthService
	profiles *services.ProfileService
	maxAge   int
}

func NewAuthController(auth *services.AuthService, profiles *services.ProfileService, sessionHours int) *AuthController {
	return &AuthController{auth: auth, profiles: profiles, maxAge: sessionHours * 3600}
}

// Register creates the account. The caller still has to log in.
func (ac *AuthController) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	customer, err := ac.auth.SignUp(c.Request.Context(), services.SignUpInput{
		Email:           input.Email,
		Password:        input.Password,
		ConfirmPassword: input.ConfirmPassword,
		Name:            input.Name,
		PhoneNumber:     input.PhoneNumber,
		DateOfBirth:     input.DateOfBirth,
	})
	if err != nil {
		respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Registration successful, please log in",
		"customer": customer,
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	signed, err := ac.auth.SignIn(c.Request.Context(), strings.TrimSpace(input.Email), input.Password)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}

	c.SetCookie(tokenCookie, signed.Token, ac.maxAge, "/", "", true, true)
	c.JSON(http.StatusOK, gin.H{
		"token":   signed.Token,
		"session": signed.Session,
	})
}

func (ac *AuthController) Logout(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	if err := ac.auth.SignOut(c.Request.Context(), sess); err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.SetCookie(tokenCookie, "", -1, "/", "", true, true)
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

func (ac *AuthController) Me(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	customer, err := ac.profiles.Profile(c.Request.Context(), sess.CustomerID)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	resp := gin.H{
		"session":  sess,
		"customer": customer,
	}
	if joined, ok := utils.ParseDate(customer.DateCreated); ok {
		resp["memberForDays"] = utils.DaysBetween(joined, time.Now())
	}
	c.JSON(http.StatusOK, resp)
}
