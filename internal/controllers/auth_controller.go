package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rideshare/internal/middleware"
	"rideshare/internal/services"
)

type AuthController struct {
	profiles *services.Profiles
}

func NewAuthController(profiles *services.Profiles) *AuthController {
	return &AuthController{profiles: profiles}
}

func (a *AuthController) Signup(c *gin.Context) {
	var input services.SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := a.profiles.Signup(input)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := middleware.GenerateToken(profile.ID, profile.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "profile": profile})
}

func (a *AuthController) Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := a.profiles.Login(body.Email, body.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found or invalid credentials"})
		return
	}

	token, err := middleware.GenerateToken(profile.ID, profile.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "profile": profile})
}

// AddCar registers a car under the authenticated driver.
func (a *AuthController) AddCar(c *gin.Context) {
	var input services.CarInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid car input: " + err.Error()})
		return
	}

	car, err := a.profiles.AddCar(middleware.UserID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"car": car})
}

func (a *AuthController) MyCars(c *gin.Context) {
	cars, err := a.profiles.CarsByDriver(middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cars": cars})
}
