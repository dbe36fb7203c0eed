package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/gramseva/internal/auth"
	"github.com/vladislavdragonenkov/gramseva/internal/domain"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	user, token, err := s.auth.Register(auth.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Password: req.Password,
	})
	switch {
	case errors.Is(err, domain.ErrUserExists):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
		return
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, errorResponse("name, email and password are required"))
		return
	case err != nil:
		s.logger.WithError(err).Error("registration failed")
		c.JSON(http.StatusInternalServerError, errorResponse("registration failed"))
		return
	}

	c.JSON(http.StatusCreated, authResponse{User: toUserDTO(user), Token: token})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	user, token, err := s.auth.Login(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, errorResponse(domain.ErrInvalidCredentials.Error()))
		return
	}

	c.JSON(http.StatusOK, authResponse{User: toUserDTO(user), Token: token})
}

func (s *Server) handleLogout(c *gin.Context) {
	s.auth.Logout(c.GetString(ctxKeyToken))
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
