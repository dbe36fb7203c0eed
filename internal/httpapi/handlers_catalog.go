package httpapi

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/gramseva/internal/domain"
)

const (
	contactNameMinLen    = 2
	contactNameMaxLen    = 100
	contactMessageMinLen = 10
	contactMessageMaxLen = 1000
)

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

func (s *Server) handleProducts(c *gin.Context) {
	search := c.Query("search")
	category := c.Query("category")

	products := s.catalog.Products(search, category)
	result := make([]productDTO, 0, len(products))
	for _, product := range products {
		result = append(result, toProductDTO(product))
	}
	c.JSON(http.StatusOK, gin.H{"products": result})
}

func (s *Server) handleServices(c *gin.Context) {
	services := s.catalog.Services()
	result := make([]serviceDTO, 0, len(services))
	for _, service := range services {
		result = append(result, serviceDTO{
			ID:          service.ID,
			Name:        service.Name,
			Description: service.Description,
			Icon:        service.Icon,
		})
	}
	c.JSON(http.StatusOK, gin.H{"services": result})
}

func (s *Server) handleNews(c *gin.Context) {
	news := s.catalog.News()
	result := make([]newsDTO, 0, len(news))
	for _, item := range news {
		result = append(result, newsDTO{
			ID:      item.ID,
			Title:   item.Title,
			Summary: item.Summary,
			Date:    item.Date,
			Content: item.Content,
		})
	}
	c.JSON(http.StatusOK, gin.H{"news": result})
}

type contactRequest struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (s *Server) handleContactSubmit(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	if err := validateContact(req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	stored, err := s.contacts.Add(domain.ContactSubmission{
		Name:    req.Name,
		Message: req.Message,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"submission": toContactDTO(stored)})
}

func (s *Server) handleContactList(c *gin.Context) {
	submissions, err := s.contacts.List()
	if err != nil {
		s.logger.WithError(err).Error("failed to list contact submissions")
		c.JSON(http.StatusInternalServerError, errorResponse("failed to list contact submissions"))
		return
	}

	result := make([]contactSubmissionDTO, 0, len(submissions))
	for _, submission := range submissions {
		result = append(result, toContactDTO(submission))
	}
	c.JSON(http.StatusOK, gin.H{"submissions": result})
}

func validateContact(req contactRequest) error {
	nameLen := utf8.RuneCountInString(strings.TrimSpace(req.Name))
	if nameLen < contactNameMinLen || nameLen > contactNameMaxLen {
		return domain.ErrContactNameInvalid
	}
	messageLen := utf8.RuneCountInString(strings.TrimSpace(req.Message))
	if messageLen < contactMessageMinLen || messageLen > contactMessageMaxLen {
		return domain.ErrContactMessageInvalid
	}
	return nil
}
