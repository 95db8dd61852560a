package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/duynhne/callerid-service/internal/core/domain"
	logicv1 "github.com/duynhne/callerid-service/internal/logic/v1"
	"github.com/duynhne/callerid-service/middleware"
)

// ContactResponse is the wire form of a contact.
type ContactResponse struct {
	ID             int64             `json:"id"`
	Name           string            `json:"name"`
	PhoneNumber    string            `json:"phone_number"`
	SpamLikelihood domain.Likelihood `json:"spam_likelihood"`
	SpamReported   bool              `json:"spam_reported"`
}

func toContactResponse(c *domain.Contact) ContactResponse {
	return ContactResponse{
		ID:             c.ID,
		Name:           c.Name,
		PhoneNumber:    c.PhoneNumber,
		SpamLikelihood: domain.LikelihoodFromCount(c.ReportCount),
		SpamReported:   c.SpamReported,
	}
}

// ContactHandler serves the caller's own address book
type ContactHandler struct {
	service *logicv1.ContactService
}

// NewContactHandler creates a new contact handler
func NewContactHandler(service *logicv1.ContactService) *ContactHandler {
	return &ContactHandler{service: service}
}

// List handles GET /contacts
func (h *ContactHandler) List(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()

	contacts, err := h.service.List(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		respondError(c, span, middleware.GetLoggerFromGinContext(c), "Failed to list contacts", err)
		return
	}

	out := make([]ContactResponse, 0, len(contacts))
	for i := range contacts {
		out = append(out, toContactResponse(&contacts[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Get handles GET /contacts/:id
func (h *ContactHandler) Get(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()

	id, ok := contactID(c)
	if !ok {
		return
	}
	contact, err := h.service.Get(c.Request.Context(), middleware.AccountID(c), id)
	if err != nil {
		respondError(c, span, middleware.GetLoggerFromGinContext(c), "Failed to get contact", err)
		return
	}
	c.JSON(http.StatusOK, toContactResponse(contact))
}

// Create handles POST /contacts
func (h *ContactHandler) Create(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()

	var in domain.ContactInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": sanitizeValidationError(err)})
		return
	}

	contact, err := h.service.Create(c.Request.Context(), middleware.AccountID(c), in)
	if err != nil {
		respondError(c, span, middleware.GetLoggerFromGinContext(c), "Failed to create contact", err)
		return
	}
	c.JSON(http.StatusCreated, toContactResponse(contact))
}

// Replace handles PUT /contacts/:id; both fields must be present.
func (h *ContactHandler) Replace(c *gin.Context) {
	h.update(c, false)
}

// Patch handles PATCH /contacts/:id; absent fields are kept.
func (h *ContactHandler) Patch(c *gin.Context) {
	h.update(c, true)
}

func (h *ContactHandler) update(c *gin.Context, partial bool) {
	span := startRequestSpan(c)
	defer span.End()

	id, ok := contactID(c)
	if !ok {
		return
	}
	var in domain.ContactInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": sanitizeValidationError(err)})
		return
	}
	if !partial {
		var missing domain.ValidationError
		if in.Name == nil {
			missing.Add("name", domain.ErrInvalidContact)
		}
		if in.PhoneNumber == nil {
			missing.Add("phone_number", domain.ErrInvalidContact)
		}
		if err := missing.OrNil(); err != nil {
			respondError(c, span, middleware.GetLoggerFromGinContext(c), "Incomplete contact replacement", err)
			return
		}
	}

	contact, err := h.service.Update(c.Request.Context(), middleware.AccountID(c), id, in)
	if err != nil {
		respondError(c, span, middleware.GetLoggerFromGinContext(c), "Failed to update contact", err)
		return
	}
	c.JSON(http.StatusOK, toContactResponse(contact))
}

// Delete handles DELETE /contacts/:id
func (h *ContactHandler) Delete(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()

	id, ok := contactID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.AccountID(c), id); err != nil {
		respondError(c, span, middleware.GetLoggerFromGinContext(c), "Failed to delete contact", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// contactID parses :id; a malformed id is answered as a missing contact.
func contactID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": publicMessage(domain.ErrContactNotFound)})
		return 0, false
	}
	return id, true
}
