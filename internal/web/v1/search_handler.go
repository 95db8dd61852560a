package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/duynhne/callerid-service/internal/core/domain"
	logicv1 "github.com/duynhne/callerid-service/internal/logic/v1"
	"github.com/duynhne/callerid-service/middleware"
)

// NameResult is one row of a name search.
type NameResult struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

// PhoneResult is one row of a phone search.
type PhoneResult struct {
	Name           string            `json:"name"`
	PhoneNumber    string            `json:"phone_number"`
	SpamLikelihood domain.Likelihood `json:"spam_likelihood"`
	IsRegistered   bool              `json:"is_registered"`
	ContactCount   *int              `json:"contact_count,omitempty"`
	Email          *string           `json:"email"`
}

// SearchHandler serves the global directory lookup
type SearchHandler struct {
	service *logicv1.SearchService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(service *logicv1.SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

// Search handles GET /search?q=<query>&type=name|phone
func (h *SearchHandler) Search(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()
	logger := middleware.GetLoggerFromGinContext(c)

	mode := domain.ParseSearchMode(c.Query("type"))
	results, err := h.service.Search(c.Request.Context(), c.Query("q"), mode, middleware.AccountID(c))
	if errors.Is(err, domain.ErrNoResults) {
		c.JSON(http.StatusOK, gin.H{"message": publicMessage(err), "results": []PhoneResult{}})
		return
	}
	if err != nil {
		respondError(c, span, logger, "Search failed", err)
		return
	}

	logger.Debug("Search completed",
		zap.String("mode", string(mode)),
		zap.Int("results", len(results)),
	)

	if mode == domain.SearchByPhone {
		c.JSON(http.StatusOK, toPhoneResults(results))
		return
	}
	c.JSON(http.StatusOK, toNameResults(results))
}

func toNameResults(results []domain.SearchResult) []NameResult {
	out := make([]NameResult, 0, len(results))
	for _, r := range results {
		out = append(out, NameResult{Name: r.Name, PhoneNumber: r.PhoneNumber})
	}
	return out
}

func toPhoneResults(results []domain.SearchResult) []PhoneResult {
	out := make([]PhoneResult, 0, len(results))
	for _, r := range results {
		out = append(out, PhoneResult{
			Name:           r.Name,
			PhoneNumber:    r.PhoneNumber,
			SpamLikelihood: r.SpamLikelihood,
			IsRegistered:   r.IsRegistered,
			ContactCount:   r.ContactCount,
			Email:          r.Email,
		})
	}
	return out
}
