package api

import (
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kisanmitra/advisory/internal/models"
	"github.com/kisanmitra/advisory/internal/service"
	"go.uber.org/zap"
)

// Client-facing error messages.
const (
	msgNotJSON       = "Content-Type must be application/json"
	msgNoJSON        = "No JSON data provided"
	msgInvalidJSON   = "Invalid JSON body"
	msgQueryRequired = "Query field is required"
	msgEmptyQuery    = "Query cannot be empty"
	msgInternal      = "Internal server error occurred"
)

type queryRequest struct {
	Query    *string `json:"query"`
	Language *string `json:"language"`
}

type queryResponse struct {
	Success  bool            `json:"success"`
	Response string          `json:"response"`
	Category models.Category `json:"category"`
	Language string          `json:"language"`
	IsDemo   bool            `json:"is_demo"`
	Source   string          `json:"source"`
}

type statsResponse struct {
	models.Stats
	APIStatus string `json:"api_status"`
}

type healthResponse struct {
	Status           string `json:"status"`
	OpenAIAvailable  bool   `json:"openai_available"`
	APIKeyConfigured bool   `json:"api_key_configured"`
	Timestamp        string `json:"timestamp"`
}

func errorBody(msg string) gin.H {
	return gin.H{"success": false, "error": msg}
}

func (s *Server) handleQuery(c *gin.Context) {
	if c.ContentType() != gin.MIMEJSON {
		c.JSON(http.StatusBadRequest, errorBody(msgNotJSON))
		return
	}

	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, errorBody(msgNoJSON))
			return
		}
		s.logger.Debug("Rejected query body", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorBody(msgInvalidJSON))
		return
	}
	if req.Query == nil {
		c.JSON(http.StatusBadRequest, errorBody(msgQueryRequired))
		return
	}

	language := models.DefaultLanguage
	if req.Language != nil && *req.Language != "" {
		language = *req.Language
	}

	result, err := s.advisor.Ask(c.Request.Context(), *req.Query, language)
	switch {
	case errors.Is(err, service.ErrEmptyQuery):
		c.JSON(http.StatusBadRequest, errorBody(msgEmptyQuery))
		return
	case err != nil:
		s.logger.Error("Query processing failed",
			zap.Error(err),
			zap.String("request_id", c.GetString(requestIDHeader)))
		c.JSON(http.StatusInternalServerError, errorBody(msgInternal))
		return
	}

	c.JSON(http.StatusOK, queryResponse{
		Success:  true,
		Response: result.Response,
		Category: result.Category,
		Language: result.Language,
		IsDemo:   result.IsDemo,
		Source:   result.Source,
	})
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.advisor.Stats(c.Request.Context())
	if err != nil {
		s.logger.Error("Stats error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, statsResponse{
		Stats:     stats,
		APIStatus: models.SourceTag(s.advisor.RemoteEnabled()),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:           "healthy",
		OpenAIAvailable:  s.advisor.RemoteEnabled(),
		APIKeyConfigured: s.opts.APIKeyConfigured,
		Timestamp:        s.now().Format(time.RFC3339),
	})
}

func (s *Server) handleIndex(c *gin.Context) {
	status := "❌ Demo Mode"
	if s.advisor.RemoteEnabled() {
		status = "✅ Connected"
	}

	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>KisanMitra</title></head>
<body>
<h1>🌾 KisanMitra - AI Krishi Officer</h1>
<p>OpenAI Status: %s</p>
<p>API endpoint: /api/query</p>
</body>
</html>
`, html.EscapeString(status))

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}
