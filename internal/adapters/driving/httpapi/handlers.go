package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type queryRequest struct {
	Question string `json:"question"`
}

type queryResponse struct {
	Answer   string `json:"answer"`
	Question string `json:"question"`
}

type statsResponse struct {
	CollectionName string `json:"collection_name"`
	DocumentCount  *int   `json:"document_count"`
	CountAvailable bool   `json:"count_available"`
}

func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please provide a question"})
		return
	}

	answer, err := s.query.Ask(c.Request.Context(), question)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, queryResponse{Answer: answer.Answer, Question: question})
}

func (s *Server) handleStats(c *gin.Context) {
	stats := s.query.Stats(c.Request.Context())

	resp := statsResponse{CollectionName: stats.Collection, CountAvailable: stats.CountAvailable}
	if stats.CountAvailable {
		n := stats.DocumentCount
		resp.DocumentCount = &n
	}
	c.JSON(http.StatusOK, resp)
}
