package handlers

import (
  "fmt"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/Krisnegi/rag-knowledge-engine/internal/requestdata"
  "github.com/Krisnegi/rag-knowledge-engine/internal/services"
)

type IngestionHandler struct {
  ingestionService services.IngestionService
}

func NewIngestionHandler(ingestionService services.IngestionService) *IngestionHandler {
  return &IngestionHandler{ingestionService: ingestionService}
}

// POST /api/ingestion
func (ih *IngestionHandler) Submit(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request identity"))
    return
  }
  var req struct {
    URL string `json:"url"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("invalid request body"))
    return
  }
  result, err := ih.ingestionService.Submit(c.Request.Context(), rd.UserID, req.URL)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusAccepted, gin.H{"job_id": result.JobID, "status": result.Status})
}
