package handlers

import (
  "fmt"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/Krisnegi/rag-knowledge-engine/internal/requestdata"
  "github.com/Krisnegi/rag-knowledge-engine/internal/services"
)

type ChatHandler struct {
  chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
  return &ChatHandler{chatService: chatService}
}

// POST /api/chat
func (ch *ChatHandler) Converse(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request identity"))
    return
  }
  var req struct {
    Query     string `json:"query"`
    SessionID string `json:"session_id"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("invalid request body"))
    return
  }

  ref := services.NewConversation()
  if req.SessionID != "" {
    sessionID, err := uuid.Parse(req.SessionID)
    if err != nil {
      RespondError(c, http.StatusBadRequest, "invalid_session_id", fmt.Errorf("invalid session id"))
      return
    }
    ref = services.ExistingConversation(sessionID)
  }

  result, err := ch.chatService.Converse(c.Request.Context(), rd.UserID, req.Query, ref)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, result)
}

// GET /api/chat/history
func (ch *ChatHandler) History(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request identity"))
    return
  }
  history, err := ch.chatService.History(c.Request.Context(), rd.UserID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"sessions": history})
}
