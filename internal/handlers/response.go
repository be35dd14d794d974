package handlers

import (
  "errors"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/Krisnegi/rag-knowledge-engine/internal/services"
)

type APIError struct {
  Message string `json:"message"`
  Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
  Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
  msg := "unknown error"
  if err != nil {
    msg = err.Error()
  }
  c.JSON(status, ErrorEnvelope{
    Error: APIError{
      Message: msg,
      Code:    code,
    },
  })
}

func RespondOK(c *gin.Context, payload any) {
  c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps the service error taxonomy onto HTTP statuses.
// Untyped errors become a generic 500 without leaking store internals.
func RespondServiceError(c *gin.Context, err error) {
  var validationErr *services.ValidationError
  var conflictErr *services.ConflictError
  var authErr *services.AuthenticationError
  var downstreamErr *services.DownstreamError
  switch {
  case errors.As(err, &validationErr):
    RespondError(c, http.StatusBadRequest, "validation_failed", validationErr)
  case errors.As(err, &conflictErr):
    RespondError(c, http.StatusConflict, "conflict", conflictErr)
  case errors.As(err, &authErr):
    RespondError(c, http.StatusUnauthorized, "unauthorized", authErr)
  case errors.As(err, &downstreamErr):
    RespondError(c, http.StatusBadGateway, "backend_unavailable", downstreamErr)
  default:
    RespondError(c, http.StatusInternalServerError, "internal_error", errors.New("internal error"))
  }
}
