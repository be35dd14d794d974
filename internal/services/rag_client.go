package services

import (
  "bytes"
  "context"
  "encoding/json"
  "fmt"
  "io"
  "net/http"
  "github.com/google/uuid"
  "github.com/Krisnegi/rag-knowledge-engine/internal/logger"
  "github.com/Krisnegi/rag-knowledge-engine/internal/types"
  "github.com/Krisnegi/rag-knowledge-engine/internal/utils"
)

// RagClient is the synchronous contract with the inference backend. The
// call blocks for the full round trip; timeout policy belongs to the
// injected http.Client and the request context, not to this client.
type RagClient interface {
  Ask(ctx context.Context, query string, userID uuid.UUID) (*RagAnswer, error)
}

type RagAnswer struct {
  Answer  string           `json:"answer"`
  Sources []types.Citation `json:"sources"`
}

type ragClient struct {
  httpClient *http.Client
  log        *logger.Logger
  baseURL    string
}

func NewRagClient(log *logger.Logger, httpClient *http.Client) RagClient {
  serviceLog := log.With("service", "RagClient")
  baseURL := utils.GetEnv("RAG_ENGINE_URL", "http://localhost:8000/rag-chat", log)
  if httpClient == nil {
    httpClient = http.DefaultClient
  }
  return &ragClient{
    httpClient: httpClient,
    log:        serviceLog,
    baseURL:    baseURL,
  }
}

func (c *ragClient) Ask(ctx context.Context, query string, userID uuid.UUID) (*RagAnswer, error) {
  payload := map[string]string{
    "query":   query,
    "user_id": userID.String(),
  }
  body, err := json.Marshal(payload)
  if err != nil {
    return nil, err
  }
  req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
  if err != nil {
    return nil, err
  }
  req.Header.Set("Content-Type", "application/json")

  resp, err := c.httpClient.Do(req)
  if err != nil {
    return nil, &DownstreamError{Err: fmt.Errorf("rag engine unreachable: %w", err)}
  }
  defer resp.Body.Close()

  if resp.StatusCode < 200 || resp.StatusCode >= 300 {
    raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
    c.log.Warn("Rag engine returned non-success", "status", resp.StatusCode, "body", string(raw))
    return nil, &DownstreamError{Err: fmt.Errorf("rag engine returned status %d", resp.StatusCode)}
  }

  var answer RagAnswer
  if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
    return nil, &DownstreamError{Err: fmt.Errorf("rag engine response decode: %w", err)}
  }
  if answer.Sources == nil {
    answer.Sources = []types.Citation{}
  }
  return &answer, nil
}
