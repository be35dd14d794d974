package main

import (
  "context"
  "errors"
  "fmt"
  "io"
  "net/http"
  "os"
  "os/signal"
  "syscall"
  "time"
  "github.com/Krisnegi/rag-knowledge-engine/internal/clients/redis"
  "github.com/Krisnegi/rag-knowledge-engine/internal/db"
  "github.com/Krisnegi/rag-knowledge-engine/internal/logger"
  "github.com/Krisnegi/rag-knowledge-engine/internal/repos"
  "github.com/Krisnegi/rag-knowledge-engine/internal/types"
  "github.com/Krisnegi/rag-knowledge-engine/internal/utils"
)

// The scrape worker drains scraping_queue and advances each referenced
// document through PROCESSING to DONE or FAILED. Delivery is
// at-least-once; the status guard in DocumentRepo.MarkStatus makes a
// redelivered job a no-op once the document is terminal.

const maxFetchBytes = 4 << 20

func main() {
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  baseLog, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer baseLog.Sync()
  log := baseLog.With("service", "ScrapeWorker")

  postgresService, err := db.NewPostgresService(baseLog)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  documentRepo := repos.NewDocumentRepo(postgresService.DB(), baseLog)

  jobQueue, err := redis.NewJobQueue(baseLog)
  if err != nil {
    log.Error("Could not init job queue", "error", err)
    os.Exit(1)
  }
  defer jobQueue.Close()

  fetchTimeout := utils.GetEnvAsDuration("SCRAPE_FETCH_TIMEOUT", 30*time.Second, baseLog)
  httpClient := &http.Client{Timeout: fetchTimeout}

  ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
  defer stop()

  log.Info("Worker listening", "queue", redis.DefaultQueueName)
  for {
    job, err := jobQueue.Pop(ctx, 5*time.Second)
    if err != nil {
      if ctx.Err() != nil {
        log.Info("Worker shutting down")
        return
      }
      if errors.Is(err, context.Canceled) {
        return
      }
      // Malformed payloads and transient redis failures both land here;
      // neither should kill the loop.
      log.Warn("Queue pop failed", "error", err)
      time.Sleep(time.Second)
      continue
    }
    if job == nil {
      continue
    }
    processJob(ctx, log, documentRepo, httpClient, job)
  }
}

func processJob(ctx context.Context, log *logger.Logger, documentRepo repos.DocumentRepo, httpClient *http.Client, job *types.ScrapeJob) {
  log.Info("Processing job", "job_id", job.JobID, "url", job.URL)

  if err := documentRepo.MarkStatus(ctx, nil, job.JobID, types.StatusProcessing); err != nil {
    log.Warn("Failed to mark document processing", "job_id", job.JobID, "error", err)
    return
  }

  status := types.StatusDone
  if err := fetchURL(ctx, httpClient, job.URL); err != nil {
    log.Warn("Fetch failed", "job_id", job.JobID, "error", err)
    status = types.StatusFailed
  }
  if err := documentRepo.MarkStatus(ctx, nil, job.JobID, status); err != nil {
    log.Warn("Failed to mark document terminal", "job_id", job.JobID, "status", status, "error", err)
    return
  }
  log.Info("Job completed", "job_id", job.JobID, "status", status)
}

func fetchURL(ctx context.Context, httpClient *http.Client, url string) error {
  req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
  if err != nil {
    return err
  }
  resp, err := httpClient.Do(req)
  if err != nil {
    return err
  }
  defer resp.Body.Close()
  if resp.StatusCode < 200 || resp.StatusCode >= 300 {
    return fmt.Errorf("fetch returned status %d", resp.StatusCode)
  }
  _, err = io.Copy(io.Discard, io.LimitReader(resp.Body, maxFetchBytes))
  return err
}
