package types

import (
  "github.com/google/uuid"
)

// ScrapeJob is the queue message handed to the scrape worker. It is never
// persisted by the gateway; JobID doubles as the Document primary key so the
// worker can report progress back into the document table.
type ScrapeJob struct {
  JobID  uuid.UUID `json:"jobId"`
  URL    string    `json:"url"`
  UserID uuid.UUID `json:"userId"`
}
