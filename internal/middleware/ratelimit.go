package middleware

import (
  "net/http"
  "sync"
  "time"
  "github.com/gin-gonic/gin"
  "golang.org/x/time/rate"
  "github.com/Krisnegi/rag-knowledge-engine/internal/logger"
)

// RateLimitMiddleware applies a per-client-IP token bucket across the whole
// surface. Stale buckets are dropped after an idle period so the map does
// not grow with every client ever seen.
type RateLimitMiddleware struct {
  log        *logger.Logger
  mu         sync.Mutex
  clients    map[string]*clientLimiter
  perMinute  int
  burst      int
  idleExpiry time.Duration
  stop       chan struct{}
  stopOnce   sync.Once
}

type clientLimiter struct {
  limiter  *rate.Limiter
  lastSeen time.Time
}

func NewRateLimitMiddleware(log *logger.Logger, perMinute int) *RateLimitMiddleware {
  if perMinute <= 0 {
    perMinute = 10
  }
  m := &RateLimitMiddleware{
    log:        log.With("middleware", "RateLimitMiddleware"),
    clients:    make(map[string]*clientLimiter),
    perMinute:  perMinute,
    burst:      perMinute,
    idleExpiry: 3 * time.Minute,
    stop:       make(chan struct{}),
  }
  go m.cleanupLoop()
  return m
}

// Close stops the janitor goroutine. Safe to call more than once.
func (rl *RateLimitMiddleware) Close() {
  rl.stopOnce.Do(func() {
    close(rl.stop)
  })
}

func (rl *RateLimitMiddleware) Limit() gin.HandlerFunc {
  return func(c *gin.Context) {
    if !rl.allow(c.ClientIP()) {
      rl.log.Warn("Request rate limited", "client_ip", c.ClientIP(), "path", c.FullPath())
      c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
      return
    }
    c.Next()
  }
}

func (rl *RateLimitMiddleware) allow(clientIP string) bool {
  rl.mu.Lock()
  defer rl.mu.Unlock()
  cl, ok := rl.clients[clientIP]
  if !ok {
    cl = &clientLimiter{
      limiter: rate.NewLimiter(rate.Limit(float64(rl.perMinute)/60.0), rl.burst),
    }
    rl.clients[clientIP] = cl
  }
  cl.lastSeen = time.Now()
  return cl.limiter.Allow()
}

func (rl *RateLimitMiddleware) cleanupLoop() {
  ticker := time.NewTicker(time.Minute)
  defer ticker.Stop()
  for {
    select {
    case <-rl.stop:
      return
    case <-ticker.C:
      rl.evictIdle(time.Now().Add(-rl.idleExpiry))
    }
  }
}

func (rl *RateLimitMiddleware) evictIdle(cutoff time.Time) {
  rl.mu.Lock()
  defer rl.mu.Unlock()
  for ip, cl := range rl.clients {
    if cl.lastSeen.Before(cutoff) {
      delete(rl.clients, ip)
    }
  }
}
