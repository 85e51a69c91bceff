// Package http is the JSON API surface. Every /api route runs behind
// authentication; responses are built from the per-user session and the
// pure aggregation functions in core.
package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mfachrulrazy/smartgotrack-app/internal/assistant"
	"github.com/mfachrulrazy/smartgotrack-app/internal/auth"
	"github.com/mfachrulrazy/smartgotrack-app/internal/cache"
	"github.com/mfachrulrazy/smartgotrack-app/internal/chat"
	"github.com/mfachrulrazy/smartgotrack-app/internal/intake"
	"github.com/mfachrulrazy/smartgotrack-app/internal/log"
	"github.com/mfachrulrazy/smartgotrack-app/internal/session"
	"github.com/mfachrulrazy/smartgotrack-app/internal/store"
)

// Options carries the wired dependencies into NewServer.
type Options struct {
	Addr          string
	Store         store.Store
	Sessions      *session.Manager
	Intake        *intake.Service
	Chat          *chat.Service
	Assistant     assistant.Assistant
	Authenticator auth.Authenticator
	Logger        *log.Logger
	CacheSize     int
	CacheTTL      time.Duration
}

type appMetrics struct {
	uptime         time.Time
	totalRequests  int64
	totalPurchases int64
	chatMessages   int64
	cacheHits      int64
	cacheMisses    int64
}

type Server struct {
	http.Server

	store         store.Store
	sessions      *session.Manager
	intake        *intake.Service
	chat          *chat.Service
	assistant     assistant.Assistant
	authenticator auth.Authenticator
	logger        *log.Logger

	rateLimiter *rateLimiter

	// Per-user payload caches, invalidated whenever intake mutates the
	// session.
	dashboardCache *cache.LRUCache[dashboardResponse]
	reportCache    *cache.LRUCache[reportResponse]

	metrics appMetrics

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

func NewServer(opts Options) *Server {
	mux := http.NewServeMux()

	cacheSize := opts.CacheSize
	if cacheSize <= 0 {
		cacheSize = 100
	}
	cacheTTL := opts.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}

	s := &Server{
		Server: http.Server{
			Addr:    opts.Addr,
			Handler: mux,
		},
		store:            opts.Store,
		sessions:         opts.Sessions,
		intake:           opts.Intake,
		chat:             opts.Chat,
		assistant:        opts.Assistant,
		authenticator:    opts.Authenticator,
		logger:           opts.Logger.WithComponent(log.ComponentHTTP),
		rateLimiter:      newRateLimiter(),
		dashboardCache:   cache.NewLRUCache[dashboardResponse](cacheSize, cacheTTL),
		reportCache:      cache.NewLRUCache[reportResponse](cacheSize*2, cacheTTL),
		metrics:          appMetrics{uptime: time.Now()},
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/session", s.secure(s.handleSession))
	mux.HandleFunc("GET /api/purchases", s.secure(s.handleListPurchases))
	mux.HandleFunc("POST /api/purchases", s.secure(s.handleCreatePurchase))
	mux.HandleFunc("PUT /api/purchases/{id}", s.secure(s.handleUpdatePurchase))
	mux.HandleFunc("GET /api/dashboard", s.secure(s.handleDashboard))
	mux.HandleFunc("GET /api/compare", s.secure(s.handleCompare))
	mux.HandleFunc("GET /api/reports", s.secure(s.handleReport))
	mux.HandleFunc("POST /api/reports/insights", s.secure(s.handleInsights))
	mux.HandleFunc("GET /api/chat/messages", s.secure(s.handleChatHistory))
	mux.HandleFunc("POST /api/chat/messages", s.secure(s.handleChatMessage))
	mux.HandleFunc("POST /api/chat/confirm", s.secure(s.handleChatConfirm))
	mux.HandleFunc("POST /api/chat/reject", s.secure(s.handleChatReject))

	return s
}

// secure stacks the request middleware for API routes: headers, rate
// limiting, request logging and authentication.
func (s *Server) secure(next http.HandlerFunc) http.HandlerFunc {
	return s.withSecurityHeaders(s.withAuth(next))
}

func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		atomic.AddInt64(&s.metrics.totalRequests, 1)

		ip := clientIP(r)
		requestID := generateRequestID()
		r = r.WithContext(withRequestID(r.Context(), requestID))

		s.logger.InfoContext(r.Context(), "request started",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, ip,
			log.FieldUserAgent, r.Header.Get("User-Agent"))

		// Mutating requests are rate limited per client.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(ip) {
			s.logger.WarnContext(r.Context(), "rate limit exceeded",
				log.FieldClientIP, ip,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(r.Context(), "request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, ip)
	}
}

func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := s.authenticator.Authenticate(r)
		if err != nil {
			s.logger.WarnContext(r.Context(), "authentication failed",
				log.FieldPath, r.URL.Path,
				log.FieldError, err)
			respondError(w, http.StatusUnauthorized, auth.UserMessage(err))
			return
		}
		next(w, r.WithContext(auth.WithProfile(r.Context(), profile)))
	}
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			dashCleaned := s.dashboardCache.CleanExpired()
			reportCleaned := s.reportCache.CleanExpired()
			if dashCleaned > 0 || reportCleaned > 0 {
				s.logger.Debug("cache cleanup completed",
					"dashboard_entries_removed", dashCleaned,
					"report_entries_removed", reportCleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// invalidateUserCaches drops a user's cached payloads after a mutation.
func (s *Server) invalidateUserCaches(userID string) {
	s.dashboardCache.Delete(userID)
	s.reportCache.DeletePrefix(userID + "|")
}

// Shutdown stops the background cleanup goroutines and drains the HTTP
// server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
