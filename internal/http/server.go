package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"beautystats/internal/auth"
	"beautystats/internal/cache"
	"beautystats/internal/core"
	"beautystats/internal/log"
	"beautystats/internal/middleware/ratelimit"
	"beautystats/internal/middleware/security"
	"beautystats/internal/middleware/trace"
	"beautystats/internal/services"
)

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the collaborators of the API server. DepartmentCache is
// optional and only read for metrics.
type Dependencies struct {
	Accounts        *services.AccountService
	Incomes         *services.IncomeService
	Tokens          *auth.TokenManager
	DB              Pinger
	DepartmentCache *cache.LRUCache[core.Department]
	Logger          *log.Logger
	RateLimit       ratelimit.Config
}

type Server struct {
	http.Server

	accounts *services.AccountService
	incomes  *services.IncomeService
	tokens   *auth.TokenManager
	db       Pinger
	logger   *log.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	departmentCache  *cache.LRUCache[core.Department]

	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	registrations atomic.Int64
	logins        atomic.Int64
	incomes       atomic.Int64
	uptime        time.Time
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		accounts:         deps.Accounts,
		incomes:          deps.Incomes,
		tokens:           deps.Tokens,
		db:               deps.DB,
		logger:           logger,
		rateLimiter:      ratelimit.NewLimiter(deps.RateLimit),
		securityDetector: security.NewDetector(),
		departmentCache:  deps.DepartmentCache,
		appMetrics:       &appMetrics{uptime: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)

	protected := func(h http.HandlerFunc) http.Handler {
		return s.tokens.Middleware(h)
	}
	mux.Handle("GET /api/profile", protected(s.handleGetProfile))
	mux.Handle("PATCH /api/profile", protected(s.handleUpdateProfile))
	mux.Handle("POST /api/new_income", protected(s.handleNewIncome))
	mux.Handle("GET /api/historic", protected(s.handleHistoric))
	mux.Handle("GET /api/statistics", protected(s.handleStatistics))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, ratelimit.MutatingOnly,
		func(w http.ResponseWriter, r *http.Request) {
			s.logger.WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldComponent, log.ComponentRateLimit)
			TooManyRequestsError().Write(w)
		})

	var handler http.Handler = mux
	handler = limit(handler)
	handler = s.securityDetector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and drains the HTTP server. It is safe to
// call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
