package httpapi

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	json "github.com/goccy/go-json"

	"mrchooks/backend/internal/domain"
	"mrchooks/backend/internal/logging"
	"mrchooks/backend/internal/metrics"
	"mrchooks/backend/internal/service"
	"mrchooks/backend/internal/store"
	"mrchooks/backend/internal/validation"
)

const maxBodyBytes = 1 << 20

type Options struct {
	AllowedOrigins []string
	// LoginRateLimit is the number of login attempts per client per minute.
	LoginRateLimit int
}

type API struct {
	service *service.Service
	auth    *AuthManager
	opts    Options
}

func New(svc *service.Service, auth *AuthManager, opts Options) *API {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.LoginRateLimit <= 0 {
		opts.LoginRateLimit = 10
	}
	return &API{service: svc, auth: auth, opts: opts}
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(securityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, errors.New("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	})

	r.Get("/api/health", a.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.With(httprate.Limit(
		a.opts.LoginRateLimit,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, r, http.StatusTooManyRequests, errors.New("too many login attempts"))
		}),
	)).Post("/api/auth/login", a.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(a.requireAuth(domain.RoleEmployee, domain.RoleAdmin))

		r.Get("/api/products", a.handleListProducts)
		r.Get("/api/products/{id}", a.handleGetProduct)
		r.Get("/api/inventory", a.handleListInventory)
		r.Post("/api/sales", a.handleRecordSale)
		r.Get("/api/sales", a.handleListSales)
		r.Get("/api/sales/{id}", a.handleGetSale)
		r.Get("/api/discounts/usage", a.handleDiscountUsage)
		r.Get("/api/settings", a.handleListSettings)
		r.Get("/api/settings/{key}", a.handleGetSetting)
	})

	r.Group(func(r chi.Router) {
		r.Use(a.requireAuth(domain.RoleAdmin))

		r.Get("/api/users", a.handleListUsers)
		r.Post("/api/users", a.handleCreateUser)

		r.Post("/api/products", a.handleCreateProduct)
		r.Put("/api/products/{id}", a.handleUpdateProduct)
		r.Delete("/api/products/{id}", a.handleDeleteProduct)
		r.Put("/api/inventory/{productId}", a.handleAdjustInventory)

		r.Post("/api/losses", a.handleRecordLoss)
		r.Get("/api/losses", a.handleListLosses)

		r.Get("/api/expenses", a.handleListExpenses)
		r.Post("/api/expenses", a.handleCreateExpense)
		r.Delete("/api/expenses/{id}", a.handleDeleteExpense)

		r.Get("/api/deliveries", a.handleListDeliveries)
		r.Post("/api/deliveries", a.handleCreateDelivery)
		r.Delete("/api/deliveries/{id}", a.handleDeleteDelivery)

		r.Get("/api/unsold", a.handleListUnsold)
		r.Post("/api/unsold", a.handleCreateUnsold)

		r.Get("/api/purchase-orders", a.handleListPurchaseOrders)
		r.Post("/api/purchase-orders", a.handleCreatePurchaseOrder)
		r.Get("/api/purchase-orders/{id}", a.handleGetPurchaseOrder)
		r.Put("/api/purchase-orders/{id}", a.handleUpdatePurchaseOrder)
		r.Delete("/api/purchase-orders/{id}", a.handleDeletePurchaseOrder)

		r.Put("/api/settings/{key}", a.handlePutSetting)

		r.Get("/api/reports/daily", a.handleDailyReport)
		r.Get("/api/reports/summary", a.handleSummaryReport)
	})

	return r
}

func (a *API) requireAuth(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authorization := strings.TrimSpace(r.Header.Get("Authorization"))
			if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
				writeError(w, r, http.StatusUnauthorized, errors.New("missing bearer token"))
				return
			}

			actor, err := a.auth.ParseToken(strings.TrimSpace(authorization[len("Bearer "):]))
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, err)
				return
			}
			if len(roles) > 0 && !isRoleAllowed(actor.Role, roles) {
				writeError(w, r, http.StatusForbidden, errors.New("forbidden role"))
				return
			}

			ctx := service.WithActor(r.Context(), actor)
			logger := logging.Ctx(ctx).With().Str("actor", actor.Username).Logger()
			next.ServeHTTP(w, r.WithContext(logging.ContextWithLogger(ctx, logger)))
		})
	}
}

func isRoleAllowed(role string, allowed []string) bool {
	for _, allow := range allowed {
		if role == allow {
			return true
		}
	}
	return false
}

// requestID accepts a caller supplied X-Request-ID or mints one, and puts it
// on the logging context and the response.
func requestID(next http.Handler) http.Handler {
	chiRequestID := chimiddleware.RequestID(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(chimiddleware.RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = logging.GenerateRequestID()
			r.Header.Set(chimiddleware.RequestIDHeader, id)
		}
		w.Header().Set(chimiddleware.RequestIDHeader, id)
		chiRequestID.ServeHTTP(w, r.WithContext(logging.ContextWithRequestID(r.Context(), id)))
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logger := logging.Ctx(r.Context())
		event := logger.Info()
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(startedAt)).
			Msg("request")
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}

type envelope struct {
	OK   bool `json:"ok"`
	Data any  `json:"data"`
}

type errorBody struct {
	OK      bool                    `json:"ok"`
	Message string                  `json:"message"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errors.New("request body too large")
		}
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return errors.New("request body is empty")
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return errors.New("invalid JSON body: " + err.Error())
	}
	return nil
}

// errorStatus maps service and store errors onto HTTP statuses.
func errorStatus(err error) int {
	var verr *validation.RequestValidationError
	switch {
	case errors.Is(err, store.ErrInvalidInput), errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, errInvalidCredentials), errors.Is(err, errInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, errInactiveAccount):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, errorStatus(err), err)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	body := errorBody{OK: false, Message: err.Error()}
	if status >= 500 {
		logging.Ctx(r.Context()).Error().Err(err).Int("status", status).Str("path", r.URL.Path).Msg("internal error")
		body.Message = "internal server error"
	} else {
		var verr *validation.RequestValidationError
		if errors.As(err, &verr) {
			body.Fields = verr.Fields
		}
	}
	writeRaw(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	writeRaw(w, status, envelope{OK: true, Data: data})
}

func writeRaw(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
