package featurekit

import (
	"errors"
	"net/http"
)

// Middleware provides HTTP middleware for feature and role checking.
type Middleware struct {
	service      *Service
	getUser      func(*http.Request) (User, bool)
	errorHandler func(http.ResponseWriter, *http.Request, error)
}

// MiddlewareOption configures the Middleware.
type MiddlewareOption func(*Middleware)

// NewMiddleware creates a new Middleware instance.
//
// Example:
//
//	mw := featurekit.NewMiddleware(service,
//	    featurekit.WithUserExtractor(func(r *http.Request) (featurekit.User, bool) {
//	        return sessionUser(r)
//	    }),
//	)
func NewMiddleware(service *Service, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		service:      service,
		getUser:      defaultGetUser,
		errorHandler: defaultErrorHandler,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// WithUserExtractor sets a custom function to extract the user from a request.
func WithUserExtractor(fn func(*http.Request) (User, bool)) MiddlewareOption {
	return func(m *Middleware) {
		m.getUser = fn
	}
}

// WithErrorHandler sets a custom error handler for middleware.
func WithErrorHandler(fn func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(m *Middleware) {
		m.errorHandler = fn
	}
}

func defaultGetUser(r *http.Request) (User, bool) {
	return GetUser(r.Context())
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNoActorID):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	case IsAccessDenied(err) || IsForbidden(err):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, ErrUnknownFeature) || IsUnknownEntity(err):
		http.Error(w, "Bad Request", http.StatusBadRequest)
	default:
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// RequireFeature creates middleware that requires a feature for the
// authenticated user.
//
// Example:
//
//	router.Handle("/reports", mw.RequireFeature("canViewReports")(reportsHandler))
func (m *Middleware) RequireFeature(featureKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			user, ok := m.getUser(r)
			if !ok {
				m.errorHandler(w, r, ErrNoActorID)
				return
			}

			if err := m.service.Enforce(ctx, user, featureKey); err != nil {
				m.errorHandler(w, r, err)
				return
			}

			// Add resolver to context for use in handlers
			resolver, err := m.service.GetResolver(ctx, user)
			if err == nil {
				ctx = WithResolver(ctx, resolver)
				r = r.WithContext(ctx)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyFeature creates middleware that requires at least one of the
// features.
//
// Example:
//
//	router.Handle("/tracking",
//	    mw.RequireAnyFeature("isVisaTrackingEnabled", "isMedicalTrackingEnabled")(trackingHandler))
func (m *Middleware) RequireAnyFeature(featureKeys ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			user, ok := m.getUser(r)
			if !ok {
				m.errorHandler(w, r, ErrNoActorID)
				return
			}

			resolver, err := m.service.GetResolver(ctx, user)
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}

			if !resolver.CanAccessAny(featureKeys...) {
				m.errorHandler(w, r, NewError(ErrAccessDenied, "none of the required features are enabled").
					WithRole(user.Role).
					WithUser(user.ID))
				return
			}

			ctx = WithResolver(ctx, resolver)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole creates middleware that requires a minimum role tier,
// regardless of feature grants. Used for the few operations that are bound
// to a tier rather than a feature, e.g. permanent deletion.
//
// Example:
//
//	router.Handle("/recycle-bin/purge",
//	    mw.RequireRole(featurekit.RoleSuperAdmin)(purgeHandler))
func (m *Middleware) RequireRole(role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := m.getUser(r)
			if !ok {
				m.errorHandler(w, r, ErrNoActorID)
				return
			}

			if user.Role != role {
				m.errorHandler(w, r, NewError(ErrForbidden, "operation restricted to role "+string(role)).
					WithRole(user.Role).
					WithUser(user.ID))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LoadResolver creates middleware that loads the user's Resolver into
// context without denying anything. Use this when permission checks happen
// in the handler rather than in middleware.
//
// Example:
//
//	router.Handle("/dashboard", mw.LoadResolver()(dashboardHandler))
//
//	func dashboardHandler(w http.ResponseWriter, r *http.Request) {
//	    resolver := featurekit.FromContext(r.Context())
//	    if resolver != nil && resolver.CanAccess("canViewReports") {
//	        // show the reports tile
//	    }
//	}
func (m *Middleware) LoadResolver() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			user, ok := m.getUser(r)
			if !ok {
				// No user, continue without resolver
				next.ServeHTTP(w, r)
				return
			}

			resolver, err := m.service.GetResolver(ctx, user)
			if err != nil {
				// Log error but continue
				next.ServeHTTP(w, r)
				return
			}

			ctx = WithResolver(ctx, resolver)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// InjectAuditContext creates middleware that extracts audit information from
// the request and adds it to the context for use in mutation operations.
//
// Example:
//
//	router.Use(mw.InjectAuditContext())
func (m *Middleware) InjectAuditContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// Extract IP address
			ip := r.Header.Get("X-Forwarded-For")
			if ip == "" {
				ip = r.Header.Get("X-Real-IP")
			}
			if ip == "" {
				ip = r.RemoteAddr
			}
			ctx = WithIPAddress(ctx, ip)

			// Extract User Agent
			ctx = WithUserAgent(ctx, r.UserAgent())

			// Extract Request ID (commonly set by other middleware)
			requestID := r.Header.Get("X-Request-ID")
			if requestID != "" {
				ctx = WithRequestID(ctx, requestID)
			}

			// Propagate the user for audit attribution
			if user, ok := m.getUser(r); ok {
				ctx = WithUser(ctx, user)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
