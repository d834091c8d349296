package featurekit

import (
	"context"
)

// Context keys for FeatureKit values.
type contextKey string

const (
	contextKeyUser      contextKey = "featurekit:user"
	contextKeyActorName contextKey = "featurekit:actor_name"
	contextKeyIPAddress contextKey = "featurekit:ip_address"
	contextKeyUserAgent contextKey = "featurekit:user_agent"
	contextKeyRequestID contextKey = "featurekit:request_id"
	contextKeyResolver  contextKey = "featurekit:resolver"
)

// WithUser adds the acting user to the context. The user is both the
// subject of feature checks and the actor recorded in the audit log.
func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, contextKeyUser, user)
}

// GetUser retrieves the user from context.
func GetUser(ctx context.Context) (User, bool) {
	if v := ctx.Value(contextKeyUser); v != nil {
		if u, ok := v.(User); ok {
			return u, true
		}
	}
	return User{}, false
}

// MustGetUser retrieves the user from context. Panics if not set.
func MustGetUser(ctx context.Context) User {
	user, ok := GetUser(ctx)
	if !ok {
		panic("featurekit: user not in context")
	}
	return user
}

// WithActorName adds the display name of the acting user to the context
// (for audit).
func WithActorName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, contextKeyActorName, name)
}

// GetActorName retrieves the actor display name from context.
func GetActorName(ctx context.Context) string {
	if v := ctx.Value(contextKeyActorName); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WithIPAddress adds the client IP address to the context (for audit).
func WithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKeyIPAddress, ip)
}

// GetIPAddress retrieves the IP address from context.
func GetIPAddress(ctx context.Context) string {
	if v := ctx.Value(contextKeyIPAddress); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WithUserAgent adds the user agent to the context (for audit).
func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, contextKeyUserAgent, ua)
}

// GetUserAgent retrieves the user agent from context.
func GetUserAgent(ctx context.Context) string {
	if v := ctx.Value(contextKeyUserAgent); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context (for audit and correlation).
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// GetRequestID retrieves the request ID from context.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(contextKeyRequestID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WithResolver adds a Resolver to the context.
// This is set by middleware and can be retrieved in handlers.
func WithResolver(ctx context.Context, resolver *Resolver) context.Context {
	return context.WithValue(ctx, contextKeyResolver, resolver)
}

// GetResolver retrieves the Resolver from context.
// Returns nil if not set.
func GetResolver(ctx context.Context) *Resolver {
	if v := ctx.Value(contextKeyResolver); v != nil {
		if r, ok := v.(*Resolver); ok {
			return r
		}
	}
	return nil
}

// FromContext retrieves the Resolver from context.
// Alias for GetResolver for convenience.
func FromContext(ctx context.Context) *Resolver {
	return GetResolver(ctx)
}

// AuditContext holds all audit-related information from context.
type AuditContext struct {
	ActorID   string
	ActorName string
	IPAddress string
	UserAgent string
	RequestID string
}

// GetAuditContext extracts all audit information from context.
func GetAuditContext(ctx context.Context) AuditContext {
	user, _ := GetUser(ctx)
	return AuditContext{
		ActorID:   user.ID,
		ActorName: GetActorName(ctx),
		IPAddress: GetIPAddress(ctx),
		UserAgent: GetUserAgent(ctx),
		RequestID: GetRequestID(ctx),
	}
}

// WithAuditContext adds all audit information to context at once.
func WithAuditContext(ctx context.Context, ac AuditContext) context.Context {
	if ac.ActorName != "" {
		ctx = WithActorName(ctx, ac.ActorName)
	}
	if ac.IPAddress != "" {
		ctx = WithIPAddress(ctx, ac.IPAddress)
	}
	if ac.UserAgent != "" {
		ctx = WithUserAgent(ctx, ac.UserAgent)
	}
	if ac.RequestID != "" {
		ctx = WithRequestID(ctx, ac.RequestID)
	}
	return ctx
}
