package httputil

import (
	"context"
	"net/http"
)

// Context key type to avoid collisions
type contextKey string

const (
	userIDKey    contextKey = "userID"
	companyIDKey contextKey = "companyID"
	roleKey      contextKey = "role"
)

// WithIdentity adds the authenticated identity to the request context.
// Every handler reads the tenant from here, never from the request body.
func WithIdentity(r *http.Request, userID, companyID, role string) *http.Request {
	ctx := context.WithValue(r.Context(), userIDKey, userID)
	ctx = context.WithValue(ctx, companyIDKey, companyID)
	ctx = context.WithValue(ctx, roleKey, role)
	return r.WithContext(ctx)
}

// GetUserID retrieves userID from context, returns empty string if not found
func GetUserID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}

// GetCompanyID retrieves the tenant from context, empty string if not found
func GetCompanyID(r *http.Request) string {
	companyID, _ := r.Context().Value(companyIDKey).(string)
	return companyID
}

// GetRole retrieves the role claim from context
func GetRole(r *http.Request) string {
	role, _ := r.Context().Value(roleKey).(string)
	return role
}
