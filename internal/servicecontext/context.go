package servicecontext

import (
	"context"
)

type contextKey string

const (
	serviceAuthKey contextKey = "auth.service"
	requestIDKey   contextKey = "request.id"
)

// Info contains service authentication details
type Info struct {
	ServiceName string
	Method      string // "bearer" or "basic"
}

// WithAuthInfo adds service authentication info to the context
func WithAuthInfo(ctx context.Context, serviceName, method string) context.Context {
	return context.WithValue(ctx, serviceAuthKey, Info{
		ServiceName: serviceName,
		Method:      method,
	})
}

// GetAuthInfo retrieves service auth info from context
func GetAuthInfo(ctx context.Context) (Info, bool) {
	info, ok := ctx.Value(serviceAuthKey).(Info)
	return info, ok
}

// GetServiceName retrieves the service name from context
func GetServiceName(ctx context.Context) (string, bool) {
	info, ok := GetAuthInfo(ctx)
	if !ok {
		return "", false
	}
	return info.ServiceName, true
}

// WithRequestID tags the context with the id logged for this request
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID returns the request id, or "" if none was set
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
