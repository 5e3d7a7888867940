package middleware

import (
	"context"

	"github.com/kolah/covenant/contract"
	"github.com/kolah/covenant/params"
)

type contextKey string

const (
	bodyContextKey       contextKey = "covenant:body"
	paramsContextKey     contextKey = "covenant:params"
	definitionContextKey contextKey = "covenant:definition"
)

// WithBody stores a validated request body in the context.
func WithBody(ctx context.Context, body any) context.Context {
	return context.WithValue(ctx, bodyContextKey, body)
}

// BodyFromContext returns the validated, decoded request body.
func BodyFromContext(ctx context.Context) (any, bool) {
	v := ctx.Value(bodyContextKey)
	return v, v != nil
}

// WithParams stores converted request params in the context.
func WithParams(ctx context.Context, values params.Values) context.Context {
	return context.WithValue(ctx, paramsContextKey, values)
}

// ParamsFromContext returns the converted path and query params.
func ParamsFromContext(ctx context.Context) (params.Values, bool) {
	v, ok := ctx.Value(paramsContextKey).(params.Values)
	return v, ok
}

// WithDefinition stores the resolved request definition in the context.
func WithDefinition(ctx context.Context, d *contract.Definition) context.Context {
	return context.WithValue(ctx, definitionContextKey, d)
}

// DefinitionFromContext returns the request definition the request was
// validated against.
func DefinitionFromContext(ctx context.Context) *contract.Definition {
	if v := ctx.Value(definitionContextKey); v != nil {
		return v.(*contract.Definition)
	}
	return nil
}
