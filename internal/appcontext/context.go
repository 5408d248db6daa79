package appcontext

import (
	"context"
	"errors"
)

var (
	ErrOrganizationNotFoundInContext = errors.New("organization not found in context")
	ErrUserIDNotFoundInContext       = errors.New("user ID not found in context")
)

type (
	organizationIDContextKey struct{}
	userIDContextKey         struct{}
)

const (
	NoOrganization = "no_organization"
	// SystemActor is recorded as the actor of writes performed by jobs and other unauthenticated callers.
	SystemActor = "system"
)

// GetOrganizationIDFromContext retrieves the ID of the organization the current operation is scoped to.
func GetOrganizationIDFromContext(ctx context.Context) (string, error) {
	organizationID, ok := ctx.Value(organizationIDContextKey{}).(string)
	if !ok || organizationID == "" {
		return "", ErrOrganizationNotFoundInContext
	}
	return organizationID, nil
}

// MustGetOrganizationIDFromContext is like GetOrganizationIDFromContext but defaults to NoOrganization.
func MustGetOrganizationIDFromContext(ctx context.Context) string {
	organizationID, err := GetOrganizationIDFromContext(ctx)
	if err != nil {
		return NoOrganization
	}
	return organizationID
}

func SetOrganizationIDInContext(ctx context.Context, organizationID string) context.Context {
	return context.WithValue(ctx, organizationIDContextKey{}, organizationID)
}

// GetUserIDFromContext retrieves the user ID from the context.
func GetUserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey{}).(string)
	if !ok || userID == "" {
		return "", ErrUserIDNotFoundInContext
	}
	return userID, nil
}

// SetUserIDInContext stores the user ID in the context.
func SetUserIDInContext(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey{}, userID)
}

// GetActorFromContext returns the user ID in the context, or SystemActor when there is none.
func GetActorFromContext(ctx context.Context) string {
	userID, err := GetUserIDFromContext(ctx)
	if err != nil {
		return SystemActor
	}
	return userID
}
