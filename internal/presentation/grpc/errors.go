package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/collections-service/internal/domain/valueobject"
	"github.com/bibbank/collections-service/pkg/auth"
)

// toStatus maps the domain error taxonomy onto gRPC codes. Unclassified
// errors are logged and surface as Internal without their detail.
func toStatus(ctx context.Context, logger *slog.Logger, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var code codes.Code
	switch {
	case errors.Is(err, valueobject.ErrValidation):
		code = codes.InvalidArgument
	case errors.Is(err, valueobject.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, valueobject.ErrStateConflict), errors.Is(err, valueobject.ErrInvariantViolation):
		code = codes.FailedPrecondition
	case errors.Is(err, valueobject.ErrConcurrentModification):
		code = codes.Aborted
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	default:
		logger.ErrorContext(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationStatus renders validator failures as one InvalidArgument.
func validationStatus(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}
	return status.Error(codes.InvalidArgument, "invalid request: "+strings.Join(parts, "; "))
}

// caller returns the authenticated claims. The auth interceptor guarantees
// them on every service method.
func caller(ctx context.Context) (*auth.Claims, error) {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "no caller identity")
	}
	return claims, nil
}

// scopeTenant fills an empty tenant from the caller and rejects requests
// for another tenant.
func scopeTenant(claims *auth.Claims, tenantID *string) error {
	switch {
	case *tenantID == "":
		*tenantID = claims.TenantID
	case *tenantID != claims.TenantID:
		return status.Errorf(codes.PermissionDenied, "tenant %s is not accessible", *tenantID)
	}
	return nil
}

func defaultString(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
