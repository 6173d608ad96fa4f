package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"go.uber.org/zap"

	"homelink-backend/pkg/auth"
	"homelink-backend/pkg/common"
	apperrors "homelink-backend/pkg/errors"
)

// Authenticator resolves the caller identity and stores it as the owner id.
// Behind API Gateway the authorizer has already run, so the identity is read
// from the proxied request context. Locally a bearer token is validated.
type Authenticator struct {
	validator *auth.JWTValidator
	lambda    bool
	errors    *apperrors.ErrorHandler
	logger    *zap.Logger
}

// NewAuthenticator creates the identity middleware. validator may be nil in
// Lambda mode.
func NewAuthenticator(validator *auth.JWTValidator, lambda bool, errorHandler *apperrors.ErrorHandler, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		validator: validator,
		lambda:    lambda,
		errors:    errorHandler,
		logger:    logger,
	}
}

// Middleware rejects requests without an identity with 401
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			ownerID string
			err     error
		)
		if a.lambda {
			ownerID, err = a.fromGateway(r)
		} else {
			ownerID, err = a.fromBearer(r)
		}
		if err != nil {
			a.errors.Handle(w, r, err)
			return
		}

		a.logger.Debug("Request authenticated",
			zap.String("ownerID", ownerID),
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
		)
		next.ServeHTTP(w, r.WithContext(common.WithOwnerID(r.Context(), ownerID)))
	})
}

func (a *Authenticator) fromGateway(r *http.Request) (string, error) {
	proxyCtx, ok := core.GetAPIGatewayV2ContextFromContext(r.Context())
	if !ok {
		return "", apperrors.NewUnauthorizedError("Missing API Gateway request context")
	}

	ownerID := OwnerFromGatewayContext(proxyCtx)
	if ownerID == "" {
		return "", apperrors.NewUnauthorizedError("Missing caller identity")
	}
	return ownerID, nil
}

func (a *Authenticator) fromBearer(r *http.Request) (string, error) {
	if a.validator == nil {
		return "", apperrors.NewUnauthorizedError("Token validation is not configured")
	}

	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", apperrors.NewUnauthorizedError("Missing or malformed authorization header")
	}

	claims, err := a.validator.ValidateToken(parts[1])
	if err != nil {
		a.logger.Warn("Invalid token",
			zap.Error(err),
			zap.String("path", r.URL.Path),
		)
		switch {
		case errors.Is(err, auth.ErrExpiredToken):
			return "", apperrors.NewUnauthorizedError("Token has expired")
		case errors.Is(err, auth.ErrInvalidSignature):
			return "", apperrors.NewUnauthorizedError("Invalid token signature")
		default:
			return "", apperrors.NewUnauthorizedError("Invalid token")
		}
	}
	return claims.Subject, nil
}

// OwnerFromGatewayContext picks the caller identity out of an HTTP API
// request context: the Cognito identity id for IAM-authorized calls, else the
// JWT or Lambda authorizer "sub" claim.
func OwnerFromGatewayContext(rc events.APIGatewayV2HTTPRequestContext) string {
	authorizer := rc.Authorizer
	if authorizer == nil {
		return ""
	}

	if authorizer.IAM != nil && authorizer.IAM.CognitoIdentity.IdentityID != "" {
		return authorizer.IAM.CognitoIdentity.IdentityID
	}
	if authorizer.JWT != nil && authorizer.JWT.Claims["sub"] != "" {
		return authorizer.JWT.Claims["sub"]
	}
	if sub, ok := authorizer.Lambda["sub"].(string); ok {
		return sub
	}
	return ""
}
