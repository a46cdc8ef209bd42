package http

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/miniticker/internal/apiclient"
	"github.com/spec-kit/miniticker/internal/observability"
	apperrors "github.com/spec-kit/miniticker/pkg/util/errorutil"
)

const requestIDLocal = "requestID"

// RegisterMiddlewares attaches request ids, timeouts, error mapping and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(requestIDMiddleware())
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
}

// requestIDMiddleware reuses the caller's X-Request-ID or mints one, echoes it
// and forwards it on every backend call made for the request.
func requestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(apiclient.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(apiclient.RequestIDHeader, id)
		c.Locals(requestIDLocal, id)
		c.SetUserContext(apiclient.WithRequestID(c.UserContext(), id))
		return c.Next()
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.Any("request_id", c.Locals(requestIDLocal)),
					zap.ByteString("stack", debug.Stack()),
				)
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				if metrics != nil {
					metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				}
				response := fiber.Map{"error": fiber.Map{
					"code":      domainErr.Code,
					"message":   domainErr.Message,
					"requestId": c.Locals(requestIDLocal),
				}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
				}
				switch {
				case domainErr.Code == "UNAVAILABLE" || domainErr.Code == "TIMEOUT":
					logger.Warn("backend unavailable", zap.Any("request_id", c.Locals(requestIDLocal)), zap.Error(domainErr))
				case domainErr.HTTPStatus >= 500:
					logger.Error("request failed", zap.Any("request_id", c.Locals(requestIDLocal)), zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}

// toDomainError keeps routing errors raised by fiber itself, such as an
// unknown route, at their own status.
func toDomainError(err error) *apperrors.DomainError {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return apperrors.NewDomainError(strings.ToUpper(strings.ReplaceAll(utils.StatusMessage(fe.Code), " ", "_")), fe.Message, fe.Code, nil)
	}
	return apperrors.ToDomainError(err)
}
