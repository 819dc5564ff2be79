package http

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/certhub/admin-gateway/internal/api/dto"
	"github.com/certhub/admin-gateway/internal/observability"
	apperrors "github.com/certhub/admin-gateway/pkg/util/errorutil"
)

const opaqueInternalMessage = "internal server error"

// MiddlewareConfig controls the global middleware chain.
type MiddlewareConfig struct {
	Timeout        time.Duration
	ExposeInternal bool
}

// NewApp builds the fiber application with an envelope-shaped fallback error handler.
func NewApp(name string, logger *zap.Logger, exposeInternal bool) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               name,
		DisableStartupMessage: true,
		// Params and bodies outlive the request when they reach the stores.
		Immutable: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			if de.HTTPStatus >= fiber.StatusInternalServerError {
				logger.Error("unhandled error", zap.Error(err))
			}
			return c.Status(de.HTTPStatus).JSON(dto.Fail(publicMessage(de, exposeInternal)))
		},
	})
}

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, cfg MiddlewareConfig) {
	if cfg.Timeout > 0 {
		app.Use(requestTimeoutMiddleware(cfg.Timeout))
	}
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics, cfg.ExposeInternal))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics, exposeInternal bool) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(fmt.Errorf("panic: %v", r))
			}
			if err == nil {
				return
			}

			domainErr := apperrors.ToDomainError(err)
			metrics.RecordError(observability.RouteLabel(c), c.Method(), domainErr.Code)
			if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
				logger.Error("request failed",
					zap.String("method", c.Method()),
					zap.String("path", c.Path()),
					zap.String("code", domainErr.Code),
					zap.Error(err),
				)
			}

			err = c.Status(domainErr.HTTPStatus).JSON(dto.Fail(publicMessage(domainErr, exposeInternal)))
		}()
		return c.Next()
	}
}

func publicMessage(de *apperrors.DomainError, exposeInternal bool) string {
	if de.HTTPStatus >= fiber.StatusInternalServerError && !exposeInternal {
		return opaqueInternalMessage
	}
	return de.Message
}
