package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jhoicas/Transporte-api/pkg/logger"
)

// HeaderRequestID se respeta si el cliente lo envía; si no, se genera.
const HeaderRequestID = "X-Request-ID"

// RequestContext deja en c.UserContext() el logger con el ID de la petición y registra
// cada respuesta al terminar.
func RequestContext(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(HeaderRequestID, id)
		ctx := logger.ContextWithCorrelationID(log.WithContext(c.UserContext()), id)
		c.SetUserContext(ctx)

		start := time.Now()
		err := c.Next()
		logger.Ctx(ctx).Info().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("latency", time.Since(start)).
			Msg("request")
		return err
	}
}
