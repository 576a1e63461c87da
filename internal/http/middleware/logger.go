package middleware

import (
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"docsummarizer/internal/logging"
)

// Logger logs each HTTP request as one JSON line with
// request_id, method, path, status and latency (milliseconds).
func Logger(log *logrus.Logger) fiber.Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		// The app error handler runs after the chain unwinds, so derive the
		// final status from err when there is one.
		rid, _ := c.Locals(RequestIDLocalKey).(string)
		log.WithFields(logrus.Fields{
			"request_id": rid,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     statusOf(c, err),
			"latency":    float64(time.Since(start).Microseconds()) / 1000,
		}).Info("http_request")

		return err
	}
}

// LoggerWithWriter is Logger on a fresh JSON logger bound to w and loc.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return Logger(logging.New(w, loc))
}

func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}
