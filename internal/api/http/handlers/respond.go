package handlers

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/miniticker/pkg/util/errorutil"
)

// view writes a read model. A refresh that failed on the network or a 5xx
// still answers 200 with the retained data and the failure under "warning";
// any other failure, an expired session included, is returned as is.
func view(c *fiber.Ctx, data any, err error) error {
	body := fiber.Map{"data": data}
	if err != nil {
		if !apperrors.IsTransient(err) {
			return err
		}
		body["warning"] = apperrors.Message(err)
	}
	return c.JSON(body)
}

func download(c *fiber.Ctx, name, contentType string, data []byte) error {
	c.Attachment(name)
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}
