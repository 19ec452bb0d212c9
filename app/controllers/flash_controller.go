package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"
)

// HandleFlashGet returns and consumes the pending flash message for the
// session. The client polls this once after redirect flows (OAuth callback).
func HandleFlashGet(c *fiber.Ctx) error {
	data := flash.Get(c)
	if len(data) == 0 {
		return c.JSON(fiber.Map{})
	}
	return c.JSON(data)
}
