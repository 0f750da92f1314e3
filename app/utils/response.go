package utils

import (
	"github.com/gofiber/fiber/v2"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Errors     interface{} `json:"errors,omitempty"`
}

func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(Response{Success: true, Message: message, Data: data})
}

func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{Success: true, Message: message, Data: data})
}

func Paginated(c *fiber.Ctx, data interface{}, pagination *Pagination) error {
	return c.JSON(Response{Success: true, Data: data, Pagination: pagination})
}

func Failure(c *fiber.Ctx, status int, message string, errs interface{}) error {
	return c.Status(status).JSON(Response{Success: false, Message: message, Errors: errs})
}
