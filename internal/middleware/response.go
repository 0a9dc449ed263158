package middleware

import "github.com/labstack/echo/v4"

// reject answers with the same {status, message} envelope the handlers use.
func reject(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"status": "error", "message": message})
}
