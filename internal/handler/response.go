package handler

import (
	"github.com/gin-gonic/gin"
)

// Every endpoint answers with the same envelope: {data, error}. Webhook
// providers only look at the status code, API clients look at both.
type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type responseBody struct {
	Data  any            `json:"data"`
	Error *responseError `json:"error"`
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, responseBody{Data: data})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, responseBody{Error: &responseError{Code: code, Message: message}})
}
