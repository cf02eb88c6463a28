package server

import "github.com/gin-gonic/gin"

type envelope struct {
	Data       any `json:"data"`
	StatusCode int `json:"status_code"`
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Data: data, StatusCode: status})
}
