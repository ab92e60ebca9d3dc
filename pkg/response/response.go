package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body is the standard API response envelope.
type Body struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// ListBody is the envelope for full collection dumps.
type ListBody struct {
	OK    bool        `json:"ok"`
	Count int         `json:"count"`
	Data  interface{} `json:"data"`
}

// OK sends a 200 JSON response with a message.
func OK(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Body{OK: true, Message: message})
}

// List sends a 200 JSON response with count and data.
func List(c *gin.Context, count int, data interface{}) {
	c.JSON(http.StatusOK, ListBody{OK: true, Count: count, Data: data})
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{OK: false, Error: err})
}

// Internal sends 500 with error message and a diagnostic detail.
func Internal(c *gin.Context, err, detail string) {
	c.JSON(http.StatusInternalServerError, Body{OK: false, Error: err, Detail: detail})
}
