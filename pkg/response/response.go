package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/ccmr-api/pkg/errors"
)

// Failure is the error contract spoken by the CCMR front end. The wrapped
// driver error travels in Detail the way the legacy API exposed err.message.
type Failure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Detail  string `json:"error,omitempty"`
}

// JSON writes a success payload. Handlers shape the body themselves because
// the legacy contract varies per endpoint ({success, records, count}, ...).
func JSON(c *gin.Context, status int, payload interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, payload)
}

// OK writes the payload with HTTP 200.
func OK(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusOK, payload)
}

// Error converts any error into the failure contract.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	body := Failure{Success: false, Message: appErr.Message}
	if appErr.Err != nil {
		body.Detail = appErr.Err.Error()
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, body)
}
