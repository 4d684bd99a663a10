package validation

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
)

// BindJSON binds the request body into out. Binding only checks the JSON shape; field
// rules are enforced later by the command builders. On failure it writes a 400 response
// and returns the error for the handler to short-circuit.
func BindJSON(c *gin.Context, out interface{}) error {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid_request_body",
			"msg":   err.Error(),
		})
		return err
	}
	return nil
}

// validationErrorsToMap maps each failing field to the rule it broke.
func validationErrorsToMap(err error) map[string]string {
	out := map[string]string{}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			rule := fe.Tag()
			if fe.Param() != "" {
				rule += "=" + fe.Param()
			}
			out[fe.Field()] = rule
		}
	} else if err != nil {
		out["error"] = err.Error()
	}
	return out
}

func sortStrings(s []string) { sort.Strings(s) }
