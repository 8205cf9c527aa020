package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ValidationMessage is the envelope message of every 400 produced by FailValidation.
const ValidationMessage = "Failed"

func init() {
	// report json names ("email") instead of Go field names ("Email")
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// FailValidation aborts with a 400 whose error object lists the messages
// per request field. Malformed bodies are reported under "body".
func FailValidation(c *gin.Context, err error) {
	FailFields(c, ValidationErrors(err))
}

// FailFields aborts with a 400 carrying already-built field messages.
func FailFields(c *gin.Context, fields map[string][]string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Envelope{
		Status:    false,
		Code:      http.StatusBadRequest,
		Error:     fields,
		Message:   ValidationMessage,
		Timestamp: timestamp(),
	})
}

// ValidationErrors maps a binding error to field -> messages.
func ValidationErrors(err error) map[string][]string {
	out := map[string][]string{}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			out[fe.Field()] = append(out[fe.Field()], fieldMessage(fe))
		}
		return out
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		out[typeErr.Field] = []string{fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type.Kind())}
		return out
	}

	out["body"] = []string{"request body must be valid JSON"}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " should not be empty"
	case "email":
		return fe.Field() + " must be an email"
	case "min":
		return fmt.Sprintf("%s must be longer than or equal to %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be shorter than or equal to %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}
