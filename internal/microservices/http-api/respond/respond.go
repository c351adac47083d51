// Package respond renders service errors as JSON responses.
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"yamdb/internal/apperr"
)

// Error writes err with the status of its kind and aborts the chain.
//
// Field errors render DRF style, one key per field plus "code";
// everything else renders as {"error", "code"}.
func Error(c *gin.Context, err error) {
	ae := apperr.As(err)
	if ae == nil {
		ae = apperr.Internal(err)
	}
	if ae.Kind == apperr.KindInternal {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
	}

	if len(ae.Fields) > 0 {
		body := gin.H{"code": ae.Kind}
		for field, msgs := range ae.Fields {
			body[field] = msgs
		}
		c.AbortWithStatusJSON(ae.Status(), body)
		return
	}
	c.AbortWithStatusJSON(ae.Status(), gin.H{"error": ae.Message, "code": ae.Kind})
}

// BindError converts a ShouldBindJSON failure into a validation error.
func BindError(c *gin.Context, err error) {
	Error(c, bindingToAppErr(err))
}

func bindingToAppErr(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fe := apperr.FieldErrors{}
		for _, v := range verrs {
			fe.Add(v.Field(), messageFor(v))
		}
		return fe.Err()
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperr.Validation(typeErr.Field, "Incorrect type. Expected "+typeErr.Type.String()+".")
	}
	if errors.Is(err, io.EOF) {
		return apperr.Validation(apperr.NonFieldErrors, "Request body is empty.")
	}
	return apperr.Validation(apperr.NonFieldErrors, "JSON parse error - "+err.Error())
}

func messageFor(v validator.FieldError) string {
	switch v.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return "Ensure this field has no more than " + v.Param() + " characters."
	case "min":
		return "Ensure this field has at least " + v.Param() + " characters."
	}
	return "Invalid value."
}

// UseJSONFieldNames makes binding errors report json tag names.
func UseJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
}
