// Package httpx holds the JSON plumbing shared by every handler: body
// decoding with validation, the {"success": ...} envelope and error mapping.
package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/Zhouyi071021/campus-circle/internal/apperr"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// JSON writes v as the response body with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes {"success": true, "data": data}.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

// Created writes {"success": true, "data": data} with 201.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, map[string]any{"success": true, "data": data})
}

// Fields writes {"success": true} merged with extra top-level fields. It is
// for replies that carry no resource: acknowledgements ("message") and scalar
// answers such as "url" or "exists". Resources always go through OK.
func Fields(w http.ResponseWriter, fields map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	JSON(w, http.StatusOK, body)
}

// Error writes {"success": false, "error": msg} with the status derived from err.
func Error(w http.ResponseWriter, err error) {
	JSON(w, apperr.HTTPStatus(err), map[string]any{"success": false, "error": apperr.Message(err)})
}

// Decode reads a JSON body into dst and runs struct validation on it.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.InvalidArg("invalid request body")
	}
	return Validate(dst)
}

// Validate runs the `validate` struct tags of v.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperr.InvalidArg(describe(verrs[0]))
		}
		return apperr.InvalidArg(err.Error())
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s must match %s", field, fe.Param())
	case "alphanumunder":
		return fmt.Sprintf("%s may only contain letters, digits and underscores", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func init() {
	_ = validate.RegisterValidation("alphanumunder", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for _, r := range s {
			if !(r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
				return false
			}
		}
		return true
	})
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
}

// IDParam parses a positive integer URL parameter.
func IDParam(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, apperr.InvalidArg("invalid " + name)
	}
	return id, nil
}

// Page reads page/pageSize query parameters with the defaults 1 and 20 and
// caps pageSize at 100.
func Page(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("pageSize"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
