package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/sagarc03/filegate"
)

const (
	maxBodyBytes    = 1 << 20
	defaultPageSize = 20
	maxPageSize     = 1000
)

type presignRequest struct {
	Filename    string `json:"filename" validate:"notblank"`
	ContentType string `json:"contentType" validate:"notblank"`
	Size        int64  `json:"size" validate:"gt=0"`
}

type confirmRequest struct {
	Key         string `json:"key" validate:"notblank"`
	Filename    string `json:"filename" validate:"notblank"`
	ContentType string `json:"contentType" validate:"notblank"`
	Size        int64  `json:"size" validate:"gt=0"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("register notblank validation: %v", err))
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads a JSON body into dst and validates it.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", filegate.ErrInvalidInput)
		}
		return fmt.Errorf("%w: malformed JSON body: %w", filegate.ErrInvalidInput, err)
	}

	return h.validate(dst)
}

func (h *Handler) validate(dst any) error {
	err := h.validator.Struct(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", filegate.ErrInvalidInput, err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return &ValidationError{Fields: fields}
}

// parsePageQuery reads page (default 0) and size (default 20, capped at 1000).
func parsePageQuery(r *http.Request) (filegate.PageQuery, error) {
	q := filegate.PageQuery{Page: 0, Size: defaultPageSize}
	fields := map[string]string{}

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			fields["page"] = "number"
		case page < 0:
			fields["page"] = "min"
		default:
			q.Page = page
		}
	}

	if raw := r.URL.Query().Get("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			fields["size"] = "number"
		case size < 1:
			fields["size"] = "min"
		default:
			q.Size = min(size, maxPageSize)
		}
	}

	if len(fields) > 0 {
		return filegate.PageQuery{}, &ValidationError{Fields: fields}
	}
	return q, nil
}
