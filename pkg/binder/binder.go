package binder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/mold/v4"
	"github.com/go-playground/mold/v4/modifiers"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"github.com/labstack/echo/v4"
	"github.com/libraryms/libraryms/pkg/errcodes"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
)

var unknownFieldsRE = regexp.MustCompile(`unknown field "(.*)"`)

// Binder is a custom struct that implements the Echo Binder interface. It binds
// to a struct, uses mold to clean up the params, and validator to validate
// them.
type Binder struct {
	queryDecoder *schema.Decoder
	conform      *mold.Transformer
	validate     *validator.Validate
}

// New initializes a new Binder instance with the appropriate validation
// functions registered.
func New() (*Binder, error) {
	queryDecoder := schema.NewDecoder()
	queryDecoder.SetAliasTag("query")
	conform := modifiers.New()
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		}
		return name
	})
	for tag, fn := range map[string]validator.Func{
		date:      dateValidator,
		timestamp: timestampValidator,
		future:    futureValidator,
	} {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	return &Binder{queryDecoder, conform, validate}, nil
}

// Bind binds, modifies, and validates payloads against the given struct.
func (b *Binder) Bind(i interface{}, c echo.Context) error {
	req := c.Request()

	if req.ContentLength > 0 {
		ctype := req.Header.Get(echo.HeaderContentType)
		if !strings.HasPrefix(ctype, echo.MIMEApplicationJSON) {
			return errcodes.UnsupportedMediaType()
		}
		defer req.Body.Close()
		if err := b.decodeJSON(i, c); err != nil {
			return err
		}
	} else {
		if req.Method == http.MethodGet || req.Method == http.MethodDelete {
			if err := b.decodeQuery(i, c.QueryParams()); err != nil {
				return errors.WithStack(err)
			}
		} else {
			return errcodes.EmptyRequestBody()
		}
	}

	return b.Conform(req.Context(), i)
}

// Conform runs the mod, default and validate tags of i. It's exported so that
// payloads decoded outside of a request (e.g. seed files) get the same
// treatment.
func (b *Binder) Conform(ctx context.Context, i interface{}) error {
	if err := b.conform.Struct(ctx, i); err != nil {
		return errors.WithStack(err)
	}

	if err := defaults.Set(i); err != nil {
		return errors.WithStack(err)
	}

	if err := b.validate.Struct(i); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			return errors.WithStack(err)
		}
		fields := make([]errcodes.FieldError, 0, len(errs))
		for _, fe := range errs {
			fields = append(fields, errcodes.FieldError{
				Field:   fe.Field(),
				Message: formatValidationError(fe),
			})
		}
		return errcodes.ValidationFailed(fields)
	}
	return nil
}

func (b *Binder) decodeJSON(i interface{}, c echo.Context) error {
	log := logger.FromEchoContext(c)

	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(i); err != nil {
		// return better error message when there are unknown fields
		if matches := unknownFieldsRE.FindStringSubmatch(err.Error()); len(matches) > 1 {
			return errcodes.UnknownParameter(matches[1])
		}

		// return better error message on type errors
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return errcodes.ValidationTypeError(formatUnmarshalTypeError(typeErr))
		}

		log.Err(err).Warn("unknown json decode error")

		return errcodes.MalformedPayload()
	}
	return nil
}

func (b *Binder) decodeQuery(i interface{}, params url.Values) error {
	if err := b.queryDecoder.Decode(i, params); err != nil {
		var errs schema.MultiError
		if !errors.As(err, &errs) {
			return errors.WithStack(err)
		}
		for _, err := range errs {
			var convErr schema.ConversionError
			if errors.As(err, &convErr) {
				return errcodes.ValidationTypeError(formatSchemaConversionError(convErr))
			}
			var unknownErr schema.UnknownKeyError
			if errors.As(err, &unknownErr) {
				return errcodes.UnknownParameter(unknownErr.Key)
			}
			return errors.WithStack(err)
		}
	}
	return nil
}
