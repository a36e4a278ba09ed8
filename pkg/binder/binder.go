package binder

import (
	"mime/multipart"
	"net/http"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/bookdatabase/bookdb/pkg/errcodes"
	"github.com/creasty/defaults"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/mold/v4"
	"github.com/go-playground/mold/v4/modifiers"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gorilla/schema"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/segmentio/encoding/json"
)

const (
	allowEmptyBodyKey = "binder.allow_empty_body"
	formFilesField    = "FormFiles"
)

var unknownFieldRE = regexp.MustCompile(`^json: unknown field "(.*)"$`)

// Binder implements echo.Binder for catalogue payloads. JSON bodies, forms
// and query strings all go through the same pipeline: decode, trim with mold,
// fill defaults, then validate.
type Binder struct {
	queryDecoder *schema.Decoder
	formDecoder  *schema.Decoder
	conform      *mold.Transformer
	validate     *validator.Validate
	trans        ut.Translator
}

// New builds a Binder with the catalogue's validation tags registered.
func New() (*Binder, error) {
	b := &Binder{
		queryDecoder: schema.NewDecoder(),
		formDecoder:  schema.NewDecoder(),
		conform:      modifiers.New(),
		validate:     validator.New(),
	}
	b.queryDecoder.SetAliasTag("query")
	b.formDecoder.SetAliasTag("form")

	// Validation messages name fields the way clients send them.
	b.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Tags without a message of our own fall back to validator's English
	// translations.
	english := en.New()
	b.trans, _ = ut.New(english, english).GetTranslator(english.Locale())
	if err := entranslations.RegisterDefaultTranslations(b.validate, b.trans); err != nil {
		return nil, errors.WithStack(err)
	}

	for tag, fn := range map[string]validator.Func{
		date:       dateValidator,
		rating:     ratingValidator,
		readStatus: readStatusValidator,
		webURL:     urlValidator,
	} {
		if err := b.validate.RegisterValidation(tag, fn); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	return b, nil
}

// AllowEmptyBody lets the next Bind on c accept a POST or PATCH without a
// body, leaving the payload at its defaults.
func AllowEmptyBody(c echo.Context) {
	c.Set(allowEmptyBodyKey, true)
}

// Bind decodes the request into i, then trims, defaults and validates it.
func (b *Binder) Bind(i interface{}, c echo.Context) error {
	req := c.Request()

	if req.ContentLength > 0 {
		ctype := req.Header.Get(echo.HeaderContentType)
		switch {
		case strings.HasPrefix(ctype, echo.MIMEApplicationJSON):
			if err := b.bindJSON(i, c); err != nil {
				return err
			}
		case strings.HasPrefix(ctype, echo.MIMEMultipartForm):
			if err := b.bindForm(i, c); err != nil {
				return err
			}
			form, err := c.MultipartForm()
			if err != nil {
				return errcodes.MalformedPayload()
			}
			attachFormFiles(i, form)
		case strings.HasPrefix(ctype, echo.MIMEApplicationForm):
			if err := b.bindForm(i, c); err != nil {
				return err
			}
		default:
			return errcodes.UnsupportedMediaType()
		}
	} else {
		allowEmpty, _ := c.Get(allowEmptyBodyKey).(bool)
		switch {
		case req.Method == http.MethodGet || req.Method == http.MethodDelete:
			if err := b.decodeValues(i, c.QueryParams(), b.queryDecoder); err != nil {
				return err
			}
		case !allowEmpty:
			return errcodes.EmptyRequestBody()
		}
	}

	if err := b.conform.Struct(req.Context(), i); err != nil {
		return errors.WithStack(err)
	}
	if err := defaults.Set(i); err != nil {
		return errors.WithStack(err)
	}
	if err := b.validate.Struct(i); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) || len(errs) == 0 {
			return errors.WithStack(err)
		}
		return errcodes.ValidationError(formatValidationError(errs[0], b.trans))
	}
	return nil
}

// bindJSON decodes a JSON body. Unknown fields are always rejected so a
// misspelled field never silently does nothing.
func (b *Binder) bindJSON(i interface{}, c echo.Context) error {
	body := c.Request().Body
	defer body.Close()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	err := dec.Decode(i)
	if err == nil {
		return nil
	}

	if m := unknownFieldRE.FindStringSubmatch(err.Error()); len(m) > 1 {
		return errcodes.UnknownParameter(m[1])
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return errcodes.ValidationTypeError(formatUnmarshalTypeError(typeErr))
	}

	logger.FromEchoContext(c).Err(err).Error("unknown json decode error")
	return errcodes.MalformedPayload()
}

func (b *Binder) bindForm(i interface{}, c echo.Context) error {
	params, err := c.FormParams()
	if err != nil {
		return errcodes.MalformedPayload()
	}
	return b.decodeValues(i, params, b.formDecoder)
}

// attachFormFiles copies the first file of every multipart field into the
// payload's FormFiles map, when the payload has one.
func attachFormFiles(i interface{}, form *multipart.Form) {
	if form == nil || len(form.File) == 0 {
		return
	}
	field := reflect.ValueOf(i).Elem().FieldByName(formFilesField)
	if !field.IsValid() || !field.CanSet() || field.Kind() != reflect.Map {
		return
	}
	if field.IsNil() {
		field.Set(reflect.MakeMap(field.Type()))
	}
	for key, headers := range form.File {
		if len(headers) == 0 {
			continue
		}
		field.SetMapIndex(reflect.ValueOf(key), reflect.ValueOf(headers[0]))
	}
}

func (b *Binder) decodeValues(i interface{}, values url.Values, decoder *schema.Decoder) error {
	err := decoder.Decode(i, values)
	if err == nil {
		return nil
	}

	var multi schema.MultiError
	if !errors.As(err, &multi) {
		return errors.WithStack(err)
	}
	// Report a single problem. Map order is random, so pick by key.
	var first error
	firstKey := ""
	for key, e := range multi {
		if first == nil || key < firstKey {
			first, firstKey = e, key
		}
	}

	switch e := first.(type) {
	case schema.ConversionError:
		return errcodes.ValidationTypeError(formatSchemaConversionError(e))
	case schema.UnknownKeyError:
		return errcodes.UnknownParameter(e.Key)
	default:
		return errors.WithStack(first)
	}
}
