package library

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-library/middleware/tokenware"
)

const validationFieldsKey = "fields"

// ErrorBody is the JSON shape of every non validation error
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the text code and message
type ErrorDetail struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// ValidationBody is the JSON shape of validation errors
type ValidationBody struct {
	Errors map[string]string `json:"errors"`
}

// FormatValidationErrorToMap flattens ozzo errors into field messages
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["body"] = err.Error()
	return out
}

// NewValidationError wraps field errors so the error handler renders the
// field map.
func NewValidationError(fields map[string]string) error {
	return goerrors.New("invalid request payload", goerrors.CategoryValidation).
		WithTextCode(TextCodeValidation).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{validationFieldsKey: fields})
}

func validationFailed(err error) error {
	return NewValidationError(FormatValidationErrorToMap(err))
}

// ErrorResponder writes domain errors as JSON
type ErrorResponder struct {
	logger Logger
}

// NewErrorResponder returns a responder logging internal failures
func NewErrorResponder(logger Logger) *ErrorResponder {
	return &ErrorResponder{logger: normalizeLogger(logger)}
}

// Handle is usable as fiber's ErrorHandler
func (r *ErrorResponder) Handle(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, tokenware.ErrTokenMissing) {
		err = ErrMissingToken
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) && fiberErr.Code < fiber.StatusInternalServerError {
			return c.Status(fiberErr.Code).JSON(ErrorBody{Error: ErrorDetail{
				Code: textCodeForStatus(fiberErr.Code),
				Msg:  fiberErr.Message,
			}})
		}
		return r.internal(c, err)
	}

	if richErr.Category == goerrors.CategoryValidation {
		if fields, ok := richErr.Metadata[validationFieldsKey].(map[string]string); ok {
			return c.Status(fiber.StatusBadRequest).JSON(ValidationBody{Errors: fields})
		}
	}

	if richErr.Category == goerrors.CategoryInternal || richErr.Code == 0 || richErr.Code >= fiber.StatusInternalServerError {
		return r.internal(c, err)
	}

	return c.Status(richErr.Code).JSON(ErrorBody{Error: ErrorDetail{
		Code: richErr.TextCode,
		Msg:  richErr.Message,
	}})
}

func (r *ErrorResponder) internal(c *fiber.Ctx, err error) error {
	caller := CallerFromContext(c.UserContext())
	r.logger.Error("request failed",
		"method", c.Method(),
		"path", c.Path(),
		"caller_kind", caller.Kind.String(),
		"caller_id", caller.ID.String(),
		"error", err,
	)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorBody{Error: ErrorDetail{
		Code: TextCodeInternal,
		Msg:  "Server Error",
	}})
}

func textCodeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return TextCodeValidation
	default:
		return "HTTP_ERROR"
	}
}
