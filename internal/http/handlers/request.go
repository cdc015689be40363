package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/nhadat/listing-auth/internal/apperr"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

// Messages keyed by "field.tag", falling back to "field.*".
var fieldMessages = map[string]string{
	"fullName.required":        "Tên không được để trống",
	"fullName.max":             "Tên quá dài",
	"email.*":                  "Email không hợp lệ",
	"phone.min":                "Số điện thoại phải có ít nhất 10 số",
	"phone.max":                "Số điện thoại không được quá 11 số",
	"phone.*":                  "Số điện thoại không hợp lệ",
	"password.*":               "Mật khẩu phải có ít nhất 6 ký tự",
	"currentPassword.*":        "Mật khẩu hiện tại không hợp lệ",
	"newPassword.*":            "Mật khẩu mới phải có ít nhất 6 ký tự",
	"confirmPassword.required": "Xác nhận mật khẩu là bắt buộc",
	"refreshToken.*":           "Phiên đăng nhập không hợp lệ",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for _, r := range s {
			if !unicode.IsDigit(r) {
				return false
			}
		}
		return s != ""
	})
	return v
}

// decodeJSON reads a JSON body into dst. An empty body is allowed when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.Wrap(err, apperr.CodeBadRequest, "Invalid JSON payload")
	}
	return nil
}

// validateStruct runs struct tag validation and converts failures into field details.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Internal(err)
	}
	details := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, apperr.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return apperr.Validation(details)
}

func fieldMessage(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	if msg, ok := fieldMessages[fe.Field()+".*"]; ok {
		return msg
	}
	return fe.Error()
}
