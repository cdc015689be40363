package authapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FieldDetail is one field-level validation failure.
type FieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is a non-2xx response from the service.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details []FieldDetail
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("auth api: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("auth api: status %d %s: %s", e.Status, e.Code, e.Message)
}

var fieldNames = map[string]string{
	"email":           "Email",
	"password":        "Mật khẩu",
	"currentPassword": "Mật khẩu hiện tại",
	"newPassword":     "Mật khẩu mới",
	"confirmPassword": "Xác nhận mật khẩu",
	"fullName":        "Họ tên",
	"name":            "Họ tên",
	"phone":           "Số điện thoại",
	"phoneNumber":     "Số điện thoại",
	"terms":           "Điều khoản",
	"acceptTerms":     "Điều khoản",
	"username":        "Tên đăng nhập",
	"address":         "Địa chỉ",
	"city":            "Thành phố",
	"district":        "Quận/Huyện",
	"ward":            "Phường/Xã",
}

// FieldName returns the display name of a request field.
func FieldName(field string) string {
	if name, ok := fieldNames[field]; ok {
		return name
	}
	r, size := utf8.DecodeRuneInString(field)
	if r == utf8.RuneError {
		return field
	}
	return string(unicode.ToUpper(r)) + field[size:]
}

// FieldMessages renders each validation detail as "Field: message".
func (e *APIError) FieldMessages() []string {
	out := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		out = append(out, FieldName(d.Field)+": "+d.Message)
	}
	return out
}

// UserMessage is the notice shown to the user for this error.
func (e *APIError) UserMessage() string {
	switch {
	case len(e.Details) > 0:
		return strings.Join(e.FieldMessages(), "\n")
	case e.Status == http.StatusUnauthorized && e.Code == "INVALID_CREDENTIALS":
		return "Email hoặc mật khẩu không đúng"
	case e.Status == http.StatusConflict:
		return "Email hoặc số điện thoại đã được sử dụng"
	case e.Status == http.StatusTooManyRequests:
		return "Bạn thao tác quá nhanh. Vui lòng thử lại sau"
	case e.Status >= http.StatusInternalServerError:
		return "Lỗi server. Vui lòng thử lại sau"
	case e.Message != "":
		return e.Message
	default:
		return fmt.Sprintf("Lỗi %d", e.Status)
	}
}

// IsUnauthorized reports whether err is a 401 from the service.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}
