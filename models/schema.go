package models

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	// bcrypt 只吃前 72 bytes，更長的會回 ErrPasswordTooLong
	MaxPasswordBytes = 72
)

var (
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockPattern = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// FieldError is one field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("calendardate", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if !datePattern.MatchString(s) {
			return false
		}
		_, err := time.Parse(DateLayout, s)
		return err == nil
	})
	_ = v.RegisterValidation("clocktime", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		// time.Parse 接受一位數小時（"9:00"），排序靠字串比較，必須固定寬度
		if !clockPattern.MatchString(s) {
			return false
		}
		_, err := time.Parse(TimeLayout, s)
		return err == nil
	})
	_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxPasswordBytes
	})
	return v
}

// 欄位名 → JSON 名（錯誤訊息用）
var fieldNames = map[string]string{
	"Name":        "name",
	"Description": "description",
	"Date":        "date",
	"Time":        "time",
	"Location":    "location",
	"Username":    "username",
	"Password":    "password",
}

var fieldLabels = map[string]string{
	"name":     "Event name",
	"date":     "Date",
	"time":     "Time",
	"location": "Location",
	"username": "Username",
	"password": "Password",
}

// ValidateInsertEvent checks every rule and reports all violations.
func ValidateInsertEvent(in InsertEvent) []FieldError {
	return validateStruct(in)
}

func ValidateInsertUser(in InsertUser) []FieldError {
	return validateStruct(in)
}

func validateStruct(s any) []FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "", Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := fieldNames[fe.StructField()]
		if field == "" {
			field = fe.Field()
		}
		out = append(out, FieldError{Field: field, Message: messageFor(field, fe.Tag())})
	}
	return out
}

func messageFor(field, tag string) string {
	label := fieldLabels[field]
	if label == "" {
		label = field
	}
	switch tag {
	case "required":
		return label + " is required"
	case "calendardate":
		return label + " must be a valid date (YYYY-MM-DD)"
	case "clocktime":
		return label + " must be a valid time (HH:MM)"
	case "bcryptlen":
		return fmt.Sprintf("%s must be at most %d bytes", label, MaxPasswordBytes)
	default:
		return fmt.Sprintf("%s is invalid (%s)", label, tag)
	}
}

// StartsAt combines date and time into one instant in loc.
// Call only after ValidateInsertEvent passed.
func (in InsertEvent) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout+"T"+TimeLayout, in.Date+"T"+in.Time, loc)
}

// ValidateEventDateNotPast is the form-side refinement: the date may not be
// before today's calendar day in loc. Time of day is ignored.
func ValidateEventDateNotPast(in InsertEvent, now time.Time, loc *time.Location) *FieldError {
	d, err := time.ParseInLocation(DateLayout, in.Date, loc)
	if err != nil {
		// 格式錯誤交給 ValidateInsertEvent 回報
		return nil
	}
	n := now.In(loc)
	today := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
	if d.Before(today) {
		return &FieldError{Field: "date", Message: "Event date must be today or in the future"}
	}
	return nil
}
