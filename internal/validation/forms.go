package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"blogicum/internal/models"

	"github.com/go-playground/validator/v10"
)

// PostForm is the create/edit form of a post. The image travels separately
// as a multipart file.
type PostForm struct {
	Title      string `form:"title" json:"title" validate:"required,max=256"`
	Text       string `form:"text" json:"text" validate:"required"`
	PubDate    string `form:"pub_date" json:"pub_date" validate:"required,pubdate"`
	LocationID uint   `form:"location" json:"location"`
	CategoryID uint   `form:"category" json:"category" validate:"required"`
}

// CommentForm is the add/edit form of a comment.
type CommentForm struct {
	Text string `form:"text" json:"text" validate:"required"`
}

// ProfileForm edits the viewer's own account.
type ProfileForm struct {
	Username  string `form:"username" json:"username" validate:"required,username"`
	FirstName string `form:"first_name" json:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" json:"last_name" validate:"max=150"`
	Email     string `form:"email" json:"email" validate:"omitempty,max=254,email"`
}

// RegistrationForm creates an account.
type RegistrationForm struct {
	Username  string `form:"username" json:"username" validate:"required,username"`
	Email     string `form:"email" json:"email" validate:"omitempty,max=254,email"`
	Password1 string `form:"password1" json:"password1" validate:"required,strongpassword"`
	Password2 string `form:"password2" json:"password2" validate:"required,eqfield=Password1"`
}

// LoginForm authenticates an existing account.
type LoginForm struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
}

func (f *PostForm) normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Text = strings.TrimSpace(f.Text)
	f.PubDate = strings.TrimSpace(f.PubDate)
}

func (f *CommentForm) normalize() {
	f.Text = strings.TrimSpace(f.Text)
}

func (f *ProfileForm) normalize() {
	f.Username = strings.TrimSpace(f.Username)
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
}

func (f *RegistrationForm) normalize() {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
}

func (f *LoginForm) normalize() {
	f.Username = strings.TrimSpace(f.Username)
}

// PubDateTime returns the parsed publication date. Call after Validate.
func (f *PostForm) PubDateTime() time.Time {
	t, _ := ParsePubDate(f.PubDate)
	return t
}

var pubDateLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParsePubDate accepts RFC 3339 or a zone-less date-time, read as UTC.
func ParsePubDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range pubDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	mustRegister(v, "username", func(fl validator.FieldLevel) bool {
		return ValidateUsername(fl.Field().String()) == nil
	})
	mustRegister(v, "strongpassword", func(fl validator.FieldLevel) bool {
		return ValidatePassword(fl.Field().String()) == nil
	})
	mustRegister(v, "pubdate", func(fl validator.FieldLevel) bool {
		_, err := ParsePubDate(fl.Field().String())
		return err == nil
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validator: %v", tag, err))
	}
}

type normalizer interface {
	normalize()
}

// Validate trims the form in place and checks it. Failures come back as a
// VALIDATION_ERROR AppError keyed by form field name.
func Validate(form any) error {
	if n, ok := form.(normalizer); ok {
		n.normalize()
	}

	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return models.NewInternalError(err)
	}

	fields := make(map[string]string, len(vErrs))
	for _, fe := range vErrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = message(fe)
	}
	return models.NewFieldValidationError(fields)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "eqfield":
		return "The two password fields didn't match."
	case "pubdate":
		return "Enter a valid date/time."
	case "username":
		if err := ValidateUsername(fmt.Sprint(fe.Value())); err != nil {
			return err.Error()
		}
	case "strongpassword":
		if err := ValidatePassword(fmt.Sprint(fe.Value())); err != nil {
			return err.Error()
		}
	}
	return "Invalid value."
}
