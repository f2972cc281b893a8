package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/storelink/internal/apperror"
)

// RequiredMessage is reported whenever a credential field is left empty.
const RequiredMessage = "Email and password are required."

// messages maps "<form field>.<tag>" to the text shown to the user.
var messages = map[string]string{
	"email.required":           RequiredMessage,
	"password.required":        RequiredMessage,
	"email.storelink_email":    "Please enter a valid email address.",
	"password.min":             "Password must be at least 8 characters long.",
	"password.max":             "Password must be 72 characters or fewer.",
	"confirm_password.eqfield": "Passwords do not match.",
	"url.required":             "URL is required.",
	"url.storelink_url":        "Please enter a valid URL.",
	"url.max":                  "URL must be 2048 characters or less.",
	"comment.max":              "Comment must be 500 characters or less.",
}

// SignupForm is the body of POST /signup.
type SignupForm struct {
	Email           string `form:"email"            validate:"required,storelink_email"`
	Password        string `form:"password"         validate:"required,min=8,max=72"`
	ConfirmPassword string `form:"confirm_password" validate:"eqfield=Password"`
}

// LoginForm is the body of POST /login.
type LoginForm struct {
	Email    string `form:"email"    validate:"required"`
	Password string `form:"password" validate:"required"`
}

// LinkForm is the body of POST /dashboard and POST /edit/{id}. URL is checked
// after normalization.
type LinkForm struct {
	URL     string `form:"url"     validate:"required,max=2048,storelink_url"`
	Comment string `form:"comment" validate:"max=500"`
}

var (
	validate *validator.Validate
	once     sync.Once
)

func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("storelink_email", func(fl validator.FieldLevel) bool {
			return IsValidEmail(fl.Field().String())
		})
		_ = v.RegisterValidation("storelink_url", func(fl validator.FieldLevel) bool {
			return IsValidURL(NormalizeURL(fl.Field().String()))
		})
		validate = v
	})
	return validate
}

// Struct validates a form and returns an apperror validation error carrying
// the message of the first failing rule. A missing required field is
// reported ahead of any format problem.
func Struct(form any) error {
	err := engine().Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.ValidationFailed("", "Invalid form submission.")
	}

	picked := verrs[0]
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			picked = fe
			break
		}
	}
	return apperror.ValidationFailed(picked.Field(), messageFor(picked))
}

func messageFor(fe validator.FieldError) string {
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	return fe.Field() + " is invalid."
}
