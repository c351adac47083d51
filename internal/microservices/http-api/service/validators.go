package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"yamdb/internal/apperr"
	"yamdb/pkg/slug"
)

const (
	// ReservedUsername addresses the caller's own profile in URLs.
	ReservedUsername = "me"

	maxUsernameLen = 150
	maxEmailLen    = 254
	maxNameLen     = 256
	maxProfileLen  = 150
	maxTextLen     = 10000

	MinScore = 1
	MaxScore = 10
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	validate        = validator.New(validator.WithRequiredStructEnabled())
)

func ValidateUsername(username string) error {
	switch {
	case username == "":
		return apperr.Validation("username", "This field is required.")
	case utf8.RuneCountInString(username) > maxUsernameLen:
		return apperr.Validation("username", fmt.Sprintf("Ensure this field has no more than %d characters.", maxUsernameLen))
	case username == ReservedUsername:
		return apperr.Validation("username", fmt.Sprintf("Username %q is reserved.", ReservedUsername))
	case !usernamePattern.MatchString(username):
		return apperr.Validation("username", "Enter a valid username. Only letters, digits and @/./+/-/_ are allowed.")
	}
	return nil
}

func ValidateEmail(email string) error {
	if email == "" {
		return apperr.Validation("email", "This field is required.")
	}
	if err := validate.Var(email, fmt.Sprintf("email,max=%d", maxEmailLen)); err != nil {
		return apperr.Validation("email", "Enter a valid email address.")
	}
	return nil
}

// ValidateYear rejects years after the current calendar year of now.
func ValidateYear(year int, now time.Time) error {
	if year > now.Year() {
		return apperr.Validation("year", "Release year cannot be greater than the current year.")
	}
	return nil
}

func ValidateScore(score int) error {
	if score < MinScore || score > MaxScore {
		return apperr.Validation("score", fmt.Sprintf("Score must be between %d and %d.", MinScore, MaxScore))
	}
	return nil
}

func validateRequired(field, value string, max int) error {
	if strings.TrimSpace(value) == "" {
		return apperr.Validation(field, "This field is required.")
	}
	if utf8.RuneCountInString(value) > max {
		return apperr.Validation(field, fmt.Sprintf("Ensure this field has no more than %d characters.", max))
	}
	return nil
}

func validateOptional(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return apperr.Validation(field, fmt.Sprintf("Ensure this field has no more than %d characters.", max))
	}
	return nil
}

func validateSlug(value string) error {
	if !slug.Valid(value) {
		return apperr.Validation("slug", "Enter a valid slug consisting of letters, numbers, underscores or hyphens.")
	}
	return nil
}

// resolveSlug returns the given slug or derives one from name.
func resolveSlug(given, name string) (string, error) {
	given = strings.TrimSpace(given)
	if given == "" {
		given = slug.From(name)
		if given == "" {
			return "", apperr.Validation("slug", "Could not derive a slug from name; provide one.")
		}
	}
	if err := validateSlug(given); err != nil {
		return "", err
	}
	return given, nil
}
