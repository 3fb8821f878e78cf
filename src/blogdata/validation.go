package blogdata

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"git.inkwell.blog/inkwell/inkwell/src/parsing"
)

const (
	UsernameMinLength = 3
	UsernameMaxLength = 20
	PasswordMinLength = 5
	TitleMaxLength    = 30
)

var reUsername = regexp.MustCompile(fmt.Sprintf(`^[a-zA-Z0-9]{%d,%d}$`, UsernameMinLength, UsernameMaxLength))

// A list of user-facing messages describing what was wrong with a form.
// A nil or empty list means the input was fine.
type ValidationErrors []string

func (v ValidationErrors) Error() string {
	return strings.Join(v, "; ")
}

func (v *ValidationErrors) add(msg string) {
	*v = append(*v, msg)
}

type RegistrationInput struct {
	Email    string
	Username string
	Password string
}

// Trims whitespace from the email and username and checks every field.
func (in *RegistrationInput) Validate() ValidationErrors {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	var errs ValidationErrors
	if in.Email == "" {
		errs.add("Email must not be empty.")
	}
	if in.Username == "" {
		errs.add("Username must not be empty.")
	} else if !reUsername.MatchString(in.Username) {
		errs.add(fmt.Sprintf("Username must be %d to %d letters or digits.", UsernameMinLength, UsernameMaxLength))
	}
	if in.Password == "" {
		errs.add("Password must not be empty.")
	} else if utf8.RuneCountInString(in.Password) < PasswordMinLength {
		errs.add(fmt.Sprintf("Password must be at least %d characters long.", PasswordMinLength))
	}
	return errs
}

type ArticleInput struct {
	Title string
	Body  string
}

// Strips HTML from the title and body and checks the result. The stored
// article uses the cleaned values.
func (in *ArticleInput) Validate() ValidationErrors {
	in.Title = strings.TrimSpace(parsing.StripHTML(in.Title))
	in.Body = strings.TrimSpace(parsing.StripHTML(in.Body))

	var errs ValidationErrors
	if in.Title == "" {
		errs.add("Title must not be empty.")
	} else if utf8.RuneCountInString(in.Title) > TitleMaxLength {
		errs.add(fmt.Sprintf("Title must be at most %d characters long.", TitleMaxLength))
	}
	if in.Body == "" {
		errs.add("Article text must not be empty.")
	}
	return errs
}

func ValidatePasswordChange(password, confirmation string) ValidationErrors {
	var errs ValidationErrors
	if password == "" {
		errs.add("Password must not be empty.")
	} else if utf8.RuneCountInString(password) < PasswordMinLength {
		errs.add(fmt.Sprintf("Password must be at least %d characters long.", PasswordMinLength))
	}
	if password != confirmation {
		errs.add("Passwords do not match.")
	}
	return errs
}

// Returns the trimmed email and any problems with it.
func ValidateEmail(email string) (string, ValidationErrors) {
	email = strings.TrimSpace(email)
	var errs ValidationErrors
	if email == "" {
		errs.add("Email must not be empty.")
	}
	return email, errs
}

func ValidateVisualName(name string) (string, ValidationErrors) {
	name = strings.TrimSpace(parsing.StripHTML(name))
	var errs ValidationErrors
	if name == "" {
		errs.add("Name must not be empty.")
	}
	return name, errs
}
