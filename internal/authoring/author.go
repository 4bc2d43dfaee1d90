package authoring

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	authorLabelTemplateConstant          = "%s <%s>"
	authorFormatMismatchTemplateConstant = "author %q does not match the expected format 'name <mail@example.com>'"
	authorNameRequiredMessageConstant    = "author name must not be empty"
	invalidEmailTemplateConstant         = "author email %q does not match the expected 'local@domain' shape"
)

var (
	authorLabelExpression = regexp.MustCompile(`^([^<]+)<([^>]*)>$`)
	emailShapeExpression  = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)
	errAuthorNameRequired = errors.New(authorNameRequiredMessageConstant)
)

// Author identifies a contributor by name and optional email. Authors compare
// by value.
type Author struct {
	name  string
	email string
}

// NewAuthor constructs an Author from structured fields, requiring a non-empty
// name and, when an email is supplied, a simple local@domain shape.
func NewAuthor(contributorName string, contributorEmail string) (Author, error) {
	trimmedName := strings.TrimSpace(contributorName)
	if len(trimmedName) == 0 {
		return Author{}, errAuthorNameRequired
	}

	trimmedEmail := strings.TrimSpace(contributorEmail)
	if len(trimmedEmail) > 0 && !emailShapeExpression.MatchString(trimmedEmail) {
		return Author{}, fmt.Errorf(invalidEmailTemplateConstant, contributorEmail)
	}

	return Author{name: trimmedName, email: trimmedEmail}, nil
}

// ParseAuthor builds an Author from a "Name <email>" label. The email portion
// may be empty; the name portion is taken as-is after trimming and is not
// re-validated against the structured-factory rules.
func ParseAuthor(authorLabel string) (Author, error) {
	submatches := authorLabelExpression.FindStringSubmatch(strings.TrimSpace(authorLabel))
	if submatches == nil {
		return Author{}, fmt.Errorf(authorFormatMismatchTemplateConstant, authorLabel)
	}

	return Author{
		name:  strings.TrimSpace(submatches[1]),
		email: strings.TrimSpace(submatches[2]),
	}, nil
}

// Name returns the contributor name.
func (author Author) Name() string {
	return author.name
}

// Email returns the contributor email, possibly empty.
func (author Author) Email() string {
	return author.email
}

// String renders the canonical "Name <email>" label. The email brackets are
// present even when the email is empty.
func (author Author) String() string {
	return fmt.Sprintf(authorLabelTemplateConstant, author.name, author.email)
}
