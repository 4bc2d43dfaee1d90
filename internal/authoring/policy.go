package authoring

import (
	"errors"
)

const (
	defaultAuthorRequiredMessageConstant = "authoring policy requires a default author"
)

// ResolutionMode selects how origin authorship maps onto destination commits.
type ResolutionMode string

const (
	// ResolutionPassThru keeps the origin author for every migrated change.
	ResolutionPassThru ResolutionMode = "pass_thru"
	// ResolutionUseDefault attributes every migrated change to the default author.
	ResolutionUseDefault ResolutionMode = "use_default"
	// ResolutionAllowed keeps origin authors found in the allow list and falls
	// back to the default author for everyone else.
	ResolutionAllowed ResolutionMode = "allowed"
)

var errDefaultAuthorRequired = errors.New(defaultAuthorRequiredMessageConstant)

// Policy resolves the destination author for migrated changes.
type Policy struct {
	defaultAuthor  Author
	resolutionMode ResolutionMode
	allowedEmails  map[string]struct{}
}

// NewPolicy constructs an authoring policy around a default author.
func NewPolicy(defaultAuthor Author, resolutionMode ResolutionMode, allowedEmails []string) (Policy, error) {
	if len(defaultAuthor.Name()) == 0 {
		return Policy{}, errDefaultAuthorRequired
	}

	allowedSet := make(map[string]struct{}, len(allowedEmails))
	for _, allowedEmail := range allowedEmails {
		allowedSet[allowedEmail] = struct{}{}
	}

	return Policy{defaultAuthor: defaultAuthor, resolutionMode: resolutionMode, allowedEmails: allowedSet}, nil
}

// DefaultAuthor returns the author used when origin authorship is not kept.
func (policy Policy) DefaultAuthor() Author {
	return policy.defaultAuthor
}

// Resolve maps an origin author onto the author recorded in the destination.
func (policy Policy) Resolve(originAuthor Author) Author {
	switch policy.resolutionMode {
	case ResolutionPassThru:
		return originAuthor
	case ResolutionAllowed:
		if _, isAllowed := policy.allowedEmails[originAuthor.Email()]; isAllowed {
			return originAuthor
		}
		return policy.defaultAuthor
	default:
		return policy.defaultAuthor
	}
}
