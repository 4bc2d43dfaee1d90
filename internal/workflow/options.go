package workflow

import (
	"fmt"
	"strings"

	"github.com/temirov/reposync/internal/authoring"
	"github.com/temirov/reposync/internal/glob"
	"github.com/temirov/reposync/internal/transform"
)

const (
	migrationIdentifierFieldNameConstant = "migration_identifier"
	modeFieldNameConstant                = "mode"
	originLabelFieldNameConstant         = "origin_label"
	requiredValueMessageConstant         = "value is required"
	unknownModeMessageTemplateConstant   = "unknown migration mode %q"

	defaultBaselineSearchLimitConstant = 200
	defaultInitialImportDepthConstant  = 1
)

// Mode selects how a range of origin changes maps onto destination writes.
type Mode string

const (
	// ModeSquash collapses the whole pending range into exactly one
	// destination change.
	ModeSquash Mode = "squash"
	// ModeIterative migrates every pending change individually, oldest first.
	ModeIterative Mode = "iterative"
	// ModeChangeRequest produces one destination change representing the diff
	// between a resolved baseline and the origin head.
	ModeChangeRequest Mode = "change_request"
)

// InvalidOptionsError describes orchestrator option validation failures.
type InvalidOptionsError struct {
	FieldName string
	Message   string
}

// Error describes the invalid option.
func (optionsError InvalidOptionsError) Error() string {
	return fmt.Sprintf("%s: %s", optionsError.FieldName, optionsError.Message)
}

// Options configures one orchestrator instance. The configuration front end
// delivers these as already-validated plain data; the orchestrator still
// enforces its own invariants.
type Options struct {
	// MigrationIdentifier scopes last-migrated tracking and cache keys.
	MigrationIdentifier string
	// Mode selects the migration mode.
	Mode Mode
	// OriginFiles scopes which origin paths matter for baseline resolution
	// and checkout narrowing.
	OriginFiles glob.Glob
	// Authoring decides destination authorship.
	Authoring authoring.Policy
	// Transformations is the pipeline applied to every checked-out tree.
	Transformations transform.Sequence
	// OriginLabelName is the label recorded on destination changes to point
	// back at the migrated origin revision.
	OriginLabelName string
	// ExplicitBaseline overrides baseline resolution in change-request mode.
	ExplicitBaseline string
	// BaselineSearchLimit bounds how many candidate ancestors the baseline
	// resolver examines. Zero selects the default.
	BaselineSearchLimit int
	// InitialImportDepth bounds the imported range on a first run, when the
	// destination reports no last-migrated marker. Zero selects the default
	// of importing just the head change.
	InitialImportDepth int
	// ScratchRoot hosts the per-run checkout directories. Empty selects the
	// system temporary directory.
	ScratchRoot string
}

func (options Options) validate() error {
	if len(strings.TrimSpace(options.MigrationIdentifier)) == 0 {
		return InvalidOptionsError{FieldName: migrationIdentifierFieldNameConstant, Message: requiredValueMessageConstant}
	}
	switch options.Mode {
	case ModeSquash, ModeIterative, ModeChangeRequest:
	default:
		return InvalidOptionsError{FieldName: modeFieldNameConstant, Message: fmt.Sprintf(unknownModeMessageTemplateConstant, string(options.Mode))}
	}
	if len(strings.TrimSpace(options.OriginLabelName)) == 0 {
		return InvalidOptionsError{FieldName: originLabelFieldNameConstant, Message: requiredValueMessageConstant}
	}
	return nil
}

func (options Options) baselineSearchLimit() int {
	if options.BaselineSearchLimit > 0 {
		return options.BaselineSearchLimit
	}
	return defaultBaselineSearchLimitConstant
}

func (options Options) initialImportDepth() int {
	if options.InitialImportDepth > 0 {
		return options.InitialImportDepth
	}
	return defaultInitialImportDepthConstant
}
