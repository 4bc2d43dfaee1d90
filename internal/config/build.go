package config

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/temirov/reposync/internal/authoring"
	"github.com/temirov/reposync/internal/gitrepo"
	"github.com/temirov/reposync/internal/glob"
	"github.com/temirov/reposync/internal/transform"
	"github.com/temirov/reposync/internal/workflow"
)

const (
	identifierRequiredMessageConstant            = "migration.identifier is required"
	unknownModeTemplateConstant                  = "migration.mode %q is not one of squash, iterative, change_request"
	originRemoteInvalidTemplateConstant          = "origin.remote_url is invalid: %v"
	unknownDestinationKindTemplateConstant       = "destination.kind %q is not one of git, folder"
	destinationRepositoryRequiredMessageConstant = "destination.repository_directory is required for git destinations"
	destinationTargetRequiredMessageConstant     = "destination.target_directory is required for folder destinations"
	defaultAuthorInvalidTemplateConstant         = "authoring.default is invalid: %v"
	unknownAuthoringModeTemplateConstant         = "authoring.mode %q is not one of pass_thru, use_default, allowed"
	originFilesInvalidTemplateConstant           = "origin_files is invalid: %v"
	transformationInvalidTemplateConstant        = "transformations[%d]: %v"
)

// Validate checks the manifest for configuration mistakes, accumulating
// every failure rather than stopping at the first.
func (manifest Manifest) Validate() error {
	var validationError error

	if len(strings.TrimSpace(manifest.Migration.Identifier)) == 0 {
		validationError = multierr.Append(validationError, errors.New(identifierRequiredMessageConstant))
	}
	switch workflow.Mode(manifest.Migration.Mode) {
	case workflow.ModeSquash, workflow.ModeIterative, workflow.ModeChangeRequest:
	default:
		validationError = multierr.Append(validationError, fmt.Errorf(unknownModeTemplateConstant, manifest.Migration.Mode))
	}

	if _, remoteError := gitrepo.ParseRemoteURL(manifest.Origin.RemoteURL); remoteError != nil {
		validationError = multierr.Append(validationError, fmt.Errorf(originRemoteInvalidTemplateConstant, remoteError))
	}

	switch manifest.Destination.Kind {
	case destinationKindGitConstant:
		if len(strings.TrimSpace(manifest.Destination.RepositoryDirectory)) == 0 {
			validationError = multierr.Append(validationError, errors.New(destinationRepositoryRequiredMessageConstant))
		}
	case destinationKindFolderConstant:
		if len(strings.TrimSpace(manifest.Destination.TargetDirectory)) == 0 {
			validationError = multierr.Append(validationError, errors.New(destinationTargetRequiredMessageConstant))
		}
	default:
		validationError = multierr.Append(validationError, fmt.Errorf(unknownDestinationKindTemplateConstant, manifest.Destination.Kind))
	}

	if _, authorError := authoring.ParseAuthor(manifest.Authoring.Default); authorError != nil {
		validationError = multierr.Append(validationError, fmt.Errorf(defaultAuthorInvalidTemplateConstant, authorError))
	}
	switch authoring.ResolutionMode(manifest.Authoring.Mode) {
	case authoring.ResolutionPassThru, authoring.ResolutionUseDefault, authoring.ResolutionAllowed, "":
	default:
		validationError = multierr.Append(validationError, fmt.Errorf(unknownAuthoringModeTemplateConstant, manifest.Authoring.Mode))
	}

	if _, globError := glob.NewGlob(manifest.OriginFiles.Include, manifest.OriginFiles.Exclude); globError != nil {
		validationError = multierr.Append(validationError, fmt.Errorf(originFilesInvalidTemplateConstant, globError))
	}

	for stepIndex, transformationStep := range manifest.Transformations {
		if _, buildError := transformationStep.Build(); buildError != nil {
			validationError = multierr.Append(validationError, fmt.Errorf(transformationInvalidTemplateConstant, stepIndex, buildError))
		}
	}

	return validationError
}

// BuildAuthoringPolicy converts the authoring section into a policy.
func (manifest Manifest) BuildAuthoringPolicy() (authoring.Policy, error) {
	defaultAuthor, authorError := authoring.ParseAuthor(manifest.Authoring.Default)
	if authorError != nil {
		return authoring.Policy{}, authorError
	}
	resolutionMode := authoring.ResolutionMode(manifest.Authoring.Mode)
	if len(resolutionMode) == 0 {
		resolutionMode = authoring.ResolutionUseDefault
	}
	return authoring.NewPolicy(defaultAuthor, resolutionMode, manifest.Authoring.Allowed)
}

// BuildOriginFiles converts the origin file scope into a glob.
func (manifest Manifest) BuildOriginFiles() (glob.Glob, error) {
	return glob.NewGlob(manifest.OriginFiles.Include, manifest.OriginFiles.Exclude)
}

// BuildPipeline converts the transformation list into the executable
// pipeline, naming the failing element index on error.
func (manifest Manifest) BuildPipeline() (transform.Sequence, error) {
	pipelineSteps := make([]transform.Transformation, 0, len(manifest.Transformations))
	for stepIndex, transformationStep := range manifest.Transformations {
		builtStep, buildError := transformationStep.Build()
		if buildError != nil {
			return transform.Sequence{}, fmt.Errorf(transformationInvalidTemplateConstant, stepIndex, buildError)
		}
		pipelineSteps = append(pipelineSteps, builtStep)
	}
	return transform.NewSequence(pipelineSteps...), nil
}

// BuildWorkflowOptions assembles the orchestrator options from the manifest.
// ScratchRoot is left empty for the orchestrator's default.
func (manifest Manifest) BuildWorkflowOptions() (workflow.Options, error) {
	authoringPolicy, policyError := manifest.BuildAuthoringPolicy()
	if policyError != nil {
		return workflow.Options{}, fmt.Errorf(defaultAuthorInvalidTemplateConstant, policyError)
	}
	originFiles, globError := manifest.BuildOriginFiles()
	if globError != nil {
		return workflow.Options{}, fmt.Errorf(originFilesInvalidTemplateConstant, globError)
	}
	pipeline, pipelineError := manifest.BuildPipeline()
	if pipelineError != nil {
		return workflow.Options{}, pipelineError
	}

	return workflow.Options{
		MigrationIdentifier: manifest.Migration.Identifier,
		Mode:                workflow.Mode(manifest.Migration.Mode),
		OriginFiles:         originFiles,
		Authoring:           authoringPolicy,
		Transformations:     pipeline,
		OriginLabelName:     manifest.Migration.OriginLabel,
		ExplicitBaseline:    manifest.Migration.ExplicitBaseline,
		BaselineSearchLimit: manifest.Migration.BaselineSearchLimit,
		InitialImportDepth:  manifest.Migration.InitialImportDepth,
	}, nil
}
