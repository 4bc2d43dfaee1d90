package migrate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/reposync/internal/cache"
	"github.com/temirov/reposync/internal/config"
	"github.com/temirov/reposync/internal/execshell"
	"github.com/temirov/reposync/internal/gitrepo"
	"github.com/temirov/reposync/internal/localdir"
	"github.com/temirov/reposync/internal/statestore"
	"github.com/temirov/reposync/internal/ui"
	pathutils "github.com/temirov/reposync/internal/utils/path"
	"github.com/temirov/reposync/internal/workflow"
)

const (
	commandUseConstant              = "migrate"
	commandShortDescriptionConstant = "Run one migration described by a manifest"
	commandLongDescriptionConstant  = "migrate loads a migration manifest, validates it, and moves the pending origin changes into the destination according to the configured mode."

	manifestFlagNameConstant     = "manifest"
	manifestFlagUsageConstant    = "Path to the migration manifest."
	cacheRootFlagNameConstant    = "cache-root"
	cacheRootFlagUsageConstant   = "Directory holding cached origin clones and migration state."
	scratchRootFlagNameConstant  = "scratch-root"
	scratchRootFlagUsageConstant = "Directory hosting per-run checkout trees. Empty selects the system temporary directory."

	manifestPathMissingMessageConstant        = "a manifest path is required, pass --manifest or configure migrate.manifest"
	manifestValidationErrorTemplateConstant   = "manifest validation failed: %w"
	workflowOptionsErrorTemplateConstant      = "unable to assemble workflow options: %w"
	executorCreationErrorTemplateConstant     = "unable to construct shell executor: %w"
	originCreationErrorTemplateConstant       = "unable to construct git origin: %w"
	destinationCreationErrorTemplateConstant  = "unable to construct destination: %w"
	markerStoreOpenErrorTemplateConstant      = "unable to open migration state store: %w"
	cacheRootCreationErrorTemplateConstant    = "unable to create cache root: %w"
	orchestratorCreationErrorTemplateConstant = "unable to construct workflow: %w"
	markerStoreFileNameConstant               = "markers.db"
	destinationKindFolderConstant             = "folder"
	runCompletedLogMessageConstant            = "migration run completed"
	runUpToDateLogMessageConstant             = "destination already up to date"
	migrationIdentifierLogFieldConstant       = "migration_identifier"
	invocationIdentifierLogFieldConstant      = "invocation_identifier"
	migratedChangeCountLogFieldConstant       = "migrated_changes"
	writtenReferencesLogFieldConstant         = "written_references"
	configurationErrorMessageTemplateConstant = "%v"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationError marks failures that stem from the manifest or the
// command configuration rather than from executing the migration.
type ConfigurationError struct {
	Cause error
}

// Error describes the configuration failure.
func (configurationError ConfigurationError) Error() string {
	return fmt.Sprintf(configurationErrorMessageTemplateConstant, configurationError.Cause)
}

// Unwrap exposes the underlying failure.
func (configurationError ConfigurationError) Unwrap() error {
	return configurationError.Cause
}

// CommandBuilder assembles the migrate Cobra command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
}

// Build constructs the migrate command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runMigrate,
	}

	command.Flags().String(manifestFlagNameConstant, "", manifestFlagUsageConstant)
	command.Flags().String(cacheRootFlagNameConstant, "", cacheRootFlagUsageConstant)
	command.Flags().String(scratchRootFlagNameConstant, "", scratchRootFlagUsageConstant)

	return command, nil
}

type commandOptions struct {
	manifestPath string
	cacheRoot    string
	scratchRoot  string
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) (commandOptions, error) {
	configuration := CommandConfiguration{}
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	options := commandOptions{
		manifestPath: configuration.ManifestPath,
		cacheRoot:    configuration.CacheRoot,
		scratchRoot:  configuration.ScratchRoot,
	}

	if flagValue, flagError := command.Flags().GetString(manifestFlagNameConstant); flagError == nil && command.Flags().Changed(manifestFlagNameConstant) {
		options.manifestPath = flagValue
	}
	if flagValue, flagError := command.Flags().GetString(cacheRootFlagNameConstant); flagError == nil && command.Flags().Changed(cacheRootFlagNameConstant) {
		options.cacheRoot = flagValue
	}
	if flagValue, flagError := command.Flags().GetString(scratchRootFlagNameConstant); flagError == nil && command.Flags().Changed(scratchRootFlagNameConstant) {
		options.scratchRoot = flagValue
	}

	homeExpander := pathutils.NewHomeExpander()
	options.manifestPath = homeExpander.Expand(strings.TrimSpace(options.manifestPath))
	options.cacheRoot = homeExpander.Expand(strings.TrimSpace(options.cacheRoot))
	options.scratchRoot = homeExpander.Expand(strings.TrimSpace(options.scratchRoot))

	if len(options.manifestPath) == 0 {
		return commandOptions{}, ConfigurationError{Cause: errors.New(manifestPathMissingMessageConstant)}
	}
	if len(options.cacheRoot) == 0 {
		options.cacheRoot = homeExpander.Expand(defaultCacheRootConstant)
	}

	return options, nil
}

func (builder *CommandBuilder) runMigrate(command *cobra.Command, arguments []string) error {
	options, optionsError := builder.parseOptions(command)
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger()

	manifest, manifestError := config.LoadManifest(options.manifestPath)
	if manifestError != nil {
		return ConfigurationError{Cause: manifestError}
	}
	if validationError := manifest.Validate(); validationError != nil {
		return ConfigurationError{Cause: fmt.Errorf(manifestValidationErrorTemplateConstant, validationError)}
	}

	workflowOptions, workflowOptionsError := manifest.BuildWorkflowOptions()
	if workflowOptionsError != nil {
		return ConfigurationError{Cause: fmt.Errorf(workflowOptionsErrorTemplateConstant, workflowOptionsError)}
	}
	workflowOptions.ScratchRoot = options.scratchRoot

	if creationError := os.MkdirAll(options.cacheRoot, 0o755); creationError != nil {
		return fmt.Errorf(cacheRootCreationErrorTemplateConstant, creationError)
	}

	executor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return fmt.Errorf(executorCreationErrorTemplateConstant, executorError)
	}

	cloneStore := cache.NewCloneStore(options.cacheRoot)
	cacheKey := cache.Key(options.manifestPath, manifest.Migration.Identifier, manifest.Origin.RemoteURL, manifest.Origin.PartialFetch)

	return cloneStore.WithExclusive(cacheKey, func(cloneDirectory string) error {
		origin, originError := gitrepo.NewGitOrigin(executor, gitrepo.OriginConfiguration{
			RemoteURL:      manifest.Origin.RemoteURL,
			Reference:      manifest.Origin.Reference,
			CloneDirectory: cloneDirectory,
			FetchDepth:     manifest.Origin.FetchDepth,
		})
		if originError != nil {
			return fmt.Errorf(originCreationErrorTemplateConstant, originError)
		}

		destination, destinationCleanup, destinationError := builder.resolveDestination(executor, manifest, options)
		if destinationError != nil {
			return fmt.Errorf(destinationCreationErrorTemplateConstant, destinationError)
		}
		defer destinationCleanup()

		orchestrator, orchestratorError := workflow.NewOrchestrator(workflowOptions, workflow.Dependencies{
			Logger:      logger,
			Origin:      origin,
			Destination: destination,
			Reporter:    ui.NewPipelineProgressLogger(logger),
		})
		if orchestratorError != nil {
			return ConfigurationError{Cause: fmt.Errorf(orchestratorCreationErrorTemplateConstant, orchestratorError)}
		}

		executionContext := command.Context()
		if executionContext == nil {
			executionContext = context.Background()
		}

		if cloneError := origin.EnsureCloned(executionContext); cloneError != nil {
			return cloneError
		}

		runResult, runError := orchestrator.Run(executionContext)
		if runError != nil {
			return runError
		}

		builder.logResult(logger, manifest.Migration.Identifier, runResult)
		return nil
	})
}

func (builder *CommandBuilder) resolveDestination(executor *execshell.ShellExecutor, manifest config.Manifest, options commandOptions) (workflow.Destination, func(), error) {
	noCleanup := func() {}

	if manifest.Destination.Kind == destinationKindFolderConstant {
		markerStore, openError := statestore.Open(filepath.Join(options.cacheRoot, markerStoreFileNameConstant))
		if openError != nil {
			return nil, noCleanup, fmt.Errorf(markerStoreOpenErrorTemplateConstant, openError)
		}
		folderDestination, destinationError := localdir.NewFolderDestination(
			manifest.Destination.TargetDirectory,
			manifest.Migration.Identifier,
			manifest.Migration.OriginLabel,
			markerStore,
		)
		if destinationError != nil {
			_ = markerStore.Close()
			return nil, noCleanup, destinationError
		}
		return folderDestination, func() {
			_ = markerStore.Close()
		}, nil
	}

	gitDestination, destinationError := gitrepo.NewGitDestination(executor, gitrepo.DestinationConfiguration{
		RepositoryDirectory: manifest.Destination.RepositoryDirectory,
		OriginLabelName:     manifest.Migration.OriginLabel,
		PushRemote:          manifest.Destination.PushRemote,
		PushReference:       manifest.Destination.PushReference,
	})
	if destinationError != nil {
		return nil, noCleanup, destinationError
	}
	return gitDestination, noCleanup, nil
}

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger) (*execshell.ShellExecutor, error) {
	executor, executorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
	if executorError != nil {
		return nil, executorError
	}
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		executor.SetEventObserver(ui.NewConsoleCommandEventLogger(logger))
	}
	return executor, nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider != nil {
		if logger := builder.LoggerProvider(); logger != nil {
			return logger
		}
	}
	return zap.NewNop()
}

func (builder *CommandBuilder) logResult(logger *zap.Logger, migrationIdentifier string, runResult workflow.Result) {
	if runResult.Outcome == workflow.OutcomeNoOp {
		logger.Info(
			runUpToDateLogMessageConstant,
			zap.String(migrationIdentifierLogFieldConstant, migrationIdentifier),
			zap.String(invocationIdentifierLogFieldConstant, runResult.InvocationIdentifier),
		)
		return
	}

	logger.Info(
		runCompletedLogMessageConstant,
		zap.String(migrationIdentifierLogFieldConstant, migrationIdentifier),
		zap.String(invocationIdentifierLogFieldConstant, runResult.InvocationIdentifier),
		zap.Int(migratedChangeCountLogFieldConstant, runResult.MigratedChangeCount),
		zap.Strings(writtenReferencesLogFieldConstant, runResult.WrittenReferences),
	)
}
