package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	pathutils "github.com/temirov/reposync/internal/utils/path"
)

const (
	manifestPathRequiredMessageConstant = "manifest path must be provided"
	manifestLoadErrorTemplateConstant   = "failed to load migration manifest: %w"
	manifestParseErrorTemplateConstant  = "failed to parse migration manifest: %w"
	destinationKindGitConstant          = "git"
	destinationKindFolderConstant       = "folder"
	defaultOriginLabelNameConstant      = "RepoSync-Origin-Rev"
	defaultOriginReferenceConstant      = "origin/main"
)

// Manifest is the root of a migration manifest document.
type Manifest struct {
	Migration       MigrationConfiguration   `yaml:"migration"`
	Origin          OriginConfiguration      `yaml:"origin"`
	Destination     DestinationConfiguration `yaml:"destination"`
	Authoring       AuthoringConfiguration   `yaml:"authoring"`
	OriginFiles     OriginFilesConfiguration `yaml:"origin_files"`
	Transformations []TransformationStep     `yaml:"transformations"`
}

// MigrationConfiguration identifies the migration and selects its mode.
type MigrationConfiguration struct {
	Identifier          string `yaml:"identifier"`
	Mode                string `yaml:"mode"`
	OriginLabel         string `yaml:"origin_label"`
	InitialImportDepth  int    `yaml:"initial_import_depth"`
	BaselineSearchLimit int    `yaml:"baseline_search_limit"`
	ExplicitBaseline    string `yaml:"explicit_baseline"`
}

// OriginConfiguration describes the origin repository.
type OriginConfiguration struct {
	RemoteURL    string `yaml:"remote_url"`
	Reference    string `yaml:"reference"`
	FetchDepth   int    `yaml:"fetch_depth"`
	PartialFetch bool   `yaml:"partial_fetch"`
}

// DestinationConfiguration describes the destination endpoint. Kind selects
// between a git working copy and a plain folder.
type DestinationConfiguration struct {
	Kind                string `yaml:"kind"`
	RepositoryDirectory string `yaml:"repository_directory"`
	TargetDirectory     string `yaml:"target_directory"`
	PushRemote          string `yaml:"push_remote"`
	PushReference       string `yaml:"push_reference"`
}

// AuthoringConfiguration describes destination authorship.
type AuthoringConfiguration struct {
	Default string   `yaml:"default"`
	Mode    string   `yaml:"mode"`
	Allowed []string `yaml:"allowed"`
}

// OriginFilesConfiguration scopes the origin paths the migration cares about.
type OriginFilesConfiguration struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// LoadManifest reads a manifest document from disk.
func LoadManifest(manifestPath string) (Manifest, error) {
	trimmedPath := strings.TrimSpace(manifestPath)
	if len(trimmedPath) == 0 {
		return Manifest{}, errors.New(manifestPathRequiredMessageConstant)
	}

	manifestBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return Manifest{}, fmt.Errorf(manifestLoadErrorTemplateConstant, readError)
	}

	var manifest Manifest
	if unmarshalError := yaml.Unmarshal(manifestBytes, &manifest); unmarshalError != nil {
		return Manifest{}, fmt.Errorf(manifestParseErrorTemplateConstant, unmarshalError)
	}
	manifest.applyDefaults()
	manifest.expandHomePaths(pathutils.NewHomeExpander())
	return manifest, nil
}

func (manifest *Manifest) applyDefaults() {
	if len(strings.TrimSpace(manifest.Migration.OriginLabel)) == 0 {
		manifest.Migration.OriginLabel = defaultOriginLabelNameConstant
	}
	if len(strings.TrimSpace(manifest.Origin.Reference)) == 0 {
		manifest.Origin.Reference = defaultOriginReferenceConstant
	}
	if len(strings.TrimSpace(manifest.Destination.Kind)) == 0 {
		manifest.Destination.Kind = destinationKindGitConstant
	}
	if len(manifest.OriginFiles.Include) == 0 {
		manifest.OriginFiles.Include = []string{"**"}
	}
}

func (manifest *Manifest) expandHomePaths(homeExpander *pathutils.HomeExpander) {
	manifest.Destination.RepositoryDirectory = homeExpander.Expand(manifest.Destination.RepositoryDirectory)
	manifest.Destination.TargetDirectory = homeExpander.Expand(manifest.Destination.TargetDirectory)
}
