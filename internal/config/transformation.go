package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/temirov/reposync/internal/glob"
	"github.com/temirov/reposync/internal/transform"
)

const (
	transformationKindMoveConstant        = "move"
	transformationKindReplaceConstant     = "replace"
	transformationKindVerifyMatchConstant = "verify_match"
	transformationKindReversalConstant    = "reversal"
	transformationKindSequenceConstant    = "sequence"

	transformationNodeShapeTemplateConstant   = "transformation must be a single-key mapping, got a %s node"
	transformationUnknownKindTemplateConstant = "unknown transformation kind %q"
	transformationFieldTemplateConstant       = "transformation %q: %s"
	reversalSidesRequiredMessageConstant      = "both forward and reverse sides are required"
	movePathsRequiredMessageConstant          = "both from and to paths are required"
	replaceLiteralRequiredMessageConstant     = "a before literal is required"
	verifyPatternRequiredMessageConstant      = "a pattern is required"
)

// TransformationStep is one parsed element of the manifest's transformation
// list. The concrete kind is discriminated while the document is decoded.
type TransformationStep struct {
	kind        string
	move        moveStepConfiguration
	replace     replaceStepConfiguration
	verifyMatch verifyMatchStepConfiguration
	reversal    reversalStepConfiguration
	sequence    []TransformationStep
}

type moveStepConfiguration struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

type replaceStepConfiguration struct {
	Before string   `yaml:"before"`
	After  string   `yaml:"after"`
	Paths  []string `yaml:"paths"`
}

type verifyMatchStepConfiguration struct {
	Pattern string   `yaml:"pattern"`
	Paths   []string `yaml:"paths"`
}

type reversalStepConfiguration struct {
	Forward *TransformationStep `yaml:"forward"`
	Reverse *TransformationStep `yaml:"reverse"`
}

func yamlNodeKindName(nodeKind yaml.Kind) string {
	switch nodeKind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}

// UnmarshalYAML decodes one transformation element. The element must be a
// mapping with exactly one key naming the transformation kind.
func (step *TransformationStep) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return fmt.Errorf(transformationNodeShapeTemplateConstant, yamlNodeKindName(node.Kind))
	}

	kindNode := node.Content[0]
	payloadNode := node.Content[1]
	step.kind = kindNode.Value

	switch step.kind {
	case transformationKindMoveConstant:
		return payloadNode.Decode(&step.move)
	case transformationKindReplaceConstant:
		return payloadNode.Decode(&step.replace)
	case transformationKindVerifyMatchConstant:
		return payloadNode.Decode(&step.verifyMatch)
	case transformationKindReversalConstant:
		return payloadNode.Decode(&step.reversal)
	case transformationKindSequenceConstant:
		return payloadNode.Decode(&step.sequence)
	default:
		return fmt.Errorf(transformationUnknownKindTemplateConstant, step.kind)
	}
}

// Kind returns the discriminated transformation kind.
func (step TransformationStep) Kind() string {
	return step.kind
}

// Build converts the parsed step into an executable transformation.
func (step TransformationStep) Build() (transform.Transformation, error) {
	switch step.kind {
	case transformationKindMoveConstant:
		if len(step.move.From) == 0 || len(step.move.To) == 0 {
			return nil, fmt.Errorf(transformationFieldTemplateConstant, step.kind, movePathsRequiredMessageConstant)
		}
		return transform.NewMove(step.move.From, step.move.To), nil

	case transformationKindReplaceConstant:
		if len(step.replace.Before) == 0 {
			return nil, fmt.Errorf(transformationFieldTemplateConstant, step.kind, replaceLiteralRequiredMessageConstant)
		}
		fileMatcher, globError := buildStepGlob(step.replace.Paths)
		if globError != nil {
			return nil, fmt.Errorf(transformationFieldTemplateConstant, step.kind, globError)
		}
		return transform.NewReplace(step.replace.Before, step.replace.After, fileMatcher), nil

	case transformationKindVerifyMatchConstant:
		if len(step.verifyMatch.Pattern) == 0 {
			return nil, fmt.Errorf(transformationFieldTemplateConstant, step.kind, verifyPatternRequiredMessageConstant)
		}
		fileMatcher, globError := buildStepGlob(step.verifyMatch.Paths)
		if globError != nil {
			return nil, fmt.Errorf(transformationFieldTemplateConstant, step.kind, globError)
		}
		verifyStep, verifyError := transform.NewVerifyMatch(step.verifyMatch.Pattern, fileMatcher)
		if verifyError != nil {
			return nil, fmt.Errorf(transformationFieldTemplateConstant, step.kind, verifyError)
		}
		return verifyStep, nil

	case transformationKindReversalConstant:
		if step.reversal.Forward == nil || step.reversal.Reverse == nil {
			return nil, fmt.Errorf(transformationFieldTemplateConstant, step.kind, reversalSidesRequiredMessageConstant)
		}
		forwardStep, forwardError := step.reversal.Forward.Build()
		if forwardError != nil {
			return nil, forwardError
		}
		reverseStep, reverseError := step.reversal.Reverse.Build()
		if reverseError != nil {
			return nil, reverseError
		}
		return transform.NewExplicitReversal(forwardStep, reverseStep), nil

	case transformationKindSequenceConstant:
		builtSteps := make([]transform.Transformation, 0, len(step.sequence))
		for _, nestedStep := range step.sequence {
			builtStep, buildError := nestedStep.Build()
			if buildError != nil {
				return nil, buildError
			}
			builtSteps = append(builtSteps, builtStep)
		}
		return transform.NewSequence(builtSteps...), nil

	default:
		return nil, fmt.Errorf(transformationUnknownKindTemplateConstant, step.kind)
	}
}

func buildStepGlob(includePatterns []string) (glob.Glob, error) {
	if len(includePatterns) == 0 {
		return glob.EverythingGlob(), nil
	}
	return glob.NewGlob(includePatterns, nil)
}
