package cli

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/gatewaykit/portage/internal/bundle"
)

//go:embed schema.cue
var bundleSchema string

// LoadMode controls how errors are handled during bundle loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the results of loading a bundle document.
type LoadResult struct {
	Bundle   *bundle.Bundle
	CUEValue cue.Value // The unified CUE value for additional processing
}

// LoadError represents an error that occurred during bundle loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeReadFailed  = "E002" // File read error
	ErrCodeParseFailed = "E003" // Document parse error
	ErrCodeSchema      = "E004" // Schema violation
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeInvalid     = "E006" // Semantic validation error
	ErrCodeStore       = "E007" // Store open/access error
)

// LoadBundle loads a bundle document from a YAML or JSON file and
// validates it, first against the embedded schema and then with the
// bundle's own semantic checks.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadBundle(path string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("bundle file not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing bundle file: %v", err)}}
	}
	if info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a file: %s", path)}}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading bundle file: %v", err)}}
	}

	return ParseBundle(data, mode)
}

// ParseBundle parses and validates a bundle document from raw bytes.
// JSON documents parse too: JSON is a subset of YAML.
func ParseBundle(data []byte, mode LoadMode) (*LoadResult, []error) {
	var errs []error

	// Parse into a generic document first so schema validation sees the
	// exact fields the author wrote, unknown keys included.
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("parsing bundle document: %v", err)}}
	}
	if doc == nil {
		return nil, []error{&LoadError{Code: ErrCodeParseFailed, Message: "empty bundle document"}}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(bundleSchema)
	if err := schema.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("compiling bundle schema: %v", err)}}
	}
	schemaDef := schema.LookupPath(cue.ParsePath("#Bundle"))
	if err := schemaDef.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("resolving bundle schema: %v", err)}}
	}

	docVal := ctx.Encode(doc)
	if err := docVal.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("encoding bundle document: %v", err)}}
	}

	unified := schemaDef.Unify(docVal)
	if err := unified.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		for _, cueErr := range cueerrors.Errors(err) {
			errs = append(errs, &LoadError{
				Code:    ErrCodeSchema,
				Message: cueErr.Error(),
				Pos:     cueErr.Position(),
			})
			if mode == LoadModeFailFast {
				return nil, errs
			}
		}
		return nil, errs
	}

	var b bundle.Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("decoding bundle document: %v", err)}}
	}

	result := &LoadResult{Bundle: &b, CUEValue: unified}

	for _, verr := range b.Validate() {
		errs = append(errs, &LoadError{Code: ErrCodeInvalid, Message: verr.Error()})
		if mode == LoadModeFailFast {
			return result, errs
		}
	}

	return result, errs
}
