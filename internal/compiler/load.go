package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// LoadMode controls how errors are handled during spec loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Load error codes, shared by every command that reads specs.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
)

// Bundle is everything declared in a set of CUE specs.
type Bundle struct {
	Lists     []ListSpec
	Queries   []QuerySpec
	Value     cue.Value // The raw CUE value for additional processing
	FileCount int
}

// ListIndex returns the declared lists keyed by name.
func (b *Bundle) ListIndex() map[string]*ListSpec {
	idx := make(map[string]*ListSpec, len(b.Lists))
	for i := range b.Lists {
		idx[b.Lists[i].Name] = &b.Lists[i]
	}
	return idx
}

// Query returns the query declared under name.
func (b *Bundle) Query(name string) (*QuerySpec, bool) {
	for i := range b.Queries {
		if b.Queries[i].Name == name {
			return &b.Queries[i], true
		}
	}
	return nil, false
}

// LoadError represents an error that occurred during spec loading.
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

// LoadDir loads every CUE file of the package in dir.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadDir(dir string, mode LoadMode) (*Bundle, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specs directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing specs directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	return extract(value, len(cueFiles), mode)
}

// LoadFiles compiles the given CUE files independently and unifies them.
// Files may live in different directories; imports are not resolved.
func LoadFiles(files []string, mode LoadMode) (*Bundle, []error) {
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: "no CUE files given"}}
	}

	ctx := cuecontext.New()
	value := ctx.CompileString("{}")
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading %s: %v", path, err)}}
		}
		v := ctx.CompileBytes(data, cue.Filename(path))
		if err := v.Err(); err != nil {
			return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading %s: %v", path, err)}}
		}
		value = value.Unify(v)
	}
	if err := value.Validate(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("unifying specs: %v", err)}}
	}

	return extract(value, len(files), mode)
}

// extract compiles the top-level list and query structs of value.
func extract(value cue.Value, fileCount int, mode LoadMode) (*Bundle, []error) {
	var errs []error
	b := &Bundle{Value: value, FileCount: fileCount}

	err := eachField(value, "list", func(label string, v cue.Value) bool {
		spec, err := CompileList(v)
		if err != nil {
			errs = append(errs, convertCompileError(err, "list."+label))
			return mode == LoadModeCollectAll
		}
		b.Lists = append(b.Lists, *spec)
		return true
	})
	if err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 && mode == LoadModeFailFast {
		return b, errs
	}

	err = eachField(value, "query", func(label string, v cue.Value) bool {
		spec, err := CompileQuery(v)
		if err != nil {
			errs = append(errs, convertCompileError(err, "query."+label))
			return mode == LoadModeCollectAll
		}
		b.Queries = append(b.Queries, *spec)
		return true
	})
	if err != nil {
		errs = append(errs, err)
	}

	if len(b.Lists) == 0 && len(b.Queries) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no lists or queries found in specs"})
	}

	return b, errs
}

// eachField calls fn for every field of the struct at path, in declaration
// order, until fn returns false.
func eachField(value cue.Value, path string, fn func(label string, v cue.Value) bool) error {
	v := value.LookupPath(cue.ParsePath(path))
	if !v.Exists() {
		return nil
	}
	iter, err := v.Fields()
	if err != nil {
		return &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating %s: %v", path, err), Pos: v.Pos()}
	}
	for iter.Next() {
		if !fn(iter.Label(), iter.Value()) {
			return nil
		}
	}
	return nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: fmt.Sprintf("%s: %s", context, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "fields":
		return ErrListNoFields
	case strings.HasPrefix(field, "fields[") && strings.HasSuffix(field, ".type"):
		return ErrInvalidFieldType
	case strings.HasPrefix(field, "fields["):
		return ErrFieldIncomplete
	case field == "query.list", field == "list":
		return ErrQueryListEmpty
	case strings.HasPrefix(field, "where"),
		strings.HasPrefix(field, "view"),
		strings.HasPrefix(field, "order_by"),
		field == "row_limit":
		return ErrQueryStructure
	default:
		return ErrCodeGeneric
	}
}
