// Package handlers maps each job kind to its handler and input schema and
// enriches stored job arguments with the owner credential and the target's
// natural identifier before invoking the handler.
package handlers

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/stacklok/issue-auditor/internal/jobs"
	"github.com/stacklok/issue-auditor/internal/targets"
)

var (
	// ErrNotFound is returned when the job's owner or target does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgs is returned when the enriched arguments fail schema validation
	ErrInvalidArgs = errors.New("invalid args")

	// ErrNotRegistered is returned when no handler is registered for a kind
	ErrNotRegistered = errors.New("no handler registered")
)

//go:embed schemas/*.json
var schemaFS embed.FS

// schemaBaseURL identifies the embedded schemas; nothing is fetched from it
const schemaBaseURL = "https://schemas.issue-auditor.dev/jobs/"

// ExecContext is what enrichment resolves for a job
type ExecContext struct {
	Credential string
	Namespace  string
	Name       string
	TargetID   uuid.UUID
	OwnerID    uuid.UUID
	JobID      uuid.UUID
}

// FullName returns namespace/name
func (e ExecContext) FullName() string {
	return e.Namespace + "/" + e.Name
}

// Handler runs one kind of job
type Handler[A jobs.Args] interface {
	Handle(ctx context.Context, args A, exec ExecContext) error
}

// HandlerFunc adapts a function to Handler
type HandlerFunc[A jobs.Args] func(ctx context.Context, args A, exec ExecContext) error

// Handle calls f
func (f HandlerFunc[A]) Handle(ctx context.Context, args A, exec ExecContext) error {
	return f(ctx, args, exec)
}

type entry struct {
	schema *jsonschema.Schema
	run    func(ctx context.Context, args jobs.Args, exec ExecContext) error
}

// Registry dispatches jobs to their handlers. It implements jobs.Executor.
type Registry struct {
	directory targets.Directory
	entries   map[jobs.Kind]*entry
}

var _ jobs.Executor = (*Registry)(nil)

// NewRegistry creates an empty registry resolving owners and targets through directory
func NewRegistry(directory targets.Directory) *Registry {
	return &Registry{
		directory: directory,
		entries:   make(map[jobs.Kind]*entry),
	}
}

// Register adds the handler for A's kind together with the kind's embedded schema
func Register[A jobs.Args](r *Registry, h Handler[A]) error {
	var zero A
	kind := zero.Kind()

	if _, exists := r.entries[kind]; exists {
		return fmt.Errorf("handler for %s already registered", kind)
	}

	schema, err := compileSchema(kind)
	if err != nil {
		return err
	}

	r.entries[kind] = &entry{
		schema: schema,
		run: func(ctx context.Context, args jobs.Args, exec ExecContext) error {
			typed, ok := args.(A)
			if !ok {
				return fmt.Errorf("%w: %s handler got %T", ErrInvalidArgs, kind, args)
			}
			return h.Handle(ctx, typed, exec)
		},
	}
	return nil
}

// Validate checks that every job kind has a handler
func (r *Registry) Validate() error {
	var missing []string
	for _, kind := range jobs.Kinds() {
		if _, ok := r.entries[kind]; !ok {
			missing = append(missing, string(kind))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w for: %s", ErrNotRegistered, strings.Join(missing, ", "))
	}
	return nil
}

// Execute enriches and validates job and runs its handler
func (r *Registry) Execute(ctx context.Context, job *jobs.Job) error {
	e, ok := r.entries[job.Kind]
	if !ok {
		return fmt.Errorf("%w for %s", ErrNotRegistered, job.Kind)
	}

	exec, err := r.enrich(ctx, job)
	if err != nil {
		return err
	}

	if err := validate(e.schema, job, exec); err != nil {
		return err
	}

	args, err := jobs.DecodeArgs(job.Kind, job.Args)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgs, err)
	}

	slog.Debug("Running job handler",
		"job_id", job.ID,
		"kind", job.Kind,
		"target", exec.FullName())

	return e.run(ctx, args, exec)
}

func (r *Registry) enrich(ctx context.Context, job *jobs.Job) (ExecContext, error) {
	owner, err := r.directory.GetOwner(ctx, job.OwnerID)
	if err != nil {
		if errors.Is(err, targets.ErrOwnerNotFound) {
			return ExecContext{}, fmt.Errorf("owner %s %w", job.OwnerID, ErrNotFound)
		}
		return ExecContext{}, fmt.Errorf("failed to resolve owner: %w", err)
	}

	target, err := r.directory.GetTarget(ctx, job.TargetID)
	if err != nil {
		if errors.Is(err, targets.ErrTargetNotFound) {
			return ExecContext{}, fmt.Errorf("target %s %w", job.TargetID, ErrNotFound)
		}
		return ExecContext{}, fmt.Errorf("failed to resolve target: %w", err)
	}

	return ExecContext{
		Credential: owner.AccessToken,
		Namespace:  target.Namespace,
		Name:       target.Name,
		TargetID:   target.ID,
		OwnerID:    owner.ID,
		JobID:      job.ID,
	}, nil
}

// validate checks the stored arguments merged with the enrichment fields
func validate(schema *jsonschema.Schema, job *jobs.Job, exec ExecContext) error {
	merged := map[string]any{}
	if len(job.Args) > 0 {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(job.Args))
		if err != nil {
			return fmt.Errorf("%w: args are not valid JSON: %w", ErrInvalidArgs, err)
		}
		obj, ok := doc.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: args must be a JSON object", ErrInvalidArgs)
		}
		merged = obj
	}

	merged["credential"] = exec.Credential
	merged["namespace"] = exec.Namespace
	merged["name"] = exec.Name

	if err := schema.Validate(merged); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("%w for %s: %s", ErrInvalidArgs, job.Kind, describe(ve))
		}
		return fmt.Errorf("%w for %s: %w", ErrInvalidArgs, job.Kind, err)
	}
	return nil
}

// describe lists the failing fields, then the validator's own report
func describe(ve *jsonschema.ValidationError) string {
	var fields []string
	seen := map[string]bool{}
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			field := "/" + strings.Join(e.InstanceLocation, "/")
			if !seen[field] {
				seen[field] = true
				fields = append(fields, field)
			}
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(ve)

	return fmt.Sprintf("fields %s: %s", strings.Join(fields, ", "), ve.Error())
}

func compileSchema(kind jobs.Kind) (*jsonschema.Schema, error) {
	name := string(kind) + ".json"
	data, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return nil, fmt.Errorf("no schema for %s: %w", kind, err)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema for %s: %w", kind, err)
	}

	url := schemaBaseURL + name
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat()
	if err := compiler.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("failed to add schema for %s: %w", kind, err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema for %s: %w", kind, err)
	}
	return schema, nil
}
