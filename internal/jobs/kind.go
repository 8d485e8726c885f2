package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Kind identifies the handler that executes a job
type Kind string

const (
	// KindIssueFetch incrementally syncs a target's issues and their comments
	KindIssueFetch Kind = "issue-fetch"

	// KindPRFetch incrementally syncs a target's pull requests and their comments
	KindPRFetch Kind = "pr-fetch"

	// KindSentiment scores synced comments that have no score yet
	KindSentiment Kind = "sentiment"

	// KindSingleIssueRefresh re-fetches one issue and its comments
	KindSingleIssueRefresh Kind = "single-issue-refresh"

	// KindSinglePRRefresh re-fetches one pull request and its comments
	KindSinglePRRefresh Kind = "single-pr-refresh"
)

// ErrUnknownKind is returned when a job kind has no handler
var ErrUnknownKind = errors.New("unknown job kind")

// Kinds returns every job kind
func Kinds() []Kind {
	return []Kind{KindIssueFetch, KindPRFetch, KindSentiment, KindSingleIssueRefresh, KindSinglePRRefresh}
}

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	switch k {
	case KindIssueFetch, KindPRFetch, KindSentiment, KindSingleIssueRefresh, KindSinglePRRefresh:
		return true
	default:
		return false
	}
}

// Args is the typed payload of a job. The set of implementations is closed.
type Args interface {
	Kind() Kind

	// canonical returns the form used for storage and deduplication
	canonical() Args
}

// IssueFetchArgs are the arguments of an issue-fetch job
type IssueFetchArgs struct {
	// Since overrides the stored resume watermark
	Since *time.Time `json:"since,omitempty"`

	// Full ignores the stored resume watermark and lists everything
	Full bool `json:"full,omitempty"`
}

// PRFetchArgs are the arguments of a pr-fetch job
type PRFetchArgs struct {
	Since *time.Time `json:"since,omitempty"`
	Full  bool       `json:"full,omitempty"`
}

// SentimentArgs are the arguments of a sentiment job
type SentimentArgs struct {
	// Limit caps how many comments one job scores; zero means the handler default
	Limit int `json:"limit,omitempty"`
}

// SingleIssueRefreshArgs are the arguments of a single-issue-refresh job
type SingleIssueRefreshArgs struct {
	Number int `json:"number"`
}

// SinglePRRefreshArgs are the arguments of a single-pr-refresh job
type SinglePRRefreshArgs struct {
	Number int `json:"number"`
}

// Kind implements Args
func (IssueFetchArgs) Kind() Kind { return KindIssueFetch }

// Kind implements Args
func (PRFetchArgs) Kind() Kind { return KindPRFetch }

// Kind implements Args
func (SentimentArgs) Kind() Kind { return KindSentiment }

// Kind implements Args
func (SingleIssueRefreshArgs) Kind() Kind { return KindSingleIssueRefresh }

// Kind implements Args
func (SinglePRRefreshArgs) Kind() Kind { return KindSinglePRRefresh }

func (a IssueFetchArgs) canonical() Args {
	a.Since = canonicalTime(a.Since)
	return a
}

func (a PRFetchArgs) canonical() Args {
	a.Since = canonicalTime(a.Since)
	return a
}

func (a SentimentArgs) canonical() Args          { return a }
func (a SingleIssueRefreshArgs) canonical() Args { return a }
func (a SinglePRRefreshArgs) canonical() Args    { return a }

func canonicalTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC().Truncate(time.Second)
	return &utc
}

// EncodeArgs serializes args in canonical form. Equal argument sets always
// encode to the same bytes.
func EncodeArgs(args Args) (json.RawMessage, error) {
	if args == nil {
		return nil, errors.New("args are required")
	}
	data, err := json.Marshal(args.canonical())
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s args: %w", args.Kind(), err)
	}
	return data, nil
}

// DecodeArgs parses the stored payload of a job of the given kind.
// An empty payload decodes to the zero arguments.
func DecodeArgs(kind Kind, raw []byte) (Args, error) {
	switch kind {
	case KindIssueFetch:
		return decodeInto[IssueFetchArgs](kind, raw)
	case KindPRFetch:
		return decodeInto[PRFetchArgs](kind, raw)
	case KindSentiment:
		return decodeInto[SentimentArgs](kind, raw)
	case KindSingleIssueRefresh:
		return decodeInto[SingleIssueRefreshArgs](kind, raw)
	case KindSinglePRRefresh:
		return decodeInto[SinglePRRefreshArgs](kind, raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func decodeInto[A Args](kind Kind, raw []byte) (Args, error) {
	var args A
	if len(raw) == 0 {
		return args, nil
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("failed to decode %s args: %w", kind, err)
	}
	return args, nil
}
