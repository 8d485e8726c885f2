// Package targets keeps the owners (credential holders) and the repositories
// they audit.
package targets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrOwnerNotFound is returned when an owner does not exist
	ErrOwnerNotFound = errors.New("owner not found")

	// ErrTargetNotFound is returned when a target does not exist
	ErrTargetNotFound = errors.New("target not found")

	// ErrInvalid is returned for malformed registrations
	ErrInvalid = errors.New("invalid registration")
)

// Owner is an account whose credential is used to sync its targets
type Owner struct {
	ID          uuid.UUID `json:"id"`
	Login       string    `json:"login"`
	AccessToken string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Target is a repository on the issue tracker
type Target struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"ownerId"`
	Namespace string    `json:"namespace"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// FullName returns namespace/name
func (t *Target) FullName() string {
	return t.Namespace + "/" + t.Name
}

// Directory stores owners and targets
type Directory interface {
	// RegisterOwner creates the owner or replaces its credential
	RegisterOwner(ctx context.Context, login, accessToken string) (*Owner, error)
	GetOwner(ctx context.Context, id uuid.UUID) (*Owner, error)

	// RegisterTarget creates the target or reassigns it to ownerID
	RegisterTarget(ctx context.Context, ownerID uuid.UUID, namespace, name string) (*Target, error)
	GetTarget(ctx context.Context, id uuid.UUID) (*Target, error)
	ListTargets(ctx context.Context) ([]*Target, error)
}

// ParseFullName splits "namespace/name"
func ParseFullName(fullName string) (namespace, name string, err error) {
	namespace, name, ok := strings.Cut(fullName, "/")
	if !ok {
		return "", "", fmt.Errorf("%w: %q is not of the form namespace/name", ErrInvalid, fullName)
	}
	if err := validateTarget(namespace, name); err != nil {
		return "", "", err
	}
	return namespace, name, nil
}

func validateOwner(login, accessToken string) error {
	if strings.TrimSpace(login) == "" {
		return fmt.Errorf("%w: login is required", ErrInvalid)
	}
	if accessToken == "" {
		return fmt.Errorf("%w: access token is required", ErrInvalid)
	}
	return nil
}

func validateTarget(namespace, name string) error {
	for field, value := range map[string]string{"namespace": namespace, "name": name} {
		if value == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalid, field)
		}
		if strings.ContainsAny(value, "/ \t\n") {
			return fmt.Errorf("%w: %s %q contains invalid characters", ErrInvalid, field, value)
		}
	}
	return nil
}
