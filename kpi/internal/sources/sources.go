// Package sources stores named sets of index patterns and field mappings
// that KPI requests are evaluated against.
package sources

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/store"
)

// DefaultID names the built-in source.
const DefaultID = "default"

var (
	ErrSourceNotFound  = errors.New("source not found")
	ErrSourceInvalid   = errors.New("invalid source")
	ErrSourceProtected = errors.New("source is protected")
)

// DefaultIndices are the beats patterns of the built-in source.
var DefaultIndices = []string{"auditbeat-*", "filebeat-*", "packetbeat-*", "winlogbeat-*"}

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,62}$`)

// Source is a named set of index patterns. Empty Fields entries fall back
// to the ECS defaults.
type Source struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Indices   []string       `json:"indices"`
	Fields    store.FieldMap `json:"fields"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Default returns the built-in source.
func Default() *Source {
	return &Source{
		ID:      DefaultID,
		Name:    "Default",
		Indices: append([]string(nil), DefaultIndices...),
	}
}

// Validate checks s before it is stored.
func (s *Source) Validate() error {
	if !idPattern.MatchString(s.ID) {
		return fmt.Errorf("%w: id %q must be lowercase alphanumeric, '-' or '_'", ErrSourceInvalid, s.ID)
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrSourceInvalid)
	}
	if len(s.Indices) == 0 {
		return fmt.Errorf("%w: at least one index pattern is required", ErrSourceInvalid)
	}
	for _, idx := range s.Indices {
		if strings.TrimSpace(idx) == "" {
			return fmt.Errorf("%w: index patterns must not be blank", ErrSourceInvalid)
		}
	}
	return nil
}

type Repository interface {
	Get(ctx context.Context, id string) (*Source, error)
	List(ctx context.Context) ([]*Source, error)
	Upsert(ctx context.Context, s *Source) error
	Delete(ctx context.Context, id string) error
	Close()
}
