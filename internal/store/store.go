// AngelaMos | 2026
// store.go

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
)

// ErrNoChange may be returned from a Modify callback to skip the write.
var ErrNoChange = errors.New("store: no change")

var tracer = otel.Tracer("github.com/BeCreativeRuben/StudioThielmanV2/internal/store")

var emptyCollection = []byte("[]")

// Store persists whole collections as serialized JSON arrays. A collection
// with no backing storage is created empty on first access.
type Store interface {
	Load(ctx context.Context, collection string) ([]byte, error)
	Save(ctx context.Context, collection string, data []byte) error
	Modify(
		ctx context.Context,
		collection string,
		fn func(current []byte) ([]byte, error),
	) error
	Ping(ctx context.Context) error
}

func validateName(collection string) error {
	if collection == "" ||
		strings.ContainsAny(collection, `/\.`) ||
		strings.TrimSpace(collection) != collection {
		return fmt.Errorf("invalid collection name %q", collection)
	}
	return nil
}
