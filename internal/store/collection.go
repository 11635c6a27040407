// AngelaMos | 2026
// collection.go

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/BeCreativeRuben/StudioThielmanV2/internal/core"
)

// Collection is a typed view over one named collection. Every read parses
// the whole collection and every write re-serializes all of it.
type Collection[T any] struct {
	store Store
	name  string
}

func NewCollection[T any](s Store, name string) *Collection[T] {
	return &Collection[T]{store: s, name: name}
}

func (c *Collection[T]) Name() string {
	return c.name
}

func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	ctx, span := c.start(ctx, "store.All")
	defer span.End()

	raw, err := c.store.Load(ctx, c.name)
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("load %s: %w", c.name, err)
	}

	items, err := c.decode(raw)
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("store.records", len(items)))
	return items, nil
}

func (c *Collection[T]) Replace(ctx context.Context, items []T) error {
	ctx, span := c.start(ctx, "store.Replace")
	defer span.End()

	raw, err := c.encode(items)
	if err != nil {
		core.SetSpanError(ctx, err)
		return err
	}

	if err := c.store.Save(ctx, c.name, raw); err != nil {
		core.SetSpanError(ctx, err)
		return fmt.Errorf("save %s: %w", c.name, err)
	}
	return nil
}

// Modify runs fn over the current records and persists its result in one
// read-modify-write cycle. Errors from fn are returned unchanged, except
// ErrNoChange which skips the write and reports success.
func (c *Collection[T]) Modify(
	ctx context.Context,
	fn func(items []T) ([]T, error),
) error {
	ctx, span := c.start(ctx, "store.Modify")
	defer span.End()

	var fnErr error
	err := c.store.Modify(ctx, c.name, func(current []byte) ([]byte, error) {
		items, err := c.decode(current)
		if err != nil {
			return nil, err
		}

		out, err := fn(items)
		if err != nil {
			fnErr = err
			return nil, err
		}

		return c.encode(out)
	})

	if fnErr != nil {
		if errors.Is(fnErr, ErrNoChange) {
			return nil
		}
		return fnErr
	}
	if err != nil {
		core.SetSpanError(ctx, err)
		return fmt.Errorf("modify %s: %w", c.name, err)
	}
	return nil
}

func (c *Collection[T]) decode(raw []byte) ([]T, error) {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("parse collection %s: %w", c.name, err)
	}
	return items, nil
}

func (c *Collection[T]) encode(items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	raw, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize collection %s: %w", c.name, err)
	}
	return raw, nil
}

func (c *Collection[T]) start(
	ctx context.Context,
	name string,
) (context.Context, trace.Span) {
	return tracer.Start(
		ctx,
		name,
		trace.WithAttributes(attribute.String("store.collection", c.name)),
	)
}
