package api

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
)

// Gateway is the request primitive resources are built on.
type Gateway interface {
	Do(ctx context.Context, method, path string, query url.Values, body, out any) error
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
	Download(ctx context.Context, path string, query url.Values, w io.Writer) (int64, error)
	Location(ctx context.Context, path string) (string, error)
}

// Page bounds a list call. Zero values use the backend defaults.
type Page struct {
	Skip  int
	Limit int
}

func (p Page) values() url.Values {
	v := url.Values{}
	if p.Skip > 0 {
		v.Set("skip", strconv.Itoa(p.Skip))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	return v
}

// Collection is a CRUD resource at a fixed path.
type Collection[T any] struct {
	gw   Gateway
	path string
}

// NewCollection binds a collection at path, for example "/clients".
func NewCollection[T any](gw Gateway, path string) Collection[T] {
	return Collection[T]{gw: gw, path: path}
}

// Path returns the collection path.
func (c Collection[T]) Path() string {
	return c.path
}

func (c Collection[T]) item(id int) string {
	return fmt.Sprintf("%s/%d", c.path, id)
}

// List returns one page of the collection.
func (c Collection[T]) List(ctx context.Context, page Page) ([]T, error) {
	var out []T
	if err := c.gw.Get(ctx, c.path+"/", page.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one item.
func (c Collection[T]) Get(ctx context.Context, id int) (*T, error) {
	var out T
	if err := c.gw.Get(ctx, c.item(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create adds an item.
func (c Collection[T]) Create(ctx context.Context, in any) (*T, error) {
	var out T
	if err := c.gw.Post(ctx, c.path+"/", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces an item.
func (c Collection[T]) Update(ctx context.Context, id int, in any) (*T, error) {
	var out T
	if err := c.gw.Put(ctx, c.item(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes an item.
func (c Collection[T]) Delete(ctx context.Context, id int) error {
	return c.gw.Delete(ctx, c.item(id))
}
