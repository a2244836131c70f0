/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package collectionstore

import (
	"fmt"
	"sort"
	"sync"
)

// Registry shares Collection accessors by path.
type Registry struct {
	mu          sync.RWMutex
	collections map[string]*Collection
	opts        []Option
}

// NewRegistry returns an empty registry. opts apply to collections created by GetOrCreate.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		collections: make(map[string]*Collection),
		opts:        opts,
	}
}

// Register adds coll under its path.
func (r *Registry) Register(coll *Collection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.collections[coll.Path()]; exists {
		return fmt.Errorf("collection %q already registered", coll.Path())
	}
	r.collections[coll.Path()] = coll
	return nil
}

// Get retrieves the collection registered for path.
func (r *Registry) Get(path string) (*Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	coll, exists := r.collections[path]
	if !exists {
		return nil, fmt.Errorf("collection %q not registered", path)
	}
	return coll, nil
}

// GetOrCreate returns the collection for path, creating and registering it if needed.
func (r *Registry) GetOrCreate(path string) (*Collection, error) {
	r.mu.RLock()
	coll, exists := r.collections[path]
	r.mu.RUnlock()
	if exists {
		return coll, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if coll, exists := r.collections[path]; exists {
		return coll, nil
	}
	coll, err := NewCollection(path, r.opts...)
	if err != nil {
		return nil, err
	}
	r.collections[path] = coll
	return coll, nil
}

// Remove unregisters path.
func (r *Registry) Remove(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.collections[path]; !exists {
		return fmt.Errorf("collection %q not registered", path)
	}
	delete(r.collections, path)
	return nil
}

// List returns the registered paths in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make([]string, 0, len(r.collections))
	for p := range r.collections {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
