/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"sync"
)

// keyRegistry maps collection paths to key templates (PK, SK, ...).

var (
	keyRegistry = make(map[string]map[string]string)
	mu          sync.RWMutex
)

// RegisterKeyTemplates associates a collection path with key templates such as
// {"PK": "TENANT#acme#COLLECTION#{collection}", "SK": "DOC#{id}"}.
func RegisterKeyTemplates(collection string, templates map[string]string) {
	copied := make(map[string]string, len(templates))
	for k, v := range templates {
		copied[k] = v
	}

	mu.Lock()
	defer mu.Unlock()
	keyRegistry[collection] = copied
}

// GetKeyTemplates retrieves the key templates for a collection, if any.
func GetKeyTemplates(collection string) (map[string]string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	m, ok := keyRegistry[collection]
	return m, ok
}

// UnregisterKeyTemplates removes the templates of a collection.
func UnregisterKeyTemplates(collection string) {
	mu.Lock()
	defer mu.Unlock()
	delete(keyRegistry, collection)
}
