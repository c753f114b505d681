// Package model declares the boundary to variability-model front ends. The
// analyzer itself consumes DIMACS CNF only; translators turn other model
// formats into CNF and are registered here by their importers.
package model

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Translator converts one variability-model document into DIMACS CNF,
// including the variable-name comments the analyzer relies on.
type Translator interface {
	// Translate reads a model document and writes the equivalent CNF.
	Translate(src io.Reader, dst io.Writer) error
	// Extensions lists the file extensions (with leading dot, lower case)
	// this translator accepts.
	Extensions() []string
}

var (
	mu       sync.RWMutex
	registry = map[string]Translator{}
)

// Register makes t available for its extensions. Registering two translators
// for one extension is a programming error.
func Register(t Translator) {
	mu.Lock()
	defer mu.Unlock()
	for _, ext := range t.Extensions() {
		ext = strings.ToLower(ext)
		if _, dup := registry[ext]; dup {
			panic(fmt.Sprintf("model: duplicate translator for %s", ext))
		}
		registry[ext] = t
	}
}

// Lookup returns the translator registered for ext, if any.
func Lookup(ext string) (Translator, bool) {
	mu.RLock()
	defer mu.RUnlock()
	t, ok := registry[strings.ToLower(ext)]
	return t, ok
}

// Extensions returns every registered extension, sorted.
func Extensions() []string {
	mu.RLock()
	defer mu.RUnlock()
	exts := make([]string, 0, len(registry))
	for ext := range registry {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
