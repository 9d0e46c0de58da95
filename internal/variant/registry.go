// Package variant maps human-facing variant names to the provider-side
// variant tokens that appear in delivery URLs.
package variant

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultName is the variant used when a request names none.
const DefaultName = "public"

// UnknownVariantError reports a variant name absent from the registry,
// carrying the valid names for the client-facing error message.
type UnknownVariantError struct {
	Name  string
	Valid []string
}

func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("unknown variant %q, valid variants: %s", e.Name, strings.Join(e.Valid, ", "))
}

// Registry is an immutable name→token mapping built once at startup and
// passed by value. It is never empty.
type Registry struct {
	tokens map[string]string
}

// Default returns the built-in registry: public and thumbnail renditions.
func Default() Registry {
	return Registry{tokens: map[string]string{
		"public":    "public",
		"thumbnail": "thumbnail",
	}}
}

// Parse builds a registry from a comma-separated list of name=token pairs,
// e.g. "public=public,thumbnail=w200". An empty spec yields Default();
// a pair without "=" uses the name as its own token.
func Parse(spec string) Registry {
	tokens := map[string]string{}
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, token, ok := strings.Cut(pair, "=")
		if !ok {
			token = name
		}
		tokens[name] = token
	}
	if len(tokens) == 0 {
		return Default()
	}
	if _, ok := tokens[DefaultName]; !ok {
		tokens[DefaultName] = DefaultName
	}
	return Registry{tokens: tokens}
}

// Resolve returns the provider token for a known variant name.
func (r Registry) Resolve(name string) (string, error) {
	token, ok := r.tokens[name]
	if !ok {
		return "", &UnknownVariantError{Name: name, Valid: r.Names()}
	}
	return token, nil
}

// Names returns the registered variant names in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r.tokens))
	for name := range r.tokens {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// URL derives the delivery URL for one variant token. Pure function of its
// inputs; the provider serves the same URL whether or not we persist it.
func URL(deliveryBase, accountHash, imageID, token string) string {
	return fmt.Sprintf("%s/%s/%s/%s", strings.TrimRight(deliveryBase, "/"), accountHash, imageID, token)
}

// ExpandAll derives the delivery URL for every registered variant of one
// provider-assigned image ID.
func (r Registry) ExpandAll(deliveryBase, accountHash, imageID string) map[string]string {
	urls := make(map[string]string, len(r.tokens))
	for name, token := range r.tokens {
		urls[name] = URL(deliveryBase, accountHash, imageID, token)
	}
	return urls
}
