package jwks

import (
	"errors"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

var (
	// ErrFetch is returned when the key set cannot be retrieved or parsed
	ErrFetch = errors.New("failed to fetch JWKS")
)

// KeySet is an immutable, kid-indexed view over a JSON Web Key Set.
// It is safe for concurrent reads once constructed.
type KeySet struct {
	keys  []jwk.Key
	byKid map[string]jwk.Key
}

// NewKeySet indexes the keys of a parsed jwk.Set by key ID.
// Keys without a kid are kept in order but can never be selected;
// when two keys share a kid the first one wins.
func NewKeySet(set jwk.Set) *KeySet {
	ks := &KeySet{
		byKid: make(map[string]jwk.Key),
	}
	if set == nil {
		return ks
	}

	ks.keys = make([]jwk.Key, 0, set.Len())
	for i := 0; i < set.Len(); i++ {
		key, ok := set.Key(i)
		if !ok {
			continue
		}
		ks.keys = append(ks.keys, key)

		kid := key.KeyID()
		if kid == "" {
			continue
		}
		if _, exists := ks.byKid[kid]; !exists {
			ks.byKid[kid] = key
		}
	}

	return ks
}

// ParseKeySet parses a JWKS JSON document
func ParseKeySet(data []byte) (*KeySet, error) {
	set, err := jwk.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed key set: %v", ErrFetch, err)
	}
	return NewKeySet(set), nil
}

// Find returns the key registered under kid
func (ks *KeySet) Find(kid string) (jwk.Key, bool) {
	if ks == nil || kid == "" {
		return nil, false
	}
	key, ok := ks.byKid[kid]
	return key, ok
}

// Len returns the number of keys in the set, including keys without a kid
func (ks *KeySet) Len() int {
	if ks == nil {
		return 0
	}
	return len(ks.keys)
}

// KeyIDs returns the selectable key IDs in document order
func (ks *KeySet) KeyIDs() []string {
	if ks == nil {
		return nil
	}
	ids := make([]string, 0, len(ks.byKid))
	seen := make(map[string]struct{}, len(ks.byKid))
	for _, key := range ks.keys {
		kid := key.KeyID()
		if kid == "" {
			continue
		}
		if _, dup := seen[kid]; dup {
			continue
		}
		seen[kid] = struct{}{}
		ids = append(ids, kid)
	}
	return ids
}
