// Package secrets provides SecretHolder implementations for the weixin client.
package secrets

import (
	"fmt"
	"sort"
	"strings"
)

// Store resolves and manages appid -> secret pairs.
type Store interface {
	Secret(appID string) (string, error)
	Put(appID, secret string) error
	Delete(appID string) error
	AppIDs() ([]string, error)
	Close() error
}

const (
	TypeStatic = "static"
	TypeBBolt  = "bbolt"
)

// NewStore creates the configured secret backend. pairs seeds the store; for
// bbolt they are written on open so env-provided secrets survive restarts.
func NewStore(typ, path string, pairs map[string]string) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))

	switch typ {
	case "", TypeStatic:
		return NewStatic(pairs), nil
	case TypeBBolt:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt secret store requires a path")
		}
		store, err := openBolt(path)
		if err != nil {
			return nil, err
		}
		for appID, secret := range pairs {
			if err := store.Put(appID, secret); err != nil {
				store.Close()
				return nil, fmt.Errorf("seed secret for %s: %w", appID, err)
			}
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported secret store type %q", typ)
	}
}

// ParsePairs parses "appid=secret,appid2=secret2". Whitespace around entries is ignored.
func ParsePairs(raw string) (map[string]string, error) {
	out := make(map[string]string)
	for i, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		idx := strings.Index(entry, "=")
		if idx <= 0 {
			return nil, fmt.Errorf("apps[%d]: expected appid=secret", i)
		}
		appID := strings.TrimSpace(entry[:idx])
		secret := strings.TrimSpace(entry[idx+1:])
		if secret == "" {
			return nil, fmt.Errorf("apps[%d]: empty secret for %s", i, appID)
		}
		if _, exists := out[appID]; exists {
			return nil, fmt.Errorf("duplicate appid %q", appID)
		}
		out[appID] = secret
	}
	return out, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
