// Package settings persists the dispatcher's runtime configuration: the
// hybrid field assignment, the default translator, the language pair and the
// mutual translation flag. Values are opaque JSON documents keyed by name;
// stores validate documents before accepting them and notify subscribers of
// changes.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Setting keys.
const (
	KeyHybridSelections  = "hybrid_selections"
	KeyDefaultTranslator = "default_translator"
	KeyLanguageSetting   = "language_setting"
	KeyMutualTranslate   = "mutual_translate"
)

// ErrNotFound reports a key with no stored value.
var ErrNotFound = errors.New("setting not found")

// Change is one observed settings mutation.
type Change struct {
	Key   string
	Value json.RawMessage
}

// Store reads and writes settings documents. Put validates the document for
// its key before storing. Subscribe registers a callback invoked for every
// accepted Put; the returned function unregisters it.
type Store interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Put(ctx context.Context, key string, value json.RawMessage) error
	Subscribe(fn func(Change)) (unsubscribe func())
	Close() error
}

// LanguageSetting is the persisted language pair.
type LanguageSetting struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// validatePayload rejects documents that do not fit their key. The hybrid
// selections document has a full JSON Schema; the remaining keys carry small
// scalar shapes checked directly.
func validatePayload(key string, value json.RawMessage) error {
	switch key {
	case KeyHybridSelections:
		return ValidateSelectionsPayload(value)
	case KeyDefaultTranslator:
		var name string
		if err := json.Unmarshal(value, &name); err != nil {
			return fmt.Errorf("default translator must be a JSON string: %w", err)
		}
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("default translator must not be empty")
		}
		return nil
	case KeyLanguageSetting:
		var setting LanguageSetting
		if err := json.Unmarshal(value, &setting); err != nil {
			return fmt.Errorf("language setting must be a {from, to} object: %w", err)
		}
		if strings.TrimSpace(setting.From) == "" || strings.TrimSpace(setting.To) == "" {
			return fmt.Errorf("language setting requires both from and to")
		}
		return nil
	case KeyMutualTranslate:
		var enabled bool
		if err := json.Unmarshal(value, &enabled); err != nil {
			return fmt.Errorf("mutual translate must be a JSON boolean: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown setting key %q", key)
	}
}
