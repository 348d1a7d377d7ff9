package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/sensorwatch/sensorwatch/internal/storage"
)

var validate = validator.New()

// Pref is one independently persisted preference.
// Its value is JSON-encoded under Key and written through on every Set.
type Pref[T any] struct {
	key    string
	def    T
	rule   string
	value  T
	store  storage.Storage
	logger zerolog.Logger
}

func newPref[T any](s storage.Storage, logger zerolog.Logger, key string, def T, rule string) *Pref[T] {
	p := &Pref[T]{key: key, def: def, rule: rule, store: s, logger: logger}
	p.load()
	return p
}

// load reads the durable value, falling back to the default on absence or corruption
func (p *Pref[T]) load() {
	p.value = p.def

	raw, ok := p.store.Get(p.key)
	if !ok || isNull(raw) {
		return
	}

	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		p.logger.Debug().Err(err).Str("key", p.key).Msg("Ignoring unreadable preference")
		return
	}
	if err := p.check(v); err != nil {
		p.logger.Debug().Err(err).Str("key", p.key).Msg("Ignoring invalid preference")
		return
	}

	p.value = v
}

func (p *Pref[T]) check(v T) error {
	if p.rule == "" {
		return nil
	}
	return validate.Var(v, p.rule)
}

// Key returns the storage key
func (p *Pref[T]) Key() string {
	return p.key
}

// Get returns the current value
func (p *Pref[T]) Get() T {
	return p.value
}

// Default returns the hardcoded default
func (p *Pref[T]) Default() T {
	return p.def
}

// Set validates v, updates the value and writes it through to storage
func (p *Pref[T]) Set(v T) error {
	if err := p.check(v); err != nil {
		return fmt.Errorf("%w for %s: %w", ErrInvalidValue, p.key, err)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", p.key, err)
	}
	if err := p.store.Set(p.key, string(data)); err != nil {
		return fmt.Errorf("failed to save %s: %w", p.key, err)
	}

	p.value = v
	return nil
}

// Reset restores the default
func (p *Pref[T]) Reset() error {
	return p.Set(p.def)
}

// SetText parses a textual value. JSON is tried first, then the raw text as a string.
func (p *Pref[T]) SetText(text string) error {
	v, err := p.parse(text)
	if err != nil {
		return err
	}
	return p.Set(v)
}

// prepare parses and validates text, returning the write to apply it
func (p *Pref[T]) prepare(text string) (func() error, error) {
	v, err := p.parse(text)
	if err != nil {
		return nil, err
	}
	if err := p.check(v); err != nil {
		return nil, fmt.Errorf("%w for %s: %w", ErrInvalidValue, p.key, err)
	}
	return func() error { return p.Set(v) }, nil
}

func (p *Pref[T]) parse(text string) (T, error) {
	var v T
	if isNull(text) {
		return v, fmt.Errorf("%w for %s: %w", ErrInvalidValue, p.key, errNullValue)
	}
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		quoted, _ := json.Marshal(text)
		if err2 := json.Unmarshal(quoted, &v); err2 != nil {
			return v, fmt.Errorf("%w for %s: %w", ErrInvalidValue, p.key, err)
		}
	}
	return v, nil
}

var errNullValue = errors.New("value is null")

// isNull reports a JSON null, which would decode to the zero value
func isNull(text string) bool {
	return strings.TrimSpace(text) == "null"
}

// Any returns the value as an untyped interface
func (p *Pref[T]) Any() any {
	return p.value
}

// entry is the type-erased view of a Pref used for name-based access
type entry interface {
	Key() string
	SetText(text string) error
	prepare(text string) (func() error, error)
	Reset() error
	Any() any
}
