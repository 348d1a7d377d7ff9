package storage

// Layered routes a fixed set of keys to a secure backend (e.g. the keyring)
// and everything else to the default backend.
type Layered struct {
	Default Storage
	Secure  Storage
	keys    map[string]bool
}

// NewLayered creates a Layered storage. secureKeys are stored in secure.
func NewLayered(def, secure Storage, secureKeys ...string) *Layered {
	keys := make(map[string]bool, len(secureKeys))
	for _, k := range secureKeys {
		keys[k] = true
	}
	return &Layered{Default: def, Secure: secure, keys: keys}
}

func (l *Layered) backend(key string) Storage {
	if l.keys[key] {
		return l.Secure
	}
	return l.Default
}

func (l *Layered) Get(key string) (string, bool) {
	return l.backend(key).Get(key)
}

func (l *Layered) Set(key, value string) error {
	return l.backend(key).Set(key, value)
}

func (l *Layered) Remove(key string) error {
	return l.backend(key).Remove(key)
}
