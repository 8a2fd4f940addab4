package ports

// Translations maps template keys to display text for the active locale.
// Missing keys mean "no text configured", never an error.
type Translations interface {
	Lookup(key string) (string, bool)
}

// Catalog is a flat, in-memory Translations implementation.
type Catalog map[string]string

// Lookup implements Translations.
func (c Catalog) Lookup(key string) (string, bool) {
	text, ok := c[key]
	return text, ok
}

// Snapshotter is implemented by mutable catalogs that can copy themselves.
type Snapshotter interface {
	Snapshot() Catalog
}

// Snapshot freezes t so later edits do not affect a running session.
// Implementations that can neither be copied nor snapshotted are returned as-is.
func Snapshot(t Translations) Translations {
	if s, ok := t.(Snapshotter); ok {
		return s.Snapshot()
	}
	if c, ok := t.(Catalog); ok {
		copied := make(Catalog, len(c))
		for k, v := range c {
			copied[k] = v
		}
		return copied
	}
	return t
}

// Layered looks keys up in order; the first layer defining a key wins.
type Layered []Translations

// Lookup implements Translations.
func (l Layered) Lookup(key string) (string, bool) {
	for _, t := range l {
		if t == nil {
			continue
		}
		if text, ok := t.Lookup(key); ok {
			return text, true
		}
	}
	return "", false
}

// Snapshot flattens the layers into one catalog. Layers that cannot be
// enumerated are skipped.
func (l Layered) Snapshot() Catalog {
	out := Catalog{}
	for i := len(l) - 1; i >= 0; i-- {
		if l[i] == nil {
			continue
		}
		if c, ok := Snapshot(l[i]).(Catalog); ok {
			for k, v := range c {
				out[k] = v
			}
		}
	}
	return out
}
