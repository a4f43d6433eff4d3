package models

// Optional distinguishes an absent value from an explicit null in partial
// updates. The zero value is absent.
type Optional[T any] struct {
	value *T
	set   bool
}

// Some returns a present, non-null value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: &v, set: true}
}

// Null returns a present null.
func Null[T any]() Optional[T] {
	return Optional[T]{set: true}
}

// IsSet reports whether the value was provided, null included.
func (o Optional[T]) IsSet() bool { return o.set }

// Get returns the value and whether it is present and non-null.
func (o Optional[T]) Get() (T, bool) {
	if o.value == nil {
		var zero T
		return zero, false
	}
	return *o.value, true
}

// JSON returns the value for encoding: nil for null or absent.
func (o Optional[T]) JSON() any {
	if o.value == nil {
		return nil
	}
	return *o.value
}

// putOptional adds o to m under key when it is set.
func putOptional[T any](m map[string]any, key string, o Optional[T]) {
	if o.set {
		m[key] = o.JSON()
	}
}
