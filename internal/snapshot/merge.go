// Package snapshot deep copies module state and flattens layered state.
package snapshot

import "reflect"

// Clone returns a deep copy of value. Exported struct fields, maps, slices,
// arrays and pointers are copied recursively; other values are copied as is.
func Clone[T any](value T) T {
	var zero T
	cloned := cloneValue(reflect.ValueOf(value))
	if !cloned.IsValid() {
		return zero
	}
	out, ok := cloned.Interface().(T)
	if !ok {
		return zero
	}
	return out
}

// Flatten collapses state layers ordered strongest first into one detached
// map. A key set in a stronger layer wins; when both layers hold a nested
// state map the two are flattened key by key. Slices and scalars are taken
// from the strongest layer as copies.
func Flatten[M ~map[string]any](layers ...M) M {
	if len(layers) == 0 {
		return nil
	}
	var acc any = Clone(layers[len(layers)-1])
	for i := len(layers) - 2; i >= 0; i-- {
		acc = overlay(layers[i], acc)
	}
	out, _ := acc.(M)
	return out
}

// overlay merges strong over weak. Both must be state maps for a key by key
// merge; otherwise strong replaces weak.
func overlay(strong, weak any) any {
	strongMap, ok := stateMap(strong)
	if !ok {
		return Clone(strong)
	}
	weakMap, ok := stateMap(weak)
	if !ok {
		return Clone(strong)
	}
	merged := make(map[string]any, len(strongMap)+len(weakMap))
	for key, value := range weakMap {
		merged[key] = Clone(value)
	}
	for key, value := range strongMap {
		if existing, ok := merged[key]; ok {
			merged[key] = overlay(value, existing)
			continue
		}
		merged[key] = Clone(value)
	}
	return reflect.ValueOf(merged).Convert(reflect.TypeOf(strong)).Interface()
}

var stateMapType = reflect.TypeOf(map[string]any(nil))

// stateMap views value as map[string]any when its type is a map[string]any
// or a named type over it.
func stateMap(value any) (map[string]any, bool) {
	if m, ok := value.(map[string]any); ok {
		return m, true
	}
	v := reflect.ValueOf(value)
	if !v.IsValid() || !v.Type().ConvertibleTo(stateMapType) || v.Kind() != reflect.Map {
		return nil, false
	}
	return v.Convert(stateMapType).Interface().(map[string]any), true
}

func cloneValue(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.New(v.Type().Elem())
		clone.Elem().Set(cloneValue(v.Elem()))
		return clone
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := cloneValue(v.Elem())
		if !elem.IsValid() {
			return reflect.Zero(v.Type())
		}
		return elem.Convert(v.Type())
	case reflect.Struct:
		clone := reflect.New(v.Type()).Elem()
		if v.CanInterface() {
			// keeps unexported fields such as those of time.Time
			clone.Set(v)
		}
		for i := 0; i < v.NumField(); i++ {
			field := clone.Field(i)
			if !field.CanSet() {
				continue
			}
			field.Set(cloneValue(v.Field(i)))
		}
		return clone
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			clone.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return clone
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	case reflect.Array:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	default:
		return reflect.ValueOf(v.Interface())
	}
}
