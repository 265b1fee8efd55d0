// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package wire translates boundary log events into the OTLP wire model
// defined by go.opentelemetry.io/proto/otlp.
package wire

import (
	"math"
	"reflect"
	"sort"

	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
)

// AnyValue converts an arbitrary Go value into the OTLP typed value
// representation. The second return value reports whether the conversion
// succeeded; unsupported types yield (nil, false) and the caller is
// expected to drop the attribute. This lossy policy is deliberate:
// attributes are best-effort metadata, never a reason to fail an export.
//
// Supported inputs are booleans, integers, floats, strings, and slices or
// string-keyed maps of supported values. Numeric width is preserved:
// integers stay integers, floats stay floats.
func AnyValue(v any) (*commonpb.AnyValue, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case bool:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_BoolValue{BoolValue: x}}, true
	case string:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: x}}, true
	case int:
		return intValue(int64(x)), true
	case int8:
		return intValue(int64(x)), true
	case int16:
		return intValue(int64(x)), true
	case int32:
		return intValue(int64(x)), true
	case int64:
		return intValue(x), true
	case uint:
		return uintValue(uint64(x))
	case uint8:
		return intValue(int64(x)), true
	case uint16:
		return intValue(int64(x)), true
	case uint32:
		return intValue(int64(x)), true
	case uint64:
		return uintValue(x)
	case float32:
		return doubleValue(float64(x)), true
	case float64:
		return doubleValue(x), true
	case []any:
		return arrayValue(len(x), func(i int) any { return x[i] }), true
	case map[string]any:
		return kvlistValue(x), true
	}
	return reflectValue(v)
}

// reflectValue handles named primitive types and typed slices/maps,
// e.g. []string or map[string]int.
func reflectValue(v any) (*commonpb.AnyValue, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return AnyValue(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intValue(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return uintValue(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return doubleValue(rv.Float()), true
	case reflect.String:
		return AnyValue(rv.String())
	case reflect.Slice, reflect.Array:
		return arrayValue(rv.Len(), func(i int) any { return rv.Index(i).Interface() }), true
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return kvlistValue(m), true
	}
	return nil, false
}

func intValue(n int64) *commonpb.AnyValue {
	return &commonpb.AnyValue{Value: &commonpb.AnyValue_IntValue{IntValue: n}}
}

// uintValue converts an unsigned integer, dropping values which do not
// fit the wire model's signed 64-bit integer.
func uintValue(n uint64) (*commonpb.AnyValue, bool) {
	if n > math.MaxInt64 {
		return nil, false
	}
	return intValue(int64(n)), true
}

func doubleValue(f float64) *commonpb.AnyValue {
	return &commonpb.AnyValue{Value: &commonpb.AnyValue_DoubleValue{DoubleValue: f}}
}

func arrayValue(n int, at func(int) any) *commonpb.AnyValue {
	values := make([]*commonpb.AnyValue, 0, n)
	for i := 0; i < n; i++ {
		if v, ok := AnyValue(at(i)); ok {
			values = append(values, v)
		}
	}
	return &commonpb.AnyValue{Value: &commonpb.AnyValue_ArrayValue{
		ArrayValue: &commonpb.ArrayValue{Values: values},
	}}
}

// kvlistValue converts a string-keyed map, iterating keys in sorted order
// so repeated conversions of the same map are byte-identical.
func kvlistValue(m map[string]any) *commonpb.AnyValue {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]*commonpb.KeyValue, 0, len(keys))
	for _, k := range keys {
		v, ok := AnyValue(m[k])
		if !ok {
			continue
		}
		values = append(values, &commonpb.KeyValue{Key: k, Value: v})
	}
	return &commonpb.AnyValue{Value: &commonpb.AnyValue_KvlistValue{
		KvlistValue: &commonpb.KeyValueList{Values: values},
	}}
}

// Interface converts an OTLP typed value back into a plain Go value.
// Integers come back as int64 and maps as map[string]any, regardless of
// the original width or type.
func Interface(v *commonpb.AnyValue) any {
	if v == nil {
		return nil
	}
	switch x := v.Value.(type) {
	case *commonpb.AnyValue_BoolValue:
		return x.BoolValue
	case *commonpb.AnyValue_StringValue:
		return x.StringValue
	case *commonpb.AnyValue_IntValue:
		return x.IntValue
	case *commonpb.AnyValue_DoubleValue:
		return x.DoubleValue
	case *commonpb.AnyValue_ArrayValue:
		a := make([]any, len(x.ArrayValue.Values))
		for i, elem := range x.ArrayValue.Values {
			a[i] = Interface(elem)
		}
		return a
	case *commonpb.AnyValue_KvlistValue:
		m := make(map[string]any, len(x.KvlistValue.Values))
		for _, kv := range x.KvlistValue.Values {
			m[kv.Key] = Interface(kv.Value)
		}
		return m
	case *commonpb.AnyValue_BytesValue:
		return x.BytesValue
	}
	return nil
}
