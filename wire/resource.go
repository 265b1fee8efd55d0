// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package wire

import (
	"sort"

	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
)

// Resource builds the OTLP resource shared by every record an exporter
// emits. Only boolean, integer, float and string values are kept; keys
// with any other value type are returned in dropped so the caller can
// emit a one-time diagnostic per key. Dropping is never an error.
func Resource(attrs map[string]any) (res *resourcepb.Resource, dropped []string) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kvs := make([]*commonpb.KeyValue, 0, len(keys))
	for _, k := range keys {
		if !primitive(attrs[k]) {
			dropped = append(dropped, k)
			continue
		}
		v, ok := AnyValue(attrs[k])
		if !ok {
			dropped = append(dropped, k)
			continue
		}
		kvs = append(kvs, &commonpb.KeyValue{Key: k, Value: v})
	}
	return &resourcepb.Resource{Attributes: kvs}, dropped
}

func primitive(v any) bool {
	switch v.(type) {
	case bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}
