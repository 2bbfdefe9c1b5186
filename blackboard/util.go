// Copyright (c) 2020 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Jonas Plum

package blackboard

import (
	"encoding/json"
	"reflect"

	"github.com/fatih/structs"
	"github.com/pkg/errors"
	"github.com/stoewer/go-strcase"
	"github.com/tidwall/gjson"

	"github.com/forensicanalysis/recentactivity/datamodel"
)

// structToJSON converts a struct into a json element with snake_case keys.
// Empty values are dropped.
func structToJSON(v interface{}) ([]byte, error) {
	return json.Marshal(lower(structs.Map(v)))
}

func lower(f interface{}) interface{} {
	switch f := f.(type) {
	case []interface{}:
		for i := range f {
			if !isEmptyValue(reflect.ValueOf(f[i])) {
				f[i] = lower(f[i])
			}
		}
		return f
	case map[string]interface{}:
		lf := make(map[string]interface{}, len(f))
		for k, v := range f {
			if !isEmptyValue(reflect.ValueOf(v)) {
				lf[strcase.SnakeCase(k)] = lower(v)
			}
		}
		return lf
	default:
		return f
	}
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	case reflect.Invalid:
		return true
	}
	return false
}

func decodeArtifact(element JSONElement) (*datamodel.Artifact, error) {
	if !gjson.ValidBytes(element) {
		return nil, errors.New("element is not valid json")
	}
	result := gjson.ParseBytes(element)

	artifact := &datamodel.Artifact{
		ID:         result.Get("id").String(),
		Type:       datamodel.Kind(result.Get("type").String()),
		Source:     result.Get("source").String(),
		SourceName: result.Get("source_name").String(),
		Module:     result.Get("module").String(),
		Attributes: []datamodel.Attribute{},
	}

	result.Get("attributes").ForEach(func(_, value gjson.Result) bool {
		attribute := datamodel.Attribute{
			Type:   datamodel.AttributeType(value.Get("type").String()),
			Source: value.Get("source").String(),
		}
		v := value.Get("value")
		switch v.Type {
		case gjson.String:
			attribute.Value = v.String()
		case gjson.Number:
			attribute.Value = v.Int()
		default:
			attribute.Value = v.Value()
		}
		artifact.Attributes = append(artifact.Attributes, attribute)
		return true
	})
	return artifact, nil
}
