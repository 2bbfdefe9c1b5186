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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/forensicanalysis/stixgo"
	"github.com/qri-io/jsonschema"
	"github.com/tidwall/gjson"

	"github.com/forensicanalysis/recentactivity/datamodel"
)

const schemaBase = "https://forensicanalysis.github.io/recentactivity/schemas/"
const stixFileSchema = "http://raw.githubusercontent.com/oasis-open/cti-stix2-json-schemas/stix2.1/schemas/observables/file.json"

type kindSchema struct {
	required []datamodel.AttributeType
	optional []datamodel.AttributeType
}

var messageAttributes = []datamodel.AttributeType{
	datamodel.AttrThreadID, datamodel.AttrDateTimeSent, datamodel.AttrName,
	datamodel.AttrTitle, datamodel.AttrValue, datamodel.AttrURL,
}

var artifactSchemas = map[datamodel.Kind]kindSchema{
	datamodel.KindWebBookmark: {
		required: []datamodel.AttributeType{datamodel.AttrURL},
		optional: []datamodel.AttributeType{
			datamodel.AttrTitle, datamodel.AttrDateTimeCreated, datamodel.AttrProgName, datamodel.AttrDomain,
		},
	},
	datamodel.KindWebCookie: {
		required: []datamodel.AttributeType{datamodel.AttrURL},
		optional: []datamodel.AttributeType{
			datamodel.AttrDateTime, datamodel.AttrName, datamodel.AttrValue, datamodel.AttrProgName, datamodel.AttrDomain,
		},
	},
	datamodel.KindWebHistory: {
		required: []datamodel.AttributeType{datamodel.AttrURL},
		optional: []datamodel.AttributeType{
			datamodel.AttrDateTimeAccessed, datamodel.AttrReferrer, datamodel.AttrProgName,
			datamodel.AttrUserName, datamodel.AttrDomain,
		},
	},
	datamodel.KindOSAccount: {
		required: []datamodel.AttributeType{datamodel.AttrUserName},
	},
	datamodel.KindMessage:  {optional: messageAttributes},
	datamodel.KindEmailMsg: {optional: messageAttributes},
	datamodel.KindCallLog:  {optional: messageAttributes},
}

var integerAttributes = map[datamodel.AttributeType]bool{
	datamodel.AttrDateTime:         true,
	datamodel.AttrDateTimeCreated:  true,
	datamodel.AttrDateTimeAccessed: true,
	datamodel.AttrDateTimeSent:     true,
}

var (
	schemaOnce    sync.Once
	schemaErr     error
	kindValidator = map[datamodel.Kind]*jsonschema.Schema{}
)

func setupSchemaValidation() error {
	schemaOnce.Do(func() {
		registry := jsonschema.GetSchemaRegistry()
		for _, content := range stixgo.FS {
			// convert to draft/2019-09
			content = bytes.Replace(content, []byte(`"definitions"`), []byte(`"$defs"`), -1)
			content = bytes.Replace(content, []byte(`"#/definitions/`), []byte(`"#/$defs/`), -1)
			content = bytes.Replace(content,
				[]byte(`"$schema": "http://json-schema.org/draft-07/schema#",`),
				[]byte(`"$schema": "https://json-schema.org/draft/2019-09/schema#",`),
				-1,
			)

			schema := &jsonschema.Schema{}
			if err := json.Unmarshal(content, schema); err != nil {
				schemaErr = err
				return
			}

			id := string(*schema.JSONProp("$id").(*jsonschema.ID))
			schema.Resolve(nil, id)
			registry.Register(schema)
		}

		for kind, ks := range artifactSchemas {
			content, err := json.Marshal(kindSchemaJSON(kind, ks))
			if err != nil {
				schemaErr = err
				return
			}
			schema := &jsonschema.Schema{}
			if err := json.Unmarshal(content, schema); err != nil {
				schemaErr = err
				return
			}
			schema.Resolve(nil, schemaBase+string(kind)+".json")
			registry.Register(schema)
			kindValidator[kind] = schema
		}
	})
	return schemaErr
}

func kindSchemaJSON(kind datamodel.Kind, ks kindSchema) map[string]interface{} {
	var items []interface{}
	for _, attributeType := range append(append([]datamodel.AttributeType{}, ks.required...), ks.optional...) {
		valueType := "string"
		if integerAttributes[attributeType] {
			valueType = "integer"
		}
		items = append(items, map[string]interface{}{
			"type":     "object",
			"required": []string{"type", "value"},
			"properties": map[string]interface{}{
				"type":   map[string]interface{}{"enum": []string{string(attributeType)}},
				"value":  map[string]interface{}{"type": valueType},
				"source": map[string]interface{}{"type": "string"},
			},
		})
	}

	attributes := map[string]interface{}{
		"type":  "array",
		"items": map[string]interface{}{"anyOf": items},
	}
	schema := map[string]interface{}{
		"$id":      schemaBase + string(kind) + ".json",
		"$schema":  "https://json-schema.org/draft/2019-09/schema#",
		"title":    string(kind),
		"type":     "object",
		"required": []string{"id", "type", "attributes"},
		"properties": map[string]interface{}{
			"id":          map[string]interface{}{"type": "string", "pattern": "^" + string(kind) + "--"},
			"type":        map[string]interface{}{"enum": []string{string(kind)}},
			"source":      map[string]interface{}{"type": "string", "pattern": "^file--"},
			"source_name": map[string]interface{}{"type": "string"},
			"module":      map[string]interface{}{"type": "string"},
			"attributes":  attributes,
		},
	}

	var required []interface{}
	for _, attributeType := range ks.required {
		required = append(required, map[string]interface{}{
			"properties": map[string]interface{}{
				"attributes": map[string]interface{}{
					"contains": map[string]interface{}{
						"type":       "object",
						"required":   []string{"type"},
						"properties": map[string]interface{}{"type": map[string]interface{}{"enum": []string{string(attributeType)}}},
					},
				},
			},
		})
	}
	if len(required) > 0 {
		schema["allOf"] = required
	}
	return schema
}

func validateArtifact(artifact *datamodel.Artifact) (flaws []string, err error) {
	if err := setupSchemaValidation(); err != nil {
		return nil, err
	}

	schema, ok := kindValidator[artifact.Type]
	if !ok {
		return []string{fmt.Sprintf("unknown artifact kind %s", artifact.Type)}, nil
	}

	element, err := json.Marshal(artifact)
	if err != nil {
		return nil, err
	}

	errs, err := schema.ValidateBytes(context.Background(), element)
	if err != nil {
		return nil, err
	}
	for _, verr := range errs {
		flaws = append(flaws, fmt.Sprintf("failed to validate element: %s", verr))
	}
	return flaws, nil
}

func validateFile(element []byte) (flaws []string, err error) {
	if gjson.GetBytes(element, "type").String() != "file" {
		return []string{"element is not a file"}, nil
	}

	schema := jsonschema.GetSchemaRegistry().GetKnown(stixFileSchema)
	if schema == nil {
		return nil, nil
	}

	errs, err := schema.ValidateBytes(context.Background(), element)
	if err != nil {
		return nil, err
	}
	for _, verr := range errs {
		flaws = append(flaws, fmt.Sprintf("failed to validate element: %s", verr))
	}
	return flaws, nil
}
