/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package registry

import "github.com/invopop/jsonschema"

// reflector carries the settings tool-use APIs expect: inline structs
// with no $ref indirection, and required lists driven by struct tags.
var reflector = jsonschema.Reflector{
	RequiredFromJSONSchemaTags: true,
	ExpandedStruct:             true,
	AllowAdditionalProperties:  true,
	DoNotReference:             true,
}

// Reflect derives the JSON schema for a tool input struct.
func Reflect(v any) *jsonschema.Schema {
	return reflector.Reflect(v)
}
