// Package openapi embeds the OpenAPI document for the view API.
package openapi

import _ "embed"

// ContentType is the media type ViewsSpec is served with.
const ContentType = "application/yaml"

// ViewsSpec is the OpenAPI 3 description of /api/v1/views.
//
//go:embed views-api.yaml
var ViewsSpec []byte

// Spec returns a copy of the embedded document.
func Spec() []byte {
	return append([]byte(nil), ViewsSpec...)
}
