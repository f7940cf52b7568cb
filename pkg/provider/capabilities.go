package provider

import (
	"fmt"

	"github.com/rhuss/gemini-go/pkg/api"
	"github.com/rhuss/gemini-go/pkg/schema"
)

// ValidateCapabilities checks whether the given request is compatible with
// the provider's declared capabilities. Returns an APIError identifying
// the specific unsupported feature, or nil if the request is compatible.
func ValidateCapabilities[T any](caps Capabilities, req *api.GenerateContentRequest[T], stream bool) *api.APIError {
	if stream && !caps.Streaming {
		return api.NewInvalidRequestError("stream",
			"the configured provider does not support streaming responses")
	}

	if gc := req.GenerationConfig; gc != nil && !caps.JSONSchema && gc.Schema().Format() == schema.FormatJSONSchema {
		return api.NewInvalidRequestError("generationConfig.responseJsonSchema",
			"the configured provider does not support JSON Schema response schemas")
	}

	for i, c := range req.Contents {
		for j, p := range c.Parts {
			if p.InlineData != nil && !caps.InlineData {
				return api.NewInvalidRequestError(fmt.Sprintf("contents[%d].parts[%d].inlineData", i, j),
					"the configured provider does not support inline data")
			}
			if p.FileData != nil && !caps.FileData {
				return api.NewInvalidRequestError(fmt.Sprintf("contents[%d].parts[%d].fileData", i, j),
					"the configured provider does not support file data")
			}
		}
	}

	return nil
}
