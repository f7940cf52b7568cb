package api

import "fmt"

// ValidationConfig holds configurable limits for request validation.
type ValidationConfig struct {
	MaxContents       int
	MaxStopSequences  int
	MaxInlineDataSize int
}

// DefaultValidationConfig returns the limits documented for generateContent.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MaxContents:       1000,
		MaxStopSequences:  5,
		MaxInlineDataSize: 20 * 1024 * 1024, // 20MB request limit
	}
}

// ValidateRequest checks a request before it is sent. It returns an
// *APIError describing the first failure, or nil if the request is valid.
//
// A request for a typed (non-string) T must carry a generation config with
// a response schema. Parts carrying more than one payload are not rejected;
// the API decides how to treat them.
func ValidateRequest[T any](req *GenerateContentRequest[T], cfg ValidationConfig) *APIError {
	if len(req.Contents) == 0 {
		return NewInvalidRequestError("contents", "contents must contain at least one entry")
	}

	if cfg.MaxContents > 0 && len(req.Contents) > cfg.MaxContents {
		return NewInvalidRequestError("contents",
			fmt.Sprintf("contents exceeds maximum of %d entries", cfg.MaxContents))
	}

	inline := 0
	for i := range req.Contents {
		param := fmt.Sprintf("contents[%d]", i)
		if err := validateContent(param, &req.Contents[i], &inline); err != nil {
			return err
		}
	}

	if req.SystemInstruction != nil {
		if err := validateContent("systemInstruction", req.SystemInstruction, &inline); err != nil {
			return err
		}
	}

	if cfg.MaxInlineDataSize > 0 && inline > cfg.MaxInlineDataSize {
		return NewInvalidRequestError("contents",
			fmt.Sprintf("inline data exceeds maximum of %d bytes", cfg.MaxInlineDataSize))
	}

	for i, s := range req.SafetySettings {
		if s.Category == "" {
			return NewInvalidRequestError(fmt.Sprintf("safetySettings[%d].category", i), "category is required")
		}
		if s.Threshold == "" {
			return NewInvalidRequestError(fmt.Sprintf("safetySettings[%d].threshold", i), "threshold is required")
		}
	}

	if !IsPlainText[T]() && (req.GenerationConfig == nil || req.GenerationConfig.schema.IsZero()) {
		return NewSchemaRequiredError()
	}

	if req.GenerationConfig != nil {
		return validateGenerationConfig(req.GenerationConfig, cfg)
	}
	return nil
}

func validateContent[T any](param string, c *Content[T], inline *int) *APIError {
	if c.Role != "" && c.Role != RoleUser && c.Role != RoleModel {
		return NewInvalidRequestError(param+".role",
			fmt.Sprintf("role must be %q or %q, got %q", RoleUser, RoleModel, c.Role))
	}
	if len(c.Parts) == 0 {
		return NewInvalidRequestError(param+".parts", "parts must contain at least one entry")
	}
	for j := range c.Parts {
		p := &c.Parts[j]
		pp := fmt.Sprintf("%s.parts[%d]", param, j)
		if p.InlineData != nil {
			if p.InlineData.MimeType == "" {
				return NewInvalidRequestError(pp+".inlineData.mimeType", "mimeType is required")
			}
			*inline += len(p.InlineData.Data)
		}
		if p.FileData != nil && p.FileData.FileURI == "" {
			return NewInvalidRequestError(pp+".fileData.fileUri", "fileUri is required")
		}
		if p.FunctionCall != nil && p.FunctionCall.Name == "" {
			return NewInvalidRequestError(pp+".functionCall.name", "name is required")
		}
		if p.FunctionResponse != nil && p.FunctionResponse.Name == "" {
			return NewInvalidRequestError(pp+".functionResponse.name", "name is required")
		}
		if vm := p.VideoMetadata; vm != nil && vm.FPS != nil {
			if *vm.FPS <= 0 || *vm.FPS > 24 {
				return NewInvalidRequestError(pp+".videoMetadata.fps", "fps must be in (0, 24]")
			}
		}
	}
	return nil
}

func validateGenerationConfig[T any](gc *GenerationConfig[T], cfg ValidationConfig) *APIError {
	p := gc.Params()

	if cfg.MaxStopSequences > 0 && len(p.StopSequences) > cfg.MaxStopSequences {
		return NewInvalidRequestError("generationConfig.stopSequences",
			fmt.Sprintf("stopSequences exceeds maximum of %d", cfg.MaxStopSequences))
	}

	switch p.ResponseMimeType {
	case "", ResponseMimeTypeTextPlain, ResponseMimeTypeJSON, ResponseMimeTypeEnum:
	default:
		return NewInvalidRequestError("generationConfig.responseMimeType",
			fmt.Sprintf("unsupported responseMimeType %q", p.ResponseMimeType))
	}

	if !gc.schema.IsZero() && p.ResponseMimeType == ResponseMimeTypeTextPlain {
		return NewInvalidRequestError("generationConfig.responseMimeType",
			"a response schema requires application/json or text/x.enum")
	}

	if p.Temperature != nil && (*p.Temperature < 0 || *p.Temperature > 2) {
		return NewInvalidRequestError("generationConfig.temperature", "temperature must be between 0.0 and 2.0")
	}

	if p.TopP != nil && (*p.TopP < 0 || *p.TopP > 1) {
		return NewInvalidRequestError("generationConfig.topP", "topP must be between 0.0 and 1.0")
	}

	if p.TopK != nil && *p.TopK <= 0 {
		return NewInvalidRequestError("generationConfig.topK", "topK must be positive")
	}

	if p.CandidateCount != nil && *p.CandidateCount <= 0 {
		return NewInvalidRequestError("generationConfig.candidateCount", "candidateCount must be positive")
	}

	if p.MaxOutputTokens != nil && *p.MaxOutputTokens <= 0 {
		return NewInvalidRequestError("generationConfig.maxOutputTokens", "maxOutputTokens must be positive")
	}

	if p.PresencePenalty != nil && (*p.PresencePenalty < -2 || *p.PresencePenalty >= 2) {
		return NewInvalidRequestError("generationConfig.presencePenalty", "presencePenalty must be in [-2.0, 2.0)")
	}

	if p.FrequencyPenalty != nil && (*p.FrequencyPenalty < -2 || *p.FrequencyPenalty >= 2) {
		return NewInvalidRequestError("generationConfig.frequencyPenalty", "frequencyPenalty must be in [-2.0, 2.0)")
	}

	if p.Logprobs != nil {
		if *p.Logprobs < 0 || *p.Logprobs > 20 {
			return NewInvalidRequestError("generationConfig.logprobs", "logprobs must be between 0 and 20")
		}
		if p.ResponseLogprobs == nil || !*p.ResponseLogprobs {
			return NewInvalidRequestError("generationConfig.logprobs", "logprobs requires responseLogprobs")
		}
	}

	return nil
}
