// Command demo walks through the typed request/response layer without
// calling the API: it builds and encodes a structured-output request,
// decodes canned responses, and shows the failure modes.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
	"google.golang.org/genai"

	"github.com/rhuss/gemini-go/pkg/api"
)

type recipe struct {
	Name        string   `json:"name"`
	Minutes     int      `json:"minutes"`
	Ingredients []string `json:"ingredients"`
	Vegetarian  bool     `json:"vegetarian,omitempty"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "demo failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fmt.Println("=== gemini typed envelope demo ===")
	fmt.Println()

	// 1. Build a typed generation config. The schema is derived from recipe.
	cfg, err := api.WithResponseSchema[recipe](
		api.NewGenerationConfigBuilder[string]().
			Temperature(0.4).
			MaxOutputTokens(512).
			StopSequences("END"),
	).Build()
	if err != nil {
		return err
	}

	req := api.NewRequest[recipe](api.UserText("Suggest a quick pasta recipe.")).
		WithGenerationConfig(cfg).
		WithSystemInstruction(api.NewTextPart("You are a concise cooking assistant.")).
		WithSafetySettings(api.SafetySetting{
			Category:  genai.HarmCategoryDangerousContent,
			Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
		})

	// 2. Validate and encode.
	if apiErr := api.ValidateRequest(&req, api.DefaultValidationConfig()); apiErr != nil {
		return apiErr
	}
	fmt.Println("[1] Request validated successfully")

	body, err := api.EncodeRequest(&req)
	if err != nil {
		return err
	}
	fmt.Printf("\n[2] Request JSON:\n%s\n", indent(body))

	// 3. The same type described as JSON Schema instead.
	jsCfg, err := api.WithResponseJSONSchema[recipe](cfg.ToBuilder()).Build()
	if err != nil {
		return err
	}
	jsReq := api.NewRequest[recipe](api.UserText("Suggest a quick pasta recipe.")).WithGenerationConfig(jsCfg)
	jsBody, err := api.EncodeRequest(&jsReq)
	if err != nil {
		return err
	}
	fmt.Printf("\n[3] JSON Schema variant (generationConfig.responseJsonSchema):\n%s\n",
		indent([]byte(gjson.GetBytes(jsBody, "generationConfig.responseJsonSchema").Raw)))

	// 4. Decode a canned response into recipe.
	canned := `{
	  "candidates": [{
	    "content": {"role": "model", "parts": [{"text": "{\"name\":\"Aglio e olio\",\"minutes\":15,\"ingredients\":[\"spaghetti\",\"garlic\",\"olive oil\",\"chili\"],\"vegetarian\":true}"}]},
	    "finishReason": "STOP",
	    "safetyRatings": [{"category": "HARM_CATEGORY_DANGEROUS_CONTENT", "probability": "NEGLIGIBLE"}]
	  }],
	  "usageMetadata": {"promptTokenCount": 21, "candidatesTokenCount": 38, "totalTokenCount": 59},
	  "modelVersion": "gemini-2.5-flash"
	}`
	resp, err := api.DecodeResponse[recipe]([]byte(canned))
	if err != nil {
		return err
	}
	r, _ := resp.FirstText()
	prompt, candidates, total := resp.UsageMetadata.Tokens()
	fmt.Println("\n[4] Decoded response:")
	fmt.Printf("    Name:        %s\n", r.Name)
	fmt.Printf("    Minutes:     %d\n", r.Minutes)
	fmt.Printf("    Ingredients: %v\n", r.Ingredients)
	fmt.Printf("    Vegetarian:  %t\n", r.Vegetarian)
	fmt.Printf("    Finish:      %s\n", resp.FirstCandidate().FinishReason)
	fmt.Printf("    Tokens:      %d prompt / %d candidates / %d total\n", prompt, candidates, total)

	// 5. Re-encode the typed content for use as conversation history.
	plain, err := api.ToPlain(resp.Candidates[0].Content)
	if err != nil {
		return err
	}
	text, _ := plain.FirstText()
	fmt.Printf("\n[5] History form of the model turn:\n    %s\n", text)

	// 6. Failure modes.
	fmt.Println("\n[6] Failure modes:")
	bad := `{"candidates":[{"content":{"parts":[{"text":"Sorry, I cannot help with that."}]}}]}`
	if _, err := api.DecodeResponse[recipe]([]byte(bad)); err != nil {
		fmt.Printf("    non-JSON text for a typed response: %v (deserialization: %t)\n",
			err, errors.Is(err, api.ErrDeserialization))
	}
	if _, err := api.NewGenerationConfigBuilder[recipe]().Build(); err != nil {
		fmt.Printf("    typed config without schema: %v\n", err)
	}
	tooHot := api.NewRequest[string](api.UserText("hi")).
		WithGenerationConfig(mustBuild(api.NewGenerationConfigBuilder[string]().Temperature(3)))
	if apiErr := api.ValidateRequest(&tooHot, api.DefaultValidationConfig()); apiErr != nil {
		fmt.Printf("    out-of-range temperature: %v\n", apiErr)
	}

	return nil
}

func mustBuild[T any](b api.GenerationConfigBuilder[T]) *api.GenerationConfig[T] {
	cfg, err := b.Build()
	if err != nil {
		panic(err)
	}
	return cfg
}

func indent(raw []byte) []byte {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return raw
	}
	return buf.Bytes()
}
