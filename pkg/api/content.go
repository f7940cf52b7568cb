package api

import "google.golang.org/genai"

// ---------------------------------------------------------------------------
// Roles
// ---------------------------------------------------------------------------

// Role identifies the producer of a content block.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ---------------------------------------------------------------------------
// Content
// ---------------------------------------------------------------------------

// Content is an ordered sequence of parts attributed to an optional role.
// T is the type carried by text parts.
type Content[T any] struct {
	Role  Role      `json:"role,omitempty"`
	Parts []Part[T] `json:"parts"`
}

// NewUserContent returns a user content block with the given parts.
func NewUserContent[T any](parts ...Part[T]) Content[T] {
	return Content[T]{Role: RoleUser, Parts: parts}
}

// NewModelContent returns a model content block with the given parts.
func NewModelContent[T any](parts ...Part[T]) Content[T] {
	return Content[T]{Role: RoleModel, Parts: parts}
}

// UserText is shorthand for a user turn holding a single text part.
func UserText(text string) Content[string] {
	return NewUserContent(NewTextPart(text))
}

// FirstPart returns the first part, or nil if there are none.
func (c *Content[T]) FirstPart() *Part[T] {
	if len(c.Parts) == 0 {
		return nil
	}
	return &c.Parts[0]
}

// FirstText returns the text value of the first part. It reports false when
// there is no first part or the first part carries no text.
func (c *Content[T]) FirstText() (T, bool) {
	if p := c.FirstPart(); p != nil {
		return p.TextValue()
	}
	var zero T
	return zero, false
}

// ToPlain re-encodes every text part of c into its wire text, producing a
// content block suitable for sending back as conversation history.
func ToPlain[T any](c Content[T]) (Content[string], error) {
	out := Content[string]{Role: c.Role, Parts: make([]Part[string], len(c.Parts))}
	for i, p := range c.Parts {
		np := Part[string]{
			InlineData:          p.InlineData,
			FunctionCall:        p.FunctionCall,
			FunctionResponse:    p.FunctionResponse,
			FileData:            p.FileData,
			ExecutableCode:      p.ExecutableCode,
			CodeExecutionResult: p.CodeExecutionResult,
			VideoMetadata:       p.VideoMetadata,
		}
		if p.Text != nil {
			s, err := EncodeText(p.Text.Value())
			if err != nil {
				return Content[string]{}, err
			}
			tf := NewTextField(s)
			np.Text = &tf
		}
		out.Parts[i] = np
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Part
// ---------------------------------------------------------------------------

// Part is the smallest unit of content. Callers populate exactly one payload
// field; PayloadCount reports how many are set, but nothing rejects a part
// carrying several.
type Part[T any] struct {
	Text                *TextField[T]        `json:"text,omitempty"`
	InlineData          *Blob                `json:"inlineData,omitempty"`
	FunctionCall        *FunctionCall        `json:"functionCall,omitempty"`
	FunctionResponse    *FunctionResponse    `json:"functionResponse,omitempty"`
	FileData            *FileData            `json:"fileData,omitempty"`
	ExecutableCode      *ExecutableCode      `json:"executableCode,omitempty"`
	CodeExecutionResult *CodeExecutionResult `json:"codeExecutionResult,omitempty"`
	VideoMetadata       *VideoMetadata       `json:"videoMetadata,omitempty"`
}

// HasText reports whether the text slot is populated.
func (p *Part[T]) HasText() bool {
	return p.Text != nil
}

// TextValue returns the text value and whether it is present.
func (p *Part[T]) TextValue() (T, bool) {
	if p.Text == nil {
		var zero T
		return zero, false
	}
	return p.Text.Value(), true
}

// TextPtr returns a pointer to the text value for in-place modification, or
// nil when the slot is empty.
func (p *Part[T]) TextPtr() *T {
	if p.Text == nil {
		return nil
	}
	return p.Text.Ptr()
}

// TakeText moves the text value out of the part, leaving the slot empty.
func (p *Part[T]) TakeText() (T, bool) {
	v, ok := p.TextValue()
	p.Text = nil
	return v, ok
}

// PayloadCount returns the number of populated payload fields.
func (p *Part[T]) PayloadCount() int {
	n := 0
	for _, set := range []bool{
		p.Text != nil,
		p.InlineData != nil,
		p.FunctionCall != nil,
		p.FunctionResponse != nil,
		p.FileData != nil,
		p.ExecutableCode != nil,
		p.CodeExecutionResult != nil,
		p.VideoMetadata != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// NewTextPart returns a part carrying v in its text slot.
func NewTextPart[T any](v T) Part[T] {
	tf := NewTextField(v)
	return Part[T]{Text: &tf}
}

// NewBlobPart returns a part carrying inline binary data.
func NewBlobPart[T any](mimeType MimeType, data []byte) Part[T] {
	return Part[T]{InlineData: &Blob{MimeType: mimeType, Data: data}}
}

// NewFunctionCallPart returns a part carrying a function call.
func NewFunctionCallPart[T any](name string, args map[string]any) Part[T] {
	return Part[T]{FunctionCall: &FunctionCall{Name: name, Args: args}}
}

// NewFunctionResponsePart returns a part carrying a function result.
func NewFunctionResponsePart[T any](name string, response map[string]any) Part[T] {
	return Part[T]{FunctionResponse: &FunctionResponse{Name: name, Response: response}}
}

// NewFileDataPart returns a part referencing an uploaded file.
func NewFileDataPart[T any](mimeType MimeType, fileURI string) Part[T] {
	return Part[T]{FileData: &FileData{MimeType: mimeType, FileURI: fileURI}}
}

// NewExecutableCodePart returns a part carrying generated code.
func NewExecutableCodePart[T any](language genai.Language, code string) Part[T] {
	return Part[T]{ExecutableCode: &ExecutableCode{Language: language, Code: code}}
}

// NewCodeExecutionResultPart returns a part carrying the result of running code.
func NewCodeExecutionResultPart[T any](outcome genai.Outcome, output string) Part[T] {
	return Part[T]{CodeExecutionResult: &CodeExecutionResult{Outcome: outcome, Output: output}}
}

// NewVideoMetadataPart returns a part carrying video clipping metadata.
func NewVideoMetadataPart[T any](md VideoMetadata) Part[T] {
	return Part[T]{VideoMetadata: &md}
}

// ---------------------------------------------------------------------------
// Payloads
// ---------------------------------------------------------------------------

// Blob is inline binary data. Data is base64 on the wire.
type Blob struct {
	MimeType MimeType `json:"mimeType"`
	Data     []byte   `json:"data"`
}

// FunctionCall is a model request to invoke a declared function.
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// FunctionResponse carries the result of a function call back to the model.
type FunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// FileData references a file uploaded through the Files API.
type FileData struct {
	MimeType MimeType `json:"mimeType,omitempty"`
	FileURI  string   `json:"fileUri"`
}

// ExecutableCode is code generated by the model for execution.
type ExecutableCode struct {
	Language genai.Language `json:"language"`
	Code     string         `json:"code"`
}

// CodeExecutionResult is the outcome of executing ExecutableCode.
type CodeExecutionResult struct {
	Outcome genai.Outcome `json:"outcome"`
	Output  string        `json:"output,omitempty"`
}

// VideoMetadata clips or samples video input. Offsets use the protobuf
// duration form ("1.5s"). FPS must be in (0, 24] when set.
type VideoMetadata struct {
	StartOffset string   `json:"startOffset,omitempty"`
	EndOffset   string   `json:"endOffset,omitempty"`
	FPS         *float64 `json:"fps,omitempty"`
}
