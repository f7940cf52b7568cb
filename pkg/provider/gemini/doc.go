// Package gemini implements provider.Provider against the Gemini
// generativelanguage REST API (generateContent, streamGenerateContent and
// models.list).
package gemini
