// Package chat keeps multi-turn conversations on top of the typed
// generateContent layer.
//
// A Session loads the stored turns of its conversation, sends them together
// with the new user turn, and appends both the user turn and the model's
// answer to the history store. Structured model output of type T is stored
// in its encoded wire form, so replaying a session sends the model exactly
// what it produced.
package chat
