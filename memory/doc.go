// Package memory holds the conversation transcript and its persistence.
//
// Persistence model:
//   - Messages use the OpenAI chat shape (role, content, tool_calls, ...).
//   - Assistant messages decoded from a model response keep their original
//     bytes and are re-encoded verbatim.
//   - Transcripts are saved as JSON, or YAML when the path ends in .yaml/.yml.
package memory
