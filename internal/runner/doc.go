// Package runner drives one conversation: it asks the model, executes the
// tool calls the model requested, appends the results and asks again until
// the model stops requesting tools.
//
// States:
//
//	AWAIT_MODEL -> EXECUTE_TOOLS -> AWAIT_MODEL -> ... -> DONE
//
// Invariants:
//   - the transcript is append-only and replayed verbatim to the model
//   - every requested call gets exactly one tool message, appended in request
//     order before the next model call, even when calls run in parallel
//   - tool failures are data; only transport errors, windowing errors and the
//     turn limit end a conversation early
package runner
