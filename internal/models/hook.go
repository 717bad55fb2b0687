// Package models holds the JSON wire types exchanged with the
// editor-assistant and the completion service.
package models

// HookInput is the envelope the editor-assistant writes to a hook's stdin.
type HookInput struct {
	ToolName      string    `json:"tool_name"`
	ToolInput     ToolInput `json:"tool_input"`
	Prompt        string    `json:"prompt"`
	Cwd           string    `json:"cwd"`
	HookEventName string    `json:"hook_event_name"`
	SessionID     string    `json:"session_id"`
}

// ToolInput carries the file-level arguments of the triggering tool call.
type ToolInput struct {
	FilePath string `json:"file_path"`
	Content  string `json:"content,omitempty"`
}

// HookDecision is the payload a hook prints to stdout when it blocks the
// triggering tool call. Hooks only block on explicit safety refusals,
// never on optional AI-step failures.
type HookDecision struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}
