package rpc

// RunTaskRequest is the top-level request for starting an agent task.
type RunTaskRequest struct {
	SessionID     string `json:"session_id,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	Role          string `json:"role,omitempty"`
	Model         string `json:"model,omitempty"`
	Prompt        string `json:"prompt"`
}

// RunTaskEvent streams back progress from the daemon.
type RunTaskEvent struct {
	Type          string `json:"type"` // message|tool|compact|delegate|done|error
	SessionID     string `json:"session_id,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	Role          string `json:"role,omitempty"`
	Message       string `json:"message,omitempty"`
	ToolName      string `json:"tool_name,omitempty"`
	ToolOutput    string `json:"tool_output,omitempty"`
	ToolError     string `json:"tool_error,omitempty"`
	Compacted     int    `json:"compacted,omitempty"`
	Iterations    int    `json:"iterations,omitempty"`
	FinishReason  string `json:"finish_reason,omitempty"`
	Error         string `json:"error,omitempty"`
	Done          bool   `json:"done,omitempty"`
}

// RunTaskStreamRequest is the bidirectional stream payload for Connect
// RPC. The first message must carry the run; later messages may cancel.
type RunTaskStreamRequest struct {
	Run    *RunTaskRequest `json:"run,omitempty"`
	Cancel bool            `json:"cancel,omitempty"`
}
