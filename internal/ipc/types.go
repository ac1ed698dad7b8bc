package ipc

import "time"

// StartRequest begins a tail session.
type StartRequest struct {
	Project string `json:"project"`
}

// StartResponse reports the launched session.
type StartResponse struct {
	Started bool        `json:"started"`
	Message string      `json:"message"`
	Session SessionInfo `json:"session"`
}

// StopRequest ends the running tail session.
type StopRequest struct{}

// StopResponse reports the final session state.
type StopResponse struct {
	Stopped bool        `json:"stopped"`
	Message string      `json:"message"`
	Session SessionInfo `json:"session"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// DependencyStatus describes availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail"`
}

// SessionInfo is the wire representation of a tail session.
type SessionInfo struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Mode        string     `json:"mode"`
	StartedAt   time.Time  `json:"started_at"`
	StoppedAt   *time.Time `json:"stopped_at,omitempty"`
	Lines       int64      `json:"lines"`
	Bytes       int64      `json:"bytes"`
	File        string     `json:"file"`
	Status      string     `json:"status"`
	Error       string     `json:"error"`
	Active      bool       `json:"active"`
	CurrentSize int64      `json:"current_size"`
}

// StatusResponse represents combined daemon/session status information.
type StatusResponse struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	Session      SessionInfo        `json:"session"`
	SessionStats map[string]int     `json:"session_stats"`
	LockPath     string             `json:"lock_path"`
	StoreDBPath  string             `json:"store_db_path"`
	LogDir       string             `json:"log_dir"`
	OutputDir    string             `json:"output_dir"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// SessionListRequest lists session history, newest first.
type SessionListRequest struct {
	Limit int `json:"limit"`
}

// SessionListResponse contains session history entries.
type SessionListResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

// SessionDescribeRequest fetches a single session by id.
type SessionDescribeRequest struct {
	ID string `json:"id"`
}

// SessionDescribeResponse contains a single session entry.
type SessionDescribeResponse struct {
	Session SessionInfo `json:"session"`
}

// SessionClearRequest removes all session history.
type SessionClearRequest struct{}

// SessionClearResponse reports number of removed entries.
type SessionClearResponse struct {
	Removed int64 `json:"removed"`
}

// ShutdownRequest asks the daemon process to exit.
type ShutdownRequest struct{}

// ShutdownResponse acknowledges a shutdown request.
type ShutdownResponse struct {
	Stopping bool `json:"stopping"`
}

// LogTailRequest fetches log lines based on offset and follow semantics.
// Daemon selects the daemon's own diagnostic log instead of the tailed
// output file.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
	Daemon     bool  `json:"daemon"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
	Path   string   `json:"path"`
}
