package api

// Request is a single control command. One request per connection.
type Request struct {
	// Action selects the operation: "spawn", "list" or "kill".
	Action string `json:"action"`

	// Argv and Env configure a spawn. Argv[0] is the executable path. An
	// empty Env spawns with an empty environment.
	Argv []string `json:"argv,omitempty"`
	Env  []string `json:"env,omitempty"`

	// Pty selects the pseudo-terminal transport; Tee additionally mirrors
	// raw bytes to the server's stderr (pty only).
	Pty bool `json:"pty,omitempty"`
	Tee bool `json:"tee,omitempty"`

	// ID names an existing launch for "kill".
	ID string `json:"id,omitempty"`
}

// Frame is one message of a response stream. A spawn response carries zero
// or more chunk frames followed by a final frame with Done set; list and
// kill respond with a single frame.
type Frame struct {
	Chunk    string   `json:"chunk,omitempty"`
	Done     bool     `json:"done,omitempty"`
	ExitCode int      `json:"exit_code,omitempty"`
	ID       string   `json:"id,omitempty"`
	IDs      []string `json:"ids,omitempty"`
	Err      string   `json:"err,omitempty"`
}
