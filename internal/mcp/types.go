package mcp

// WindowInfo describes one live window.
type WindowInfo struct {
	ID           uint64  `json:"id"`
	Title        string  `json:"title"`
	X            int     `json:"x"`
	Y            int     `json:"y"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	Scale        float64 `json:"scale"`
	State        string  `json:"state"`
	Focused      bool    `json:"focused"`
	Visible      bool    `json:"visible"`
	Resizable    bool    `json:"resizable"`
	Decorated    bool    `json:"decorated"`
	CursorHidden bool    `json:"cursor_hidden"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct{}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []WindowInfo `json:"windows"`
}

// DeviceInfo describes one registered input device.
type DeviceInfo struct {
	ID       uint64 `json:"id"`
	Class    string `json:"class"`
	Name     string `json:"name"`
	NativeID string `json:"native_id"`
	Bus      uint16 `json:"bus"`
	Vendor   uint16 `json:"vendor"`
	Product  uint16 `json:"product"`
	State    string `json:"state"`
	Keys     int    `json:"keys"`
	Axes     int    `json:"axes"`
}

// ListDevicesInput is the input for the list_devices tool.
type ListDevicesInput struct {
	Rescan bool `json:"rescan,omitempty" jsonschema:"When true, enumerate attached devices again before listing"`
}

// ListDevicesOutput is the output for the list_devices tool.
type ListDevicesOutput struct {
	Devices []DeviceInfo `json:"devices"`
}

// CreateWindowInput is the input for the create_window tool.
type CreateWindowInput struct {
	Preset     string  `json:"preset,omitempty" jsonschema:"Name of a window preset from the config; other fields override it"`
	Title      *string `json:"title,omitempty" jsonschema:"Window title"`
	Width      int     `json:"width,omitempty" jsonschema:"Client width in physical pixels"`
	Height     int     `json:"height,omitempty" jsonschema:"Client height in physical pixels"`
	X          *int    `json:"x,omitempty" jsonschema:"Client origin x; omit to let the OS place the window"`
	Y          *int    `json:"y,omitempty" jsonschema:"Client origin y; omit to let the OS place the window"`
	Resizable  *bool   `json:"resizable,omitempty"`
	Fullscreen *bool   `json:"fullscreen,omitempty"`
	Decorated  *bool   `json:"decorated,omitempty"`
	Visible    *bool   `json:"visible,omitempty"`
}

// CreateWindowOutput is the output for the create_window tool.
type CreateWindowOutput struct {
	Window WindowInfo `json:"window"`
}

// CloseWindowInput is the input for the close_window tool.
type CloseWindowInput struct {
	ID uint64 `json:"id" jsonschema:"required,Window id"`
}

// CloseWindowOutput is the output for the close_window tool.
type CloseWindowOutput struct {
	ID     uint64 `json:"id"`
	Closed bool   `json:"closed"`
}

// SetWindowStateInput is the input for the set_window_state tool.
type SetWindowStateInput struct {
	ID    uint64 `json:"id" jsonschema:"required,Window id"`
	State string `json:"state" jsonschema:"required,One of normal, minimized, maximized, fullscreen"`
}

// SetWindowStateOutput is the output for the set_window_state tool.
type SetWindowStateOutput struct {
	ID        uint64 `json:"id"`
	Requested string `json:"requested"`
}

// EventInfo is a flattened event.
type EventInfo struct {
	TimeMS float64        `json:"time_ms"`
	Type   string         `json:"type"`
	Kind   string         `json:"kind"`
	Window uint64         `json:"window,omitempty"`
	Device uint64         `json:"device,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

// PollEventsInput is the input for the poll_events tool.
type PollEventsInput struct {
	Max    int `json:"max,omitempty" jsonschema:"Maximum events to return (default 100)"`
	WaitMS int `json:"wait_ms,omitempty" jsonschema:"Wait up to this many milliseconds for at least one event (default 0, max 30000)"`
}

// PollEventsOutput is the output for the poll_events tool.
type PollEventsOutput struct {
	Events []EventInfo `json:"events"`
	// Dropped counts events discarded because the buffer was full.
	Dropped uint64 `json:"dropped"`
}

// DescribeInput is the input for the describe_platform tool.
type DescribeInput struct{}

// DescribeOutput is the output for the describe_platform tool.
type DescribeOutput struct {
	Backend    string   `json:"backend"`
	Backends   []string `json:"backends"`
	Windows    int      `json:"windows"`
	Devices    int      `json:"devices"`
	Contexts   int      `json:"contexts"`
	Enqueued   uint64   `json:"enqueued"`
	Delivered  uint64   `json:"delivered"`
	Coalesced  uint64   `json:"coalesced"`
	Duplicates uint64   `json:"duplicates"`
}
