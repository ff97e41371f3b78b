package schemas

import "context"

// -- External Collaborator Interfaces --

// Capturer produces an image of the current screen.
type Capturer interface {
	Capture(ctx context.Context) (*Screenshot, error)
}

// VisionClient sends a prompt and an image to a vision-language model and
// returns the model's free-form text answer.
type VisionClient interface {
	// Generate performs a single inference call. No retries are attempted.
	Generate(ctx context.Context, req VisionRequest) (string, error)
	// Close releases any resources held by the client.
	Close() error
}

// Clicker performs a single primary-button click at a screen location.
type Clicker interface {
	Click(ctx context.Context, x, y float64) error
}

// Dialog is the human-facing prompt and confirmation capability.
type Dialog interface {
	// Prompt asks for free text. An empty string means the operator cancelled.
	Prompt(ctx context.Context, title, message string) (string, error)
	// Confirm blocks until one of the options is selected and returns it verbatim.
	// Any value outside options, including the empty string, is a non-selection.
	Confirm(ctx context.Context, title, message string, options []string) (string, error)
}
