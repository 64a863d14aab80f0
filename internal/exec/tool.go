package exec

import "os/exec"

// ToolNotFoundError is returned when none of the wanted tools is in PATH.
type ToolNotFoundError struct {
	Tools []string
}

// Error returns the error message.
func (e *ToolNotFoundError) Error() string {
	msg := "tool not found in PATH:"
	for _, tool := range e.Tools {
		msg += " " + tool
	}

	return msg
}

// FindTool returns the first of alternatives found in PATH.
func FindTool(alternatives ...string) (string, error) {
	for _, tool := range alternatives {
		if _, err := exec.LookPath(tool); err == nil {
			return tool, nil
		}
	}

	return "", &ToolNotFoundError{Tools: alternatives}
}
