package assistant

import (
	"fmt"
	"strings"
)

// Action is the structured form of a file operation, either parsed out of a
// model reply or produced by the intent classifier.
type Action struct {
	Action  string `json:"action"`
	Path    string `json:"path"`
	Content string `json:"content,omitempty"`
}

const (
	actionCreateFile      = "create_file"
	actionWriteFile       = "write_file"
	actionCreateDirectory = "create_directory"
	actionDeleteItem      = "delete_item"
	actionListFiles       = "list_files"
)

// performAction dispatches one action to the file manager and renders a
// human-readable outcome for the chat transcript.
func (a *Assistant) performAction(act Action) string {
	switch act.Action {
	case actionCreateFile:
		path, err := a.manager.WriteFile(act.Path, act.Content)
		if err != nil {
			return fmt.Sprintf("Failed to create file: %v", err)
		}
		a.notifyChange(act.Action, path)
		return "Created file: " + path

	case actionWriteFile:
		path, err := a.manager.WriteFile(act.Path, act.Content)
		if err != nil {
			return fmt.Sprintf("Failed to write file: %v", err)
		}
		a.notifyChange(act.Action, path)
		return "Wrote to file: " + path

	case actionCreateDirectory:
		path, err := a.manager.CreateDirectory(act.Path)
		if err != nil {
			return fmt.Sprintf("Failed to create directory: %v", err)
		}
		a.notifyChange(act.Action, path)
		return "Created directory: " + path

	case actionDeleteItem:
		path, err := a.manager.DeleteItem(act.Path)
		if err != nil {
			return fmt.Sprintf("Failed to delete: %v", err)
		}
		a.notifyChange(act.Action, path)
		return "Deleted: " + path

	case actionListFiles:
		path := act.Path
		if path == "" {
			path = "."
		}
		listing, err := a.manager.ListDirectory(path)
		if err != nil {
			return fmt.Sprintf("Failed to list files: %v", err)
		}
		parts := make([]string, 0, len(listing.Items))
		for _, item := range listing.Items {
			parts = append(parts, fmt.Sprintf("%s (%s, %d bytes)", item.Name, item.Type, item.Size))
		}
		return "Files in directory: " + strings.Join(parts, ", ")

	default:
		return "Unknown action: " + act.Action
	}
}

func (a *Assistant) notifyChange(action, path string) {
	if a.notify != nil {
		a.notify(action, path)
	}
}
