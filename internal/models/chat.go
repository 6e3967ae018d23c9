package models

import "fmt"

// ChatEntry is one message in a room's chat history. Entries are ordered
// by their arrival at the server and never change once appended.
type ChatEntry struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

// Render formats the entry the way it is shown to room members.
func (e ChatEntry) Render() string {
	return fmt.Sprintf("%s: %s", e.Sender, e.Message)
}
