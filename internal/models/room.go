package models

// Room is a named, persistent jam room. The owner is always the first
// entry of Members.
type Room struct {
	Name    string   `json:"name"`    // Unique room name, also its key
	Owner   string   `json:"owner"`   // Username of the creator
	Members []string `json:"members"` // Usernames in join order, owner first
}

// HasMember reports whether username is in the room's member list.
func (r *Room) HasMember(username string) bool {
	for _, m := range r.Members {
		if m == username {
			return true
		}
	}
	return false
}
