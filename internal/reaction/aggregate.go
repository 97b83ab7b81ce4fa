// Package reaction aggregates per-user reaction rows into the grouped shape
// the history API serves: one group per emoji with a count and the list of
// users behind it.
package reaction

import "github.com/togisoft/t-force/internal/store"

// User identifies one reacting user inside a group.
type User struct {
	UserID           string `json:"user_id"`
	UserName         string `json:"user_name"`
	UserProfileImage string `json:"user_profile_image,omitempty"`
}

// Group is one emoji on one message and everyone who added it.
type Group struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
	Users []User `json:"users"`
}

// Aggregate folds raw reaction rows into per-message emoji groups. Groups
// for a message keep the order in which each emoji first appears in the
// input, so callers feeding rows in created_at order get stable output.
// Messages with no reactions are simply absent from the result.
func Aggregate(rows []store.ReactionRecord) map[string][]Group {
	if len(rows) == 0 {
		return map[string][]Group{}
	}

	out := make(map[string][]Group)
	index := make(map[string]map[string]int) // message id -> emoji -> slot

	for _, r := range rows {
		slots, ok := index[r.MessageID]
		if !ok {
			slots = make(map[string]int)
			index[r.MessageID] = slots
		}

		slot, ok := slots[r.Emoji]
		if !ok {
			slot = len(out[r.MessageID])
			slots[r.Emoji] = slot
			out[r.MessageID] = append(out[r.MessageID], Group{Emoji: r.Emoji})
		}

		g := &out[r.MessageID][slot]
		g.Count++
		g.Users = append(g.Users, User{
			UserID:           r.UserID,
			UserName:         r.UserName,
			UserProfileImage: r.UserProfileImage,
		})
	}

	return out
}
