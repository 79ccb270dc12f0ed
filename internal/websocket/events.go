package websocket

import "github.com/dukerupert/wevy/internal/swipe"

const sessionEntity = "swipe_session"

// SessionNotifier forwards swipe session events to the session's household.
func SessionNotifier(h *Hub) swipe.Notifier {
	return swipe.NotifierFunc(func(e swipe.Event) {
		extra := map[string]any{
			"status": string(e.Session.Status),
			"date":   e.Session.Date,
			"votes":  len(e.Session.Votes),
		}
		if e.Session.MatchedRecipeID != nil {
			extra["matched_recipe_id"] = *e.Session.MatchedRecipeID
		}
		if e.Vote != nil {
			extra["member_id"] = e.Vote.MemberID
			extra["recipe_id"] = e.Vote.RecipeID
			extra["direction"] = string(e.Vote.Direction)
		}
		h.Broadcast(NewMessage(sessionEntity, string(e.Type), e.Session.ID, e.Session.HouseholdID, extra))
	})
}
