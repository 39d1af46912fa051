package social

// NotificationOutcome reports what UpsertNotification did
type NotificationOutcome string

const (
	NotificationAppended NotificationOutcome = "appended"
	NotificationRemoved  NotificationOutcome = "removed"
)

// UpsertNotification applies an incoming event to the recipient's feed.
//
// An existing notification with the same (originator, type, post) key is
// removed, which un-notifies a reversed action. Failing that, a Followed
// event collapses onto any earlier Followed from the same originator
// regardless of post id, so a recipient holds at most one of those per
// originator. Otherwise n is appended. Likes or replies from one originator on
// different posts remain separate entries.
func UpsertNotification(u *User, n Notification) NotificationOutcome {
	key := n.Key()

	for i := range u.Notifications {
		if u.Notifications[i].Key() == key {
			u.Notifications = removeNotification(u.Notifications, i)
			return NotificationRemoved
		}
	}

	if n.Type == NotificationFollowed {
		for i, existing := range u.Notifications {
			if existing.Type == NotificationFollowed && existing.OriginatorUserID == n.OriginatorUserID {
				u.Notifications = removeNotification(u.Notifications, i)
				return NotificationRemoved
			}
		}
	}

	u.Notifications = append(u.Notifications, n)
	return NotificationAppended
}

// CountNotifications returns how many notifications in u match key
func CountNotifications(u *User, key NotificationKey) int {
	n := 0
	for _, existing := range u.Notifications {
		if existing.Key() == key {
			n++
		}
	}
	return n
}

func removeNotification(ns []Notification, i int) []Notification {
	out := make([]Notification, 0, len(ns)-1)
	out = append(out, ns[:i]...)
	return append(out, ns[i+1:]...)
}
