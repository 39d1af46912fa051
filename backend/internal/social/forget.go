package social

// Forget removes every trace of userID from u: follow sets in both
// directions and notifications it originated. It reports whether u changed.
func (u *User) Forget(userID string) bool {
	changed := Apply(&u.Followers, userID, Removed)
	changed = Apply(&u.Following, userID, Removed) || changed

	kept := u.Notifications[:0:0]
	for _, n := range u.Notifications {
		if n.OriginatorUserID != userID {
			kept = append(kept, n)
		}
	}
	if len(kept) != len(u.Notifications) {
		u.Notifications = kept
		changed = true
	}
	return changed
}

// Forget removes userID from the interaction sets of p and drops the replies
// it wrote. It reports whether p changed.
func (p *Post) Forget(userID string) bool {
	changed := Apply(&p.LikedBy, userID, Removed)
	changed = Apply(&p.RetweetedBy, userID, Removed) || changed
	changed = Apply(&p.BookmarkedBy, userID, Removed) || changed

	kept := p.Replies[:0:0]
	for _, r := range p.Replies {
		if r.ReplierID != userID {
			kept = append(kept, r)
		}
	}
	if len(kept) != len(p.Replies) {
		p.Replies = kept
		changed = true
	}
	return changed
}
