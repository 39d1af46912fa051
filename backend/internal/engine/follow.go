package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"circle-media/backend/internal/social"
	apperrors "circle-media/backend/pkg/errors"
)

const (
	opFollow    = "follow_unfollow"
	opReconcile = "reconcile_follows"
)

// FollowUnfollow toggles the follow relation from actor to target.
//
// The target's Followers set decides the direction; the actor's Following set
// is then forced the same way. The target is saved first, so when the actor
// save fails the followers side holds the truth and ReconcileFollows can
// rebuild the other side from it.
func (e *Engine) FollowUnfollow(ctx context.Context, req FollowRequest) (res *FollowResult, err error) {
	defer e.observe(opFollow, time.Now(), &err)

	if err := requireID(opFollow, "actor id", req.ActorID); err != nil {
		return nil, err
	}
	if err := requireID(opFollow, "target id", req.TargetID); err != nil {
		return nil, err
	}
	if req.ActorID == req.TargetID {
		return nil, apperrors.NewInvalidOperation(opFollow, "a user cannot follow themselves")
	}

	// 1. Load both sides
	var actor, target *social.User
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		actor, err = e.loadUser(gctx, req.ActorID)
		return err
	})
	g.Go(func() error {
		var err error
		target, err = e.loadUser(gctx, req.TargetID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// 2. Toggle the authoritative side, mirror onto the other
	dir := social.Toggle(&target.Followers, actor.ID)
	social.Apply(&actor.Following, target.ID, dir)

	// 3. Save target, then actor
	if err := e.saveUser(ctx, target); err != nil {
		return nil, err
	}
	if err := e.saveUser(ctx, actor); err != nil {
		e.logger.Error("Follow partially committed",
			zap.String("actor_id", actor.ID),
			zap.String("target_id", target.ID),
			zap.String("direction", string(dir)),
			zap.Error(err),
		)
		return nil, apperrors.NewPartialWrite(opFollow,
			[]string{apperrors.Ref(apperrors.KindUser, target.ID)},
			[]string{apperrors.Ref(apperrors.KindUser, actor.ID)},
			err)
	}

	toggleDirections.WithLabelValues(opFollow, string(dir)).Inc()
	e.logger.Info("Follow toggled",
		zap.String("actor_id", actor.ID),
		zap.String("target_id", target.ID),
		zap.String("direction", string(dir)),
	)
	return &FollowResult{Actor: actor, Target: target, Direction: dir}, nil
}

// ReconcileFollows repairs follow symmetry around userID, treating every
// Followers set as authoritative:
//   - userID's Following becomes exactly the users listing it as a follower
//   - every existing follower of userID lists userID in its Following
//   - followers that no longer exist, and userID itself, are dropped
func (e *Engine) ReconcileFollows(ctx context.Context, userID string) (report *ReconcileReport, err error) {
	defer e.observe(opReconcile, time.Now(), &err)

	if err := requireID(opReconcile, "user id", userID); err != nil {
		return nil, err
	}

	// 1. Load the user and everyone whose followers name it
	var (
		user     *social.User
		followed []*social.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = e.loadUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		followed, err = e.store.FindUsers(gctx, social.UserFilter{FollowedBy: userID})
		if err != nil {
			return apperrors.NewPersistenceFailure(apperrors.KindUser, userID, "find followed", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report = &ReconcileReport{UserID: userID}

	// 2. Recompute Following from the followers side
	want := make([]string, 0, len(followed))
	for _, t := range followed {
		if t.ID != userID {
			want = append(want, t.ID)
		}
	}
	for _, id := range user.Following {
		if !social.Contains(want, id) {
			report.FollowingRemoved = append(report.FollowingRemoved, id)
		}
	}
	following := make([]string, 0, len(want))
	for _, id := range user.Following {
		if social.Contains(want, id) {
			following = append(following, id)
		}
	}
	for _, id := range want {
		if !social.Contains(following, id) {
			following = append(following, id)
			report.FollowingAdded = append(report.FollowingAdded, id)
		}
	}

	// 3. Push the user into each follower's Following
	var followers []string
	for _, fid := range user.Followers {
		if fid == userID || social.Contains(followers, fid) {
			report.FollowersDropped = append(report.FollowersDropped, fid)
			continue
		}
		f, err := e.loadUser(ctx, fid)
		if apperrors.IsNotFound(err) {
			report.FollowersDropped = append(report.FollowersDropped, fid)
			continue
		}
		if err != nil {
			return nil, err
		}
		followers = append(followers, fid)
		if social.Apply(&f.Following, userID, social.Added) {
			if err := e.saveUser(ctx, f); err != nil {
				return nil, err
			}
			report.RepairedUsers = append(report.RepairedUsers, fid)
		}
	}

	// 4. Save the user when its own sets changed
	if len(report.FollowingAdded)+len(report.FollowingRemoved)+len(report.FollowersDropped) > 0 {
		user.Following = following
		user.Followers = followers
		if err := e.saveUser(ctx, user); err != nil {
			return nil, err
		}
	}

	if report.Changed() {
		e.logger.Info("Follow graph repaired",
			zap.String("user_id", userID),
			zap.Strings("following_added", report.FollowingAdded),
			zap.Strings("following_removed", report.FollowingRemoved),
			zap.Strings("followers_dropped", report.FollowersDropped),
			zap.Strings("repaired_users", report.RepairedUsers),
		)
	}
	return report, nil
}

// ReconcileAll runs ReconcileFollows for every user in join order
func (e *Engine) ReconcileAll(ctx context.Context) ([]*ReconcileReport, error) {
	users, err := e.store.FindUsers(ctx, social.UserFilter{})
	if err != nil {
		return nil, apperrors.NewPersistenceFailure(apperrors.KindUser, "*", "find users", err)
	}

	var reports []*ReconcileReport
	for _, u := range users {
		report, err := e.ReconcileFollows(ctx, u.ID)
		if err != nil {
			return reports, err
		}
		if report.Changed() {
			reports = append(reports, report)
		}
	}
	return reports, nil
}
