package engine

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"circle-media/backend/internal/social"
	apperrors "circle-media/backend/pkg/errors"
)

const (
	opCreateUser = "create_user"
	opGetUser    = "get_user"
	opListUsers  = "list_users"
	opUpdateUser = "update_user"
	opDeleteUser = "delete_user"
)

// capitalise upper-cases the first letter of a name and lower-cases the rest.
// Casers keep state between calls, so each call builds its own.
func capitalise(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	_, size := utf8.DecodeRuneInString(name)
	return cases.Upper(language.Und).String(name[:size]) + cases.Lower(language.Und).String(name[size:])
}

// CreateUser signs a user up. Names are capitalised; username and email are
// lowercased so lookups are case-insensitive. Both must be unused.
func (e *Engine) CreateUser(ctx context.Context, req CreateUserRequest) (user *social.User, err error) {
	defer e.observe(opCreateUser, time.Now(), &err)

	user = &social.User{
		ID:        e.newID(),
		FirstName: capitalise(req.FirstName),
		LastName:  capitalise(req.LastName),
		Username:  strings.ToLower(strings.TrimSpace(req.Username)),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Bio:       req.Bio,
		Avatar:    req.Avatar,
		Location:  req.Location,
		Link:      req.Link,
		JoinedOn:  e.now(),
	}
	switch {
	case user.FirstName == "":
		return nil, apperrors.NewInvalidOperation(opCreateUser, "firstname is required")
	case user.LastName == "":
		return nil, apperrors.NewInvalidOperation(opCreateUser, "lastname is required")
	case user.Username == "":
		return nil, apperrors.NewInvalidOperation(opCreateUser, "username is required")
	case user.Email == "":
		return nil, apperrors.NewInvalidOperation(opCreateUser, "email is required")
	}

	if err := e.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			inv := apperrors.NewInvalidOperation(opCreateUser, e.takenReason(ctx, user))
			inv.Err = apperrors.ErrAlreadyExists
			return nil, inv
		}
		return nil, apperrors.NewPersistenceFailure(apperrors.KindUser, user.ID, "create", err)
	}

	e.logger.Info("User created", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// takenReason names the claim that made a signup clash
func (e *Engine) takenReason(ctx context.Context, user *social.User) string {
	if _, err := e.store.GetUserByUsername(ctx, user.Username); err == nil {
		return "username " + user.Username + " is already taken"
	}
	return "email " + user.Email + " is already taken"
}

// GetUser returns a user by id
func (e *Engine) GetUser(ctx context.Context, id string) (user *social.User, err error) {
	defer e.observe(opGetUser, time.Now(), &err)
	return e.loadUser(ctx, id)
}

// GetUserByUsername returns a user by username, case-insensitively
func (e *Engine) GetUserByUsername(ctx context.Context, username string) (user *social.User, err error) {
	defer e.observe(opGetUser, time.Now(), &err)

	username = strings.ToLower(username)
	user, err = e.store.GetUserByUsername(ctx, username)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound(apperrors.KindUser, username)
		}
		return nil, apperrors.NewPersistenceFailure(apperrors.KindUser, username, "load", err)
	}
	return user, nil
}

// ListUsers returns users matching filter in join order
func (e *Engine) ListUsers(ctx context.Context, filter social.UserFilter) (users []*social.User, err error) {
	defer e.observe(opListUsers, time.Now(), &err)

	filter.Username = strings.ToLower(filter.Username)
	users, err = e.store.FindUsers(ctx, filter)
	if err != nil {
		return nil, apperrors.NewPersistenceFailure(apperrors.KindUser, "*", "list", err)
	}
	if users == nil {
		users = []*social.User{}
	}
	return users, nil
}

// UpdateUser applies a profile patch; users may only edit themselves
func (e *Engine) UpdateUser(ctx context.Context, req UpdateUserRequest) (user *social.User, err error) {
	defer e.observe(opUpdateUser, time.Now(), &err)

	if req.ActorID != req.UserID {
		return nil, apperrors.NewInvalidOperation(opUpdateUser, "users can only edit their own profile")
	}
	if err := req.Patch.Validate(); err != nil {
		return nil, apperrors.NewInvalidOperation(opUpdateUser, err.Error())
	}

	user, err = e.loadUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if req.Patch.Apply(user) {
		if err := e.saveUser(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// DeleteUser removes a user and their posts. Other records are then scrubbed
// of the id: follow sets and notifications of every other user, interaction
// sets and replies of every remaining post. Scrub failures are logged and
// left to ReconcileFollows or a later delete; they do not fail the call.
func (e *Engine) DeleteUser(ctx context.Context, req DeleteUserRequest) (err error) {
	defer e.observe(opDeleteUser, time.Now(), &err)

	if req.ActorID != req.UserID {
		return apperrors.NewInvalidOperation(opDeleteUser, "users can only delete their own account")
	}

	user, err := e.loadUser(ctx, req.UserID)
	if err != nil {
		return err
	}

	// 1. Remove authored posts
	posts, err := e.store.FindPosts(ctx, social.PostFilter{AuthorID: user.ID})
	if err != nil {
		return apperrors.NewPersistenceFailure(apperrors.KindPost, user.ID, "list", err)
	}
	for _, p := range posts {
		h, err := e.store.LocatePost(ctx, p.ID)
		if err == nil {
			err = h.Remove(ctx)
		}
		if err != nil && !apperrors.IsNotFound(err) {
			e.logger.Warn("Failed to remove post of deleted user",
				zap.String("user_id", user.ID),
				zap.String("post_id", p.ID),
				zap.Error(err),
			)
		}
	}

	// 2. Remove the user record
	if err := e.store.DeleteUser(ctx, user.ID); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewNotFound(apperrors.KindUser, user.ID)
		}
		return apperrors.NewPersistenceFailure(apperrors.KindUser, user.ID, "delete", err)
	}

	// 3. Scrub references held by others
	scrubbedUsers := e.scrubUsers(ctx, user.ID)
	scrubbedPosts := e.scrubPosts(ctx, user.ID)

	e.logger.Info("User deleted",
		zap.String("user_id", user.ID),
		zap.Int("posts_removed", len(posts)),
		zap.Int("users_scrubbed", scrubbedUsers),
		zap.Int("posts_scrubbed", scrubbedPosts),
	)
	return nil
}

// scrubUsers makes every other user forget userID and returns how many
// records were rewritten
func (e *Engine) scrubUsers(ctx context.Context, userID string) int {
	others, err := e.store.FindUsers(ctx, social.UserFilter{})
	if err != nil {
		e.logger.Warn("Failed to list users for scrub", zap.String("user_id", userID), zap.Error(err))
		return 0
	}
	n := 0
	for _, other := range others {
		if other.ID == userID || !other.Forget(userID) {
			continue
		}
		if err := e.saveUser(ctx, other); err != nil {
			e.logger.Warn("Failed to scrub user",
				zap.String("user_id", userID),
				zap.String("neighbour_id", other.ID),
				zap.Error(err),
			)
			continue
		}
		n++
	}
	return n
}

// scrubPosts makes every remaining post forget userID. Each post is located
// afresh so the handle carries the owning document's current version.
func (e *Engine) scrubPosts(ctx context.Context, userID string) int {
	posts, err := e.store.FindPosts(ctx, social.PostFilter{})
	if err != nil {
		e.logger.Warn("Failed to list posts for scrub", zap.String("user_id", userID), zap.Error(err))
		return 0
	}
	n := 0
	for _, p := range posts {
		if !p.Clone().Forget(userID) {
			continue
		}
		h, err := e.locatePost(ctx, p.ID)
		if err == nil && h.Post().Forget(userID) {
			err = e.persistPost(ctx, h)
		}
		if err != nil {
			e.logger.Warn("Failed to scrub post",
				zap.String("user_id", userID),
				zap.String("post_id", p.ID),
				zap.Error(err),
			)
			continue
		}
		n++
	}
	return n
}
