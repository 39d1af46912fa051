package graph

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"circle-media/backend/internal/social"
	apperrors "circle-media/backend/pkg/errors"
)

// ============================================================================
// User Operations
// ============================================================================

// CreateUser creates a user node at version 1
func (r *Repository) CreateUser(ctx context.Context, u *social.User) error {
	props, err := userProps(u)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		CREATE (u:User {id: $id})
		SET u += $props,
		    u.version = 1
		RETURN u.id AS id
	`

	_, err = session.Run(ctx, query, map[string]interface{}{
		"id":    u.ID,
		"props": props,
	})
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("create user %s / %q / %q: %w", u.ID, u.Username, u.Email, apperrors.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	u.Version = 1
	r.logger.Debug("User created", zap.String("user_id", u.ID), zap.String("username", u.Username))
	return nil
}

// GetUser fetches a user node by id
func (r *Repository) GetUser(ctx context.Context, id string) (*social.User, error) {
	return r.fetchUser(ctx, id, `MATCH (u:User {id: $value}) RETURN u`)
}

// GetUserByUsername fetches a user node by username
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*social.User, error) {
	return r.fetchUser(ctx, username, `MATCH (u:User {username: $value}) RETURN u`)
}

func (r *Repository) fetchUser(ctx context.Context, value, query string) (*social.User, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, map[string]interface{}{"value": value})
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("failed to fetch record: %w", err)
		}
		return nil, apperrors.NewNotFound(apperrors.KindUser, value)
	}

	node, ok := getNodeFromRecord(result.Record(), "u")
	if !ok {
		return nil, fmt.Errorf("unexpected record for user %s", value)
	}
	return userFromNode(node)
}

// FindUsers filters user nodes ordered by join date
func (r *Repository) FindUsers(ctx context.Context, filter social.UserFilter) ([]*social.User, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (u:User)
		WHERE ($username = '' OR u.username = $username)
		  AND ($followedBy = '' OR $followedBy IN u.followers)
		RETURN u
		ORDER BY u.joined_on ASC, u.id ASC
	`
	params := map[string]interface{}{
		"username":   filter.Username,
		"followedBy": filter.FollowedBy,
	}
	if filter.Limit > 0 {
		query += ` LIMIT $limit`
		params["limit"] = int64(filter.Limit)
	}

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}

	var users []*social.User
	for result.Next(ctx) {
		node, ok := getNodeFromRecord(result.Record(), "u")
		if !ok {
			continue
		}
		u, err := userFromNode(node)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// SaveUser rewrites the user node when its version still matches
func (r *Repository) SaveUser(ctx context.Context, u *social.User) error {
	props, err := userProps(u)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		query := `
			MATCH (u:User {id: $id})
			WHERE u.version = $version
			SET u += $props,
			    u.version = u.version + 1
			RETURN u.version AS version
		`
		result, err := tx.Run(ctx, query, map[string]interface{}{
			"id":      u.ID,
			"version": u.Version,
			"props":   props,
		})
		if err != nil {
			return nil, err
		}
		if result.Next(ctx) {
			return nil, nil
		}
		if err := result.Err(); err != nil {
			return nil, err
		}
		return nil, checkVersion(ctx, tx, "User", apperrors.KindUser, u.ID, u.Version)
	})
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("save user %s: %w", u.ID, apperrors.ErrAlreadyExists)
		}
		return fmt.Errorf("save user: %w", err)
	}

	u.Version++
	return nil
}

// DeleteUser detaches and deletes the user node. Posts are not cascaded.
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {id: $id})
		WITH u, u.id AS id
		DETACH DELETE u
		RETURN id
	`
	result, err := session.Run(ctx, query, map[string]interface{}{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return apperrors.NewNotFound(apperrors.KindUser, id)
	}
	return nil
}

func userProps(u *social.User) (map[string]interface{}, error) {
	notifications, err := json.Marshal(u.Notifications)
	if err != nil {
		return nil, fmt.Errorf("marshal notifications: %w", err)
	}
	return map[string]interface{}{
		"firstname":     u.FirstName,
		"lastname":      u.LastName,
		"username":      u.Username,
		"email":         u.Email,
		"bio":           u.Bio,
		"avatar":        u.Avatar,
		"location":      u.Location,
		"link":          u.Link,
		"joined_on":     u.JoinedOn.UTC(),
		"followers":     stringList(u.Followers),
		"following":     stringList(u.Following),
		"notifications": string(notifications),
	}, nil
}

func userFromNode(node neo4j.Node) (*social.User, error) {
	p := node.Props
	u := &social.User{
		ID:        getStringFromMap(p, "id"),
		FirstName: getStringFromMap(p, "firstname"),
		LastName:  getStringFromMap(p, "lastname"),
		Username:  getStringFromMap(p, "username"),
		Email:     getStringFromMap(p, "email"),
		Bio:       getStringFromMap(p, "bio"),
		Avatar:    getStringFromMap(p, "avatar"),
		Location:  getStringFromMap(p, "location"),
		Link:      getStringFromMap(p, "link"),
		JoinedOn:  getTimeFromMap(p, "joined_on"),
		Followers: getStringSliceFromMap(p, "followers"),
		Following: getStringSliceFromMap(p, "following"),
		Version:   getInt64FromMap(p, "version"),
	}
	if raw := getStringFromMap(p, "notifications"); raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &u.Notifications); err != nil {
			return nil, fmt.Errorf("user %s: decode notifications: %w", u.ID, err)
		}
	}
	return u, nil
}
