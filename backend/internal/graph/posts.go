package graph

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"circle-media/backend/internal/social"
	apperrors "circle-media/backend/pkg/errors"
)

// ============================================================================
// Post Operations
// ============================================================================

// CreatePost creates a post node and links it to its author when the author
// node exists
func (r *Repository) CreatePost(ctx context.Context, p *social.Post) error {
	props, err := postProps(p)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		CREATE (p:Post {id: $id})
		SET p += $props,
		    p.version = 1
		WITH p
		OPTIONAL MATCH (u:User {id: $authorID})
		FOREACH (_ IN CASE WHEN u IS NULL THEN [] ELSE [1] END |
			CREATE (u)-[:AUTHORED]->(p))
		RETURN p.id AS id
	`
	_, err = session.Run(ctx, query, map[string]interface{}{
		"id":       p.ID,
		"authorID": p.AuthorID,
		"props":    props,
	})
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("create post %s: %w", p.ID, apperrors.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create post: %w", err)
	}

	p.Version = 1
	return nil
}

// LocatePost loads a post node; the node is its own owning record
func (r *Repository) LocatePost(ctx context.Context, postID string) (social.PostHandle, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `MATCH (p:Post {id: $id}) RETURN p`, map[string]interface{}{"id": postID})
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("failed to fetch record: %w", err)
		}
		return nil, apperrors.NewNotFound(apperrors.KindPost, postID)
	}

	node, ok := getNodeFromRecord(result.Record(), "p")
	if !ok {
		return nil, fmt.Errorf("unexpected record for post %s", postID)
	}
	post, err := postFromNode(node)
	if err != nil {
		return nil, err
	}
	return &postHandle{repo: r, post: post}, nil
}

// FindPosts returns post nodes newest first
func (r *Repository) FindPosts(ctx context.Context, filter social.PostFilter) ([]*social.Post, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (p:Post)
		WHERE $authorID = '' OR p.author_id = $authorID
		RETURN p
		ORDER BY p.created_at DESC, p.id DESC
	`
	params := map[string]interface{}{"authorID": filter.AuthorID}
	if filter.Limit > 0 {
		query += ` LIMIT $limit`
		params["limit"] = int64(filter.Limit)
	}

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to find posts: %w", err)
	}

	var posts []*social.Post
	for result.Next(ctx) {
		node, ok := getNodeFromRecord(result.Record(), "p")
		if !ok {
			continue
		}
		p, err := postFromNode(node)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}
	return posts, nil
}

type postHandle struct {
	repo *Repository
	post *social.Post
}

func (h *postHandle) Post() *social.Post { return h.post }

func (h *postHandle) Persist(ctx context.Context) error {
	p := h.post
	props, err := postProps(p)
	if err != nil {
		return fmt.Errorf("persist post: %w", err)
	}

	session := h.repo.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		query := `
			MATCH (p:Post {id: $id})
			WHERE p.version = $version
			SET p += $props,
			    p.version = p.version + 1
			RETURN p.version AS version
		`
		result, err := tx.Run(ctx, query, map[string]interface{}{
			"id":      p.ID,
			"version": p.Version,
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
		return nil, checkVersion(ctx, tx, "Post", apperrors.KindPost, p.ID, p.Version)
	})
	if err != nil {
		return fmt.Errorf("persist post: %w", err)
	}

	p.Version++
	return nil
}

func (h *postHandle) Remove(ctx context.Context) error {
	session := h.repo.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (p:Post {id: $id})
		WITH p, p.id AS id
		DETACH DELETE p
		RETURN id
	`
	result, err := session.Run(ctx, query, map[string]interface{}{"id": h.post.ID})
	if err != nil {
		return fmt.Errorf("failed to remove post: %w", err)
	}
	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return fmt.Errorf("failed to remove post: %w", err)
		}
		return apperrors.NewNotFound(apperrors.KindPost, h.post.ID)
	}
	return nil
}

func postProps(p *social.Post) (map[string]interface{}, error) {
	replies, err := json.Marshal(p.Replies)
	if err != nil {
		return nil, fmt.Errorf("marshal replies: %w", err)
	}
	return map[string]interface{}{
		"author_id":     p.AuthorID,
		"content":       p.Content,
		"created_at":    p.CreatedAt.UTC(),
		"updated_at":    p.UpdatedAt.UTC(),
		"liked_by":      stringList(p.LikedBy),
		"retweeted_by":  stringList(p.RetweetedBy),
		"bookmarked_by": stringList(p.BookmarkedBy),
		"replies":       string(replies),
	}, nil
}

func postFromNode(node neo4j.Node) (*social.Post, error) {
	props := node.Props
	p := &social.Post{
		ID:           getStringFromMap(props, "id"),
		AuthorID:     getStringFromMap(props, "author_id"),
		Content:      getStringFromMap(props, "content"),
		CreatedAt:    getTimeFromMap(props, "created_at"),
		UpdatedAt:    getTimeFromMap(props, "updated_at"),
		LikedBy:      getStringSliceFromMap(props, "liked_by"),
		RetweetedBy:  getStringSliceFromMap(props, "retweeted_by"),
		BookmarkedBy: getStringSliceFromMap(props, "bookmarked_by"),
		Version:      getInt64FromMap(props, "version"),
	}
	if raw := getStringFromMap(props, "replies"); raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &p.Replies); err != nil {
			return nil, fmt.Errorf("post %s: decode replies: %w", p.ID, err)
		}
	}
	return p, nil
}
