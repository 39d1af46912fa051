package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"circle-media/backend/internal/engine"
	apperrors "circle-media/backend/pkg/errors"
)

// Fixture is the YAML document seed loads. Users are referenced by username.
type Fixture struct {
	Users   []FixtureUser   `yaml:"users"`
	Follows []FixtureFollow `yaml:"follows"`
	Posts   []FixturePost   `yaml:"posts"`
}

// FixtureUser is one account to sign up
type FixtureUser struct {
	Username  string `yaml:"username"`
	FirstName string `yaml:"firstname"`
	LastName  string `yaml:"lastname"`
	Email     string `yaml:"email"`
	Bio       string `yaml:"bio"`
	Location  string `yaml:"location"`
	Link      string `yaml:"link"`
}

// FixtureFollow makes From follow To
type FixtureFollow struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// FixturePost is a post with the interactions to replay on it
type FixturePost struct {
	Author      string         `yaml:"author"`
	Content     string         `yaml:"content"`
	LikedBy     []string       `yaml:"likedBy"`
	RetweetedBy []string       `yaml:"retweetedBy"`
	Replies     []FixtureReply `yaml:"replies"`
}

// FixtureReply is one reply on a fixture post
type FixtureReply struct {
	Author  string `yaml:"author"`
	Content string `yaml:"content"`
}

// SeedSummary counts what seed created
type SeedSummary struct {
	Users        int `json:"users"`
	SkippedUsers int `json:"skippedUsers"`
	Follows      int `json:"follows"`
	Posts        int `json:"posts"`
	Interactions int `json:"interactions"`
	Replies      int `json:"replies"`
}

// SeedOptions holds flags for the seed command
type SeedOptions struct {
	*RootOptions
	File string
}

// NewSeedCommand creates the seed command
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load fixture users, follows and posts",
		Long: `Load a YAML fixture through the engine.

Users that already exist are reused, so a fixture can be applied to a
populated store. Follows and likes are toggles: applying the same fixture
twice reverses them.

Examples:
  circlectl seed --file fixtures.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "path to YAML fixture (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// LoadFixture reads and decodes a fixture file
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}
	return &f, nil
}

func runSeed(opts *SeedOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	fixture, err := LoadFixture(opts.File)
	if err != nil {
		return err
	}

	return opts.withEngine(ctx, func(e *engine.Engine) error {
		summary, err := Seed(ctx, e, fixture)
		if err != nil {
			return err
		}
		if opts.Format == "json" {
			return writeJSON(cmd, summary)
		}
		fmt.Fprintf(cmd.OutOrStdout(),
			"Seeded %d users (%d existing), %d follows, %d posts, %d interactions, %d replies\n",
			summary.Users, summary.SkippedUsers, summary.Follows, summary.Posts, summary.Interactions, summary.Replies)
		return nil
	})
}

// Seed applies f through e
func Seed(ctx context.Context, e *engine.Engine, f *Fixture) (*SeedSummary, error) {
	summary := &SeedSummary{}
	ids := make(map[string]string, len(f.Users))

	// 1. Users
	for _, fu := range f.Users {
		u, err := e.CreateUser(ctx, engine.CreateUserRequest{
			FirstName: fu.FirstName,
			LastName:  fu.LastName,
			Username:  fu.Username,
			Email:     fu.Email,
			Bio:       fu.Bio,
			Location:  fu.Location,
			Link:      fu.Link,
		})
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			existing, lookupErr := e.GetUserByUsername(ctx, fu.Username)
			if lookupErr != nil {
				return summary, fmt.Errorf("user %s: %w", fu.Username, err)
			}
			u, err = existing, nil
			summary.SkippedUsers++
		} else if err == nil {
			summary.Users++
		}
		if err != nil {
			return summary, fmt.Errorf("user %s: %w", fu.Username, err)
		}
		ids[u.Username] = u.ID
	}

	resolve := func(username string) (string, error) {
		username = strings.ToLower(username)
		if id, ok := ids[username]; ok {
			return id, nil
		}
		u, err := e.GetUserByUsername(ctx, username)
		if err != nil {
			return "", fmt.Errorf("unknown user %s: %w", username, err)
		}
		ids[username] = u.ID
		return u.ID, nil
	}

	// 2. Follows
	for _, ff := range f.Follows {
		from, err := resolve(ff.From)
		if err != nil {
			return summary, err
		}
		to, err := resolve(ff.To)
		if err != nil {
			return summary, err
		}
		if _, err := e.FollowUnfollow(ctx, engine.FollowRequest{ActorID: from, TargetID: to}); err != nil {
			return summary, fmt.Errorf("follow %s -> %s: %w", ff.From, ff.To, err)
		}
		summary.Follows++
	}

	// 3. Posts with their interactions
	for _, fp := range f.Posts {
		author, err := resolve(fp.Author)
		if err != nil {
			return summary, err
		}
		post, err := e.CreatePost(ctx, engine.CreatePostRequest{ActorID: author, Content: fp.Content})
		if err != nil {
			return summary, fmt.Errorf("post by %s: %w", fp.Author, err)
		}
		summary.Posts++

		toggles := []struct {
			users []string
			fn    func(context.Context, engine.InteractionRequest) (*engine.InteractionResult, error)
		}{
			{fp.LikedBy, e.ToggleLike},
			{fp.RetweetedBy, e.ToggleRetweet},
		}
		for _, tg := range toggles {
			for _, username := range tg.users {
				actor, err := resolve(username)
				if err != nil {
					return summary, err
				}
				if _, err := tg.fn(ctx, engine.InteractionRequest{PostID: post.ID, ActorID: actor}); err != nil {
					return summary, err
				}
				summary.Interactions++
			}
		}

		for _, fr := range fp.Replies {
			replier, err := resolve(fr.Author)
			if err != nil {
				return summary, err
			}
			if _, err := e.AddReply(ctx, engine.ReplyRequest{PostID: post.ID, ActorID: replier, Content: fr.Content}); err != nil {
				return summary, err
			}
			summary.Replies++
		}
	}

	return summary, nil
}
