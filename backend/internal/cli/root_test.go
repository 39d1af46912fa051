package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"circle-media/backend/internal/engine"
	"circle-media/backend/internal/social"
	"circle-media/backend/internal/store/memory"
	"circle-media/backend/internal/store/sqlitestore"
	"circle-media/backend/internal/store/storetest"
	apperrors "circle-media/backend/pkg/errors"
)

const fixtureYAML = `
users:
  - username: alice
    firstname: alice
    lastname: liddell
    email: alice@example.com
  - username: bob
    firstname: bob
    lastname: builder
    email: bob@example.com
  - username: carol
    firstname: carol
    lastname: danvers
    email: carol@example.com
follows:
  - from: alice
    to: bob
  - from: carol
    to: bob
posts:
  - author: bob
    content: can we fix it
    likedBy: [alice, carol]
    retweetedBy: [alice]
    replies:
      - author: alice
        content: yes we can
      - author: carol
        content: probably
`

// newTestRoot returns a root command whose store is a SQLite file under the
// test's temp dir, so state survives between command invocations
func newTestRoot(t *testing.T, dbPath string) (*RootOptions, func(args ...string) (string, error)) {
	t.Helper()
	opts := &RootOptions{
		OpenStore: func(ctx context.Context) (social.Store, error) {
			return sqlitestore.Open(dbPath)
		},
	}
	run := func(args ...string) (string, error) {
		cmd := newRootCommand(opts)
		buf := &bytes.Buffer{}
		cmd.SetOut(buf)
		cmd.SetErr(buf)
		cmd.SetArgs(args)
		err := cmd.Execute()
		return buf.String(), err
	}
	return opts, run
}

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureYAML), 0o600))
	return path
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "circlectl", cmd.Use)

	for _, name := range []string{"reconcile", "seed"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}

	envFlag := cmd.PersistentFlags().Lookup("env")
	require.NotNil(t, envFlag)
	assert.Equal(t, "development", envFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, run := newTestRoot(t, filepath.Join(t.TempDir(), "c.db"))

	_, err := run("reconcile", "--all", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestSeed(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "c.db")
	_, run := newTestRoot(t, dbPath)

	out, err := run("seed", "--file", writeFixture(t), "--format", "json")
	require.NoError(t, err, out)

	var summary SeedSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, SeedSummary{Users: 3, Follows: 2, Posts: 1, Interactions: 3, Replies: 2}, summary)

	st, err := sqlitestore.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()

	bob, err := st.GetUserByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "Bob", bob.FirstName)
	assert.Len(t, bob.Followers, 2)

	posts, err := st.FindPosts(ctx, social.PostFilter{AuthorID: bob.ID})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Len(t, posts[0].LikedBy, 2)
	require.Len(t, posts[0].Replies, 2)
	assert.Equal(t, "yes we can", posts[0].Replies[0].Content)
}

func TestSeed_ReusesExistingUsers(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "c.db")
	_, run := newTestRoot(t, dbPath)
	fixture := writeFixture(t)

	_, err := run("seed", "--file", fixture)
	require.NoError(t, err)

	out, err := run("seed", "--file", fixture)
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 0 users (3 existing)")
}

func TestSeed_InvalidUserIsNotReused(t *testing.T) {
	ctx := context.Background()
	e := engine.New(memory.New())
	_, err := e.CreateUser(ctx, engine.CreateUserRequest{
		FirstName: "alice", LastName: "liddell", Username: "alice", Email: "alice@example.com",
	})
	require.NoError(t, err)

	f := &Fixture{Users: []FixtureUser{{Username: "alice", LastName: "liddell", Email: "alice@example.com"}}}
	summary, err := Seed(ctx, e, f)
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeInvalidOperation), "got %v", err)
	assert.Contains(t, err.Error(), "firstname is required")
	assert.Zero(t, summary.SkippedUsers)
}

func TestSeed_MissingFile(t *testing.T) {
	_, run := newTestRoot(t, filepath.Join(t.TempDir(), "c.db"))

	_, err := run("seed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")

	_, err = run("seed", "--file", "/nonexistent/fixtures.yaml")
	require.Error(t, err)
}

func TestReconcile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "c.db")
	_, run := newTestRoot(t, dbPath)

	// a is listed as a follower of b but a's following is empty
	st, err := sqlitestore.Open(dbPath)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, st.CreateUser(ctx, storetest.NewUser("a", "alice")))
	b := storetest.NewUser("b", "bob")
	b.Followers = []string{"a"}
	require.NoError(t, st.CreateUser(ctx, b))
	require.NoError(t, st.Close())

	out, err := run("reconcile", "--user", "a")
	require.NoError(t, err, out)
	assert.Contains(t, out, "following added: b")

	out, err = run("reconcile", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to repair")

	_, err = run("reconcile")
	require.Error(t, err)

	_, err = run("reconcile", "--user", "a", "--all")
	require.Error(t, err)
}
