package graph

import (
	"context"
	"os"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"circle-media/backend/internal/social"
	"circle-media/backend/internal/store/storetest"
)

// These tests require a running, disposable Neo4j instance. They wipe every
// User and Post node. Set NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD to enable.
func TestRepository_StoreContract(t *testing.T) {
	driver := createTestDriver(t)

	storetest.Run(t, func(t *testing.T) social.Store {
		repo := NewRepository(driver)
		require.NoError(t, repo.EnsureSchema(context.Background()))
		wipe(t, driver)
		return repo
	})
}

func TestRepository_AuthoredEdge(t *testing.T) {
	driver := createTestDriver(t)
	ctx := context.Background()
	repo := NewRepository(driver)
	require.NoError(t, repo.EnsureSchema(ctx))
	wipe(t, driver)

	require.NoError(t, repo.CreateUser(ctx, storetest.NewUser("u1", "ada")))
	require.NoError(t, repo.CreatePost(ctx, storetest.NewPost("p1", "u1", 0)))

	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)
	result, err := session.Run(ctx,
		`MATCH (:User {id: $uid})-[:AUTHORED]->(p:Post) RETURN count(p) AS n`,
		map[string]interface{}{"uid": "u1"})
	require.NoError(t, err)
	record, err := result.Single(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), getInt64FromRecord(record, "n"))
}

func createTestDriver(t *testing.T) neo4j.DriverWithContext {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		t.Skip("NEO4J_URI not set")
	}

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(os.Getenv("NEO4J_USER"), os.Getenv("NEO4J_PASSWORD"), ""))
	require.NoError(t, err)

	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		t.Skipf("Neo4j not reachable: %v", err)
	}
	t.Cleanup(func() { driver.Close(ctx) })
	return driver
}

func wipe(t *testing.T, driver neo4j.DriverWithContext) {
	t.Helper()
	ctx := context.Background()
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)
	_, err := session.Run(ctx, "MATCH (n) WHERE n:User OR n:Post DETACH DELETE n", nil)
	require.NoError(t, err)
}
