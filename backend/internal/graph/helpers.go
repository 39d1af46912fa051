package graph

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ============================================================================
// Helper Functions
// ============================================================================

func getInt64FromRecord(record *neo4j.Record, key string) int64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	if i, ok := val.(int64); ok {
		return i
	}
	if i, ok := val.(int); ok {
		return int64(i)
	}
	return 0
}

func getNodeFromRecord(record *neo4j.Record, key string) (neo4j.Node, bool) {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return neo4j.Node{}, false
	}
	node, ok := val.(neo4j.Node)
	return node, ok
}

func getStringFromMap(m map[string]interface{}, key string) string {
	val, ok := m[key]
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getInt64FromMap(m map[string]interface{}, key string) int64 {
	val, ok := m[key]
	if !ok || val == nil {
		return 0
	}
	if i, ok := val.(int64); ok {
		return i
	}
	return 0
}

// getStringSliceFromMap returns nil for absent or empty lists so loaded
// entities compare equal to freshly built ones
func getStringSliceFromMap(m map[string]interface{}, key string) []string {
	val, ok := m[key]
	if !ok || val == nil {
		return nil
	}
	slice, ok := val.([]interface{})
	if !ok || len(slice) == 0 {
		return nil
	}
	result := make([]string, 0, len(slice))
	for _, v := range slice {
		if str, ok := v.(string); ok {
			result = append(result, str)
		}
	}
	return result
}

func getTimeFromMap(m map[string]interface{}, key string) time.Time {
	val, ok := m[key]
	if !ok || val == nil {
		return time.Time{}
	}
	// Neo4j datetime values come as time.Time
	if t, ok := val.(time.Time); ok {
		return t.UTC()
	}
	return time.Time{}
}

// stringList makes sure empty sets are written as [] rather than null
func stringList(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
