package search

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func visibilityDoc(t *testing.T, p Principal) map[string]interface{} {
	t.Helper()
	q := VisibilityClause(p)
	src, err := q.Source()
	require.NoError(t, err)
	raw, err := json.Marshal(src)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	return doc
}

func TestVisibilityClauseAnonymousOnlyPublished(t *testing.T) {
	doc := visibilityDoc(t, Principal{})
	term, ok := doc["term"].(map[string]interface{})
	require.True(t, ok, "expected a bare term query for anonymous principal, got %+v", doc)
	_, hasStatus := term["status"]
	assert.True(t, hasStatus, "expected status term, got %+v", term)
}

func TestVisibilityClauseAuthenticatedNonAdminIncludesOwnedUid(t *testing.T) {
	doc := visibilityDoc(t, Principal{UserID: "user-42"})
	b := doc["bool"].(map[string]interface{})
	should, ok := b["should"].([]interface{})
	require.True(t, ok)
	assert.Len(t, should, 2, "expected 2 should clauses (published OR owned uid)")
}

func TestVisibilityClauseAdminExcludesDeletedByDefault(t *testing.T) {
	doc := visibilityDoc(t, Principal{IsAdmin: true})
	b, ok := doc["bool"].(map[string]interface{})
	require.True(t, ok, "expected bool must_not, got %+v", doc)
	_, hasMustNot := b["must_not"]
	assert.True(t, hasMustNot, "expected must_not deleted clause, got %+v", b)
}

func TestVisibilityClauseAdminIncludeDeletedMatchesAll(t *testing.T) {
	doc := visibilityDoc(t, Principal{IsAdmin: true, IncludeDeleted: true})
	_, hasMatchAll := doc["match_all"]
	assert.True(t, hasMatchAll, "expected match_all, got %+v", doc)
}
