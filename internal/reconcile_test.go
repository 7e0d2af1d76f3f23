package internal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ids(memos []Memo) []string {
	out := make([]string, len(memos))
	for i, m := range memos {
		out[i] = m.ID
	}
	return out
}

func TestReconcile(t *testing.T) {
	memos := []Memo{
		{ID: "a", Date: "2024-01-01"},
		{ID: "b", Date: "2024-01-01"},
		{ID: "c", Date: "2024-01-01"},
	}

	r := Reconcile(memos, []string{"a"})

	assert.Equal(t, []string{"b", "c"}, ids(r.Kept))
	assert.Equal(t, 1, r.Dropped)
	assert.Equal(t, []string{"a", "b", "c"}, r.UpdatedSyncedIDs)
}

func TestReconcileAllSynced(t *testing.T) {
	memos := []Memo{{ID: "a"}, {ID: "b"}}

	r := Reconcile(memos, []string{"b", "a"})

	if len(r.Kept) != 0 {
		t.Errorf("kept = %v, want none", ids(r.Kept))
	}
	assert.Equal(t, []string{"b", "a"}, r.UpdatedSyncedIDs)
}

func TestReconcileIDLessAlwaysKept(t *testing.T) {
	memos := []Memo{{Content: "x"}, {ID: "a"}, {Content: "y"}}

	first := Reconcile(memos, nil)
	second := Reconcile(memos, first.UpdatedSyncedIDs)

	assert.Len(t, first.Kept, 3)
	assert.Len(t, second.Kept, 2)
	assert.Equal(t, []string{"a"}, second.UpdatedSyncedIDs)
	for _, id := range second.UpdatedSyncedIDs {
		if id == "" {
			t.Fatal("empty id recorded as synced")
		}
	}
}

func TestReconcileDuplicateIDKeptOnce(t *testing.T) {
	memos := []Memo{
		{ID: "a", Content: "first"},
		{ID: "b"},
		{ID: "a", Content: "second"},
	}

	r := Reconcile(memos, nil)

	assert.Equal(t, []string{"a", "b"}, ids(r.Kept))
	assert.Equal(t, "first", r.Kept[0].Content)
	assert.Equal(t, []string{"a", "b"}, r.UpdatedSyncedIDs)
}

func TestReconcileNeverLosesSyncedIDs(t *testing.T) {
	synced := []string{"z", "", "y", "z"}

	r := Reconcile([]Memo{{ID: "a"}}, synced)

	assert.Equal(t, []string{"z", "y", "a"}, r.UpdatedSyncedIDs)
}

func TestApplyIdentityFallback(t *testing.T) {
	memos := []Memo{
		{Date: "2024-01-01", Time: "10:00:00", Content: "hello"},
		{ID: "keep", Content: "hello"},
	}

	none := ApplyIdentityFallback(memos, IdentityNone)
	assert.False(t, none[0].HasID())

	hashed := ApplyIdentityFallback(memos, IdentityContentHash)
	if !strings.HasPrefix(hashed[0].ID, "hash-") {
		t.Errorf("id = %q, want hash- prefix", hashed[0].ID)
	}
	assert.Equal(t, "keep", hashed[1].ID)
	assert.False(t, memos[0].HasID(), "input slice was modified")

	again := ApplyIdentityFallback(memos, IdentityContentHash)
	assert.Equal(t, hashed[0].ID, again[0].ID)

	other := memos[0]
	other.Content = "goodbye"
	assert.NotEqual(t, ContentHashID(memos[0]), ContentHashID(other))
}

func TestWithoutIDs(t *testing.T) {
	got := withoutIDs([]string{"a", "b", "c"}, map[string]bool{"b": true})
	assert.Equal(t, []string{"a", "c"}, got)

	same := []string{"a"}
	assert.Equal(t, same, withoutIDs(same, nil))
}
