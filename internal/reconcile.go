package internal

import (
	"github.com/google/uuid"
)

// IdentityFallback decides what happens to memos the export carries no id for.
type IdentityFallback string

const (
	// IdentityNone leaves id-less memos without identity; they are written on
	// every run.
	IdentityNone IdentityFallback = "none"
	// IdentityContentHash derives a stable id from timestamp and body.
	IdentityContentHash IdentityFallback = "content_hash"
)

var memoNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://flomoapp.com/memo"))

// Reconciliation is the partition of one export against the synced id set.
type Reconciliation struct {
	Kept             []Memo
	Dropped          int
	UpdatedSyncedIDs []string
}

// Reconcile drops memos whose id is already synced and keeps the rest.
// Memos without an id are always kept and never recorded. A defined id that
// repeats within memos is kept once, at its first position.
//
// UpdatedSyncedIDs is synced (deduplicated, original order) followed by the
// newly kept ids in extraction order, so it never loses an entry of synced.
func Reconcile(memos []Memo, synced []string) Reconciliation {
	known := make(map[string]bool, len(synced)+len(memos))
	updated := make([]string, 0, len(synced)+len(memos))
	for _, id := range synced {
		if id == "" || known[id] {
			continue
		}
		known[id] = true
		updated = append(updated, id)
	}

	var r Reconciliation
	for _, m := range memos {
		if !m.HasID() {
			r.Kept = append(r.Kept, m)
			continue
		}
		if known[m.ID] {
			r.Dropped++
			continue
		}
		known[m.ID] = true
		updated = append(updated, m.ID)
		r.Kept = append(r.Kept, m)
	}
	r.UpdatedSyncedIDs = updated

	return r
}

// ApplyIdentityFallback returns memos with ids filled in according to policy.
// The input slice is not modified.
func ApplyIdentityFallback(memos []Memo, policy IdentityFallback) []Memo {
	if policy != IdentityContentHash {
		return memos
	}

	out := make([]Memo, len(memos))
	copy(out, memos)
	for i := range out {
		if !out[i].HasID() {
			out[i].ID = ContentHashID(out[i])
		}
	}
	return out
}

// ContentHashID is a deterministic identity for a memo the export gave no id.
func ContentHashID(m Memo) string {
	data := m.Date + " " + m.Time + "\x00" + m.Content
	return "hash-" + uuid.NewSHA1(memoNamespace, []byte(data)).String()
}

// withoutIDs removes drop from ids, preserving order.
func withoutIDs(ids []string, drop map[string]bool) []string {
	if len(drop) == 0 {
		return ids
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !drop[id] {
			out = append(out, id)
		}
	}
	return out
}
