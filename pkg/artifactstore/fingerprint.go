package artifactstore

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/salestracker/shodhan/pkg/kvstore"
)

const fingerprintKey = "searchGptFingerprintId"

// Fingerprint manages the page-local, session-scoped identifier included in
// every sync payload. It is created once per store and never transmitted to
// the LLM (spec.md §3).
type Fingerprint struct {
	kv *kvstore.Store
}

// NewFingerprint wraps an opened kvstore.Store as the fingerprint holder.
func NewFingerprint(kv *kvstore.Store) *Fingerprint {
	return &Fingerprint{kv: kv}
}

// Get returns the stored fingerprint, creating and persisting a new v4 one
// on first use.
func (f *Fingerprint) Get(ctx context.Context) string {
	raw, err := f.kv.Get(ctx, fingerprintKey)
	if err == nil && len(raw) > 0 {
		return string(raw)
	}

	id := uuid.NewString()
	if err := f.kv.Set(ctx, fingerprintKey, []byte(id)); err != nil {
		slog.ErrorContext(ctx, "artifactstore: failed to persist fingerprint", "error", err)
	}

	return id
}
