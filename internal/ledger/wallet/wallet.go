// Package wallet keeps the learner's display identifier in its own durable
// slot. It is an opaque string; nothing here speaks a wallet protocol.
package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"entangledu/internal/ledger/storage"
	dErrors "entangledu/pkg/domain-errors"
)

// DefaultKey is the slot holding the identifier.
const DefaultKey = "entangledu-wallet"

// Anonymous is the recipient used when no wallet is connected.
const Anonymous = "anonymous"

type Wallet struct {
	storage storage.Storage
	key     string
}

func New(st storage.Storage) *Wallet {
	return &Wallet{storage: st, key: DefaultKey}
}

// Identifier returns the connected identifier. A missing, null or unreadable slot reports false.
func (w *Wallet) Identifier(ctx context.Context) (string, bool) {
	entry, err := w.storage.Get(ctx, w.key)
	if err != nil {
		return "", false
	}
	var id *string
	if err := json.Unmarshal(entry.Value, &id); err != nil || id == nil || *id == "" {
		return "", false
	}
	return *id, true
}

// Recipient is Identifier falling back to Anonymous.
func (w *Wallet) Recipient(ctx context.Context) string {
	if id, ok := w.Identifier(ctx); ok {
		return id
	}
	return Anonymous
}

func (w *Wallet) Connect(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return dErrors.New(dErrors.CodeInvalidRequest, "wallet identifier is required")
	}
	data, err := json.Marshal(id)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode wallet")
	}
	if _, err := w.storage.Set(ctx, w.key, data); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist wallet")
	}
	return nil
}

func (w *Wallet) Disconnect(ctx context.Context) error {
	if _, err := w.storage.Delete(ctx, w.key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear wallet")
	}
	return nil
}
