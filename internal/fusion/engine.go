// Package fusion derives new credentials from pairs of lesson credentials.
package fusion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"entangledu/internal/curriculum"
	"entangledu/internal/ledger/models"
	dErrors "entangledu/pkg/domain-errors"
)

// Ledger is the credential set fusion reads parents from and writes into.
type Ledger interface {
	Get(id string) (models.Credential, bool)
	Snapshot() []models.Credential
	Insert(ctx context.Context, c models.Credential) error
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithSelection replaces the engine's selection, e.g. one restored from disk.
func WithSelection(sel *Selection) Option {
	return func(e *Engine) {
		if sel != nil {
			e.selection = sel
		}
	}
}

type Engine struct {
	ledger    Ledger
	catalog   *curriculum.Catalog
	selection *Selection
	logger    *slog.Logger
	now       func() time.Time
	newID     func() (string, error)
}

func New(ledger Ledger, catalog *curriculum.Catalog, opts ...Option) *Engine {
	e := &Engine{
		ledger:    ledger,
		catalog:   catalog,
		selection: NewSelection(),
		logger:    slog.Default(),
		now:       time.Now,
		newID:     newFusionID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// newFusionID returns a time-ordered id that can never collide with a lesson id.
func newFusionID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return curriculum.FusionIDPrefix + id.String(), nil
}

func (e *Engine) Selection() *Selection {
	return e.selection
}

// Eligible reports whether c may be a fusion parent: a non-fusion credential for a catalog lesson.
func (e *Engine) Eligible(c models.Credential) bool {
	if c.Kind == models.KindFusion {
		return false
	}
	_, ok := e.catalog.Lookup(c.ID)
	return ok
}

// Candidates lists eligible ledger credentials in ledger order.
func (e *Engine) Candidates() []models.Credential {
	var out []models.Credential
	for _, c := range e.ledger.Snapshot() {
		if e.Eligible(c) {
			out = append(out, c)
		}
	}
	return out
}

// Fuse records a FUSION credential derived from a and b, in that order.
// Parents stay in the ledger. The selection is reset on success.
func (e *Engine) Fuse(ctx context.Context, a, b string) (models.Credential, error) {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return models.Credential{}, dErrors.New(dErrors.CodeInvalidSelection, "fusion needs two credentials")
	}
	if a == b {
		return models.Credential{}, dErrors.New(dErrors.CodeInvalidSelection, "cannot fuse a credential with itself")
	}

	tagA, err := e.parentTag(a)
	if err != nil {
		return models.Credential{}, err
	}
	tagB, err := e.parentTag(b)
	if err != nil {
		return models.Credential{}, err
	}

	id, err := e.newID()
	if err != nil {
		return models.Credential{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate fusion id")
	}
	cred := models.Credential{
		ID:        id,
		Title:     fmt.Sprintf("Synthesis: %s + %s", tagA, tagB),
		Kind:      models.KindFusion,
		Timestamp: models.Truncate(e.now()),
		SourceIDs: []string{a, b},
	}
	if err := e.ledger.Insert(ctx, cred); err != nil {
		return models.Credential{}, err
	}
	e.selection.Reset()

	e.logger.InfoContext(ctx, "credentials fused",
		"fusion_id", cred.ID,
		"source_ids", cred.SourceIDs,
	)
	return cred, nil
}

// FuseSelected fuses the current selection in the order it was chosen.
func (e *Engine) FuseSelected(ctx context.Context) (models.Credential, error) {
	ids := e.selection.Selected()
	if len(ids) != MaxSelected {
		return models.Credential{}, dErrors.New(dErrors.CodeInvalidSelection,
			fmt.Sprintf("select exactly %d credentials, have %d", MaxSelected, len(ids)))
	}
	return e.Fuse(ctx, ids[0], ids[1])
}

func (e *Engine) parentTag(id string) (string, error) {
	c, ok := e.ledger.Get(id)
	if !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidSelection, "credential %s is not in the ledger", id)
	}
	if c.Kind == models.KindFusion {
		return "", dErrors.Newf(dErrors.CodeInvalidSelection, "credential %s is already a fusion", id)
	}
	lesson, ok := e.catalog.Lookup(id)
	if !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidSelection, "credential %s is not a catalog lesson", id)
	}
	return lesson.TypeTag, nil
}
