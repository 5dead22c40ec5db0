// Package app wires the learner side: durable slots, ledger, wallet, issuer
// client, credential service and fusion engine.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"entangledu/internal/credential/client"
	credmetrics "entangledu/internal/credential/metrics"
	credservice "entangledu/internal/credential/service"
	"entangledu/internal/curriculum"
	"entangledu/internal/fusion"
	"entangledu/internal/ledger/models"
	"entangledu/internal/ledger/storage"
	"entangledu/internal/ledger/store"
	"entangledu/internal/ledger/wallet"
	"entangledu/internal/platform/config"
	"entangledu/internal/platform/redis"
	"entangledu/internal/platform/tracer"
	"entangledu/pkg/platform/circuit"
)

// SelectionKey is the slot holding the pending fusion selection between CLI runs.
const SelectionKey = "entangledu-selection"

type App struct {
	Catalog     *curriculum.Catalog
	Storage     storage.Storage
	Ledger      *store.Store
	Wallet      *wallet.Wallet
	Issuer      *client.Client
	Credentials *credservice.Service
	Fusion      *fusion.Engine

	logger  *slog.Logger
	changes chan struct{}
	closers []func() error
}

// Open opens the storage backend named in cfg and wires the learner on top of it.
func Open(ctx context.Context, cfg config.Learner, logger *slog.Logger) (*App, error) {
	st, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a, err := New(ctx, cfg, st, logger)
	if err != nil {
		_ = closeStorage()
		return nil, err
	}
	a.closers = append(a.closers, closeStorage)
	return a, nil
}

func openStorage(ctx context.Context, cfg config.Learner) (storage.Storage, func() error, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		st := storage.NewMemory()
		return st, st.Close, nil
	case config.StorageRedis:
		rc, err := redis.New(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		st := storage.NewRedis(rc.Client)
		return st, func() error {
			return errors.Join(st.Close(), rc.Close())
		}, nil
	case config.StorageSQLite:
		st, err := storage.OpenSQLite(cfg.DataPath, storage.WithPollInterval(cfg.PollInterval))
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}

// New wires the learner over an already open backend. The backend stays
// owned by the caller.
func New(ctx context.Context, cfg config.Learner, st storage.Storage, logger *slog.Logger) (*App, error) {
	a := &App{
		Catalog: curriculum.Default(),
		Storage: st,
		logger:  logger,
		changes: make(chan struct{}, 1),
	}

	ledger, err := store.Open(ctx, st,
		store.WithLogger(logger),
		store.WithOnChange(func([]models.Credential) { a.notify() }),
	)
	if err != nil {
		return nil, err
	}
	a.Ledger = ledger
	a.closers = append(a.closers, ledger.Close)

	a.Wallet = wallet.New(st)
	a.Issuer = client.New(client.Config{BaseURL: cfg.IssuerURL, Timeout: cfg.MintTimeout})
	breaker := circuit.New("issuer_mint",
		circuit.WithFailureThreshold(cfg.BreakerFailures),
		circuit.WithCooldown(cfg.BreakerCooldown),
	)
	a.Credentials = credservice.New(client.NewResilient(a.Issuer, breaker, logger), ledger,
		credservice.WithLogger(logger),
		credservice.WithMetrics(credmetrics.New(nil)),
		credservice.WithTracer(tracer.NewOTel(tracer.ScopeLearner)),
		credservice.WithMintTimeout(cfg.MintTimeout),
		credservice.WithIssuerIdentity(cfg.IssuerIdentity),
	)
	a.Fusion = fusion.New(ledger, a.Catalog,
		fusion.WithLogger(logger),
		fusion.WithSelection(fusion.NewSelection(a.loadSelection(ctx)...)),
	)
	return a, nil
}

func (a *App) notify() {
	select {
	case a.changes <- struct{}{}:
	default:
	}
}

// Changes signals after another view changed the ledger.
func (a *App) Changes() <-chan struct{} {
	return a.changes
}

// PassLesson requests the credential for a catalog lesson using the wallet as recipient.
func (a *App) PassLesson(ctx context.Context, lessonID string) (models.Credential, error) {
	lesson, ok := a.Catalog.Lookup(lessonID)
	if !ok {
		return models.Credential{}, fmt.Errorf("unknown lesson %q", lessonID)
	}
	return a.Credentials.RequestCredential(ctx, credservice.LessonPassed{
		LessonID:    lesson.ID,
		LessonTitle: lesson.Title,
		Recipient:   a.Wallet.Recipient(ctx),
	})
}

func (a *App) loadSelection(ctx context.Context) []string {
	entry, err := a.Storage.Get(ctx, SelectionKey)
	if err != nil {
		return nil
	}
	var ids []string
	if err := json.Unmarshal(entry.Value, &ids); err != nil {
		a.logger.WarnContext(ctx, "fusion selection slot is corrupt; starting empty", "error", err)
		return nil
	}
	return ids
}

// SaveSelection persists the fusion selection for the next run.
func (a *App) SaveSelection(ctx context.Context) error {
	ids := a.Fusion.Selection().Selected()
	if len(ids) == 0 {
		_, err := a.Storage.Delete(ctx, SelectionKey)
		return err
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	_, err = a.Storage.Set(ctx, SelectionKey, data)
	return err
}

// Close releases everything Open acquired, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}
