package migrate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"CardKeeper/internal/cli/model"
	"CardKeeper/internal/cli/repo"
	"CardKeeper/internal/common"

	"go.uber.org/zap"
)

// Result — итог одного прогона миграции.
type Result struct {
	MigratedCount    int
	CleanedLocations []string
	Errors           []error
	Warnings         []string
	// AlreadyAttempted is set on every call after the first one.
	AlreadyAttempted bool
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r Result) clone() Result {
	r.CleanedLocations = append([]string(nil), r.CleanedLocations...)
	r.Errors = append([]error(nil), r.Errors...)
	r.Warnings = append([]string(nil), r.Warnings...)
	return r
}

// Migrator переносит данные старого хранилища в партиции. Выполняется не более
// одного раза на экземпляр.
type Migrator struct {
	src    LegacySource
	dst    repo.PartitionRepository
	policy DedupPolicy
	log    *zap.SugaredLogger

	mu     sync.Mutex
	done   bool
	result Result
}

// NewMigrator creates a migrator. An empty policy means KeepLast.
func NewMigrator(src LegacySource, dst repo.PartitionRepository, policy DedupPolicy, log *zap.SugaredLogger) *Migrator {
	if policy == "" {
		policy = KeepLast
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Migrator{src: src, dst: dst, policy: policy, log: log}
}

// Attempted reports whether Run has already been called.
func (m *Migrator) Attempted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// Run выполняет миграцию. Ошибки не возвращаются и не паникуют наружу:
// всё собирается в Result. Повторный вызов возвращает первый результат
// с AlreadyAttempted = true.
func (m *Migrator) Run(ctx context.Context) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done {
		r := m.result.clone()
		r.AlreadyAttempted = true
		return r
	}
	m.done = true
	m.result = m.run(ctx)
	m.log.Infow("legacy migration finished",
		"migrated", m.result.MigratedCount,
		"cleaned", len(m.result.CleanedLocations),
		"errors", len(m.result.Errors),
		"warnings", len(m.result.Warnings),
	)
	return m.result.clone()
}

func (m *Migrator) run(ctx context.Context) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			m.log.Errorw("legacy migration panicked", "panic", p)
			res.Errors = append(res.Errors, fmt.Errorf("migration aborted: %v", p))
		}
	}()

	locs, err := discover(m.src)
	if err != nil {
		res.Errors = append(res.Errors, err)
		return res
	}
	if len(locs) == 0 {
		return res
	}

	var cardLocs, otherLocs []location
	for _, l := range locs {
		if l.isCards() {
			cardLocs = append(cardLocs, l)
		} else {
			otherLocs = append(otherLocs, l)
		}
	}

	m.migrateCards(ctx, cardLocs, &res)
	for _, l := range otherLocs {
		if err := ctx.Err(); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("%s: %w", l.key, err))
			continue
		}
		n, err := m.migrateBlob(ctx, l)
		res.MigratedCount += n
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("%s: %w", l.key, err))
			m.log.Warnw("legacy location not migrated", "location", l.key, "error", err)
			continue
		}
		m.clean(l.key, &res)
	}
	return res
}

func (m *Migrator) clean(key string, res *Result) {
	if err := m.src.Remove(key); err != nil {
		res.Errors = append(res.Errors, fmt.Errorf("remove %s: %w", key, err))
		return
	}
	res.CleanedLocations = append(res.CleanedLocations, key)
}

func (m *Migrator) migrateCards(ctx context.Context, locs []location, res *Result) {
	var batches []CardBatch
	for _, l := range locs {
		raw, err := m.src.Read(l.key)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("read %s: %w", l.key, err))
			continue
		}
		batch, rejects, skipped, err := parseCardList(l, raw)
		if err != nil {
			res.Errors = append(res.Errors, err)
			m.log.Warnw("corrupt legacy card list left in place", "location", l.key, "error", err)
			continue
		}
		res.Errors = append(res.Errors, rejects...)
		if len(rejects) > 0 {
			res.warnf("%s: %d invalid entries skipped", l.key, len(rejects))
		}
		if skipped > 0 {
			res.warnf("%s: %d duplicate entries skipped", l.key, skipped)
		}
		batches = append(batches, batch)
	}

	merged, dups := ConsolidateCards(batches, m.policy)
	for _, d := range dups {
		res.warnf("card %s: copy from %s replaced by %s", d.ID, d.Dropped, d.KeptFrom)
	}

	written := make(map[string]bool, len(merged))
	for _, c := range merged {
		opts := model.SetOptions{CreatorID: c.CreatorID}
		if _, err := m.dst.Set(ctx, model.PartitionCards, c.ID, c.Raw, opts); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("card %s from %s: %w", c.ID, c.Location, err))
			continue
		}
		written[c.ID] = true
		res.MigratedCount++
	}

	// список удаляется, только если каждый его id теперь есть в партиции cards
	for _, b := range batches {
		complete := true
		for _, c := range b.Cards {
			if !written[c.ID] {
				complete = false
				break
			}
		}
		if !complete {
			m.log.Warnw("legacy card list kept: some cards were not written", "location", b.Location)
			continue
		}
		m.clean(b.Location, res)
	}
}

// migrateBlob переносит не-карточные ключи и возвращает число записанных записей.
func (m *Migrator) migrateBlob(ctx context.Context, l location) (int, error) {
	raw, err := m.src.Read(l.key)
	if err != nil {
		return 0, fmt.Errorf("read: %w", err)
	}
	raw = bytes.TrimSpace(raw)

	switch l.kind {
	case kindWizard:
		if !json.Valid(raw) {
			return 0, fmt.Errorf("%w: wizard state is not JSON", common.ErrMalformed)
		}
		opts := model.SetOptions{SessionType: WizardSessionType}
		if _, err := m.dst.Set(ctx, model.PartitionSessions, WizardSessionKey, json.RawMessage(raw), opts); err != nil {
			return 0, err
		}
		return 1, nil

	case kindProfiles:
		return m.migrateProfiles(ctx, raw)

	case kindPreference:
		var payload any = json.RawMessage(raw)
		if !json.Valid(raw) {
			// старые версии писали строки без кавычек
			payload = string(raw)
		}
		if _, err := m.dst.Set(ctx, model.PartitionAppState, l.key, payload, model.SetOptions{}); err != nil {
			return 0, err
		}
		return 1, nil
	}
	return 0, fmt.Errorf("unsupported legacy location")
}

func (m *Migrator) migrateProfiles(ctx context.Context, raw []byte) (int, error) {
	if !json.Valid(raw) {
		return 0, fmt.Errorf("%w: profiles is not JSON", common.ErrMalformed)
	}
	var byUser map[string]json.RawMessage
	perUser := json.Unmarshal(raw, &byUser) == nil && len(byUser) > 0
	for _, v := range byUser {
		if !bytes.HasPrefix(bytes.TrimSpace(v), []byte("{")) {
			perUser = false
			break
		}
	}
	if !perUser {
		if _, err := m.dst.Set(ctx, model.PartitionAppState, KeyProfiles, json.RawMessage(raw), model.SetOptions{}); err != nil {
			return 0, err
		}
		return 1, nil
	}

	n := 0
	var errs []error
	for userID, prefs := range byUser {
		if _, err := m.dst.Set(ctx, model.PartitionPreferences, userID, prefs, model.SetOptions{}); err != nil {
			errs = append(errs, fmt.Errorf("profile %s: %w", userID, err))
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}
