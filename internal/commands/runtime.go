package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/auditlog"
	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/gitops"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/movements"
	"github.com/cleared-dev/tally/internal/store"
	"github.com/cleared-dev/tally/internal/store/backend"
)

// Runtime holds the services one command invocation works with.
type Runtime struct {
	repoRoot  string
	cfg       *config.Config
	log       *logrus.Logger
	store     store.Store
	engine    *ledger.Engine
	accounts  *accounts.Service
	movements *movements.Service
	audit     []auditlog.Entry
	now       func() time.Time
}

// NewRuntime loads tally.yaml (plus environment overrides) from repoRoot and
// opens the configured store. Log output goes to logOut.
func NewRuntime(repoRoot string, logOut io.Writer) (*Runtime, error) {
	cfg, err := config.Load(filepath.Join(repoRoot, config.FileName))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ApplyEnv(filepath.Join(repoRoot, ".env")); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log, err := newLogger(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}

	s, err := backend.Open(cfg.Store.Driver, cfg.Store.DSN, repoRoot)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	log.WithField("driver", cfg.Store.Driver).Debug("store opened")

	engine := ledger.New(s,
		ledger.WithLogger(log),
		ledger.WithSweepConcurrency(cfg.Sweep.Concurrency),
	)

	return &Runtime{
		repoRoot:  repoRoot,
		cfg:       cfg,
		log:       log,
		store:     s,
		engine:    engine,
		accounts:  accounts.NewService(s, log),
		movements: movements.NewService(s, engine, log),
		now:       time.Now,
	}, nil
}

func newLogger(cfg config.LogConfig, out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}

	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(level)
	if cfg.Format == config.FormatJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	return log, nil
}

// record queues an audit entry; Close writes the queue.
func (rt *Runtime) record(op, target string, previous, balance decimal.NullDecimal, details string) {
	rt.audit = append(rt.audit, auditlog.Entry{
		Timestamp: rt.now().UTC(),
		Operation: op,
		Target:    target,
		Previous:  previous,
		Balance:   balance,
		Details:   details,
	})
}

// Close writes queued audit entries and closes the store. A failed audit
// write is logged, not returned: the balance change has already happened.
func (rt *Runtime) Close() error {
	if rt.cfg.Audit.Enabled && len(rt.audit) > 0 {
		rt.writeAudit()
	}
	rt.audit = nil

	if err := rt.store.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return nil
}

func (rt *Runtime) writeAudit() {
	path := rt.cfg.Audit.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(rt.repoRoot, path)
	}
	if err := auditlog.Append(path, rt.audit); err != nil {
		rt.log.WithError(err).Warn("failed to write reconcile log")
		return
	}

	if !rt.cfg.Git.AutoCommit || !gitops.IsRepo(rt.repoRoot) {
		return
	}
	rel, err := filepath.Rel(rt.repoRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rt.log.WithField("path", path).Warn("reconcile log is outside the repo; not committing")
		return
	}
	author := gitops.Author{Name: rt.cfg.Git.AuthorName, Email: rt.cfg.Git.AuthorEmail}
	hash, err := gitops.CommitPaths(context.Background(), rt.repoRoot, rt.commitMessage(), author, rel)
	switch {
	case errors.Is(err, gitops.ErrNothingToCommit):
	case err != nil:
		rt.log.WithError(err).Warn("failed to commit reconcile log")
	default:
		rt.log.WithField("commit", hash).Debug("reconcile log committed")
	}
}

// commitMessage names the distinct operations in the queued entries.
func (rt *Runtime) commitMessage() string {
	var ops []string
	seen := map[string]bool{}
	for _, e := range rt.audit {
		if !seen[e.Operation] {
			seen[e.Operation] = true
			ops = append(ops, e.Operation)
		}
	}
	return fmt.Sprintf("tally: %s (%d entries)", strings.Join(ops, ", "), len(rt.audit))
}
