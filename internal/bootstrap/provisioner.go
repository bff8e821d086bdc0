// Package bootstrap provisions the relations the service needs and seeds the
// platform defaults. Everything here is idempotent and safe to run on every
// start.
package bootstrap

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aryan0dhankhar/coachsync/internal/domain"
	"github.com/aryan0dhankhar/coachsync/internal/observability/metrics"
	"github.com/aryan0dhankhar/coachsync/internal/reliability/retry"
	"github.com/aryan0dhankhar/coachsync/internal/repository"
	"github.com/aryan0dhankhar/coachsync/internal/schema"
	"github.com/aryan0dhankhar/coachsync/internal/security/auth"
	"github.com/aryan0dhankhar/coachsync/internal/store"
)

//go:embed seeds.yaml
var seedFile []byte

// Seeds is the platform seed data.
type Seeds struct {
	Plans []struct {
		Name         string   `yaml:"name"`
		PriceMonthly float64  `yaml:"price_monthly"`
		PriceYearly  float64  `yaml:"price_yearly"`
		Popular      bool     `yaml:"popular"`
		Features     []string `yaml:"features"`
	} `yaml:"plans"`
	GlobalTheme struct {
		AppName string `yaml:"app_name"`
	} `yaml:"global_theme"`
	DemoOrganization struct {
		Name            string `yaml:"name"`
		Domain          string `yaml:"domain"`
		Contact         string `yaml:"contact"`
		Plan            string `yaml:"plan"`
		Status          string `yaml:"status"`
		ManagerName     string `yaml:"manager_name"`
		ManagerEmail    string `yaml:"manager_email"`
		ManagerPassword string `yaml:"manager_password"`
	} `yaml:"demo_organization"`
}

// LoadSeeds parses the embedded seed file.
func LoadSeeds() (Seeds, error) {
	var s Seeds
	if err := yaml.Unmarshal(seedFile, &s); err != nil {
		return Seeds{}, fmt.Errorf("failed to parse seeds: %w", err)
	}
	return s, nil
}

// Provisioner creates relations on demand and seeds defaults.
type Provisioner struct {
	client   store.Client
	logger   *slog.Logger
	retry    retry.Config
	seedDemo bool
	now      func() time.Time

	mu      sync.Mutex
	ensured map[string]bool
}

// Option customises a Provisioner.
type Option func(*Provisioner)

// WithRetry sets the attempt budget and backoff for provisioning a table.
func WithRetry(attempts int, initial time.Duration) Option {
	return func(p *Provisioner) {
		p.retry.MaxAttempts = attempts
		p.retry.InitialBackoff = initial
	}
}

// WithDemoOrganization toggles seeding of the demo organization.
func WithDemoOrganization(on bool) Option {
	return func(p *Provisioner) { p.seedDemo = on }
}

// New returns a provisioner over client.
func New(client store.Client, logger *slog.Logger, opts ...Option) *Provisioner {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Provisioner{
		client:   client,
		logger:   logger.With(slog.String("component", "bootstrap")),
		retry:    *retry.DefaultConfig(),
		seedDemo: true,
		now:      time.Now,
		ensured:  map[string]bool{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.retry.ShouldRetry = retryable
	return p
}

// retryable limits retries to outcomes a later attempt can fix.
func retryable(err error) bool {
	switch store.KindOf(err) {
	case store.KindSchemaAbsent, store.KindTransient:
		return true
	case store.KindUnknown, store.KindAlreadyExists, store.KindConstraint, store.KindValidation:
		return false
	default:
		return false
	}
}

// Ensure provisions each table unless this process already did. Every table
// is attempted; the returned error joins the failures.
func (p *Provisioner) Ensure(ctx context.Context, tables ...schema.Table) error {
	var errs []error
	for _, t := range tables {
		if p.isEnsured(t.Name) {
			metrics.ObserveBootstrap(t.Name, "skipped")
			continue
		}
		_, err := retry.Do(ctx, &p.retry, p.logger, "ensure "+t.Name, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, p.ensureOne(ctx, t)
		})
		if err != nil {
			metrics.ObserveBootstrap(t.Name, "failed")
			p.logger.Error("failed to provision table",
				slog.String("relation", t.Name),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("failed to provision %s: %w", t.Name, err))
			continue
		}
		p.markEnsured(t.Name, true)
		metrics.ObserveBootstrap(t.Name, "ok")
	}
	return errors.Join(errs...)
}

// ensureOne sends the whole statement batch first and falls back to one
// statement at a time, where objects that already exist count as success.
// The table must answer a one-row read afterwards.
func (p *Provisioner) ensureOne(ctx context.Context, t schema.Table) error {
	stmts := t.Statements(p.client.Dialect())
	if err := p.client.Exec(ctx, stmts...); err != nil {
		p.logger.Debug("batched provisioning failed, running statements one by one",
			slog.String("relation", t.Name),
			slog.String("error", err.Error()),
		)
		for _, stmt := range stmts {
			err := p.client.Exec(ctx, stmt)
			if err == nil || store.IsKind(err, store.KindAlreadyExists) {
				continue
			}
			p.logger.Warn("provisioning statement failed",
				slog.String("relation", t.Name),
				slog.String("kind", store.KindOf(err).String()),
				slog.String("error", err.Error()),
			)
		}
	}

	if _, err := p.client.Select(ctx, store.Query{Relation: t.Name, Limit: 1}); err != nil {
		return err
	}
	return nil
}

func (p *Provisioner) isEnsured(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ensured[name]
}

func (p *Provisioner) markEnsured(name string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ok {
		p.ensured[name] = true
	} else {
		delete(p.ensured, name)
	}
}

// EnsureAll provisions platform tables, then tenant tables, then seeds.
func (p *Provisioner) EnsureAll(ctx context.Context) error {
	if err := p.Ensure(ctx, schema.Admin()...); err != nil {
		return err
	}
	if err := p.Ensure(ctx, schema.Coaching()...); err != nil {
		return err
	}
	return p.Seed(ctx)
}

// Reset drops and recreates every tenant table, then seeds again. Platform
// tables and their rows are kept.
func (p *Provisioner) Reset(ctx context.Context) error {
	dialect := p.client.Dialect()
	for _, t := range schema.Coaching() {
		if err := p.client.Exec(ctx, t.Drop(dialect)); err != nil {
			return fmt.Errorf("failed to drop %s: %w", t.Name, err)
		}
		p.markEnsured(t.Name, false)
	}
	p.logger.Warn("tenant tables dropped", slog.Int("tables", len(schema.Coaching())))
	return p.EnsureAll(ctx)
}

// Seed inserts plans, the global theme and the demo organization, each only
// when its table is still empty.
func (p *Provisioner) Seed(ctx context.Context) error {
	seeds, err := LoadSeeds()
	if err != nil {
		return err
	}
	repos := repository.New(p.client, nil, p.logger)
	now := p.now().UTC()

	if empty, err := p.empty(ctx, schema.Plans.Name); err != nil {
		return err
	} else if empty {
		plans := make([]domain.SubscriptionPlan, 0, len(seeds.Plans))
		for _, sp := range seeds.Plans {
			plans = append(plans, domain.SubscriptionPlan{
				Name: sp.Name, PriceMonthly: sp.PriceMonthly, PriceYearly: sp.PriceYearly,
				Features: sp.Features, Popular: sp.Popular, CreatedAt: now, UpdatedAt: now,
			})
		}
		if _, err := repos.Plans.Upsert(ctx, "", plans...); err != nil {
			return fmt.Errorf("failed to seed plans: %w", err)
		}
		p.logger.Info("seeded subscription plans", slog.Int("count", len(plans)))
	}

	global := domain.GlobalTheme{ThemeSettings: domain.DefaultTheme(seeds.GlobalTheme.AppName), UpdatedAt: now}
	if empty, err := p.empty(ctx, schema.GlobalTheme.Name); err != nil {
		return err
	} else if empty {
		saved, err := repos.GlobalTheme.Upsert(ctx, "", global)
		if err != nil {
			return fmt.Errorf("failed to seed global theme: %w", err)
		}
		global = saved[0]
		p.logger.Info("seeded global theme")
	} else {
		global = repos.GlobalTheme.Get(ctx)
	}

	if !p.seedDemo {
		return nil
	}
	empty, err := p.empty(ctx, schema.Organizations.Name)
	if err != nil || !empty {
		return err
	}
	demo := seeds.DemoOrganization
	hash, err := auth.HashPassword(demo.ManagerPassword)
	if err != nil {
		return fmt.Errorf("failed to hash demo password: %w", err)
	}
	orgs, err := repos.Organizations.Upsert(ctx, "", domain.Organization{
		Name: demo.Name, Domain: demo.Domain, Contact: demo.Contact, Plan: demo.Plan, Status: demo.Status,
		ManagerName: demo.ManagerName, ManagerEmail: demo.ManagerEmail, ManagerPassword: hash,
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("failed to seed demo organization: %w", err)
	}

	theme := global.ThemeSettings
	theme.ID = ""
	if _, err := repos.Themes.ReplaceAll(ctx, orgs[0].ID, []domain.ThemeSettings{theme}); err != nil {
		return fmt.Errorf("failed to seed demo theme: %w", err)
	}
	p.logger.Info("seeded demo organization", slog.String("tenant_id", orgs[0].ID))
	return nil
}

func (p *Provisioner) empty(ctx context.Context, relation string) (bool, error) {
	rows, err := p.client.Select(ctx, store.Query{Relation: relation, Limit: 1})
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", relation, err)
	}
	return len(rows) == 0, nil
}
