package seed

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexedwards/argon2id"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/loyalty"
)

// Summary counts the rows a run touched.
type Summary struct {
	TenantID    string
	Users       int
	Branches    int
	Hours       int
	Categories  int
	Items       int
	Ingredients int
	Pages       int
	Tiers       int
	Rules       int
}

// Seeder writes bundles through database/sql so it can run against a bare
// DATABASE_URL without the application's pool.
type Seeder struct {
	DB  *sql.DB
	Log zerolog.Logger
	// Hash defaults to argon2id with its default parameters.
	Hash func(password string) (string, error)
}

// Apply upserts the bundle in one transaction. Re-running a bundle updates
// descriptive columns and leaves passwords, referral codes and stock levels
// alone.
func (s Seeder) Apply(ctx context.Context, b Bundle) (Summary, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var sum Summary
	if sum.TenantID, err = s.tenant(ctx, tx, b.File.Tenant); err != nil {
		return Summary{}, err
	}
	steps := []func(context.Context, *sql.Tx, string, File, *Summary) error{
		s.users, s.branches, s.menu, s.ingredients, s.pages,
	}
	for _, step := range steps {
		if err := step(ctx, tx, sum.TenantID, b.File, &sum); err != nil {
			return Summary{}, err
		}
	}
	if b.Program != nil {
		if err := s.program(ctx, tx, sum.TenantID, *b.Program, &sum); err != nil {
			return Summary{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return Summary{}, fmt.Errorf("commit seed: %w", err)
	}
	s.Log.Info().
		Str("tenant", b.File.Tenant.Slug).
		Int("users", sum.Users).
		Int("branches", sum.Branches).
		Int("items", sum.Items).
		Int("tiers", sum.Tiers).
		Int("rules", sum.Rules).
		Msg("seed applied")
	return sum, nil
}

func (s Seeder) tenant(ctx context.Context, tx *sql.Tx, t Tenant) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, `
		INSERT INTO tenants (slug, name, currency, currency_exponent, tax_rate_bps, time_zone, points_ttl_days)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			currency = EXCLUDED.currency,
			currency_exponent = EXCLUDED.currency_exponent,
			tax_rate_bps = EXCLUDED.tax_rate_bps,
			time_zone = EXCLUDED.time_zone,
			points_ttl_days = EXCLUDED.points_ttl_days,
			updated_at = now()
		RETURNING id`,
		t.Slug, t.Name, t.Currency, t.CurrencyExponent, *t.TaxRateBps, t.TimeZone, t.PointsTTLDays,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert tenant %s: %w", t.Slug, err)
	}
	return id, nil
}

func (s Seeder) users(ctx context.Context, tx *sql.Tx, tid string, f File, sum *Summary) error {
	hash := s.Hash
	if hash == nil {
		hash = func(pw string) (string, error) { return argon2id.CreateHash(pw, argon2id.DefaultParams) }
	}
	for _, u := range f.Users {
		pw, err := hash(u.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.Email, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO users (tenant_id, name, email, password_hash, roles, referral_code)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (tenant_id, email) DO UPDATE SET
				name = EXCLUDED.name,
				roles = EXCLUDED.roles,
				updated_at = now()`,
			tid, u.Name, u.Email, pw, pq.Array(u.Roles), common.HumanCode("", 8),
		)
		if err != nil {
			return fmt.Errorf("upsert user %s: %w", u.Email, err)
		}
		sum.Users++
	}
	return nil
}

func (s Seeder) branches(ctx context.Context, tx *sql.Tx, tid string, f File, sum *Summary) error {
	for _, b := range f.Branches {
		var bid string
		err := tx.QueryRowContext(ctx, `
			INSERT INTO branches (tenant_id, slug, name, address, city, time_zone, seating_capacity, max_party_size)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (tenant_id, slug) DO UPDATE SET
				name = EXCLUDED.name,
				address = EXCLUDED.address,
				city = EXCLUDED.city,
				time_zone = EXCLUDED.time_zone,
				seating_capacity = EXCLUDED.seating_capacity,
				max_party_size = EXCLUDED.max_party_size,
				updated_at = now()
			RETURNING id`,
			tid, b.Slug, b.Name, b.Address, b.City, b.TimeZone, b.SeatingCapacity, b.MaxPartySize,
		).Scan(&bid)
		if err != nil {
			return fmt.Errorf("upsert branch %s: %w", b.Slug, err)
		}
		sum.Branches++
		for _, h := range b.Hours {
			var opens, closes int
			if !h.Closed {
				// ParseFile already checked both clocks.
				opens, _ = clockMinutes(h.Opens)
				closes, _ = clockMinutes(h.Closes)
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO branch_hours (tenant_id, branch_id, weekday, opens_at, closes_at, closed)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (branch_id, weekday) DO UPDATE SET
					opens_at = EXCLUDED.opens_at,
					closes_at = EXCLUDED.closes_at,
					closed = EXCLUDED.closed`,
				tid, bid, h.Weekday, opens, closes, h.Closed,
			)
			if err != nil {
				return fmt.Errorf("upsert hours %s/%d: %w", b.Slug, h.Weekday, err)
			}
			sum.Hours++
		}
	}
	return nil
}

func (s Seeder) menu(ctx context.Context, tx *sql.Tx, tid string, f File, sum *Summary) error {
	for _, c := range f.Menu {
		var cid string
		err := tx.QueryRowContext(ctx, `
			INSERT INTO menu_categories (tenant_id, slug, name, position)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (tenant_id, slug) DO UPDATE SET
				name = EXCLUDED.name,
				position = EXCLUDED.position,
				updated_at = now()
			RETURNING id`,
			tid, c.Slug, c.Name, c.Position,
		).Scan(&cid)
		if err != nil {
			return fmt.Errorf("upsert category %s: %w", c.Slug, err)
		}
		sum.Categories++
		for pos, it := range c.Items {
			dietary := it.Dietary
			if dietary == nil {
				dietary = []string{}
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO menu_items (tenant_id, category_id, slug, name, description, price, dietary, featured, position)
				VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9)
				ON CONFLICT (tenant_id, slug) DO UPDATE SET
					category_id = EXCLUDED.category_id,
					name = EXCLUDED.name,
					description = EXCLUDED.description,
					price = EXCLUDED.price,
					dietary = EXCLUDED.dietary,
					featured = EXCLUDED.featured,
					position = EXCLUDED.position,
					updated_at = now()`,
				tid, cid, it.Slug, it.Name, it.Description, it.Price, pq.Array(dietary), it.Featured, pos,
			)
			if err != nil {
				return fmt.Errorf("upsert item %s: %w", it.Slug, err)
			}
			sum.Items++
		}
	}
	return nil
}

func (s Seeder) ingredients(ctx context.Context, tx *sql.Tx, tid string, f File, sum *Summary) error {
	for _, in := range f.Ingredients {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ingredients (tenant_id, name, unit, on_hand, low_threshold)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (tenant_id, name) DO UPDATE SET
				unit = EXCLUDED.unit,
				low_threshold = EXCLUDED.low_threshold,
				updated_at = now()`,
			tid, in.Name, in.Unit, in.OnHand, in.LowThreshold,
		)
		if err != nil {
			return fmt.Errorf("upsert ingredient %s: %w", in.Name, err)
		}
		sum.Ingredients++
	}
	return nil
}

func (s Seeder) pages(ctx context.Context, tx *sql.Tx, tid string, f File, sum *Summary) error {
	for pos, p := range f.Pages {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cms_pages (tenant_id, slug, title, body, kind, published, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (tenant_id, slug) DO UPDATE SET
				title = EXCLUDED.title,
				body = EXCLUDED.body,
				kind = EXCLUDED.kind,
				published = EXCLUDED.published,
				position = EXCLUDED.position,
				updated_at = now()`,
			tid, p.Slug, p.Title, p.Body, p.Kind, p.Published, pos,
		)
		if err != nil {
			return fmt.Errorf("upsert page %s: %w", p.Slug, err)
		}
		sum.Pages++
	}
	return nil
}

// program upserts tiers by name. Rules have no natural key, so a rule is
// matched by name and updated in place, or inserted when absent.
func (s Seeder) program(ctx context.Context, tx *sql.Tx, tid string, p loyalty.Program, sum *Summary) error {
	for _, t := range p.Tiers {
		benefits := t.Benefits
		if benefits == nil {
			benefits = []string{}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO loyalty_tiers (tenant_id, name, min_points, multiplier_bps, benefits, position)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (tenant_id, name) DO UPDATE SET
				min_points = EXCLUDED.min_points,
				multiplier_bps = EXCLUDED.multiplier_bps,
				benefits = EXCLUDED.benefits,
				position = EXCLUDED.position`,
			tid, t.Name, t.MinPoints, t.MultiplierBps, pq.Array(benefits), t.Position,
		)
		if err != nil {
			return fmt.Errorf("upsert tier %s: %w", t.Name, err)
		}
		sum.Tiers++
	}
	for _, r := range p.Rules {
		active := true
		if r.Active != nil {
			active = *r.Active
		}
		branchIDs := pq.StringArray(r.BranchIDs)
		if branchIDs == nil {
			branchIDs = pq.StringArray{}
		}
		weekdays := make(pq.Int64Array, 0, len(r.Weekdays))
		for _, d := range r.Weekdays {
			weekdays = append(weekdays, int64(d))
		}
		args := []any{
			tid, r.Name, r.Trigger, active, r.Points, r.PointsPerCurrencyBps, r.MinOrderTotal,
			branchIDs, weekdays, r.FirstOrderOnly, r.ValidFrom, r.ValidTo,
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE loyalty_rules SET
				trigger = $3, active = $4, points = $5, points_per_currency_bps = $6,
				min_order_total = $7, branch_ids = $8::uuid[], weekdays = $9::int[],
				first_order_only = $10, valid_from = $11, valid_to = $12, updated_at = now()
			WHERE tenant_id = $1 AND name = $2`, args...)
		if err != nil {
			return fmt.Errorf("update rule %s: %w", r.Name, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO loyalty_rules (tenant_id, name, trigger, active, points, points_per_currency_bps,
					min_order_total, branch_ids, weekdays, first_order_only, valid_from, valid_to)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8::uuid[], $9::int[], $10, $11, $12)`, args...)
			if err != nil {
				return fmt.Errorf("insert rule %s: %w", r.Name, err)
			}
		}
		sum.Rules++
	}
	return nil
}
