package store

import (
	"context"
	"database/sql"

	"github.com/talentline/apiserver/types"
)

// AnalyticsRepository runs the aggregate queries behind the analytics endpoints.
type AnalyticsRepository struct {
	db *sql.DB
}

func NewAnalyticsRepository(db *sql.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func (r *AnalyticsRepository) Jobs(ctx context.Context) (types.JobAnalytics, error) {
	var out types.JobAnalytics
	const totals = `
		SELECT COUNT(1),
			COUNT(1) FILTER (WHERE status = 'active'),
			COUNT(1) FILTER (WHERE created_at >= date_trunc('month', NOW()))
		FROM jobs`
	if err := r.db.QueryRowContext(ctx, totals).Scan(&out.TotalJobs, &out.ActiveJobs, &out.JobsThisMonth); err != nil {
		return types.JobAnalytics{}, err
	}

	var err error
	out.TopCompanies, err = r.labelCounts(ctx, `
		SELECT company, COUNT(1) FROM jobs GROUP BY company ORDER BY COUNT(1) DESC, company LIMIT 5`)
	if err != nil {
		return types.JobAnalytics{}, err
	}
	out.EmploymentTypes, err = r.labelCounts(ctx, `
		SELECT employment_type, COUNT(1) FROM jobs GROUP BY employment_type ORDER BY COUNT(1) DESC, employment_type`)
	if err != nil {
		return types.JobAnalytics{}, err
	}
	return out, nil
}

func (r *AnalyticsRepository) Applications(ctx context.Context) (types.ApplicationAnalytics, error) {
	var (
		out      types.ApplicationAnalytics
		accepted int
	)
	const totals = `
		SELECT COUNT(1),
			COUNT(1) FILTER (WHERE applied_at >= date_trunc('month', NOW())),
			COUNT(1) FILTER (WHERE status = 'accepted')
		FROM applications`
	if err := r.db.QueryRowContext(ctx, totals).Scan(&out.TotalApplications, &out.ApplicationsThisMonth, &accepted); err != nil {
		return types.ApplicationAnalytics{}, err
	}
	if out.TotalApplications > 0 {
		out.ConversionRate = float64(accepted) * 100 / float64(out.TotalApplications)
	}

	var err error
	out.StatusBreakdown, err = r.labelCounts(ctx, `
		SELECT status, COUNT(1) FROM applications GROUP BY status ORDER BY COUNT(1) DESC, status`)
	if err != nil {
		return types.ApplicationAnalytics{}, err
	}
	return out, nil
}

func (r *AnalyticsRepository) Users(ctx context.Context) (types.UserAnalytics, error) {
	var out types.UserAnalytics
	const totals = `
		SELECT COUNT(1),
			COUNT(1) FILTER (WHERE is_active),
			COUNT(1) FILTER (WHERE created_at >= date_trunc('month', NOW()))
		FROM users`
	if err := r.db.QueryRowContext(ctx, totals).Scan(&out.TotalUsers, &out.ActiveUsers, &out.NewUsersThisMonth); err != nil {
		return types.UserAnalytics{}, err
	}

	var err error
	out.UserTypes, err = r.labelCounts(ctx, `
		SELECT role, COUNT(1) FROM users GROUP BY role ORDER BY COUNT(1) DESC, role`)
	if err != nil {
		return types.UserAnalytics{}, err
	}
	out.AuthProviders, err = r.labelCounts(ctx, `
		SELECT auth_provider, COUNT(1) FROM users GROUP BY auth_provider ORDER BY COUNT(1) DESC, auth_provider`)
	if err != nil {
		return types.UserAnalytics{}, err
	}
	return out, nil
}

func (r *AnalyticsRepository) labelCounts(ctx context.Context, query string) ([]types.LabelCount, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []types.LabelCount{}
	for rows.Next() {
		var lc types.LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, lc)
	}
	return counts, rows.Err()
}
