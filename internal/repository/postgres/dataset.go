package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ignite/influencer-analytics/internal/domain"
)

// DatasetRepo loads and stores the analytics source records.
type DatasetRepo struct{ db *sql.DB }

// NewDatasetRepo creates a Postgres-backed dataset repository.
func NewDatasetRepo(db *sql.DB) *DatasetRepo { return &DatasetRepo{db: db} }

// Load reads every source table into a dataset.
func (r *DatasetRepo) Load(ctx context.Context) (*domain.Dataset, error) {
	ds := &domain.Dataset{}
	var err error
	if ds.Influencers, err = r.influencers(ctx); err != nil {
		return nil, err
	}
	if ds.Campaigns, err = r.campaigns(ctx); err != nil {
		return nil, err
	}
	if ds.Posts, err = r.posts(ctx); err != nil {
		return nil, err
	}
	if ds.TrackingEvents, err = r.trackingEvents(ctx); err != nil {
		return nil, err
	}
	if ds.Payouts, err = r.payouts(ctx); err != nil {
		return nil, err
	}
	return ds, nil
}

func (r *DatasetRepo) influencers(ctx context.Context) ([]domain.Influencer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, handle, platform, category, follower_count, gender,
		       demographics, engagement_rate, COALESCE(feed_url,'')
		FROM analytics_influencers
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list influencers: %w", err)
	}
	defer rows.Close()

	var out []domain.Influencer
	for rows.Next() {
		var (
			inf  domain.Influencer
			demo []byte
		)
		if err := rows.Scan(
			&inf.ID, &inf.Name, &inf.Handle, &inf.Platform, &inf.Category,
			&inf.FollowerCount, &inf.Gender, &demo, &inf.EngagementRate, &inf.FeedURL,
		); err != nil {
			return nil, fmt.Errorf("scan influencer: %w", err)
		}
		if len(demo) > 0 {
			if err := json.Unmarshal(demo, &inf.AudienceDemographics); err != nil {
				return nil, fmt.Errorf("decode demographics for %s: %w", inf.ID, err)
			}
		}
		out = append(out, inf)
	}
	return out, rows.Err()
}

func (r *DatasetRepo) campaigns(ctx context.Context) ([]domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, brand, budget, start_date, end_date, status
		FROM analytics_campaigns
		ORDER BY start_date, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		var c domain.Campaign
		if err := rows.Scan(&c.ID, &c.Name, &c.Brand, &c.Budget, &c.StartDate, &c.EndDate, &c.Status); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *DatasetRepo) posts(ctx context.Context) ([]domain.Post, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, influencer_id, COALESCE(campaign_id,''), platform, post_type, publish_date,
		       caption, reach, impressions, likes, comments, shares, saves, video_views
		FROM analytics_posts
		ORDER BY publish_date, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var out []domain.Post
	for rows.Next() {
		var (
			p            domain.Post
			saves, views sql.NullInt64
		)
		if err := rows.Scan(
			&p.ID, &p.InfluencerID, &p.CampaignID, &p.Platform, &p.PostType, &p.PublishDate,
			&p.Caption, &p.Reach, &p.Impressions, &p.Likes, &p.Comments, &p.Shares, &saves, &views,
		); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		if saves.Valid {
			p.Saves = &saves.Int64
		}
		if views.Valid {
			p.VideoViews = &views.Int64
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *DatasetRepo) trackingEvents(ctx context.Context) ([]domain.TrackingEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, customer_id, order_date, revenue, attribution_source,
		       COALESCE(influencer_id,''), COALESCE(campaign_id,''),
		       COALESCE(coupon_code,''), COALESCE(post_id,''), is_new_customer
		FROM analytics_tracking_events
		ORDER BY order_date, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list tracking events: %w", err)
	}
	defer rows.Close()

	var out []domain.TrackingEvent
	for rows.Next() {
		var e domain.TrackingEvent
		d := &e.AttributionDetails
		if err := rows.Scan(
			&e.ID, &e.CustomerID, &e.OrderDate, &e.Revenue, &e.AttributionSource,
			&d.InfluencerID, &d.CampaignID, &d.CouponCode, &d.PostID, &e.IsNewCustomer,
		); err != nil {
			return nil, fmt.Errorf("scan tracking event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *DatasetRepo) payouts(ctx context.Context) ([]domain.Payout, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, influencer_id, campaign_id, payout_basis, rate, fixed_fee,
		       commission_earned, total_payout, status
		FROM analytics_payouts
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list payouts: %w", err)
	}
	defer rows.Close()

	var out []domain.Payout
	for rows.Next() {
		var p domain.Payout
		if err := rows.Scan(
			&p.ID, &p.InfluencerID, &p.CampaignID, &p.Basis, &p.Rate, &p.FixedFee,
			&p.CommissionEarned, &p.TotalPayout, &p.Status,
		); err != nil {
			return nil, fmt.Errorf("scan payout: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Import upserts every record of ds in one transaction.
func (r *DatasetRepo) Import(ctx context.Context, ds *domain.Dataset) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	for _, inf := range ds.Influencers {
		demo, err := json.Marshal(inf.AudienceDemographics)
		if err != nil {
			return fmt.Errorf("encode demographics for %s: %w", inf.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO analytics_influencers
				(id, name, handle, platform, category, follower_count, gender, demographics, engagement_rate, feed_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10,''))
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, handle = EXCLUDED.handle, platform = EXCLUDED.platform,
				category = EXCLUDED.category, follower_count = EXCLUDED.follower_count,
				gender = EXCLUDED.gender, demographics = EXCLUDED.demographics,
				engagement_rate = EXCLUDED.engagement_rate, feed_url = EXCLUDED.feed_url
		`, inf.ID, inf.Name, inf.Handle, inf.Platform, inf.Category, inf.FollowerCount,
			inf.Gender, demo, inf.EngagementRate, inf.FeedURL); err != nil {
			return fmt.Errorf("upsert influencer %s: %w", inf.ID, err)
		}
	}

	for _, c := range ds.Campaigns {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO analytics_campaigns (id, name, brand, budget, start_date, end_date, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, brand = EXCLUDED.brand, budget = EXCLUDED.budget,
				start_date = EXCLUDED.start_date, end_date = EXCLUDED.end_date, status = EXCLUDED.status
		`, c.ID, c.Name, c.Brand, c.Budget, c.StartDate, c.EndDate, c.Status); err != nil {
			return fmt.Errorf("upsert campaign %s: %w", c.ID, err)
		}
	}

	for _, p := range ds.Posts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO analytics_posts
				(id, influencer_id, campaign_id, platform, post_type, publish_date, caption,
				 reach, impressions, likes, comments, shares, saves, video_views)
			VALUES ($1, $2, NULLIF($3,''), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (id) DO UPDATE SET
				campaign_id = EXCLUDED.campaign_id, caption = EXCLUDED.caption,
				reach = EXCLUDED.reach, impressions = EXCLUDED.impressions, likes = EXCLUDED.likes,
				comments = EXCLUDED.comments, shares = EXCLUDED.shares,
				saves = EXCLUDED.saves, video_views = EXCLUDED.video_views
		`, p.ID, p.InfluencerID, p.CampaignID, p.Platform, p.PostType, p.PublishDate, p.Caption,
			p.Reach, p.Impressions, p.Likes, p.Comments, p.Shares, nullInt(p.Saves), nullInt(p.VideoViews)); err != nil {
			return fmt.Errorf("upsert post %s: %w", p.ID, err)
		}
	}

	for _, e := range ds.TrackingEvents {
		d := e.AttributionDetails
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO analytics_tracking_events
				(id, customer_id, order_date, revenue, attribution_source,
				 influencer_id, campaign_id, coupon_code, post_id, is_new_customer)
			VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), NULLIF($7,''), NULLIF($8,''), NULLIF($9,''), $10)
			ON CONFLICT (id) DO NOTHING
		`, e.ID, e.CustomerID, e.OrderDate, e.Revenue, e.AttributionSource,
			d.InfluencerID, d.CampaignID, d.CouponCode, d.PostID, e.IsNewCustomer); err != nil {
			return fmt.Errorf("insert tracking event %s: %w", e.ID, err)
		}
	}

	for _, p := range ds.Payouts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO analytics_payouts
				(id, influencer_id, campaign_id, payout_basis, rate, fixed_fee, commission_earned, total_payout, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				payout_basis = EXCLUDED.payout_basis, rate = EXCLUDED.rate, fixed_fee = EXCLUDED.fixed_fee,
				commission_earned = EXCLUDED.commission_earned, total_payout = EXCLUDED.total_payout,
				status = EXCLUDED.status
		`, p.ID, p.InfluencerID, p.CampaignID, p.Basis, p.Rate, p.FixedFee,
			p.CommissionEarned, p.TotalPayout, p.Status); err != nil {
			return fmt.Errorf("upsert payout %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
