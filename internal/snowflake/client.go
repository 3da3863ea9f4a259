package snowflake

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	_ "github.com/snowflakedb/gosnowflake" // Snowflake driver

	"github.com/ignite/influencer-analytics/internal/config"
	"github.com/ignite/influencer-analytics/internal/domain"
)

const defaultTable = "ORDERS"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// Client reads tracking events from a Snowflake warehouse.
type Client struct {
	db    *sql.DB
	table string
}

// NewClient opens a Snowflake connection pool for cfg.
func NewClient(cfg config.SnowflakeConfig) (*Client, error) {
	db, err := sql.Open("snowflake", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open snowflake connection: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	c, err := NewClientWithDB(db, cfg.Table)
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// NewClientWithDB wraps an existing pool. table may be schema-qualified.
func NewClientWithDB(db *sql.DB, table string) (*Client, error) {
	if table == "" {
		table = defaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid snowflake table name %q", table)
	}
	return &Client{db: db, table: table}, nil
}

// Close closes the database connection
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Ping tests the database connection
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// TrackingEvents returns orders placed on or after since, oldest first.
// A zero since loads the whole table.
func (c *Client) TrackingEvents(ctx context.Context, since time.Time) ([]domain.TrackingEvent, error) {
	query := `
		SELECT ID, CUSTOMER_ID, ORDER_DATE, REVENUE, ATTRIBUTION_SOURCE,
		       COALESCE(INFLUENCER_ID, ''), COALESCE(CAMPAIGN_ID, ''),
		       COALESCE(COUPON_CODE, ''), COALESCE(POST_ID, ''), COALESCE(IS_NEW_CUSTOMER, FALSE)
		FROM ` + c.table + `
		WHERE ORDER_DATE >= ?
		ORDER BY ORDER_DATE, ID
	`

	rows, err := c.db.QueryContext(ctx, query, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query tracking events: %w", err)
	}
	defer rows.Close()

	var result []domain.TrackingEvent
	for rows.Next() {
		var (
			e      domain.TrackingEvent
			source string
		)
		d := &e.AttributionDetails
		if err := rows.Scan(
			&e.ID, &e.CustomerID, &e.OrderDate, &e.Revenue, &source,
			&d.InfluencerID, &d.CampaignID, &d.CouponCode, &d.PostID, &e.IsNewCustomer,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		e.AttributionSource = domain.AttributionSource(source)
		e.OrderDate = e.OrderDate.UTC()
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tracking events: %w", err)
	}
	return result, nil
}

// CountSince returns the number of orders placed on or after since.
func (c *Client) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+c.table+` WHERE ORDER_DATE >= ?`, since.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tracking events: %w", err)
	}
	return count, nil
}
