package snowflake

import (
	"fmt"
	"strings"

	"github.com/ignite/influencer-analytics/internal/config"
)

// ParseConnectionString extracts components from an ODBC-style connection string.
// Format: scheme=https;ACCOUNT=xxx;HOST=yyy;port=443;USER=zzz;PASSWORD=www;DB=aaa.schema;WAREHOUSE=wh;
func ParseConnectionString(connStr string) config.SnowflakeConfig {
	parts := make(map[string]string)
	for _, kv := range strings.Split(connStr, ";") {
		if idx := strings.IndexByte(kv, '='); idx > 0 {
			parts[strings.ToUpper(strings.TrimSpace(kv[:idx]))] = kv[idx+1:]
		}
	}

	database, schema, _ := strings.Cut(parts["DB"], ".")
	return config.SnowflakeConfig{
		Account:   parts["ACCOUNT"],
		User:      parts["USER"],
		Password:  parts["PASSWORD"],
		Database:  database,
		Schema:    schema,
		Warehouse: parts["WAREHOUSE"],
	}
}

// DSN builds a gosnowflake DSN from cfg. An ODBC-style connection string is
// parsed first; values missing from it fall back to the discrete fields.
func DSN(cfg config.SnowflakeConfig) string {
	if cfg.ConnectionString != "" {
		if !strings.Contains(cfg.ConnectionString, ";") {
			return cfg.ConnectionString
		}
		parsed := ParseConnectionString(cfg.ConnectionString)
		cfg = merge(parsed, cfg)
	}

	dsn := fmt.Sprintf("%s:%s@%s/%s/%s", cfg.User, cfg.Password, cfg.Account, cfg.Database, cfg.Schema)
	if cfg.Warehouse != "" {
		dsn += "?warehouse=" + cfg.Warehouse
	}
	return dsn
}

func merge(primary, fallback config.SnowflakeConfig) config.SnowflakeConfig {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	primary.Account = pick(primary.Account, fallback.Account)
	primary.User = pick(primary.User, fallback.User)
	primary.Password = pick(primary.Password, fallback.Password)
	primary.Database = pick(primary.Database, fallback.Database)
	primary.Schema = pick(primary.Schema, fallback.Schema)
	primary.Warehouse = pick(primary.Warehouse, fallback.Warehouse)
	primary.Table = fallback.Table
	return primary
}
