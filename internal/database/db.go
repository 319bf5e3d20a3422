package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/xo/dburl"
)

// Open はDATABASE_URLからデータベース接続を開く。
// URLのスキームからドライバを決定する（postgres:// → lib/pq）。
// sql.Openは接続を試行しないため、実際の接続確認にはdb.Ping()を使用すること。
func Open(databaseURL string) (*sql.DB, error) {
	db, err := dburl.Open(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return db, nil
}

// RedactURL はログ出力用にデータベースURLのパスワードをマスクする。
// 解析できないURLは全体をマスクする。
func RedactURL(databaseURL string) string {
	u, err := dburl.Parse(databaseURL)
	if err != nil {
		return "***"
	}
	return u.URL.Redacted()
}
