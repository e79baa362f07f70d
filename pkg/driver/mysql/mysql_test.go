package mysql

import (
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/adyliu/gofabric/pkg/driver"
	"github.com/adyliu/gofabric/pkg/meta"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	value := dsn(driver.Config{
		Host:     "h1",
		Port:     3306,
		User:     "u",
		Password: "p",
		Database: "db",
	})
	assert.True(t, strings.HasPrefix(value, "u:p@tcp(h1:3306)/db?"), "check dsn failed, %s", value)
	assert.Contains(t, value, "autocommit=0", "sessions must not autocommit")
}

func TestDSNParams(t *testing.T) {
	value := dsn(driver.Config{
		Host:     "h1",
		Port:     3306,
		Database: "db",
		Params:   map[string]string{"charset": "utf8"},
	})
	assert.Contains(t, value, "charset=utf8", "check dsn params failed, %s", value)
}

func TestUnreadResultGuard(t *testing.T) {
	c := &conn{}
	cur, err := c.Cursor(false, false)
	assert.Nilf(t, err, "open cursor failed with %+v", err)

	// an unbuffered cursor holding its result set occupies the
	// session's only connection
	cur.(*cursor).rows = new(sql.Rows)

	err = c.Commit()
	assert.NotNil(t, err, "commit with an unread result must fail")
	err = c.Rollback()
	assert.NotNil(t, err, "rollback with an unread result must fail")
	_, err = c.Query("SELECT 1")
	assert.NotNil(t, err, "query with an unread result must fail")

	cur.(*cursor).rows = nil
	assert.Nil(t, c.checkUnread(), "check idle session failed")
}

func TestTranslate(t *testing.T) {
	assert.Nil(t, translate(nil), "nil must stay nil")

	err := translate(&mysql.MySQLError{Number: 2013, Message: "lost"})
	assert.Equal(t, uint16(meta.CodeServerLost), meta.DBErrorCode(err), "check code failed")

	plain := errors.New("boom")
	assert.Equal(t, plain, translate(plain), "unknown errors must pass through")
}
