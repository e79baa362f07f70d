// Package mysql adapts database/sql with the go-sql-driver to the
// driver capability consumed by routed connections.
package mysql

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/adyliu/gofabric/pkg/driver"
	"github.com/adyliu/gofabric/pkg/meta"
	"github.com/go-sql-driver/mysql"
)

type conn struct {
	db      *sql.DB
	cursors []*cursor
}

// Connect opens one session to the configured server. Implements
// driver.Connector.
func Connect(cfg driver.Config) (driver.Conn, error) {
	db, err := sql.Open("mysql", dsn(cfg))
	if err != nil {
		return nil, translate(err)
	}

	// a single session so transaction state spans calls
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, translate(err)
	}

	return &conn{db: db}, nil
}

func dsn(cfg driver.Config) string {
	var params []string
	params = append(params, "autocommit=0")
	for name, value := range cfg.Params {
		params = append(params, fmt.Sprintf("%s=%s", name, value))
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
		strings.Join(params, "&"))
}

// translate maps go-sql-driver errors to the routing error model
func translate(err error) error {
	if err == nil {
		return nil
	}

	if me, ok := err.(*mysql.MySQLError); ok {
		return meta.NewDBError(me.Number, me.Message)
	}

	return err
}

func (c *conn) Cursor(buffered, raw bool) (driver.Cursor, error) {
	live := c.cursors[:0]
	for _, cur := range c.cursors {
		if cur.rows != nil {
			live = append(live, cur)
		}
	}

	cur := &cursor{db: c.db, buffered: buffered, raw: raw}
	c.cursors = append(live, cur)
	return cur, nil
}

// checkUnread fails instead of deadlocking: the session has one pooled
// connection, and an unbuffered cursor still holding its result set
// occupies it until closed.
func (c *conn) checkUnread() error {
	for _, cur := range c.cursors {
		if cur.rows != nil {
			return fmt.Errorf("unread result found, close open cursors first")
		}
	}

	return nil
}

func (c *conn) Commit() error {
	if err := c.checkUnread(); err != nil {
		return err
	}

	_, err := c.db.Exec("COMMIT")
	return translate(err)
}

func (c *conn) Rollback() error {
	if err := c.checkUnread(); err != nil {
		return err
	}

	_, err := c.db.Exec("ROLLBACK")
	return translate(err)
}

func (c *conn) Query(stmt string) (driver.Result, error) {
	if err := c.checkUnread(); err != nil {
		return driver.Result{}, err
	}

	rst, err := c.db.Exec(stmt)
	if err != nil {
		return driver.Result{}, translate(err)
	}

	return result(rst), nil
}

func (c *conn) QueryMany(stmts []string) ([]driver.Result, error) {
	var results []driver.Result
	for _, stmt := range stmts {
		rst, err := c.Query(stmt)
		if err != nil {
			return results, err
		}

		results = append(results, rst)
	}

	return results, nil
}

func (c *conn) Close() error {
	return c.db.Close()
}

func result(rst sql.Result) driver.Result {
	value := driver.Result{}
	if id, err := rst.LastInsertId(); err == nil {
		value.LastInsertID = id
	}
	if n, err := rst.RowsAffected(); err == nil {
		value.RowsAffected = n
	}

	return value
}

type cursor struct {
	db       *sql.DB
	buffered bool
	raw      bool

	rows   *sql.Rows
	cached [][]interface{}
	pos    int
}

func (c *cursor) Execute(stmt string, args ...interface{}) error {
	if err := c.reset(); err != nil {
		return err
	}

	rows, err := c.db.Query(stmt, args...)
	if err != nil {
		return translate(err)
	}

	if !c.buffered {
		c.rows = rows
		return nil
	}

	defer rows.Close()
	for rows.Next() {
		row, err := scan(rows, c.raw)
		if err != nil {
			return err
		}
		c.cached = append(c.cached, row)
	}

	return translate(rows.Err())
}

func (c *cursor) FetchOne() ([]interface{}, error) {
	if c.buffered {
		if c.pos >= len(c.cached) {
			return nil, nil
		}

		row := c.cached[c.pos]
		c.pos++
		return row, nil
	}

	if c.rows == nil {
		return nil, nil
	}

	if !c.rows.Next() {
		return nil, translate(c.rows.Err())
	}

	return scan(c.rows, c.raw)
}

func (c *cursor) FetchAll() ([][]interface{}, error) {
	var all [][]interface{}
	for {
		row, err := c.FetchOne()
		if err != nil {
			return all, err
		}
		if row == nil {
			return all, nil
		}

		all = append(all, row)
	}
}

func (c *cursor) Close() error {
	return c.reset()
}

func (c *cursor) reset() error {
	c.cached = nil
	c.pos = 0
	if c.rows != nil {
		err := c.rows.Close()
		c.rows = nil
		return translate(err)
	}

	return nil
}

// scan reads one row; raw keeps column values as byte slices,
// otherwise text results are converted to strings.
func scan(rows *sql.Rows, raw bool) ([]interface{}, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, translate(err)
	}

	holders := make([]interface{}, len(cols))
	for i := range holders {
		holders[i] = new(sql.RawBytes)
	}

	if err := rows.Scan(holders...); err != nil {
		return nil, translate(err)
	}

	row := make([]interface{}, len(cols))
	for i := range holders {
		data := *(holders[i].(*sql.RawBytes))
		if data == nil {
			row[i] = nil
			continue
		}

		if raw {
			value := make([]byte, len(data))
			copy(value, data)
			row[i] = value
		} else {
			row[i] = string(data)
		}
	}

	return row, nil
}
