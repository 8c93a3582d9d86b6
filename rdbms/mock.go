package rdbms

import (
	"database/sql"
	"fmt"

	"github.com/dmaitland/salespipe/logger"
	"golang.org/x/net/context"
)

// NewMockConnectionWithMockTx returns a Connector whose Exec calls are captured onto
// the returned channel as alternating records of SQL text and args, for use in tests.
func NewMockConnectionWithMockTx(log logger.Logger, dbType string) (Connector, chan string) {
	resultChan := make(chan string, 100)
	return &mockConnection{log: log, dbType: dbType, resultChan: resultChan}, resultChan
}

type mockConnection struct {
	log        logger.Logger
	dbType     string
	resultChan chan string
}

func (c *mockConnection) Begin() (Transacter, error) {
	return &mockTx{log: c.log, resultChan: c.resultChan}, nil
}

func (c *mockConnection) Exec(query string, args ...interface{}) (Result, error) {
	return c.ExecContext(context.Background(), query, args...)
}

func (c *mockConnection) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	c.log.Debug("mock connection exec: ", query)
	c.resultChan <- query
	c.resultChan <- fmt.Sprintf("%v", args)
	return mockResult{}, nil
}

func (c *mockConnection) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return nil, fmt.Errorf("mock connection does not support queries")
}

func (c *mockConnection) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, fmt.Errorf("mock connection does not support queries")
}

func (c *mockConnection) Close() {}

func (c *mockConnection) GetType() string {
	return c.dbType
}

type mockTx struct {
	log        logger.Logger
	resultChan chan string
}

func (t *mockTx) Exec(query string, args ...interface{}) (Result, error) {
	return t.ExecContext(context.Background(), query, args...)
}

func (t *mockTx) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	t.log.Debug("mock tx exec: ", query)
	t.resultChan <- query
	t.resultChan <- fmt.Sprintf("%v", args)
	return mockResult{}, nil
}

func (t *mockTx) Commit() error {
	return nil
}

func (t *mockTx) Rollback() error {
	return nil
}

type mockResult struct{}

func (r mockResult) LastInsertId() (int64, error) {
	return 0, nil
}

func (r mockResult) RowsAffected() (int64, error) {
	return 0, nil
}
