// Package bigquery streams order events into the analytics dataset.
package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/angelmondragon/chatstore-backend/pkg/config"
	"github.com/angelmondragon/chatstore-backend/pkg/logger"
)

const metadataCheckTimeout = 10 * time.Second

var (
	errProjectIDRequired    = errors.New("gcp project id is required")
	errDatasetRequired      = errors.New("bigquery dataset is required")
	errTableNameRequired    = errors.New("bigquery table name is required")
	errClientNotInitialized = errors.New("bigquery client not initialized")
)

// Client owns the BigQuery connection and the order events table handle.
type Client struct {
	client      *bigquery.Client
	orderEvents *bigquery.Table
}

// NewClient dials BigQuery and fails fast when the dataset or the order
// events table is missing; tables are provisioned by infra, never here.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.BigQueryConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	datasetID := strings.TrimSpace(cfg.Dataset)
	if datasetID == "" {
		return nil, errDatasetRequired
	}
	tableID := strings.TrimSpace(cfg.OrderEventsTable)
	if tableID == "" {
		return nil, errTableNameRequired
	}

	bq, err := bigquery.NewClient(ctx, projectID, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating bigquery client: %w", err)
	}

	c := &Client{client: bq, orderEvents: bq.Dataset(datasetID).Table(tableID)}
	if err := c.Ping(ctx); err != nil {
		_ = bq.Close()
		return nil, err
	}

	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{"dataset": datasetID, "table": tableID})
		logg.Info(ctx, "bigquery.ready")
	}
	return c, nil
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(gcp.CredentialsJSON))}
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		return []option.ClientOption{option.WithCredentialsFile(gcp.ApplicationCredentials)}
	}
	return nil
}

// Ping checks the order events table metadata is readable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.orderEvents == nil {
		return errClientNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, metadataCheckTimeout)
	defer cancel()

	if _, err := c.orderEvents.Metadata(ctx); err != nil {
		name := c.orderEvents.DatasetID + "." + c.orderEvents.TableID
		if isNotFound(err) {
			return fmt.Errorf("table %q does not exist", name)
		}
		return fmt.Errorf("checking table %q: %w", name, err)
	}
	return nil
}

// OrderEventsWriter returns the streaming writer for the order events table.
func (c *Client) OrderEventsWriter() *TableWriter {
	if c == nil {
		return nil
	}
	return &TableWriter{table: c.orderEvents}
}

// TableWriter streams rows into one table. Rows implementing
// bigquery.ValueSaver supply their own insert id for best-effort dedupe.
type TableWriter struct {
	table *bigquery.Table
}

// Insert streams a single row.
func (w *TableWriter) Insert(ctx context.Context, row any) error {
	if w == nil || w.table == nil {
		return errClientNotInitialized
	}
	err := w.table.Inserter().Put(ctx, row)
	var multi bigquery.PutMultiError
	if errors.As(err, &multi) && len(multi) > 0 {
		return fmt.Errorf("row %d rejected: %w", multi[0].RowIndex, multi[0].Errors)
	}
	return err
}

// Close releases the BigQuery client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
