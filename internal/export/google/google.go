// Package google appends ledger rows to a Google Sheets spreadsheet
// using Service Account credentials.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"envelope/internal/core"
	"envelope/internal/export"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Config struct {
	SpreadsheetID      string
	TransactionsSheet  string
	SummariesSheet     string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	transactionsSheet string
	summariesSheet    string
}

// Ensure interface conformance
var (
	_ export.TransactionWriter = (*Client)(nil)
	_ export.SummaryWriter     = (*Client)(nil)
)

func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if cfg.TransactionsSheet == "" {
		cfg.TransactionsSheet = "Transactions"
	}
	if cfg.SummariesSheet == "" {
		cfg.SummariesSheet = "Budget"
	}

	credentialsJSON, err := resolveCredentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:               svc,
		spreadsheetID:     cfg.SpreadsheetID,
		transactionsSheet: cfg.TransactionsSheet,
		summariesSheet:    cfg.SummariesSheet,
	}, nil
}

func resolveCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		credentialsJSON, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return credentialsJSON, nil
	default:
		return nil, errors.New("missing service account credentials")
	}
}

// AppendTransaction appends one row to the transactions sheet and
// returns the updated range as the row reference.
func (c *Client) AppendTransaction(ctx context.Context, t core.Transaction) (string, error) {
	values := &gsheet.ValueRange{
		Values: [][]any{{
			t.ID,
			t.Date.Format("2006-01-02"),
			string(t.Type),
			t.Amount.Units(),
			t.AccountID,
			t.Merchant,
			t.Description,
			t.Notes,
		}},
	}

	resp, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, c.transactionsSheet+"!A:H", values).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("append transaction row: %w", err)
	}

	if resp.Updates != nil {
		return resp.Updates.UpdatedRange, nil
	}
	return "", nil
}

// AppendSummaries appends one row per envelope to the summaries sheet,
// all stamped with the snapshot time.
func (c *Client) AppendSummaries(ctx context.Context, asOf time.Time, summaries []core.CategorySummary) error {
	rows := make([][]any, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []any{
			asOf.Format(time.RFC3339),
			s.Name,
			s.Funded.Units(),
			s.Spent.Units(),
			s.Remaining.Units(),
		})
	}
	if len(rows) == 0 {
		return nil
	}

	_, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, c.summariesSheet+"!A:E", &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append summary rows: %w", err)
	}
	return nil
}
