package spreadsheet

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/zombor/expense-tracker/internal/expense"
)

const (
	spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

	// appendRange targets the first sheet of a spreadsheet
	appendRange = "A1"
)

// Client implements expense.Backend on Google Sheets, using Drive to find spreadsheets
// by name
type Client struct {
	sheets *sheets.Service
	drive  *drive.Service
}

// New creates a Client authenticated with a service account JSON key
func New(ctx context.Context, credentialsJSON []byte) (*Client, error) {
	if len(credentialsJSON) == 0 {
		return nil, fmt.Errorf("google credentials are required")
	}

	opts := []option.ClientOption{
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheets.SpreadsheetsScope, drive.DriveScope),
	}

	sheetsService, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets client: %w", err)
	}
	driveService, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating drive client: %w", err)
	}

	return NewWithServices(sheetsService, driveService), nil
}

// NewWithServices creates a Client from preconfigured services for testing
func NewWithServices(sheetsService *sheets.Service, driveService *drive.Service) *Client {
	return &Client{
		sheets: sheetsService,
		drive:  driveService,
	}
}

// Open returns the first spreadsheet with exactly this name
func (c *Client) Open(ctx context.Context, name string) (expense.Table, error) {
	query := fmt.Sprintf("mimeType = '%s' and trashed = false and name = '%s'", spreadsheetMimeType, escapeQuery(name))
	files, err := c.drive.Files.List().
		Q(query).
		Fields("files(id, name)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("searching spreadsheet %q: %w", name, err)
	}
	if len(files.Files) == 0 {
		return nil, fmt.Errorf("spreadsheet %q: %w", name, expense.ErrTableNotFound)
	}

	f := files.Files[0]
	return c.table(f.Id, f.Name), nil
}

// List returns every spreadsheet visible to the credentials
func (c *Client) List(ctx context.Context) ([]expense.Table, error) {
	query := fmt.Sprintf("mimeType = '%s' and trashed = false", spreadsheetMimeType)

	var tables []expense.Table
	err := c.drive.Files.List().
		Q(query).
		Fields("nextPageToken, files(id, name)").
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				tables = append(tables, c.table(f.Id, f.Name))
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("listing spreadsheets: %w", err)
	}
	return tables, nil
}

// Create creates an empty spreadsheet with one default sheet
func (c *Client) Create(ctx context.Context, name string) (expense.Table, error) {
	created, err := c.sheets.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: name},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("creating spreadsheet %q: %w", name, err)
	}
	return c.table(created.SpreadsheetId, name), nil
}

func (c *Client) table(id, name string) *table {
	return &table{
		values: c.sheets.Spreadsheets.Values,
		id:     id,
		name:   name,
	}
}

// table is one spreadsheet; rows go to its first sheet
type table struct {
	values *sheets.SpreadsheetsValuesService
	id     string
	name   string
}

func (t *table) ID() string {
	return t.id
}

func (t *table) Name() string {
	return t.name
}

// Append writes one row below the last row of the first sheet
func (t *table) Append(ctx context.Context, row []any) error {
	_, err := t.values.Append(t.id, appendRange, &sheets.ValueRange{
		Values: [][]interface{}{row},
	}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("appending to spreadsheet %q: %w", t.name, err)
	}
	return nil
}

// escapeQuery escapes a value for a Drive query string literal
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
