package sheets

import (
	"context"
	"fmt"
	"regexp"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"labelscan/internal/batch"
	"labelscan/internal/gcp"
	"labelscan/internal/logger"
)

// lastColumn is the final ledger column (9 columns, A to I).
const lastColumn = "I"

var (
	spreadsheetURLPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)
	spreadsheetIDPattern  = regexp.MustCompile(`^[a-zA-Z0-9-_]{20,}$`)
)

// Service handles Google Sheets operations
type Service struct {
	sheetsService *sheets.Service
	spreadsheetID string
	worksheet     string
	log           zerolog.Logger
}

// NewSheetsService creates a new Google Sheets service. sheetRef is either a
// spreadsheet ID or a full spreadsheet URL. An empty worksheet means the
// first sheet of the spreadsheet.
func NewSheetsService(ctx context.Context, creds gcp.Credentials, sheetRef, worksheet string) (*Service, error) {
	const op = "NewSheetsService"

	opt, err := creds.HTTPClientOption(ctx, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewSheetsServiceWithOptions(ctx, sheetRef, worksheet, opt)
}

// NewSheetsServiceWithOptions creates a service with explicit client options (for testing).
func NewSheetsServiceWithOptions(ctx context.Context, sheetRef, worksheet string, opts ...option.ClientOption) (*Service, error) {
	const op = "NewSheetsServiceWithOptions"

	log := logger.WithComponent("sheets")

	spreadsheetID, err := SpreadsheetID(sheetRef)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to extract spreadsheet ID: %w", op, err)
	}

	log.Debug().Str("spreadsheet_id", spreadsheetID).Msg("Resolved spreadsheet ID")

	sheetsService, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return &Service{
		sheetsService: sheetsService,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
		log:           log,
	}, nil
}

// SpreadsheetID extracts the spreadsheet ID from a Google Sheets URL or
// returns ref itself when it already is an ID.
func SpreadsheetID(ref string) (string, error) {
	if matches := spreadsheetURLPattern.FindStringSubmatch(ref); len(matches) == 2 {
		return matches[1], nil
	}
	if spreadsheetIDPattern.MatchString(ref) {
		return ref, nil
	}
	return "", fmt.Errorf("invalid Google Sheets URL or ID: %q", ref)
}

// AppendRows appends the ledger rows in a single RAW append, writing the
// header row first when the worksheet is empty.
func (s *Service) AppendRows(ctx context.Context, rows []batch.Row) error {
	const op = "AppendRows"

	if len(rows) == 0 {
		return nil
	}

	sheetName, err := s.ensureSheetWithHeaders(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	values := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		values = append(values, row.Values())
	}

	_, err = s.sheetsService.Spreadsheets.Values.Append(
		s.spreadsheetID,
		fmt.Sprintf("%s!A:%s", sheetName, lastColumn),
		&sheets.ValueRange{Values: values},
	).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to append values to sheet: %w", op, err)
	}

	s.log.Info().
		Str("sheet", sheetName).
		Int("rows_written", len(values)).
		Msg("Appended ledger rows to Google Sheet")

	return nil
}

// resolveSheet returns the worksheet title and ID, creating the worksheet
// when a configured name does not exist yet.
func (s *Service) resolveSheet(ctx context.Context) (string, int64, error) {
	const op = "resolveSheet"

	spreadsheet, err := s.sheetsService.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return "", 0, fmt.Errorf("%s: failed to get spreadsheet: %w", op, err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties == nil {
			continue
		}
		if s.worksheet == "" || sheet.Properties.Title == s.worksheet {
			return sheet.Properties.Title, sheet.Properties.SheetId, nil
		}
	}

	if s.worksheet == "" {
		return "", 0, fmt.Errorf("%s: spreadsheet %s has no worksheets", op, s.spreadsheetID)
	}

	s.log.Info().Str("sheet", s.worksheet).Msg("Creating new sheet")

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: s.worksheet}}},
		},
	}
	resp, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return "", 0, fmt.Errorf("%s: failed to create sheet: %w", op, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil {
		return s.worksheet, 0, nil
	}
	return s.worksheet, resp.Replies[0].AddSheet.Properties.SheetId, nil
}

// ensureSheetWithHeaders ensures the worksheet exists and has the ledger header row.
func (s *Service) ensureSheetWithHeaders(ctx context.Context) (string, error) {
	const op = "ensureSheetWithHeaders"

	sheetName, sheetID, err := s.resolveSheet(ctx)
	if err != nil {
		return "", err
	}

	headerRange := fmt.Sprintf("%s!A1:%s1", sheetName, lastColumn)
	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("%s: failed to get headers: %w", op, err)
	}

	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return sheetName, nil
	}

	s.log.Info().Str("sheet", sheetName).Msg("Adding headers to sheet")

	header := make([]interface{}, len(batch.Header))
	for i, h := range batch.Header {
		header[i] = h
	}

	_, err = s.sheetsService.Spreadsheets.Values.Update(
		s.spreadsheetID,
		headerRange,
		&sheets.ValueRange{Values: [][]interface{}{header}},
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("%s: failed to add headers: %w", op, err)
	}

	if err := s.formatHeaders(ctx, sheetID); err != nil {
		s.log.Warn().Err(err).Msg("Failed to format headers, continuing anyway")
	}

	return sheetName, nil
}

// formatHeaders makes the header row bold and auto-sizes the columns
func (s *Service) formatHeaders(ctx context.Context, sheetID int64) error {
	const op = "formatHeaders"

	columns := int64(len(batch.Header))
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   columns,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat(textFormat)",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   columns,
				},
			},
		},
	}

	_, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to format headers: %w", op, err)
	}

	return nil
}

// ReadRange reads values from a specified range in the spreadsheet
func (s *Service) ReadRange(ctx context.Context, rangeSpec string) ([][]interface{}, error) {
	const op = "ReadRange"

	s.log.Debug().
		Str("range", rangeSpec).
		Msg("Reading range from spreadsheet")

	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, rangeSpec).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read range %s: %w", op, rangeSpec, err)
	}

	s.log.Debug().
		Int("rows", len(resp.Values)).
		Str("range", rangeSpec).
		Msg("Successfully read range from spreadsheet")

	return resp.Values, nil
}

// LastRows returns the header row and the last n data rows of the ledger.
func (s *Service) LastRows(ctx context.Context, n int) ([]string, [][]string, error) {
	const op = "LastRows"

	sheetName, _, err := s.resolveSheet(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	values, err := s.ReadRange(ctx, fmt.Sprintf("%s!A:%s", sheetName, lastColumn))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(values) == 0 {
		return nil, nil, nil
	}

	header := toStrings(values[0])
	data := values[1:]
	if n > 0 && len(data) > n {
		data = data[len(data)-n:]
	}

	rows := make([][]string, 0, len(data))
	for _, v := range data {
		rows = append(rows, toStrings(v))
	}
	return header, rows, nil
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = fmt.Sprint(v)
	}
	return out
}
