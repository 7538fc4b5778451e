package sheets

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// Service writes rows into the tabs of a single spreadsheet.
type Service struct {
	srv           *gsheets.Service
	spreadsheetID string
}

func NewServiceFromFile(ctx context.Context, credentialsFile, spreadsheetID string) (*Service, error) {
	raw, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read sheets credentials: %w", err)
	}
	return NewService(ctx, raw, spreadsheetID)
}

func NewService(ctx context.Context, credentialsJSON []byte, spreadsheetID string) (*Service, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("sheets: spreadsheet id is required")
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, gsheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account credentials: %w", err)
	}

	srv, err := gsheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets client: %w", err)
	}
	return &Service{srv: srv, spreadsheetID: spreadsheetID}, nil
}

// WriteTab replaces the contents of tab with rows, creating the tab first
// when the spreadsheet does not have one with that title.
func (s *Service) WriteTab(ctx context.Context, tab string, rows [][]interface{}) error {
	if err := s.ensureTab(ctx, tab); err != nil {
		return err
	}

	rng := fmt.Sprintf("'%s'", tab)
	if _, err := s.srv.Spreadsheets.Values.Clear(s.spreadsheetID, rng, &gsheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear tab %s: %w", tab, err)
	}

	_, err := s.srv.Spreadsheets.Values.Update(s.spreadsheetID, rng+"!A1", &gsheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write tab %s: %w", tab, err)
	}
	return nil
}

func (s *Service) ensureTab(ctx context.Context, tab string) error {
	sheet, err := s.srv.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to read spreadsheet: %w", err)
	}
	for _, sh := range sheet.Sheets {
		if sh.Properties != nil && sh.Properties.Title == tab {
			return nil
		}
	}

	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{Properties: &gsheets.SheetProperties{Title: tab}},
		}},
	}
	if _, err := s.srv.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add tab %s: %w", tab, err)
	}
	return nil
}
