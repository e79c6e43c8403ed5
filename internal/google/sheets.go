// Package google mirrors a profile's event log into a Google
// spreadsheet, so relatives without access to the app can follow along.
package google

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"cradle/internal/models"
)

// SheetsService pushes event rows to one spreadsheet.
type SheetsService struct {
	svc           *sheets.Service
	spreadsheetID string
}

// NewSheetsService builds a service from a service-account credentials
// file with spreadsheet scope.
func NewSheetsService(ctx context.Context, credentialsPath, spreadsheetID string) (*SheetsService, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	return &SheetsService{svc: svc, spreadsheetID: spreadsheetID}, nil
}

var headerRow = []interface{}{"Time", "Type", "End time", "Amount", "Unit", "Details"}

// SyncEvents replaces the named sheet's content with the given events,
// oldest first, under a header row.
func (s *SheetsService) SyncEvents(ctx context.Context, sheetName string, events []models.Event) error {
	values := [][]interface{}{headerRow}
	for i := range events {
		values = append(values, eventRowValues(&events[i]))
	}

	clearRange := fmt.Sprintf("%s!A:F", sheetName)
	if _, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}

	vr := &sheets.ValueRange{Values: values}
	if _, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, fmt.Sprintf("%s!A1", sheetName), vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update sheet: %w", err)
	}
	return nil
}

func eventRowValues(e *models.Event) []interface{} {
	end := ""
	if e.EndTime != nil {
		end = e.EndTime.Format("2006-01-02 15:04")
	}
	return []interface{}{
		e.Time.Format("2006-01-02 15:04"),
		e.Type.Label(),
		end,
		e.Amount,
		e.Unit,
		e.Details,
	}
}
