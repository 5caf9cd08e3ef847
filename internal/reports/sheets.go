package reports

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsPublisher appends daily reports to a Google spreadsheet.
type SheetsPublisher struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	sheet         string
}

func NewSheetsPublisher(ctx context.Context, credentialsFile, spreadsheetID, sheet string, opts ...option.ClientOption) (*SheetsPublisher, error) {
	opts = append([]option.ClientOption{option.WithCredentialsFile(credentialsFile)}, opts...)
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	if sheet == "" {
		sheet = attendanceSheet
	}
	return &SheetsPublisher{values: srv.Spreadsheets.Values, spreadsheetID: spreadsheetID, sheet: sheet}, nil
}

// PublishDaily appends the day's rows under a title line.
func (p *SheetsPublisher) PublishDaily(ctx context.Context, summary *DailySummary, table [][]string) (int, error) {
	values := [][]any{{fmt.Sprintf("Laporan %s", summary.Date), fmt.Sprintf("total %d", summary.Total)}}
	for _, row := range table {
		line := make([]any, len(row))
		for i, v := range row {
			line[i] = v
		}
		values = append(values, line)
	}

	resp, err := p.values.Append(p.spreadsheetID, p.sheet+"!A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("append to sheet: %w", err)
	}
	if resp.Updates == nil {
		return 0, nil
	}
	return int(resp.Updates.UpdatedRows), nil
}
