package reports

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/evn/absen_backend/internal/models"
	"github.com/evn/absen_backend/internal/repositories"
)

const (
	attendanceSheet = "Attendance"
	summarySheet    = "Summary"
)

// WriteXLSX writes a workbook with the raw taps and a per-user summary.
func WriteXLSX(w io.Writer, rows []repositories.AttendanceRow, loc *time.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", attendanceSheet); err != nil {
		return err
	}
	if err := writeTable(f, attendanceSheet, Table(rows, loc)); err != nil {
		return err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	if err := writeTable(f, summarySheet, summaryTable(rows)); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	for _, sheet := range []string{attendanceSheet, summarySheet} {
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func writeTable(f *excelize.File, sheet string, table [][]string) error {
	for i, row := range table {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func summaryTable(rows []repositories.AttendanceRow) [][]string {
	type counts struct {
		name                 string
		in, out, late, early int
	}
	byUser := map[int64]*counts{}
	for _, r := range rows {
		c, ok := byUser[r.UserID]
		if !ok {
			c = &counts{name: r.UserName}
			byUser[r.UserID] = c
		}
		switch r.Type {
		case models.TypeIn:
			c.in++
		case models.TypeOut:
			c.out++
		}
		switch r.StatusFlag {
		case models.FlagLate:
			c.late++
		case models.FlagEarlyLeave:
			c.early++
		}
	}
	ids := make([]int64, 0, len(byUser))
	for id := range byUser {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := [][]string{{"User ID", "Nama", "Masuk", "Keluar", "Terlambat", "Pulang Lebih Awal"}}
	for _, id := range ids {
		c := byUser[id]
		out = append(out, []string{
			fmt.Sprint(id), c.name,
			fmt.Sprint(c.in), fmt.Sprint(c.out), fmt.Sprint(c.late), fmt.Sprint(c.early),
		})
	}
	return out
}
