package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/campus-room-booking/internal/model"
)

const sheetName = "Bookings"

var workbookHeader = []any{
	"Booking", "Building", "Room", "Date", "Start", "End", "Status", "Requester", "Purpose", "Requested at",
}

// Workbook renders the approval list as an .xlsx file with one row per
// booking under a bold header row.
func Workbook(details []model.BookingDetail) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	_ = f.SetColWidth(sheetName, "A", "H", 14)
	_ = f.SetColWidth(sheetName, "I", "I", 40)
	_ = f.SetColWidth(sheetName, "J", "J", 20)
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &workbookHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	_ = f.SetCellStyle(sheetName, "A1", "J1", header)

	for i, d := range details {
		row := []any{
			d.ID,
			d.BuildingName,
			d.RoomName,
			d.Slot.Date.String(),
			d.Slot.Start.String(),
			d.Slot.End.String(),
			string(d.Status),
			d.RequesterID,
			d.Purpose,
			d.CreatedAt.UTC().Format("2006-01-02 15:04"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}
