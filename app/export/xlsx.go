package export

import (
	"fmt"
	"io"

	"github.com/vibast-solutions/ms-go-reservations/app/entity"
	"github.com/xuri/excelize/v2"
)

const SheetName = "Reservations"

var headers = []string{
	"ID", "Date", "Start", "End", "Room", "Name", "Email", "Phone", "Persons",
	"Kind", "Status", "Total (cents)", "Payment status", "Paid (cents)", "Refunded (cents)", "Created at",
}

type Row struct {
	Reservation *entity.Reservation
	Payment     *entity.Payment
}

// WriteReservations renders rows as a single sheet workbook into w.
func WriteReservations(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	for col, title := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, title); err != nil {
			return err
		}
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err == nil {
		lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(SheetName, "A1", lastHeader, style)
	}

	for i, row := range rows {
		if row.Reservation == nil {
			continue
		}
		if err := f.SetSheetRow(SheetName, fmt.Sprintf("A%d", i+2), rowValues(row)); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(SheetName, "A", "E", 12)
	_ = f.SetColWidth(SheetName, "F", "H", 24)
	_ = f.SetColWidth(SheetName, "I", "P", 16)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func rowValues(row Row) *[]interface{} {
	r := row.Reservation
	var total interface{}
	if r.TotalCents != nil {
		total = *r.TotalCents
	}

	values := []interface{}{
		r.ID, r.Date, r.Start, r.End, r.RoomID, r.Name, r.Email, r.Phone, r.Persons,
		r.Kind, r.Status, total, nil, nil, nil, r.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	}
	if p := row.Payment; p != nil {
		values[12] = p.Status
		if p.Status == entity.PaymentStatusSucceeded || p.Status == entity.PaymentStatusRefunded {
			values[13] = p.AmountCents
		}
		values[14] = p.RefundedCents
	}
	return &values
}
