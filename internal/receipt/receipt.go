// Package receipt renders payment receipts as PDF.
package receipt

import (
	"bytes"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"
)

type Data struct {
	PaymentID        int
	TransactionID    string
	BookingID        int
	PayerID          int
	PayeeID          int
	Method           string
	Status           string
	EscrowStatus     string
	Currency         string
	Amount           int64
	DriverAmount     int64
	CommissionAmount int64
	RefundAmount     int64
	PenaltyAmount    int64
	PaidAt           *time.Time
	IssuedAt         time.Time
}

// Render returns the receipt as a single-page A4 PDF.
func Render(d Data) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Payment receipt", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "PAYMENT RECEIPT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	line := func(label, value string) {
		pdf.Cell(0, 7, fmt.Sprintf("%-16s: %s", label, value))
		pdf.Ln(7)
	}
	line("Receipt no", fmt.Sprintf("%d", d.PaymentID))
	line("Transaction", d.TransactionID)
	line("Booking", fmt.Sprintf("%d", d.BookingID))
	line("Method", d.Method)
	line("Status", d.Status)
	line("Escrow", d.EscrowStatus)
	if d.PaidAt != nil {
		line("Paid at", d.PaidAt.Format("2006-01-02 15:04"))
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Amounts")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 12)
	line("Paid", money(d.Amount, d.Currency))
	if d.DriverAmount > 0 {
		line("To driver", money(d.DriverAmount, d.Currency))
		line("Commission", money(d.CommissionAmount, d.Currency))
	}
	if d.RefundAmount > 0 || d.PenaltyAmount > 0 {
		line("Refunded", money(d.RefundAmount, d.Currency))
		line("Penalty", money(d.PenaltyAmount, d.Currency))
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Issued "+d.IssuedAt.Format("2006-01-02 15:04 MST")+
		". Funds are held in escrow until both driver and passenger confirm departure.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt %d: %w", d.PaymentID, err)
	}
	return buf.Bytes(), nil
}

func money(amount int64, currency string) string {
	return fmt.Sprintf("%d %s", amount, currency)
}
