package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/leave-management/internal/accrual"
	"github.com/frahmantamala/leave-management/internal/balance"
	"github.com/frahmantamala/leave-management/internal/carryforward"
	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/user"
)

// Statement is everything printed on an employee's balance statement.
type Statement struct {
	Employee    *user.User
	GeneratedAt time.Time
	Sections    []*BalanceSection
}

type BalanceSection struct {
	Balance        *balance.EmployeeBalance
	TotalAllowance decimal.Decimal
	Accruals       []*accrual.LeaveAccrual
	CarryForwards  []*carryforward.LeaveCarryForward
}

func (s *BalanceSection) LeaveTypeName() string {
	if s.Balance.LeaveType != nil {
		return s.Balance.LeaveType.Name
	}
	return fmt.Sprintf("Leave type #%d", s.Balance.LeaveTypeID)
}

// Render writes the statement as an A4 PDF.
func Render(s *Statement, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Leave balance statement", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Leave Balance Statement")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Employee: %s", s.Employee.FullName()))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Email: %s", s.Employee.Email))
	pdf.Ln(6)
	if s.Employee.DepartmentName != "" {
		pdf.Cell(0, 7, fmt.Sprintf("Department: %s", s.Employee.DepartmentName))
		pdf.Ln(6)
	}
	pdf.Cell(0, 7, fmt.Sprintf("Generated: %s", s.GeneratedAt.Format("2006-01-02 15:04 MST")))
	pdf.Ln(10)

	if len(s.Sections) == 0 {
		pdf.Cell(0, 7, "No leave balances configured.")
		pdf.Ln(7)
	}

	for _, section := range s.Sections {
		b := section.Balance
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, section.LeaveTypeName())
		pdf.Ln(9)

		pdf.SetFont("Helvetica", "", 11)
		pdf.Cell(0, 6, fmt.Sprintf("Current balance: %s days", b.CurrentBalance.StringFixed(2)))
		pdf.Ln(6)
		if b.MaxBalance != nil {
			pdf.Cell(0, 6, fmt.Sprintf("Maximum balance: %s days", b.MaxBalance.StringFixed(2)))
			pdf.Ln(6)
		}
		pdf.Cell(0, 6, fmt.Sprintf("Yearly allowance: %s days", section.TotalAllowance.StringFixed(2)))
		pdf.Ln(8)

		if len(section.Accruals) > 0 {
			header(pdf, []string{"Accrual period", "Date", "Days", "Prorated"})
			for _, a := range section.Accruals {
				prorated := "no"
				if a.IsProrated {
					prorated = "yes"
				}
				row(pdf, []string{a.YearMonth, a.AccrualDate.Format(clock.DateLayout), a.Amount.StringFixed(2), prorated})
			}
			pdf.Ln(4)
		}

		if len(section.CarryForwards) > 0 {
			header(pdf, []string{"Carry-forward", "Original", "Carried", "Forfeited"})
			for _, c := range section.CarryForwards {
				row(pdf, []string{
					fmt.Sprintf("%d -> %d", c.FromYear, c.ToYear),
					c.OriginalBalance.StringFixed(2),
					c.CarriedForwardAmount.StringFixed(2),
					c.ForfeitedAmount.StringFixed(2),
				})
			}
			pdf.Ln(4)
		}
		pdf.Ln(4)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render statement: %w", err)
	}
	return nil
}

const columnWidth = 45

func header(pdf *gofpdf.Fpdf, cols []string) {
	pdf.SetFont("Helvetica", "B", 10)
	for _, c := range cols {
		pdf.CellFormat(columnWidth, 7, c, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 10)
}

func row(pdf *gofpdf.Fpdf, cols []string) {
	for _, c := range cols {
		pdf.CellFormat(columnWidth, 6, c, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}
