package models

type DashboardStats struct {
	Students        int     `json:"students" db:"students"`
	Staff           int     `json:"staff" db:"staff"`
	Classes         int     `json:"classes" db:"classes"`
	FeeCollection   float64 `json:"fee_collection_this_month" db:"fee_collection"`
	Expenses        float64 `json:"expenses_this_month" db:"expenses"`
	Income          float64 `json:"income_this_month" db:"income"`
	PendingPayroll  float64 `json:"pending_payroll" db:"pending_payroll"`
	PendingIndents  int     `json:"pending_indents" db:"pending_indents"`
	OutstandingDues float64 `json:"outstanding_dues" db:"outstanding_dues"`
	GeneratedAt     string  `json:"generated_at" db:"-"`
}

type CollectionRow struct {
	Key      string  `json:"key" db:"key"`
	Label    string  `json:"label" db:"label"`
	Payments int     `json:"payments" db:"payments"`
	Amount   float64 `json:"amount" db:"amount"`
}

type IndentStatusRow struct {
	Status      string  `json:"status" db:"status"`
	Indents     int     `json:"indents" db:"indents"`
	TotalAmount float64 `json:"total_amount" db:"total_amount"`
	AmountPaid  float64 `json:"amount_paid" db:"amount_paid"`
}

// MonthlyAmount is one (year, month) bucket of a summed column.
type MonthlyAmount struct {
	Year   int     `db:"year"`
	Month  int     `db:"month"`
	Amount float64 `db:"amount"`
}

type AnnualReportRow struct {
	Year             int     `json:"year"`
	Month            int     `json:"month"`
	Label            string  `json:"label"`
	FeeCollection    float64 `json:"fee_collection"`
	OtherIncome      float64 `json:"other_income"`
	IndentCollection float64 `json:"indent_collection"`
	TotalIncome      float64 `json:"total_income"`
	Expenses         float64 `json:"expenses"`
	Payroll          float64 `json:"payroll"`
	TotalExpenditure float64 `json:"total_expenditure"`
	Net              float64 `json:"net"`
}

type AnnualReport struct {
	AcademicYear string             `json:"academic_year"`
	From         Date               `json:"from"`
	To           Date               `json:"to"`
	Months       []*AnnualReportRow `json:"months"`
	Totals       *AnnualReportRow   `json:"totals"`
}

// BuildAnnualReport lays out twelve monthly rows starting at from and fills them
// from the per-month sums.
func BuildAnnualReport(academicYear string, from, to Date, fees, income, indents, expenses, payroll []*MonthlyAmount) *AnnualReport {
	report := &AnnualReport{
		AcademicYear: academicYear,
		From:         from,
		To:           to,
		Months:       make([]*AnnualReportRow, 0, 12),
		Totals:       &AnnualReportRow{Label: "Total"},
	}

	index := make(map[[2]int]*AnnualReportRow, 12)
	for i := 0; i < 12; i++ {
		m := from.Time.AddDate(0, i, 0)
		row := &AnnualReportRow{
			Year:  m.Year(),
			Month: int(m.Month()),
			Label: m.Format("Jan 2006"),
		}
		index[[2]int{row.Year, row.Month}] = row
		report.Months = append(report.Months, row)
	}

	fill := func(rows []*MonthlyAmount, set func(r *AnnualReportRow, v float64)) {
		for _, a := range rows {
			if r, ok := index[[2]int{a.Year, a.Month}]; ok {
				set(r, a.Amount)
			}
		}
	}
	fill(fees, func(r *AnnualReportRow, v float64) { r.FeeCollection += v })
	fill(income, func(r *AnnualReportRow, v float64) { r.OtherIncome += v })
	fill(indents, func(r *AnnualReportRow, v float64) { r.IndentCollection += v })
	fill(expenses, func(r *AnnualReportRow, v float64) { r.Expenses += v })
	fill(payroll, func(r *AnnualReportRow, v float64) { r.Payroll += v })

	t := report.Totals
	for _, r := range report.Months {
		r.TotalIncome = RoundMoney(r.FeeCollection + r.OtherIncome + r.IndentCollection)
		r.TotalExpenditure = RoundMoney(r.Expenses + r.Payroll)
		r.Net = RoundMoney(r.TotalIncome - r.TotalExpenditure)

		t.FeeCollection += r.FeeCollection
		t.OtherIncome += r.OtherIncome
		t.IndentCollection += r.IndentCollection
		t.TotalIncome += r.TotalIncome
		t.Expenses += r.Expenses
		t.Payroll += r.Payroll
		t.TotalExpenditure += r.TotalExpenditure
		t.Net += r.Net
	}
	t.FeeCollection = RoundMoney(t.FeeCollection)
	t.OtherIncome = RoundMoney(t.OtherIncome)
	t.IndentCollection = RoundMoney(t.IndentCollection)
	t.TotalIncome = RoundMoney(t.TotalIncome)
	t.Expenses = RoundMoney(t.Expenses)
	t.Payroll = RoundMoney(t.Payroll)
	t.TotalExpenditure = RoundMoney(t.TotalExpenditure)
	t.Net = RoundMoney(t.Net)
	return report
}
