package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetSalary(t *testing.T) {
	net, err := NetSalary(25000, 3000.50, 1200.25)
	require.NoError(t, err)
	assert.Equal(t, 26800.25, net)

	_, err = NetSalary(1000, 0, 1500)
	assert.ErrorIs(t, err, ErrNegativeNetSalary)

	entry := &PayrollEntry{BasicSalary: 100, Allowances: 20, Deductions: 30}
	require.NoError(t, entry.ComputeNet())
	assert.Equal(t, 90.0, entry.NetSalary)
}

func TestFormatReceiptNo(t *testing.T) {
	tests := []struct {
		prefix  string
		number  int64
		padding int
		want    string
	}{
		{"RCPT-", 1, 5, "RCPT-00001"},
		{"RCPT-", 123456, 5, "RCPT-123456"},
		{"SCH/24/", 42, 3, "SCH/24/042"},
		{"", 7, 0, "7"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatReceiptNo(tt.prefix, tt.number, tt.padding))
	}

	assert.Equal(t, "RCPT-00001", DefaultReceiptConfig("b1").Preview())
}

func TestDateJSON(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-06-15"`), &d))
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, time.June, d.Month())

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-06-15"`, string(out))

	out, err = json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	assert.Error(t, json.Unmarshal([]byte(`"15/06/2024"`), &d))
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("2024-01-31T00:00:00Z"))
	assert.Equal(t, "2024-01-31", d.String())

	require.NoError(t, d.Scan(time.Date(2023, 3, 4, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2023-03-04", d.String())

	v, err := Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestFeeItemsTotal(t *testing.T) {
	items := FeeItems{
		{FeeHead: FeeHeadTuition, Amount: 1500.10},
		{FeeHead: FeeHeadTransport, Amount: 300.20, DistanceGroup: "0-5km"},
	}
	assert.Equal(t, 1800.3, items.Total())

	var scanned FeeItems
	require.NoError(t, scanned.Scan([]byte(`[{"fee_head":"exam","amount":50}]`)))
	assert.Len(t, scanned, 1)
	assert.Equal(t, FeeHeadExam, scanned[0].FeeHead)
}

func TestFeeSummarySettle(t *testing.T) {
	s := &FeeSummary{StructureTotal: 10000, TransportFee: 1200, Paid: 4000}
	s.Settle()
	assert.Equal(t, 11200.0, s.TotalFee)
	assert.Equal(t, 7200.0, s.Due)

	s.Paid = 12000
	s.Settle()
	assert.Equal(t, 0.0, s.Due)
}

func TestDistanceGroups(t *testing.T) {
	groups := DistanceGroups{
		{Name: "0-5km", MaxKM: 5, Fee: 500},
		{Name: "5-10km", MinKM: 5, MaxKM: 10, Fee: 800},
	}
	g, ok := groups.Find("5-10km")
	require.True(t, ok)
	assert.Equal(t, 800.0, g.Fee)

	_, ok = groups.Find("far")
	assert.False(t, ok)

	assert.Equal(t, "", groups.Duplicate())
	assert.Equal(t, "0-5km", append(groups, DistanceGroup{Name: "0-5km"}).Duplicate())
}

func TestBuildLedger(t *testing.T) {
	txns := []*AccountTransaction{
		{Type: TxnCredit, Amount: 500},
		{Type: TxnDebit, Amount: 200},
		{Type: TxnCredit, Amount: 50.25},
	}
	l := BuildLedger(&Account{ID: "acc"}, 1000, txns)

	require.Len(t, l.Lines, 3)
	assert.Equal(t, 1500.0, l.Lines[0].Balance)
	assert.Equal(t, 1300.0, l.Lines[1].Balance)
	assert.Equal(t, 1350.25, l.Lines[2].Balance)
	assert.Equal(t, 550.25, l.TotalCredit)
	assert.Equal(t, 200.0, l.TotalDebit)
	assert.Equal(t, 1350.25, l.ClosingBalance)
}

func TestBuildDaybook(t *testing.T) {
	d := BuildDaybook(Date{}, []*DaybookEntry{
		{SourceType: SourceFeePayment, Direction: TxnCredit, Amount: 1000},
		{SourceType: SourceExpense, Direction: TxnDebit, Amount: 250},
		{SourceType: SourceIncome, Direction: TxnCredit, Amount: 75.5},
	})
	assert.Len(t, d.Receipts, 2)
	assert.Len(t, d.Payments, 1)
	assert.Equal(t, 1075.5, d.TotalReceipts)
	assert.Equal(t, 250.0, d.TotalPayments)
	assert.Equal(t, 825.5, d.Net)
}

func TestAcademicYearRange(t *testing.T) {
	from, to, err := AcademicYearRange("2024-2025", 4)
	require.NoError(t, err)
	assert.Equal(t, "2024-04-01", from.String())
	assert.Equal(t, "2025-03-31", to.String())

	from, to, err = AcademicYearRange("2024-2025", 1)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", from.String())
	assert.Equal(t, "2024-12-31", to.String())

	for _, bad := range []string{"2024", "2024-2026", "abcd-2025"} {
		_, _, err := AcademicYearRange(bad, 4)
		assert.Error(t, err, bad)
	}
}

func TestAcademicYearFor(t *testing.T) {
	cases := []struct {
		date       string
		startMonth int
		want       string
	}{
		{"2024-04-01", 4, "2024-2025"},
		{"2025-03-31", 4, "2024-2025"},
		{"2025-01-15", 1, "2025-2026"},
		{"2024-12-31", 6, "2024-2025"},
		{"2024-05-31", 6, "2023-2024"},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.date)
		require.NoError(t, err)
		assert.Equal(t, tc.want, AcademicYearFor(d.Time, tc.startMonth), tc.date)
	}
}

func TestBuildAnnualReport(t *testing.T) {
	from, to, err := AcademicYearRange("2024-2025", 4)
	require.NoError(t, err)

	r := BuildAnnualReport("2024-2025", from, to,
		[]*MonthlyAmount{{Year: 2024, Month: 4, Amount: 1000}, {Year: 2025, Month: 3, Amount: 500}},
		[]*MonthlyAmount{{Year: 2024, Month: 4, Amount: 100}},
		[]*MonthlyAmount{{Year: 2024, Month: 6, Amount: 40}},
		[]*MonthlyAmount{{Year: 2024, Month: 4, Amount: 300}, {Year: 2023, Month: 12, Amount: 999}},
		[]*MonthlyAmount{{Year: 2025, Month: 3, Amount: 200}},
	)

	require.Len(t, r.Months, 12)
	assert.Equal(t, "Apr 2024", r.Months[0].Label)
	assert.Equal(t, "Mar 2025", r.Months[11].Label)

	assert.Equal(t, 1100.0, r.Months[0].TotalIncome)
	assert.Equal(t, 800.0, r.Months[0].Net)
	assert.Equal(t, 40.0, r.Months[2].IndentCollection)
	assert.Equal(t, 300.0, r.Months[11].Net)

	assert.Equal(t, 1640.0, r.Totals.TotalIncome)
	assert.Equal(t, 500.0, r.Totals.TotalExpenditure)
	assert.Equal(t, 1140.0, r.Totals.Net)
}

func TestBalanceSheetSettle(t *testing.T) {
	b := &BalanceSheet{
		Assets:      []*BalanceSheetLine{{Name: "Cash", Amount: 1000}, {Name: "Fee receivables", Amount: 500}},
		Liabilities: []*BalanceSheetLine{{Name: "Salaries payable", Amount: 300}},
	}
	b.Settle()
	assert.Equal(t, 1500.0, b.TotalAssets)
	assert.Equal(t, 300.0, b.TotalLiabilities)
	assert.Equal(t, 1200.0, b.NetWorth)
}
