package batch

import (
	"fmt"
	"strings"

	"credit-engine/internal/domain/credit"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/infrastructure/spreadsheet"
	"credit-engine/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

// Header aliases accepted for each column, original workbook names first.
var (
	colCustomerID    = []string{"customer_id", "customer id"}
	colFirstName     = []string{"first_name", "first name"}
	colLastName      = []string{"last_name", "last name"}
	colAge           = []string{"age"}
	colPhone         = []string{"phone_number", "phone number", "phone"}
	colMonthlySalary = []string{"monthly_salary", "monthly salary", "monthly_income"}
	colApprovedLimit = []string{"approved_limit", "approved limit"}

	colLoanID       = []string{"loan_id", "loan id"}
	colLoanAmount   = []string{"loan_amount", "loan amount"}
	colTenure       = []string{"tenure"}
	colInterestRate = []string{"interest_rate", "interest rate"}
	colInstallment  = []string{"monthly repayment (emi)", "monthly_repayment", "monthly_installment", "emi"}
	colEMIsPaid     = []string{"EMIs paid on time", "emis_paid_on_time"}
	colStartDate    = []string{"start date", "date of approval", "start_date"}
	colEndDate      = []string{"end date", "end_date"}
)

func rowError(row spreadsheet.Row, field, format string, args ...any) *apperrors.RowError {
	return &apperrors.RowError{Row: row.Line, Field: field, Message: fmt.Sprintf(format, args...)}
}

func requiredCell(row spreadsheet.Row, aliases []string) (string, *apperrors.RowError) {
	v, ok := row.Get(aliases...)
	if !ok {
		return "", rowError(row, spreadsheet.NormalizeHeader(aliases[0]), "missing value")
	}
	return v, nil
}

func decimalCell(row spreadsheet.Row, aliases []string) (decimal.Decimal, *apperrors.RowError) {
	v, rerr := requiredCell(row, aliases)
	if rerr != nil {
		return decimal.Zero, rerr
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, rowError(row, spreadsheet.NormalizeHeader(aliases[0]), "not a number: %q", v)
	}
	return d, nil
}

// integerCell accepts whole numbers written as "12" or "12.0".
func integerCell(row spreadsheet.Row, aliases []string) (int64, *apperrors.RowError) {
	d, rerr := decimalCell(row, aliases)
	if rerr != nil {
		return 0, rerr
	}
	if !d.IsInteger() {
		return 0, rowError(row, spreadsheet.NormalizeHeader(aliases[0]), "not a whole number: %s", d.String())
	}
	return d.IntPart(), nil
}

// normalizePhone turns numeric cells such as "9.629317944E9" back into plain digits.
func normalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if d, err := decimal.NewFromString(raw); err == nil && d.IsInteger() {
		return d.String()
	}
	return raw
}

func parseCustomerRow(row spreadsheet.Row) (*customer.Customer, *apperrors.RowError) {
	id, rerr := integerCell(row, colCustomerID)
	if rerr != nil {
		return nil, rerr
	}
	if id <= 0 {
		return nil, rowError(row, "customer_id", "must be positive")
	}

	firstName, rerr := requiredCell(row, colFirstName)
	if rerr != nil {
		return nil, rerr
	}
	lastName, _ := row.Get(colLastName...)

	age, rerr := integerCell(row, colAge)
	if rerr != nil {
		return nil, rerr
	}
	if age < 0 {
		return nil, rowError(row, "age", "must not be negative")
	}

	phoneRaw, rerr := requiredCell(row, colPhone)
	if rerr != nil {
		return nil, rerr
	}

	salary, rerr := decimalCell(row, colMonthlySalary)
	if rerr != nil {
		return nil, rerr
	}
	if salary.IsNegative() {
		return nil, rowError(row, "monthly_salary", "must not be negative")
	}

	cust := customer.NewCustomer(firstName, lastName, int(age), salary, normalizePhone(phoneRaw))
	cust.CustomerID = id

	if _, ok := row.Get(colApprovedLimit...); ok {
		limit, rerr := decimalCell(row, colApprovedLimit)
		if rerr != nil {
			return nil, rerr
		}
		if limit.IsNegative() {
			return nil, rowError(row, "approved_limit", "must not be negative")
		}
		cust.ApprovedLimit = limit
	}

	if len(cust.FirstName) > customer.MaxNameLength {
		return nil, rowError(row, "first_name", "name longer than %d characters", customer.MaxNameLength)
	}
	if len(cust.LastName) > customer.MaxNameLength {
		return nil, rowError(row, "last_name", "name longer than %d characters", customer.MaxNameLength)
	}
	if len(cust.PhoneNumber) > customer.MaxPhoneLength {
		return nil, rowError(row, "phone_number", "longer than %d characters", customer.MaxPhoneLength)
	}
	return cust, nil
}

func parseLoanRow(row spreadsheet.Row, knownCustomers map[int64]struct{}) (*loan.Loan, *apperrors.RowError) {
	customerID, rerr := integerCell(row, colCustomerID)
	if rerr != nil {
		return nil, rerr
	}
	loanID, rerr := integerCell(row, colLoanID)
	if rerr != nil {
		return nil, rerr
	}
	if loanID <= 0 {
		return nil, rowError(row, "loan_id", "must be positive")
	}
	if _, ok := knownCustomers[customerID]; !ok {
		return nil, rowError(row, "customer_id", "customer %d not found for loan %d", customerID, loanID)
	}

	amount, rerr := decimalCell(row, colLoanAmount)
	if rerr != nil {
		return nil, rerr
	}
	tenure, rerr := integerCell(row, colTenure)
	if rerr != nil {
		return nil, rerr
	}
	rate, rerr := decimalCell(row, colInterestRate)
	if rerr != nil {
		return nil, rerr
	}
	paid, rerr := integerCell(row, colEMIsPaid)
	if rerr != nil {
		return nil, rerr
	}

	startRaw, rerr := requiredCell(row, colStartDate)
	if rerr != nil {
		return nil, rerr
	}
	start, err := spreadsheet.ParseDate(startRaw)
	if err != nil {
		return nil, rowError(row, "start_date", "%v", err)
	}

	installment := credit.RoundMoney(credit.MonthlyInstallment(amount, rate, int(tenure)))
	if _, ok := row.Get(colInstallment...); ok {
		installment, rerr = decimalCell(row, colInstallment)
		if rerr != nil {
			return nil, rerr
		}
	}

	l := loan.NewLoan(customerID, amount, rate, int(tenure), installment, start)
	l.ID = loanID
	l.EMIsPaidOnTime = int(paid)

	if endRaw, ok := row.Get(colEndDate...); ok {
		end, err := spreadsheet.ParseDate(endRaw)
		if err != nil {
			return nil, rowError(row, "end_date", "%v", err)
		}
		l.EndDate = end
	}

	if err := l.Validate(); err != nil {
		return nil, rowError(row, "", "%v", err)
	}
	return l, nil
}
