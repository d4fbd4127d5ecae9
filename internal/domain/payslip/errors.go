package payslip

import "errors"

var ErrPayslipNotFound = errors.New("payslip not found for this employee and cycle")
