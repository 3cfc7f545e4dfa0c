// Package export writes transfer plans in CSV and JSON form.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/fjtyk95/bankoptimize/core/model"
)

// WriteJSON writes the transfer plan to w in JSON format.
func WriteJSON(w io.Writer, plan model.TransferPlan) error {
	enc := json.NewEncoder(w)
	return enc.Encode(plan)
}

// WriteCSV writes the transfer plan to w with the fixed column order
// expected by downstream settlement tooling.
func WriteCSV(w io.Writer, plan model.TransferPlan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"execute_date", "from_bank", "to_bank", "service_id", "amount", "expected_fee"}); err != nil {
		return err
	}
	for _, t := range plan {
		rec := []string{
			t.ExecuteDay,
			t.From.Bank,
			t.To.Bank,
			t.Service,
			strconv.FormatInt(t.Amount, 10),
			strconv.FormatInt(t.ExpectedFee, 10),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
