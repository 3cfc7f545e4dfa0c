// Package csvload reads the four optimizer input tables from CSV files and
// returns validated in-memory structures. It is the thin ingestion layer in
// front of the core library; the core itself never touches files.
package csvload

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/fjtyk95/bankoptimize/core/fee"
	"github.com/fjtyk95/bankoptimize/core/model"
)

type header map[string]int

func readTable(path string, required []string) (header, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	cols, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header from %s: %w", path, err)
	}
	h := make(header, len(cols))
	for i, c := range cols {
		h[c] = i
	}
	for _, c := range required {
		if _, ok := h[c]; !ok {
			return nil, nil, fmt.Errorf("%s: missing column %q", path, c)
		}
	}
	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read record from %s: %w", path, err)
		}
		rows = append(rows, rec)
	}
	return h, rows, nil
}

func (h header) get(row []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// LoadAccounts reads the account master (bank_id, branch_id, service_id,
// cut_off_time) and folds the per-service rows into Account records.
func LoadAccounts(path string) ([]model.Account, error) {
	h, rows, err := readTable(path, []string{"bank_id", "branch_id", "service_id", "cut_off_time"})
	if err != nil {
		return nil, err
	}
	byID := make(map[model.AccountID]*model.Account)
	var order []model.AccountID
	for _, row := range rows {
		id := model.AccountID{Bank: h.get(row, "bank_id"), Branch: h.get(row, "branch_id")}
		svc := h.get(row, "service_id")
		cut, err := model.ParseCutOff(h.get(row, "cut_off_time"))
		if err != nil {
			return nil, fmt.Errorf("%s: account %s service %s: %w", path, id, svc, err)
		}
		acc, ok := byID[id]
		if !ok {
			acc = &model.Account{ID: id, CutOff: make(map[string]model.CutOffTime)}
			byID[id] = acc
			order = append(order, id)
		}
		acc.Services = append(acc.Services, svc)
		acc.CutOff[svc] = cut
	}
	sort.Slice(order, func(i, j int) bool { return order[i].String() < order[j].String() })
	accounts := make([]model.Account, 0, len(order))
	for _, id := range order {
		a := *byID[id]
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

// LoadFeeTable reads the fee table (from_bank, service_id, amount_bin,
// to_bank, to_branch, fee) into schedule entries.
func LoadFeeTable(path string) ([]fee.Entry, error) {
	h, rows, err := readTable(path, []string{"from_bank", "service_id", "amount_bin", "to_bank", "to_branch", "fee"})
	if err != nil {
		return nil, err
	}
	entries := make([]fee.Entry, 0, len(rows))
	for _, row := range rows {
		lower, upper, err := fee.ParseBin(h.get(row, "amount_bin"))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		f, err := strconv.ParseInt(h.get(row, "fee"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: could not parse fee %q: %w", path, h.get(row, "fee"), err)
		}
		entries = append(entries, fee.Entry{
			Route: fee.RouteKey{
				FromBank: h.get(row, "from_bank"),
				Service:  h.get(row, "service_id"),
				To:       model.AccountID{Bank: h.get(row, "to_bank"), Branch: h.get(row, "to_branch")},
			},
			Lower: lower,
			Upper: upper,
			Fee:   f,
		})
	}
	return entries, nil
}

// LoadBalances reads the opening balance snapshot (bank_id, balance, with
// an optional branch_id column depending on the granularity in use).
func LoadBalances(path string) (model.BalanceSnapshot, error) {
	h, rows, err := readTable(path, []string{"bank_id", "balance"})
	if err != nil {
		return nil, err
	}
	snap := make(model.BalanceSnapshot, len(rows))
	for _, row := range rows {
		id := model.AccountID{Bank: h.get(row, "bank_id"), Branch: h.get(row, "branch_id")}
		bal, err := strconv.ParseInt(h.get(row, "balance"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: could not parse balance %q: %w", path, h.get(row, "balance"), err)
		}
		snap[id] = bal
	}
	return snap, nil
}

// LoadCashFlows reads the cash-flow history (date, bank_id, amount,
// direction, optional branch_id). Amounts are stored signed: inflows
// positive, outflows negative.
func LoadCashFlows(path string) ([]model.CashFlowObservation, error) {
	h, rows, err := readTable(path, []string{"date", "bank_id", "amount", "direction"})
	if err != nil {
		return nil, err
	}
	obs := make([]model.CashFlowObservation, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse("2006-01-02", h.get(row, "date"))
		if err != nil {
			return nil, fmt.Errorf("%s: could not parse date %q: %w", path, h.get(row, "date"), err)
		}
		amount, err := strconv.ParseInt(h.get(row, "amount"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: could not parse amount %q: %w", path, h.get(row, "amount"), err)
		}
		dir, err := model.ParseDirection(h.get(row, "direction"))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if dir == model.DirectionOut {
			amount = -amount
		}
		obs = append(obs, model.CashFlowObservation{
			Account: model.AccountID{Bank: h.get(row, "bank_id"), Branch: h.get(row, "branch_id")},
			Date:    date,
			Amount:  amount,
		})
	}
	return obs, nil
}
