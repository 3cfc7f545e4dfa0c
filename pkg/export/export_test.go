package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjtyk95/bankoptimize/core/model"
)

func samplePlan() model.TransferPlan {
	return model.TransferPlan{
		{
			From:        model.AccountID{Bank: "Y", Branch: "001"},
			To:          model.AccountID{Bank: "X", Branch: "001"},
			Service:     "general",
			ExecuteDay:  "2025-06-08",
			Amount:      400000,
			ExpectedFee: 330,
		},
		{
			From:        model.AccountID{Bank: "Z", Branch: "002"},
			To:          model.AccountID{Bank: "X", Branch: "001"},
			Service:     "payroll",
			ExecuteDay:  "2025-06-09",
			Amount:      50000,
			ExpectedFee: 220,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, samplePlan()))

	want := "execute_date,from_bank,to_bank,service_id,amount,expected_fee\n" +
		"2025-06-08,Y,X,general,400000,330\n" +
		"2025-06-09,Z,X,payroll,50000,220\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVEmptyPlan(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "execute_date,from_bank,to_bank,service_id,amount,expected_fee\n", buf.String())
}

func TestWriteJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	plan := samplePlan()
	require.NoError(t, WriteJSON(&buf, plan))

	var got model.TransferPlan
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, plan, got)
}