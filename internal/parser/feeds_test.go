package parser

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBookingCSV(t *testing.T) {
	input := strings.Join([]string{
		"Channel,Description,Date,Amount,Tax,Email",
		"Card,Monthly Membership,2025-03-01,\"1.234,56\",\"107,22\",alice@x.com",
		"Contant,Thee,2025-03-02,250,021,bob@x.com",
	}, "\n")

	rows, err := ParseBookingCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Card", rows[0].Channel)
	assert.Equal(t, "Monthly Membership", rows[0].Description)
	assert.Equal(t, "2025-03-01", rows[0].Date.Format("2006-01-02"))
	assert.True(t, rows[0].Amount.Equal(decimal.RequireFromString("1234.56")))
	assert.Equal(t, "alice@x.com", rows[0].Email)
}

func TestParseBookingCSV_DutchHeaders(t *testing.T) {
	input := strings.Join([]string{
		"Betaalwijze,Omschrijving,Datum,Bedrag,BTW,E-mail",
		"iDEAL,Workshop handstand,01-03-2025,\"30,00\",\"2,48\",carol@x.com",
	}, "\n")

	rows, err := ParseBookingCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "iDEAL", rows[0].Channel)
	assert.Equal(t, "2025-03-01", rows[0].Date.Format("2006-01-02"))
}

func TestParseBookingCSV_SkipsInvalidDates(t *testing.T) {
	input := strings.Join([]string{
		"channel,description,date,amount,tax,email",
		"Card,Les,not-a-date,15,1,a@x.com",
		"Card,Les,2025-03-01,15,1,a@x.com",
	}, "\n")

	rows, err := ParseBookingCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestParseBookingCSV_MissingColumns(t *testing.T) {
	input := "channel,amount\nCard,15\n"

	_, err := ParseBookingCSV(strings.NewReader(input))
	require.Error(t, err)

	var missing *MissingHeaderError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "booking", missing.Feed)
	assert.Equal(t, []string{"date", "description", "email", "tax"}, missing.Fields)
}

func TestParseSettlementCSV(t *testing.T) {
	input := strings.Join([]string{
		"Status,Email,Amount,Fee",
		"paid,alice@x.com,\"98,00\",\"3,00\"",
		"failed,bob@x.com,\"50,00\",\"1,00\"",
	}, "\n")

	rows, err := ParseSettlementCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.True(t, rows[0].Completed())
	assert.True(t, rows[0].Gross.Equal(decimal.RequireFromString("98.00")))
	assert.True(t, rows[0].Fee.Equal(decimal.RequireFromString("3.00")))
	assert.False(t, rows[1].Completed())
}

func TestParseSettlementCSV_FeeColumnOptional(t *testing.T) {
	input := "status,email,gross\npaid,a@x.com,\"10,00\"\n"

	rows, err := ParseSettlementCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Fee.IsZero())
}

func TestParseSettlementCSV_EmptyFile(t *testing.T) {
	_, err := ParseSettlementCSV(strings.NewReader(""))
	assert.Error(t, err, "a feed without a header is rejected")
}
