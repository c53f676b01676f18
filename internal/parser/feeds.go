// Package parser reads the uploaded feed exports into parsed rows. Headers
// are matched by name (English or Dutch export settings); malformed rows are
// skipped with a warning so a single bad line cannot abort a run.
package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"studio-recon/internal/domain"
	"studio-recon/internal/normalize"
	"studio-recon/pkg/logger"
)

// column aliases per logical field, covering both export locales.
var (
	bookingColumns = map[string][]string{
		"channel":     {"channel", "payment_method", "kanaal", "betaalwijze"},
		"description": {"description", "item", "omschrijving", "product"},
		"date":        {"date", "datum"},
		"amount":      {"amount", "bedrag", "total"},
		"tax":         {"tax", "vat", "btw"},
		"email":       {"email", "e-mail", "customer_email"},
	}
	settlementColumns = map[string][]string{
		"status": {"status", "category", "state"},
		"email":  {"email", "e-mail", "consumer_email"},
		"gross":  {"gross", "amount", "bedrag"},
		"fee":    {"fee", "fees", "kosten"},
	}
)

// MissingHeaderError reports which required columns a feed export lacks;
// it is a user-correctable input-format error.
type MissingHeaderError struct {
	Feed   string
	Fields []string
}

func (e *MissingHeaderError) Error() string {
	return fmt.Sprintf("%s feed: missing required columns: %s", e.Feed, strings.Join(e.Fields, ", "))
}

// ParseBookingCSV reads the feed-A export. Amounts go through the locale
// normalizer; the identity is kept raw here and normalized at aggregation.
func ParseBookingCSV(r io.Reader) ([]domain.BookingRow, error) {
	records, index, err := readAll(r, "booking", bookingColumns)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.BookingRow, 0, len(records))
	for line, record := range records {
		date, err := parseDate(field(record, index, "date"))
		if err != nil {
			logger.GetLogger().WithError(err).WithField("line", line+2).Warn("Skipping booking row with invalid date")
			continue
		}
		rows = append(rows, domain.BookingRow{
			Channel:     field(record, index, "channel"),
			Description: field(record, index, "description"),
			Date:        date,
			Amount:      normalize.ParseAmount(field(record, index, "amount")),
			Tax:         normalize.ParseAmount(field(record, index, "tax")),
			Email:       field(record, index, "email"),
		})
	}
	return rows, nil
}

// ParseSettlementCSV reads the feed-B export.
func ParseSettlementCSV(r io.Reader) ([]domain.SettlementRow, error) {
	records, index, err := readAll(r, "settlement", settlementColumns)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.SettlementRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, domain.SettlementRow{
			Status: field(record, index, "status"),
			Email:  field(record, index, "email"),
			Gross:  normalize.ParseAmount(field(record, index, "gross")),
			Fee:    normalize.ParseAmount(field(record, index, "fee")),
		})
	}
	return rows, nil
}

// readAll consumes the CSV, resolves the header into a field index, and
// returns the data records. Unreadable lines are skipped with a warning.
func readAll(r io.Reader, feed string, columns map[string][]string) ([][]string, map[string]int, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("%s feed: failed to read header: %w", feed, err)
	}

	index, missing := mapColumns(header, columns)
	if len(missing) > 0 {
		return nil, nil, &MissingHeaderError{Feed: feed, Fields: missing}
	}

	var records [][]string
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			logger.GetLogger().WithError(err).WithField("line", line).Warn("Failed to read CSV row, skipping")
			continue
		}
		records = append(records, record)
	}
	return records, index, nil
}

// mapColumns resolves each logical field to its column position via the
// alias lists. Fee is the only optional field: a settlement export without
// one simply has zero fees.
func mapColumns(header []string, columns map[string][]string) (map[string]int, []string) {
	positions := make(map[string]int, len(header))
	for i, col := range header {
		positions[strings.ToLower(strings.TrimSpace(col))] = i
	}

	index := make(map[string]int, len(columns))
	var missing []string
	for name, aliases := range columns {
		found := false
		for _, alias := range aliases {
			if pos, ok := positions[alias]; ok {
				index[name] = pos
				found = true
				break
			}
		}
		if !found && name != "fee" {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return index, missing
}

func field(record []string, index map[string]int, name string) string {
	pos, ok := index[name]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func parseDate(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		"02-01-2006",
		"02/01/2006",
		time.RFC3339,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}
