package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"btcPowerLaw/internal/domain"
)

var csvHeader = []string{"date", "close"}

// WriteObservationsToCSV writes obs as "date,close" rows, creating parent directories.
func WriteObservationsToCSV(obs []domain.Observation, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, o := range obs {
		if err := writer.Write([]string{
			o.Date.Format(time.DateOnly),
			strconv.FormatFloat(o.Price, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadObservationsFromCSV parses "date,close" rows. A header row is optional.
// Dates are YYYY-MM-DD and interpreted as UTC.
func ReadObservationsFromCSV(r io.Reader) ([]domain.Observation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	var obs []domain.Observation
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if line == 1 && strings.EqualFold(record[0], csvHeader[0]) {
			continue
		}
		date, err := time.ParseInLocation(time.DateOnly, record[0], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date %q: %w", line, record[0], err)
		}
		price, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid close %q: %w", line, record[1], err)
		}
		obs = append(obs, domain.Observation{Date: date, Price: price})
	}
	return obs, nil
}
