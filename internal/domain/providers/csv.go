package providers

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"
)

var csvHeader = []string{
	"id", "type", "firstName", "lastName", "email", "phone", "country", "city",
	"languages", "status", "kycStatus", "isApproved", "isBanned", "isOnline",
	"rating", "reviewCount", "totalCalls", "totalEarnings", "createdAt",
}

// ExportCSV writes providers as RFC 4180 CSV; fields containing commas,
// quotes or newlines are quoted.
func ExportCSV(w io.Writer, providers []Provider) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range providers {
		if err := cw.Write(csvRow(p)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(p Provider) []string {
	created := ""
	if !p.CreatedAt.IsZero() {
		created = p.CreatedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		p.ID,
		p.Type,
		p.FirstName,
		p.LastName,
		p.Email,
		p.Phone,
		p.Country,
		p.City,
		strings.Join(p.Languages, ";"),
		p.Status,
		p.KYCStatus,
		strconv.FormatBool(p.IsApproved),
		strconv.FormatBool(p.IsBanned),
		strconv.FormatBool(p.IsOnline),
		strconv.FormatFloat(p.Rating, 'f', 2, 64),
		strconv.Itoa(p.ReviewCount),
		strconv.Itoa(p.TotalCalls),
		strconv.FormatFloat(p.TotalEarnings, 'f', 2, 64),
		created,
	}
}
