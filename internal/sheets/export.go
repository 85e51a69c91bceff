// Package sheets exports purchases to a Google Sheets spreadsheet.
// Export is idempotent per purchase version: the worker only sends rows
// the database marks pending.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/mfachrulrazy/smartgotrack-app/internal/core"
	"github.com/mfachrulrazy/smartgotrack-app/internal/log"
)

// Config locates the spreadsheet and the service account that writes
// to it. Inline JSON wins over the file path when both are set.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountFile string
	ServiceAccountJSON string
}

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

func NewExporter(ctx context.Context, cfg Config, logger *log.Logger) (*Exporter, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("sheets: spreadsheet ID is required")
	}
	if cfg.SheetName == "" {
		return nil, errors.New("sheets: sheet name is required")
	}

	var credentialsJSON []byte
	switch {
	case cfg.ServiceAccountJSON != "":
		credentialsJSON = []byte(cfg.ServiceAccountJSON)
	case cfg.ServiceAccountFile != "":
		var err error
		credentialsJSON, err = os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("sheets: read service account file: %w", err)
		}
	default:
		return nil, errors.New("sheets: missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}

	return &Exporter{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

// AppendPurchase appends one purchase as a spreadsheet row:
// date, item, store, unit price, quantity, unit, total, user.
func (e *Exporter) AppendPurchase(ctx context.Context, userID string, p core.Purchase) error {
	if e.svc == nil {
		return errors.New("sheets: service not initialized")
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("sheets: validation failed: %w", err)
	}

	vr := &gsheet.ValueRange{Values: [][]any{{
		p.Date.Key(),
		p.ItemName,
		p.StoreName,
		float64(p.PriceCents) / 100.0,
		p.Quantity,
		p.Unit,
		float64(p.TotalCents) / 100.0,
		userID,
	}}}

	rng := fmt.Sprintf("%s!A:H", e.sheetName)
	_, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: append to %s: %w", e.sheetName, err)
	}

	e.logger.InfoContext(ctx, "purchase exported to sheet",
		log.FieldPurchaseID, p.ID,
		log.FieldUserID, userID,
		log.FieldItemName, p.ItemName,
		log.FieldAmount, p.TotalCents)
	return nil
}
