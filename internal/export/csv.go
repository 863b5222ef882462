// Package export writes the intake log as CSV for handover to the client.
// The export is a derived view; the registry and ledger stay the source of
// truth.
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	assetstore "assetledger/internal/asset/store"
	"assetledger/internal/catalog"
	artifactstore "assetledger/internal/certificate/store"
	ledgerstore "assetledger/internal/ledger/store"
	"assetledger/pkg/domain"
	dErrors "assetledger/pkg/domain-errors"
	"assetledger/pkg/platform/sentinel"
	"assetledger/pkg/platform/tx"
)

// intakeHeaders matches the intake log layout the client receives.
var intakeHeaders = []string{
	"Asset ID",
	"Item Type",
	"Serial Number",
	"Condition",
	"Stage",
	"Intake Date",
	"Requires Label Removal",
	"Label Removal Completed",
	"Requires Data Wipe",
	"Data Wipe Method",
	"Data Wipe Date",
	"Data Wipe Technician",
	"Destruction Date",
	"Destruction Method",
	"Destruction Technician",
	"Certificate Issued",
	"Notes",
}

const ukDate = "02/01/2006"

// Exporter writes intake logs.
type Exporter struct {
	assets    assetstore.Store
	ledger    ledgerstore.Store
	artifacts artifactstore.Store
	catalog   *catalog.Catalog
	boundary  tx.Boundary
}

// NewExporter wires the exporter.
func NewExporter(assets assetstore.Store, ledger ledgerstore.Store, artifacts artifactstore.Store, cat *catalog.Catalog, boundary tx.Boundary) *Exporter {
	return &Exporter{assets: assets, ledger: ledger, artifacts: artifacts, catalog: cat, boundary: boundary}
}

// WriteIntakeLog writes the full intake log for the filtered assets. Rows
// come out in asset ID order and every cell is derived from one consistent
// snapshot.
func (e *Exporter) WriteIntakeLog(ctx context.Context, w io.Writer, f assetstore.Filter) (int, error) {
	var rows [][]string
	err := e.boundary.RunInTx(ctx, func(ctx context.Context) error {
		assets, err := e.assets.Query(ctx, f)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorage, "load registry")
		}
		for _, a := range assets {
			row, err := e.row(ctx, a.ID)
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(intakeHeaders); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return 0, fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	return len(rows), nil
}

func (e *Exporter) row(ctx context.Context, id domain.AssetID) ([]string, error) {
	a, err := e.assets.Get(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "load asset")
	}
	history, err := e.ledger.ListByAsset(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "load transition history")
	}

	var (
		wipeMethod, wipeDate, wipeTech          string
		destroyMethod, destroyDate, destroyTech string
	)
	for _, rec := range history {
		switch rec.ToStage {
		case domain.StageWiped:
			wipeMethod = rec.Method.String()
			wipeDate = rec.RecordedAt.Format(ukDate)
			wipeTech = rec.Actor
		case domain.StageDestroyed:
			destroyMethod = rec.Method.String()
			destroyDate = rec.RecordedAt.Format(ukDate)
			destroyTech = rec.Actor
		}
	}

	certIssued := "No"
	if _, err := e.artifacts.FindActiveIndividual(ctx, id); err == nil {
		certIssued = "Yes"
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "check certificate")
	}

	itemType := a.CategoryCode
	requiresLabel := false
	dataBearing := false
	if cat, err := e.catalog.Get(a.CategoryCode); err == nil {
		itemType = cat.Name
		requiresLabel = cat.RequiresLabelRemoval
		dataBearing = cat.DataBearing
	}

	return []string{
		string(a.ID),
		itemType,
		a.SerialNumber,
		a.Condition.String(),
		a.Stage.String(),
		a.IntakeAt.Format(ukDate),
		yesNo(requiresLabel),
		yesNo(a.LabelRemoved),
		yesNo(dataBearing),
		wipeMethod,
		wipeDate,
		wipeTech,
		destroyDate,
		destroyMethod,
		destroyTech,
		certIssued,
		a.Notes,
	}, nil
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

