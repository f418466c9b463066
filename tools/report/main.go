package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"devicedesk/internal/config"
	inventorypostgres "devicedesk/internal/inventory/infrastructure/postgres"
	"devicedesk/internal/observability/metrics"
	"devicedesk/internal/reporting"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var (
		manufacturer = flag.String("manufacturer", "", "model manufacturer")
		modelNumber  = flag.String("model", "", "model number")
		outDir       = flag.String("out", ".", "output directory")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "report ", log.LstdFlags)

	if *manufacturer == "" || *modelNumber == "" {
		logger.Fatal("both -manufacturer and -model are required")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}
	metrics.Init(db, logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.QueryTimeout)
	defer cancel()

	models := inventorypostgres.NewModelRepository(db)
	model, err := models.Get(ctx, *manufacturer, *modelNumber)
	if err != nil {
		logger.Fatalf("model lookup: %v", err)
	}
	if model == nil {
		logger.Fatalf("model %s/%s not found", *manufacturer, *modelNumber)
	}

	rows, err := models.MonthlyCost(ctx, *manufacturer, *modelNumber)
	if err != nil {
		logger.Fatalf("model cost: %v", err)
	}

	base := fmt.Sprintf("model-cost-%s-%s", *manufacturer, *modelNumber)

	pdf, err := reporting.BuildModelCostPDF(model, rows)
	if err != nil {
		logger.Fatalf("pdf render: %v", err)
	}
	pdfPath := filepath.Join(*outDir, base+".pdf")
	if err := os.WriteFile(pdfPath, pdf, 0o644); err != nil {
		logger.Fatalf("write %s: %v", pdfPath, err)
	}

	xlsx, err := reporting.BuildModelCostXLSX(model, rows)
	if err != nil {
		logger.Fatalf("xlsx render: %v", err)
	}
	xlsxPath := filepath.Join(*outDir, base+".xlsx")
	if err := os.WriteFile(xlsxPath, xlsx, 0o644); err != nil {
		logger.Fatalf("write %s: %v", xlsxPath, err)
	}

	logger.Printf("wrote %s and %s (%d month rows)", pdfPath, xlsxPath, len(rows))
}
