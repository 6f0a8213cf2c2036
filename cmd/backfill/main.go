package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// backfill loads historical daily sales CSV exports into sales_daily so a
// fresh deployment has enough history for prediction on day one. Expected
// CSV columns: item_code, sale_date (YYYY-MM-DD), qty, was_stockout (0/1).
func main() {
	dbURL := flag.String("db-url", "", "Database connection string")
	dataDir := flag.String("data-dir", "./data/sales", "Directory containing daily sales CSV files")
	dateStr := flag.String("date", time.Now().Format("20060102"), "Date in YYYYMMDD format, or 'all' for every file")
	flag.Parse()

	if *dbURL == "" {
		log.Fatal("Database URL is required (use -db-url flag)")
	}

	db, err := sql.Open("pgx", *dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	var files []string
	if *dateStr == "all" {
		matches, err := filepath.Glob(filepath.Join(*dataDir, "*.csv"))
		if err != nil {
			log.Fatalf("Failed to list CSV files: %v", err)
		}
		files = matches
	} else {
		files = []string{filepath.Join(*dataDir, *dateStr+".csv")}
	}

	ctx := context.Background()
	for _, path := range files {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			log.Printf("File not found, skipping: %s", path)
			continue
		}

		start := time.Now()
		n, err := loadFile(ctx, db, path)
		if err != nil {
			log.Printf("Error processing %s: %v", path, err)
			continue
		}
		log.Printf("Loaded %d rows from %s in %v", n, path, time.Since(start))
	}
}

func loadFile(ctx context.Context, db *sql.DB, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		return 0, fmt.Errorf("failed to read CSV header: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO sales_daily (item_code, sale_date, qty, was_stockout)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (item_code, sale_date)
		DO UPDATE SET
			qty = EXCLUDED.qty,
			was_stockout = EXCLUDED.was_stockout
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	rowCount := 0
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return rowCount, fmt.Errorf("failed to read CSV record: %w", err)
		}
		if len(record) < 4 {
			return rowCount, fmt.Errorf("invalid record (expected 4 columns): %v", record)
		}

		qty, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return rowCount, fmt.Errorf("invalid qty %q: %w", record[2], err)
		}
		wasStockout := record[3] == "1" || record[3] == "true"

		if _, err := stmt.ExecContext(ctx, record[0], record[1], qty, wasStockout); err != nil {
			return rowCount, fmt.Errorf("failed to insert sales row: %w", err)
		}

		rowCount++
		if rowCount%5000 == 0 {
			log.Printf("Loaded %d rows...", rowCount)
		}
	}

	if err := tx.Commit(); err != nil {
		return rowCount, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return rowCount, nil
}
