// seed_catalog.go — standalone script to load a vehicle catalog CSV into the
// leadrouter admin API.
//
// Usage:
//
//	go run scripts/seed_catalog.go -csv /path/to/catalog.csv -api http://localhost:8700 -token $ADMIN_TOKEN
//
// CSV columns: make,model,year,category,price (header row required).
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
)

type vehicle struct {
	Make     string  `json:"make"`
	Model    string  `json:"model"`
	Year     int     `json:"year"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}

var validCategories = map[string]bool{
	"suv": true, "sedan": true, "coupe": true, "sports": true,
}

func main() {
	csvPath := flag.String("csv", "catalog.csv", "path to vehicle catalog CSV")
	apiURL := flag.String("api", "http://localhost:8700", "leadrouter API base URL")
	token := flag.String("token", "", "admin bearer token")
	dryRun := flag.Bool("dry-run", false, "print vehicles without posting")
	flag.Parse()

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("open catalog: %v", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		log.Fatalf("read catalog: %v", err)
	}
	if len(records) < 2 {
		log.Fatal("catalog has no data rows")
	}

	var vehicles []vehicle
	for i, rec := range records[1:] {
		if len(rec) != 5 {
			log.Printf("row %d: expected 5 columns, got %d, skipping", i+2, len(rec))
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(rec[2]))
		if err != nil {
			log.Printf("row %d: bad year %q, skipping", i+2, rec[2])
			continue
		}
		category := strings.ToLower(strings.TrimSpace(rec[3]))
		if !validCategories[category] {
			log.Printf("row %d: unknown category %q, skipping", i+2, rec[3])
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(rec[4]), 64)
		if err != nil || price <= 0 {
			log.Printf("row %d: bad price %q, skipping", i+2, rec[4])
			continue
		}
		vehicles = append(vehicles, vehicle{
			Make:     strings.TrimSpace(rec[0]),
			Model:    strings.TrimSpace(rec[1]),
			Year:     year,
			Category: category,
			Price:    price,
		})
	}

	log.Printf("parsed %d vehicles from %s", len(vehicles), *csvPath)

	if *dryRun {
		for i, v := range vehicles {
			fmt.Printf("[%d] %d %s %s (%s, %.0f)\n", i+1, v.Year, v.Make, v.Model, v.Category, v.Price)
		}
		return
	}

	client := &http.Client{}
	created, skipped := 0, 0
	for _, v := range vehicles {
		body, _ := json.Marshal(v)
		req, err := http.NewRequest("POST", *apiURL+"/api/v1/vehicles", bytes.NewReader(body))
		if err != nil {
			log.Printf("skip %s %s: %v", v.Make, v.Model, err)
			skipped++
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		if *token != "" {
			req.Header.Set("Authorization", "Bearer "+*token)
		}

		resp, err := client.Do(req)
		if err != nil {
			log.Printf("skip %s %s: %v", v.Make, v.Model, err)
			skipped++
			continue
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusCreated {
			created++
		} else {
			log.Printf("skip %s %s: status %d", v.Make, v.Model, resp.StatusCode)
			skipped++
		}
	}

	log.Printf("done: %d created, %d skipped", created, skipped)
}
