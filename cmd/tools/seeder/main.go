package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedProducts(db)
	seedPartnerCards(db)

	log.Println("Seeding completed successfully!")
}

type productRow struct {
	Channel       string
	Category      string
	Model         string
	BundleType    string
	ContractYears int
	CareType      string
	VisitCycle    string
	PrepayOption  string
	MonthlyFee    string
	ListPrice     string
	Activation    string
	PromoEndMonth int
	BundleDisc    string
	PrepayAmount  string
}

func seedProducts(db *sql.DB) {
	products := []productRow{
		// Water purifiers: standalone and bundle variants of the same model.
		{"default", "water-purifier", "WP-1100", "", 3, "self-care", "4-month", "", "33000", "35000", "2000", 12, "", ""},
		{"default", "water-purifier", "WP-1100", "new-bundle", 3, "self-care", "4-month", "", "30000", "35000", "2000", 12, "3000", ""},
		{"default", "water-purifier", "WP-2200", "", 5, "visit-care", "2-month", "prepay-half", "42000", "45000", "3000", 12, "", "300000"},
		{"default", "water-purifier", "WP-2200", "new-bundle", 5, "visit-care", "2-month", "prepay-half", "38000", "45000", "3000", 12, "4000", "300000"},

		// Air purifiers: no visit cycle, no prepay.
		{"default", "air-purifier", "AP-500", "", 3, "self-care", "", "", "45000", "47000", "2000", 12, "", ""},
		{"default", "air-purifier", "AP-500", "new-bundle", 3, "self-care", "", "", "35000", "47000", "2000", 12, "10000", ""},
		{"default", "air-purifier", "AP-700", "", 5, "visit-care", "2-month", "", "52000", "55000", "3000", 12, "", ""},

		// Bidets carry neither care nor visit options.
		{"default", "bidet", "BD-300", "", 3, "", "", "", "21000", "23000", "2000", 12, "", ""},
		{"default", "bidet", "BD-300", "new-bundle", 3, "", "", "", "19000", "23000", "2000", 12, "2000", ""},

		// Mattress with a long contract and promo pricing worth the card tiers.
		{"default", "mattress", "MT-900", "", 6, "visit-care", "4-month", "", "75000", "79000", "4000", 12, "", ""},

		// Legacy import artifacts: malformed money text parses to zero.
		{"default", "water-purifier", "WP-LEGACY", "", 3, "", "", "", "상담문의", "상담문의", "", 0, "", ""},
	}

	fmt.Println("Seeding Products...")
	for _, p := range products {
		_, err := db.Exec(`
			INSERT INTO products (
				channel, category, model, bundle_type, contract_years,
				care_type, visit_cycle, prepay_option,
				monthly_fee, list_price, activation_discount, promo_end_month,
				bundle_discount, prepay_amount
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
		`,
			p.Channel, p.Category, p.Model, p.BundleType, p.ContractYears,
			p.CareType, p.VisitCycle, p.PrepayOption,
			p.MonthlyFee, p.ListPrice, p.Activation, p.PromoEndMonth,
			p.BundleDisc, p.PrepayAmount,
		)
		if err != nil {
			log.Printf("Failed to seed product %s/%s: %v", p.Model, p.BundleType, err)
		}
	}
}

func seedPartnerCards(db *sql.DB) {
	cards := []struct {
		Issuer     string
		UsageTier  string
		PromoDisc  string
		BasicDisc  string
		PromoMonth int
		Benefit    string
		Note       string
	}{
		{"shinhan", "700000+", "20000", "10000", 12, "cash point accrual", "tier by monthly card usage"},
		{"shinhan", "1300000+", "25000", "13000", 12, "cash point accrual", "tier by monthly card usage"},
		{"kb", "300000+", "10000", "5000", 12, "", ""},
		{"kb", "600000+", "15000", "8000", 12, "", ""},
		{"samsung", "500000+", "13000", "7000", 24, "", "promo runs two years"},
		{"unused", "", "", "", 0, "", "placeholder row from the import"},
	}

	fmt.Println("Seeding Partner Cards...")
	for _, c := range cards {
		_, err := db.Exec(`
			INSERT INTO partner_cards (
				channel, issuer, usage_tier,
				promo_discount, basic_discount, promo_months,
				benefit, note
			)
			VALUES ('', $1, $2, $3, $4, $5, $6, $7);
		`, c.Issuer, c.UsageTier, c.PromoDisc, c.BasicDisc, c.PromoMonth, c.Benefit, c.Note)
		if err != nil {
			log.Printf("Failed to seed partner card %s/%s: %v", c.Issuer, c.UsageTier, err)
		}
	}
}
