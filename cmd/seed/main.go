// Package main seeds demo data for fieldops.
//
// All writes go through the entity services, so seeded records carry the
// same numbering, derived statuses and audit trail as API traffic. Rerunning
// is safe: technicians and inventory are matched on their unique keys and
// the demo client scenario is skipped once any client exists.
//
// Import Path: fieldops.io/fieldops/cmd/seed
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fieldops.io/fieldops/internal/api/middleware"
	"fieldops.io/fieldops/internal/app/modules"
	"fieldops.io/fieldops/internal/config"
	"fieldops.io/fieldops/internal/domain"
	"fieldops.io/fieldops/internal/infrastructure"
	apperrors "fieldops.io/fieldops/internal/pkg/errors"
	"fieldops.io/fieldops/internal/pkg/logger"
	"fieldops.io/fieldops/internal/usecase"
)

// seedDispatcherID is the dispatcher id printed with -print-tokens.
const seedDispatcherID = "dispatcher-demo"

func main() {
	printTokens := flag.Bool("print-tokens", false, "print development bearer tokens for the seeded actors")
	flag.Parse()

	if err := run(*printTokens); err != nil {
		fmt.Fprintf(os.Stderr, "seed error: %v\n", err)
		os.Exit(1)
	}
}

func run(printTokens bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("seeding requires database.driver=%s, got %q", config.DriverPostgres, cfg.Database.Driver)
	}

	ctx := context.Background()

	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(ctx); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}

	logger.Info("Starting data seeding...")
	svc := usecase.NewServices(usecase.NewOrchestrator(db.Store, nil))
	report, err := seed(ctx, svc)
	if err != nil {
		return err
	}
	logger.Info("Data seeding completed successfully",
		zap.Int("technicians_created", report.Technicians),
		zap.Int("inventory_created", report.Inventory),
		zap.Bool("scenario_created", report.Scenario),
	)

	if printTokens {
		return writeTokens(modules.JWTConfig(cfg), report.TechnicianIDs)
	}
	return nil
}

// seedReport counts what a run created.
type seedReport struct {
	Technicians   int
	Inventory     int
	Scenario      bool
	TechnicianIDs []string
}

var seedActor = domain.SystemActor("demo data seed")

func demoTechnicians() []domain.CreateTechnicianInput {
	return []domain.CreateTechnicianInput{
		{Name: "Rosa Alvarez", Email: "rosa.alvarez@fieldops.test", Phone: "555-0101",
			Skills: []string{"hvac", "refrigeration"}, HourlyRate: decimal.RequireFromString("62.50")},
		{Name: "Marcus Chen", Email: "marcus.chen@fieldops.test", Phone: "555-0102",
			Skills: []string{"plumbing"}, HourlyRate: decimal.RequireFromString("58.00")},
		{Name: "Priya Natarajan", Email: "priya.natarajan@fieldops.test", Phone: "555-0103",
			Skills: []string{"electrical", "hvac"}, HourlyRate: decimal.RequireFromString("65.00")},
	}
}

func demoInventory() []domain.CreateInventoryItemInput {
	return []domain.CreateInventoryItemInput{
		{SKU: "FLT-1625", Name: "Pleated air filter 16x25", Quantity: decimal.NewFromInt(40),
			UnitCost: decimal.RequireFromString("7.25"), ReorderThreshold: decimal.NewFromInt(15)},
		{SKU: "CAP-4505", Name: "Run capacitor 45/5 uF", Quantity: decimal.NewFromInt(6),
			UnitCost: decimal.RequireFromString("18.90"), ReorderThreshold: decimal.NewFromInt(8)},
		{SKU: "VLV-075", Name: "Ball valve 3/4 in", Quantity: decimal.NewFromInt(22),
			UnitCost: decimal.RequireFromString("11.40"), ReorderThreshold: decimal.NewFromInt(10)},
	}
}

func seed(ctx context.Context, svc *usecase.Services) (seedReport, error) {
	var report seedReport

	for _, in := range demoTechnicians() {
		t, err := svc.Technicians.Create(ctx, in, seedActor)
		if apperrors.KindOf(err) == apperrors.KindConflict {
			logger.Debug("technician already seeded", zap.String("email", in.Email))
			continue
		}
		if err != nil {
			return report, fmt.Errorf("seed technician %s: %w", in.Email, err)
		}
		report.Technicians++
		report.TechnicianIDs = append(report.TechnicianIDs, t.ID)
	}
	if len(report.TechnicianIDs) == 0 {
		existing, err := svc.Technicians.List(ctx, true)
		if err != nil {
			return report, fmt.Errorf("list technicians: %w", err)
		}
		for _, t := range existing {
			report.TechnicianIDs = append(report.TechnicianIDs, t.ID)
		}
	}

	for _, in := range demoInventory() {
		_, err := svc.Inventory.Create(ctx, in, seedActor)
		if apperrors.KindOf(err) == apperrors.KindConflict {
			continue
		}
		if err != nil {
			return report, fmt.Errorf("seed inventory %s: %w", in.SKU, err)
		}
		report.Inventory++
	}

	clients, err := svc.Clients.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list clients: %w", err)
	}
	if len(clients) > 0 {
		logger.Info("clients already present, skipping demo scenario", zap.Int("clients", len(clients)))
		return report, nil
	}
	if err := seedScenario(ctx, svc, report.TechnicianIDs); err != nil {
		return report, err
	}
	report.Scenario = true
	return report, nil
}

// seedScenario walks one client from request to a scheduled visit.
func seedScenario(ctx context.Context, svc *usecase.Services, techIDs []string) error {
	client, err := svc.Clients.Create(ctx, domain.CreateClientInput{
		Name:        "Harbor Street Bakery",
		CompanyName: "Harbor Street Bakery LLC",
		Email:       "facilities@harborbakery.test",
		Phone:       "555-0199",
		Address:     "18 Harbor Street",
	}, seedActor)
	if err != nil {
		return fmt.Errorf("seed client: %w", err)
	}

	if _, err := svc.Contacts.Create(ctx, domain.CreateContactInput{
		ClientID: client.ID, Name: "Dana Whitfield", Email: "dana@harborbakery.test",
		Role: "Facilities manager", IsPrimary: true,
	}, seedActor); err != nil {
		return fmt.Errorf("seed contact: %w", err)
	}

	req, err := svc.Requests.Create(ctx, domain.CreateRequestInput{
		ClientID:    client.ID,
		Title:       "Walk-in cooler not holding temperature",
		Description: "Cooler drifts to 45F overnight.",
		Source:      "phone",
		Priority:    "high",
	}, seedActor)
	if err != nil {
		return fmt.Errorf("seed request: %w", err)
	}

	expires := time.Now().UTC().Add(30 * 24 * time.Hour)
	quote, err := svc.Quotes.Create(ctx, domain.CreateQuoteInput{
		ClientID:  client.ID,
		RequestID: &req.ID,
		Title:     "Cooler compressor service",
		TaxRate:   decimal.RequireFromString("0.0825"),
		ExpiresAt: &expires,
		LineItems: []domain.LineItemInput{
			{Description: "Diagnostic visit", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("95.00")},
			{Description: "Run capacitor 45/5 uF", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("42.00")},
			{Description: "Labor (hours)", Quantity: decimal.RequireFromString("1.5"), UnitPrice: decimal.RequireFromString("62.50")},
		},
	}, seedActor)
	if err != nil {
		return fmt.Errorf("seed quote: %w", err)
	}

	approved := domain.QuoteApproved
	if _, err := svc.Quotes.Update(ctx, quote.ID, domain.QuotePatch{Status: &approved}, seedActor); err != nil {
		return fmt.Errorf("approve quote: %w", err)
	}
	job, err := svc.Quotes.ConvertToJob(ctx, quote.ID, seedActor)
	if err != nil {
		return fmt.Errorf("convert quote: %w", err)
	}

	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
	end := start.Add(2 * time.Hour)
	visit := domain.CreateVisitInput{
		JobID:          job.ID,
		Title:          "Replace capacitor and verify cooler temperature",
		ScheduleType:   domain.ScheduleFixed,
		ScheduledStart: &start,
		ScheduledEnd:   &end,
	}
	if len(techIDs) > 0 {
		visit.TechnicianIDs = techIDs[:1]
	}
	if _, err := svc.Visits.Create(ctx, visit, seedActor); err != nil {
		return fmt.Errorf("seed visit: %w", err)
	}

	jobID := job.ID
	if _, err := svc.Notes.Create(ctx, domain.CreateNoteInput{
		JobID:   &jobID,
		Content: "Side door code 4471. Cooler is at the back of the kitchen.",
	}, seedActor); err != nil {
		return fmt.Errorf("seed note: %w", err)
	}

	logger.Info("demo scenario seeded",
		zap.String("client_id", client.ID),
		zap.String("job_number", job.JobNumber),
	)
	return nil
}

func writeTokens(cfg middleware.JWTConfig, techIDs []string) error {
	token, exp, err := middleware.GenerateToken(cfg, "", seedDispatcherID, "Demo Dispatcher")
	if err != nil {
		return fmt.Errorf("issue dispatcher token: %w", err)
	}
	fmt.Printf("dispatcher %s (expires %s)\n  %s\n", seedDispatcherID, exp.Format(time.RFC3339), token)
	for _, id := range techIDs {
		token, exp, err := middleware.GenerateToken(cfg, id, "", "")
		if err != nil {
			return fmt.Errorf("issue technician token: %w", err)
		}
		fmt.Printf("technician %s (expires %s)\n  %s\n", id, exp.Format(time.RFC3339), token)
	}
	return nil
}
