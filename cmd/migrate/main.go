// cmd/migrate/main.go
// Applies the database schema.
package main

import (
	"go.uber.org/zap"

	"github.com/lilyxseo/HematWoi-sub009/internal/config"
	"github.com/lilyxseo/HematWoi-sub009/internal/models"
	"github.com/lilyxseo/HematWoi-sub009/pkg/database"
	"github.com/lilyxseo/HematWoi-sub009/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.NewLogger("hematwoi-migrate")
	defer log.Sync()

	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Order matters: debt_payments references debts.
	schemas := []struct {
		name string
		ddl  string
	}{
		{"accounts", models.AccountSchema},
		{"debts", models.DebtSchema},
		{"transactions", models.TransactionSchema},
		{"debt_payments", models.DebtPaymentSchema},
	}

	for _, s := range schemas {
		if _, err := db.Exec(s.ddl); err != nil {
			log.Fatal("migration failed", zap.String("table", s.name), zap.Error(err))
		}
		log.Info("schema applied", zap.String("table", s.name))
	}

	log.Info("migrations complete")
}
