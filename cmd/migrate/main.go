package main

import (
	"log"
	"os"

	"rag-knowledge-be/internal/model"
	"rag-knowledge-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	color.Cyan("Starting GORM migration...")

	// 3. AutoMigrate All Models
	models := []interface{}{
		&model.User{},
		&model.KnowledgeBase{},
		&model.Document{},
		&model.ModelConfig{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 4. Post-Migration: updated_at trigger function shared by all tables
	postMigrationSQL := []string{
		`CREATE OR REPLACE FUNCTION set_current_timestamp_updated_at() RETURNS trigger LANGUAGE plpgsql AS $$
		DECLARE _new_value TIMESTAMP WITH TIME ZONE;
		BEGIN
		  _new_value := now();
		  IF NEW.updated_at IS DISTINCT FROM _new_value THEN NEW.updated_at = _new_value; END IF;
		  RETURN NEW;
		END; $$;`,

		`DROP TRIGGER IF EXISTS set_documents_updated_at ON documents;
		 CREATE TRIGGER set_documents_updated_at BEFORE UPDATE ON documents
		 FOR EACH ROW EXECUTE FUNCTION set_current_timestamp_updated_at();`,

		`DROP TRIGGER IF EXISTS set_knowledge_bases_updated_at ON knowledge_bases;
		 CREATE TRIGGER set_knowledge_bases_updated_at BEFORE UPDATE ON knowledge_bases
		 FOR EACH ROW EXECUTE FUNCTION set_current_timestamp_updated_at();`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			color.Yellow("Warn: Failed to execute post-migration SQL: %v. Continuing...", err)
		}
	}

	color.Green("Migration completed: %d tables", len(models))
}
