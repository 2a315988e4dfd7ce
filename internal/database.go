package internal

import (
	"fmt"

	"signhub/internal/config"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB(cfg *config.Config) error {
	dsn := cfg.Database.DSN()

	var err error
	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := autoMigrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	fmt.Println("Database connected and migrated successfully")
	return nil
}

func autoMigrate() error {
	fmt.Println("Creating documents table if not exists...")
	result := DB.Exec(`
        CREATE TABLE IF NOT EXISTS documents (
            id varchar(191) PRIMARY KEY,
            user_id varchar(191) NOT NULL,
            file_name longtext NOT NULL,
            original_name longtext,
            gcs_path longtext NOT NULL,
            file_url longtext,
            file_size bigint,
            mime_type longtext,
            signed_file_name longtext,
            signed_gcs_path longtext,
            created_at datetime(3) NULL,
            updated_at datetime(3) NULL,
            deleted_at datetime(3) NULL,
            INDEX idx_documents_user_id (user_id),
            INDEX idx_documents_deleted_at (deleted_at)
        )
    `)
	if result.Error != nil {
		return fmt.Errorf("failed to create documents table: %w", result.Error)
	}

	ensureDocumentColumns := map[string]string{
		"original_name":    "ALTER TABLE documents ADD COLUMN original_name longtext",
		"file_url":         "ALTER TABLE documents ADD COLUMN file_url longtext",
		"file_size":        "ALTER TABLE documents ADD COLUMN file_size bigint",
		"mime_type":        "ALTER TABLE documents ADD COLUMN mime_type longtext",
		"signed_file_name": "ALTER TABLE documents ADD COLUMN signed_file_name longtext",
		"signed_gcs_path":  "ALTER TABLE documents ADD COLUMN signed_gcs_path longtext",
	}

	for column, stmt := range ensureDocumentColumns {
		if err := ensureColumn("documents", column, stmt); err != nil {
			return err
		}
	}

	fmt.Println("Creating signatures table if not exists...")
	result = DB.Exec(`
        CREATE TABLE IF NOT EXISTS signatures (
            id varchar(191) PRIMARY KEY,
            document_id varchar(191) NOT NULL,
            page_number int NOT NULL DEFAULT 1,
            x double NOT NULL DEFAULT 0,
            y double NOT NULL DEFAULT 0,
            width double,
            height double,
            type varchar(16) NOT NULL,
            name longtext,
            font longtext,
            color varchar(20),
            signature_url longtext,
            locked tinyint(1) DEFAULT 0,
            created_at datetime(3) NULL,
            updated_at datetime(3) NULL,
            deleted_at datetime(3) NULL,
            INDEX idx_signatures_document_id (document_id),
            INDEX idx_signatures_deleted_at (deleted_at)
        )
    `)
	if result.Error != nil {
		return fmt.Errorf("failed to create signatures table: %w", result.Error)
	}

	ensureSignatureColumns := map[string]string{
		"width":         "ALTER TABLE signatures ADD COLUMN width double",
		"height":        "ALTER TABLE signatures ADD COLUMN height double",
		"name":          "ALTER TABLE signatures ADD COLUMN name longtext",
		"font":          "ALTER TABLE signatures ADD COLUMN font longtext",
		"color":         "ALTER TABLE signatures ADD COLUMN color varchar(20)",
		"signature_url": "ALTER TABLE signatures ADD COLUMN signature_url longtext",
		"locked":        "ALTER TABLE signatures ADD COLUMN locked tinyint(1) DEFAULT 0",
	}

	for column, stmt := range ensureSignatureColumns {
		if err := ensureColumn("signatures", column, stmt); err != nil {
			return err
		}
	}

	fmt.Println("Creating activity_logs table if not exists...")
	result = DB.Exec(`
        CREATE TABLE IF NOT EXISTS activity_logs (
            id varchar(191) PRIMARY KEY,
            method varchar(10) NOT NULL,
            path varchar(255) NOT NULL,
            user_agent text,
            ip_address varchar(45),
            query_params text,
            status_code int NOT NULL,
            response_time bigint NOT NULL,
            created_at datetime(3) NULL,
            updated_at datetime(3) NULL,
            deleted_at datetime(3) NULL,
            INDEX idx_activity_logs_deleted_at (deleted_at),
            INDEX idx_activity_logs_path (path),
            INDEX idx_activity_logs_created_at (created_at)
        )
    `)
	if result.Error != nil {
		return fmt.Errorf("failed to create activity_logs table: %w", result.Error)
	}

	fmt.Println("Tables created/verified successfully")
	return nil
}

func ensureColumn(table, column, statement string) error {
	if DB.Migrator().HasColumn(table, column) {
		return nil
	}

	fmt.Printf("Adding missing column %s.%s...\n", table, column)
	if err := DB.Exec(statement).Error; err != nil {
		return fmt.Errorf("failed to add column %s.%s: %w", table, column, err)
	}

	return nil
}

func CloseDB() error {
	if DB != nil {
		sqlDB, err := DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
