package backend

import (
	"fmt"

	"orderboard/internal/config"
)

// Config holds configuration for target creation
type Config struct {
	// Run ledger; empty disables it
	SQLiteDBPath string

	// AMQP; empty URL disables run events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Spreadsheet target
	Sheets                   SheetsType
	GoogleSpreadsheetID      string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	sheetsType := NoSheets
	if appConfig.SheetsEnabled() {
		sheetsType = GoogleSheets
	}

	return Config{
		SQLiteDBPath: appConfig.SQLiteDBPath,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		Sheets:                   sheetsType,
		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Sheets.IsValid() {
		return fmt.Errorf("invalid sheets target: %s", c.Sheets)
	}

	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return fmt.Errorf("AMQP exchange and queue are required when AMQP URL is set")
	}

	if c.Sheets == GoogleSheets {
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for the google sheets target")
		}
		if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
			return fmt.Errorf("either GoogleServiceAccountFile or GoogleServiceAccountJSON must be provided for the google sheets target")
		}
	}

	return nil
}
