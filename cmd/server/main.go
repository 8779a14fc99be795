package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	larksdk "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/hokusei/nippo/internal/application/port"
	"github.com/hokusei/nippo/internal/application/service"
	"github.com/hokusei/nippo/internal/config"
	"github.com/hokusei/nippo/internal/domain/entity"
	"github.com/hokusei/nippo/internal/domain/session"
	"github.com/hokusei/nippo/internal/infrastructure/external/lark"
	"github.com/hokusei/nippo/internal/infrastructure/persistence/repository"
	"github.com/hokusei/nippo/internal/infrastructure/sheetstore/excel"
	httpiface "github.com/hokusei/nippo/internal/interfaces/http"
	"github.com/hokusei/nippo/internal/sheets"
	"github.com/hokusei/nippo/pkg/database"
	"github.com/hokusei/nippo/pkg/utils"
)

func main() {
	// Credentials land in the environment before viper reads it
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting daily report service",
		zap.String("version", "1.0.0"),
		zap.String("backend", cfg.Sheets.Backend),
		zap.Int("port", cfg.Server.Port))

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		logger.Fatal("Failed to create data directory", zap.Error(err))
	}

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	submissionRepo := repository.NewSubmissionRepository(db.DB, logger)

	departments := entity.DefaultDepartments()
	targets, err := buildTargets(cfg, departments, logger)
	if err != nil {
		logger.Fatal("Failed to build sheet targets", zap.Error(err))
	}

	writer := sheets.NewWriter(logger)
	formService := service.NewFormService(targets, writer, submissionRepo, logger)
	sessions := session.NewManager(logger)

	server := httpiface.NewServer(httpiface.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, departments, sessions, formService, submissionRepo, utils.NewKVLogger(logger))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

// buildTargets wires every configured department to its sheet store. With the
// lark backend all departments share one SDK client and its token cache.
func buildTargets(cfg *config.Config, departments map[string]entity.Department, logger *zap.Logger) (map[string]service.DeptTarget, error) {
	var client *larksdk.Client
	if cfg.Sheets.Backend == "lark" {
		client = larksdk.NewClient(cfg.Lark.AppID, cfg.Lark.AppSecret,
			larksdk.WithLogLevel(larkcore.LogLevelInfo),
			larksdk.WithEnableTokenCache(true),
			larksdk.WithReqTimeout(cfg.Lark.APITimeout),
		)
	}

	targets := make(map[string]service.DeptTarget, len(cfg.Sheets.Departments))
	for code, deptCfg := range cfg.Sheets.Departments {
		if _, ok := departments[code]; !ok {
			return nil, fmt.Errorf("configured department %q has no catalogue", code)
		}

		sheetIDs := make(map[port.Destination]string, len(deptCfg.Sheets))
		for dest, id := range deptCfg.Sheets {
			sheetIDs[port.Destination(dest)] = id
		}

		var store port.SheetStore
		switch cfg.Sheets.Backend {
		case "lark":
			store = lark.NewSheetStoreWithClient(client, deptCfg.SpreadsheetToken, sheetIDs, logger)
		case "excel":
			if err := os.MkdirAll(cfg.Sheets.ExcelDir, 0755); err != nil {
				return nil, fmt.Errorf("create workbook directory: %w", err)
			}
			path := filepath.Join(cfg.Sheets.ExcelDir, code+".xlsx")
			store = excel.NewStore(path, sheetIDs, logger)
		default:
			return nil, fmt.Errorf("unsupported sheets backend %q", cfg.Sheets.Backend)
		}

		targets[code] = service.DeptTarget{
			Store: store,
			Mode:  sheets.SummaryMode(deptCfg.SummaryMode),
		}
	}

	return targets, nil
}
