package service

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"tg-warden/internal/config"
	"tg-warden/internal/models"
	"tg-warden/internal/storage"
)

// Services bundles the moderation services, built once during
// composition.
type Services struct {
	Warns    *WarnService
	Filters  *FilterService
	Gbans    *GbanService
	Reports  *ReportService
	Disables *DisableService
	Chats    *ChatService
	Metrics  *Metrics
}

// NewServices migrates the schema, builds the repositories and wires
// the services together.
func NewServices(db *gorm.DB, platform Platform, modCfg *config.ModerationConfig, registry *CommandRegistry, promReg prometheus.Registerer) (*Services, error) {
	warnRepo := storage.NewWarnRepository(db, modCfg.DefaultWarnLimit, modCfg.DefaultSoftWarn)
	filterRepo := storage.NewFilterRepository(db)
	gbanRepo := storage.NewGbanRepository(db)
	chatRepo := storage.NewChatRepository(db)
	settingsRepo := storage.NewSettingsRepository(db)

	for name, migrate := range map[string]func() error{
		"warns":    warnRepo.MigrateTable,
		"filters":  filterRepo.MigrateTable,
		"gbans":    gbanRepo.MigrateTable,
		"chats":    chatRepo.MigrateTable,
		"settings": settingsRepo.MigrateTable,
	} {
		if err := migrate(); err != nil {
			return nil, fmt.Errorf("migrating %s tables: %w", name, err)
		}
	}

	var metrics *Metrics
	if promReg != nil {
		metrics = NewMetrics(promReg, warnRepo, filterRepo, gbanRepo)
	}

	warns := NewWarnService(warnRepo, platform, metrics)
	filters, err := NewFilterService(filterRepo, warns)
	if err != nil {
		return nil, fmt.Errorf("building filter service: %w", err)
	}
	gbans := NewGbanService(gbanRepo, chatRepo, platform, modCfg, metrics)
	reports := NewReportService(settingsRepo, platform, metrics)
	disables := NewDisableService(settingsRepo, registry)

	cache := models.NewChatInfoManager()
	chats := NewChatService(chatRepo, warnRepo, filterRepo, gbanRepo, settingsRepo, cache, platform)

	return &Services{
		Warns:    warns,
		Filters:  filters,
		Gbans:    gbans,
		Reports:  reports,
		Disables: disables,
		Chats:    chats,
		Metrics:  metrics,
	}, nil
}
