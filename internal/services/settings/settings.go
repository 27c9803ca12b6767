// Package settings реализует бизнес-логику настроек модуля: чтение и
// сохранение единственной строки настроек и очистку данных при
// деинсталляции.
package settings

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mtuszynski/magazine-subscription/internal/models"
)

// Repository определяет методы хранилища настроек.
type Repository interface {
	GetSettings(ctx context.Context) (*models.Settings, error)
	SaveSettings(ctx context.Context, settings models.Settings) error
	DeleteAllData(ctx context.Context) error
}

// Service реализует операции над настройками модуля.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

// Get возвращает настройки модуля, nil — пока они не сохранялись.
func (s *Service) Get(ctx context.Context) (*models.Settings, error) {
	return s.repo.GetSettings(ctx)
}

// Save сохраняет настройки, создавая строку при первом сохранении.
func (s *Service) Save(ctx context.Context, req models.DummySettings) (*models.Settings, error) {
	const op = "settings.Save"

	settings := models.Settings{
		ID:                    models.SettingsID,
		CategoryID:            req.CategoryID,
		DeleteDataOnUninstall: req.DeleteDataOnUninstall,
	}
	if err := s.repo.SaveSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("settings saved", slog.Int("category_id", settings.CategoryID))
	return &settings, nil
}

// Uninstall очищает данные модуля, если в настройках включено удаление.
// Возвращает true, когда данные были удалены.
func (s *Service) Uninstall(ctx context.Context) (bool, error) {
	const op = "settings.Uninstall"

	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if settings == nil || !settings.DeleteDataOnUninstall {
		return false, nil
	}
	if err := s.repo.DeleteAllData(ctx); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("module data deleted on uninstall")
	return true, nil
}
