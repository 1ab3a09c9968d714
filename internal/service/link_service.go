package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/oktaamyid/oktaa-links/internal/models"
	"github.com/oktaamyid/oktaa-links/internal/repository"
	"go.uber.org/zap"
)

// Ошибки сервиса
var (
	ErrMissingOriginalURL = errors.New("originalUrl is required")
	ErrMissingShortCode   = errors.New("shortUrl is required")
	ErrInvalidURL         = errors.New("invalid URL format")
	ErrInvalidCode        = errors.New("invalid short code")
	ErrCodeTaken          = errors.New("short code already taken")
	ErrLinkNotFound       = repository.ErrLinkNotFound
)

// Константы сервиса
const (
	cacheTTL      = 24 * time.Hour
	maxCodeLength = 64
)

var (
	urlPattern  = regexp.MustCompile(`^https?://[^\s]+$`)
	codePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// LinkService интерфейс сервиса ссылок
type LinkService interface {
	CreateLink(ctx context.Context, input *models.CreateLinkInput) (*models.Link, error)
	UpdateLink(ctx context.Context, code string, input *models.UpdateLinkInput) (*models.Link, error)
	DeleteLink(ctx context.Context, code string) error
	GetLink(ctx context.Context, code string) (*models.Link, error)
	ListLinks(ctx context.Context) ([]models.Link, error)
	Resolve(ctx context.Context, code string, meta models.RequestMeta) (*models.Resolution, error)
}

// linkService реализация сервиса ссылок
type linkService struct {
	linkRepo   repository.LinkRepository
	cacheRepo  repository.CacheRepository
	classifier VisitClassifier
	visits     VisitProcessor
	logger     *zap.Logger
}

// NewLinkService создаёт новый экземпляр сервиса
func NewLinkService(
	linkRepo repository.LinkRepository,
	cacheRepo repository.CacheRepository,
	classifier VisitClassifier,
	visits VisitProcessor,
	logger *zap.Logger,
) LinkService {
	return &linkService{
		linkRepo:   linkRepo,
		cacheRepo:  cacheRepo,
		classifier: classifier,
		visits:     visits,
		logger:     logger,
	}
}

// Resolve ищет ссылку по короткому коду и сливает разрешение со счётчиком
// кликов: ровно одна партия инкрементов на успешный вызов. Запись счётчиков
// уходит в worker pool и никогда не блокирует и не валит ответ
func (s *linkService) Resolve(ctx context.Context, code string, meta models.RequestMeta) (*models.Resolution, error) {
	link, err := s.GetLink(ctx, code)
	if err != nil {
		return nil, err
	}

	visit := s.classifier.Classify(meta)
	if err := s.visits.Enqueue(ctx, &models.VisitEvent{ShortCode: code, Visit: visit}); err != nil {
		// Клиент ушёл до постановки в очередь - визит отбрасывается
		s.logger.Warn("Визит не поставлен в очередь",
			zap.String("short_code", code),
			zap.Error(err),
		)
	}

	return &models.Resolution{
		OriginalURL:              link.OriginalURL,
		ShowConfirmationPage:     link.ShowConfirmationPage,
		ConfirmationPageSettings: link.ConfirmationPageSettings,
	}, nil
}

// CreateLink создаёт новую короткую ссылку
func (s *linkService) CreateLink(ctx context.Context, input *models.CreateLinkInput) (*models.Link, error) {
	if input.OriginalURL == "" {
		return nil, ErrMissingOriginalURL
	}
	if input.ShortCode == "" {
		return nil, ErrMissingShortCode
	}
	if !urlPattern.MatchString(input.OriginalURL) {
		return nil, ErrInvalidURL
	}
	if err := validateCode(input.ShortCode); err != nil {
		return nil, err
	}

	// Предварительная проверка занятости кода. Гонку check-then-write она
	// только сужает; окончательно конфликт ловит уникальный индекс при записи
	taken, err := s.linkRepo.CodeTaken(ctx, input.ShortCode, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to check short code: %w", err)
	}
	if taken {
		return nil, ErrCodeTaken
	}

	link := &models.Link{
		ShortCode:            input.ShortCode,
		OriginalURL:          input.OriginalURL,
		ShowConfirmationPage: input.ShowConfirmationPage,
	}
	if input.ConfirmationPageSettings != nil {
		link.ConfirmationPageSettings = *input.ConfirmationPageSettings
	}

	if err := s.linkRepo.Create(ctx, link); err != nil {
		if errors.Is(err, repository.ErrCodeExists) {
			return nil, ErrCodeTaken
		}
		return nil, err
	}

	// Кэширование: ошибка кэша не прерывает создание
	if err := s.cacheRepo.Set(ctx, link.ShortCode, link, cacheTTL); err != nil {
		s.logger.Warn("Не удалось закэшировать ссылку", zap.Error(err))
	}

	return link, nil
}

// UpdateLink обновляет поля ссылки из дашборда. Смена короткого кода
// проходит ту же проверку занятости, исключая собственную запись
func (s *linkService) UpdateLink(ctx context.Context, code string, input *models.UpdateLinkInput) (*models.Link, error) {
	link, err := s.linkRepo.GetByShortCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if input.ShortCode != nil && *input.ShortCode != link.ShortCode {
		if err := validateCode(*input.ShortCode); err != nil {
			return nil, err
		}
		taken, err := s.linkRepo.CodeTaken(ctx, *input.ShortCode, link.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check short code: %w", err)
		}
		if taken {
			return nil, ErrCodeTaken
		}
		link.ShortCode = *input.ShortCode
	}
	if input.OriginalURL != nil {
		if !urlPattern.MatchString(*input.OriginalURL) {
			return nil, ErrInvalidURL
		}
		link.OriginalURL = *input.OriginalURL
	}
	if input.NameURL != nil {
		link.NameURL = *input.NameURL
	}
	if input.Description != nil {
		link.Description = *input.Description
	}
	if input.Category != nil {
		link.Category = *input.Category
	}
	if input.Price != nil {
		link.Price = input.Price
	}
	if input.ShowToPortal != nil {
		link.ShowToPortal = *input.ShowToPortal
	}
	if input.UseMultiple != nil {
		link.UseMultiple = *input.UseMultiple
	}
	if input.MultipleURLs != nil {
		link.MultipleURLs = input.MultipleURLs
	}
	if input.ShowConfirmationPage != nil {
		link.ShowConfirmationPage = *input.ShowConfirmationPage
	}
	if input.ConfirmationPageSettings != nil {
		link.ConfirmationPageSettings = *input.ConfirmationPageSettings
	}

	if err := s.linkRepo.Update(ctx, link); err != nil {
		if errors.Is(err, repository.ErrCodeExists) {
			return nil, ErrCodeTaken
		}
		return nil, err
	}

	// Инвалидация кэша по старому и новому коду. Неудачная инвалидация
	// отдаёт устаревшую ссылку до конца TTL, поэтому её видно в логах
	s.invalidateCache(ctx, code)
	if link.ShortCode != code {
		s.invalidateCache(ctx, link.ShortCode)
	}

	return link, nil
}

// DeleteLink удаляет ссылку по короткому коду
func (s *linkService) DeleteLink(ctx context.Context, code string) error {
	// Сначала кэш, затем БД
	s.invalidateCache(ctx, code)
	return s.linkRepo.Delete(ctx, code)
}

func (s *linkService) invalidateCache(ctx context.Context, code string) {
	if err := s.cacheRepo.Delete(ctx, code); err != nil {
		s.logger.Warn("Не удалось инвалидировать кэш ссылки",
			zap.String("short_code", code),
			zap.Error(err),
		)
	}
}

// GetLink получает ссылку по короткому коду (сначала из кэша, затем из БД)
func (s *linkService) GetLink(ctx context.Context, code string) (*models.Link, error) {
	link, err := s.cacheRepo.Get(ctx, code)
	if err == nil {
		return link, nil
	}

	link, err = s.linkRepo.GetByShortCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := s.cacheRepo.Set(ctx, code, link, cacheTTL); err != nil {
		s.logger.Warn("Не удалось закэшировать ссылку", zap.Error(err))
	}

	return link, nil
}

// ListLinks возвращает все ссылки с картами измерений для дашборда
func (s *linkService) ListLinks(ctx context.Context) ([]models.Link, error) {
	return s.linkRepo.ListWithStats(ctx)
}

// validateCode проверяет формат пользовательского кода
func validateCode(code string) error {
	if len(code) == 0 || len(code) > maxCodeLength {
		return ErrInvalidCode
	}
	if !codePattern.MatchString(code) {
		return ErrInvalidCode
	}
	return nil
}
