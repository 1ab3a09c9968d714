package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oktaamyid/oktaa-links/internal/models"
	"github.com/oktaamyid/oktaa-links/internal/repository"
	"go.uber.org/zap"
)

// Константы worker pool
const (
	defaultWorkerCount   = 3    // Количество воркеров
	defaultChannelBuffer = 1000 // Размер буфера канала
	maxRetries           = 3    // Максимальное количество попыток записи
)

// VisitProcessor асинхронно применяет инкременты визитов к счётчикам ссылок
type VisitProcessor interface {
	Start()
	Stop()
	Enqueue(ctx context.Context, event *models.VisitEvent) error
}

// visitProcessor реализация на Worker Pool: обработчик редиректа кладёт
// событие в канал и отвечает, не дожидаясь записи счётчиков
type visitProcessor struct {
	linkRepo     repository.LinkRepository
	logger       *zap.Logger
	visitChannel chan *models.VisitEvent
	workerCount  int
	wg           sync.WaitGroup
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewVisitProcessor создаёт новый процессор визитов
func NewVisitProcessor(linkRepo repository.LinkRepository, logger *zap.Logger) VisitProcessor {
	return &visitProcessor{
		linkRepo:     linkRepo,
		logger:       logger,
		visitChannel: make(chan *models.VisitEvent, defaultChannelBuffer),
		workerCount:  defaultWorkerCount,
	}
}

// Start запускает worker pool
func (p *visitProcessor) Start() {
	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.logger.Info("Запуск воркеров процессора визитов", zap.Int("count", p.workerCount))

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop корректно останавливает worker pool
func (p *visitProcessor) Stop() {
	p.logger.Info("Остановка процессора визитов...")
	p.cancel()
	p.wg.Wait()
	p.logger.Info("Процессор визитов остановлен")
}

// worker обрабатывает события визитов из канала
func (p *visitProcessor) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("Воркер визитов запущен", zap.Int("id", id))

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Debug("Воркер визитов остановлен", zap.Int("id", id))
			return

		case event, ok := <-p.visitChannel:
			if !ok {
				return
			}
			p.processVisit(event)
		}
	}
}

// processVisit применяет инкременты одного визита с retry логикой
func (p *visitProcessor) processVisit(event *models.VisitEvent) {
	ctx, cancel := context.WithTimeout(p.ctx, 5*time.Second)
	defer cancel()

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if lastErr = p.linkRepo.ApplyVisit(ctx, event.ShortCode, event.Visit); lastErr == nil {
			return
		}
		// Ссылка удалена между резолвом и записью - визит просто пропадает
		if errors.Is(lastErr, repository.ErrLinkNotFound) {
			p.logger.Warn("Ссылка исчезла до записи визита",
				zap.String("short_code", event.ShortCode),
			)
			return
		}
		if i < maxRetries-1 {
			p.logger.Debug("Повторная попытка записи визита",
				zap.String("short_code", event.ShortCode),
				zap.Int("attempt", i+1),
				zap.Error(lastErr),
			)
			time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
		}
	}

	p.logger.Error("Не удалось записать визит после всех попыток",
		zap.String("short_code", event.ShortCode),
		zap.Error(lastErr),
	)
}

// Enqueue отправляет событие визита в worker pool (неблокирующая операция).
// Переполнение буфера не ошибка для вызывающего: визит теряется, редирект
// не блокируется
func (p *visitProcessor) Enqueue(ctx context.Context, event *models.VisitEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case p.visitChannel <- event:
		return nil
	default:
		p.logger.Warn("Буфер канала визитов заполнен, событие потеряно",
			zap.String("short_code", event.ShortCode),
		)
		return nil
	}
}
