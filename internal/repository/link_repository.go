package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oktaamyid/oktaa-links/internal/models"
)

var (
	ErrLinkNotFound = errors.New("link not found")
	ErrCodeExists   = errors.New("short code already exists")
)

const linkColumns = `
	id, short_code, original_url, name_url, description, category, price,
	show_to_portal, use_multiple, multiple_urls,
	show_confirmation_page, confirmation_message,
	clicks, created_at, updated_at
`

type LinkRepository interface {
	Create(ctx context.Context, link *models.Link) error
	GetByShortCode(ctx context.Context, code string) (*models.Link, error)
	Update(ctx context.Context, link *models.Link) error
	Delete(ctx context.Context, code string) error
	CodeTaken(ctx context.Context, code string, excludeID int64) (bool, error)
	ListWithStats(ctx context.Context) ([]models.Link, error)
	ApplyVisit(ctx context.Context, code string, visit models.Visit) error
}

type linkRepository struct {
	db *PostgresDB
}

func NewLinkRepository(db *PostgresDB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(ctx context.Context, link *models.Link) error {
	query := `
		INSERT INTO links (
			short_code, original_url, name_url, description, category, price,
			show_to_portal, use_multiple, multiple_urls,
			show_confirmation_page, confirmation_message
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(
		ctx,
		query,
		link.ShortCode,
		link.OriginalURL,
		link.NameURL,
		link.Description,
		link.Category,
		link.Price,
		link.ShowToPortal,
		link.UseMultiple,
		link.MultipleURLs,
		link.ShowConfirmationPage,
		link.ConfirmationPageSettings.CustomMessage,
	).Scan(&link.ID, &link.CreatedAt, &link.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrCodeExists
		}
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

func (r *linkRepository) GetByShortCode(ctx context.Context, code string) (*models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE short_code = $1`

	link, err := scanLink(r.db.Pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return link, nil
}

func (r *linkRepository) Update(ctx context.Context, link *models.Link) error {
	query := `
		UPDATE links SET
			short_code = $2, original_url = $3, name_url = $4, description = $5,
			category = $6, price = $7, show_to_portal = $8, use_multiple = $9,
			multiple_urls = $10, show_confirmation_page = $11,
			confirmation_message = $12, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.Pool.QueryRow(
		ctx,
		query,
		link.ID,
		link.ShortCode,
		link.OriginalURL,
		link.NameURL,
		link.Description,
		link.Category,
		link.Price,
		link.ShowToPortal,
		link.UseMultiple,
		link.MultipleURLs,
		link.ShowConfirmationPage,
		link.ConfirmationPageSettings.CustomMessage,
	).Scan(&link.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLinkNotFound
		}
		if isUniqueViolation(err) {
			return ErrCodeExists
		}
		return fmt.Errorf("failed to update link: %w", err)
	}

	return nil
}

func (r *linkRepository) Delete(ctx context.Context, code string) error {
	query := `DELETE FROM links WHERE short_code = $1`

	result, err := r.db.Pool.Exec(ctx, query, code)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrLinkNotFound
	}

	return nil
}

// CodeTaken проверяет занятость короткого кода. excludeID исключает из
// проверки собственную запись редактируемой ссылки, чтобы обновление без
// смены кода не считалось конфликтом
func (r *linkRepository) CodeTaken(ctx context.Context, code string, excludeID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM links WHERE short_code = $1 AND id <> $2)`

	var taken bool
	if err := r.db.Pool.QueryRow(ctx, query, code, excludeID).Scan(&taken); err != nil {
		return false, fmt.Errorf("failed to check short code: %w", err)
	}

	return taken, nil
}

// ListWithStats возвращает все ссылки вместе с картами измерений.
// Используется дашбордом и сводной аналитикой
func (r *linkRepository) ListWithStats(ctx context.Context) ([]models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links ORDER BY created_at`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	var links []models.Link
	index := make(map[int64]int)
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		index[link.ID] = len(links)
		links = append(links, *link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}

	statRows, err := r.db.Pool.Query(ctx,
		`SELECT link_id, dimension, key, count FROM link_stats`)
	if err != nil {
		return nil, fmt.Errorf("failed to load link stats: %w", err)
	}
	defer statRows.Close()

	for statRows.Next() {
		var (
			linkID    int64
			dimension string
			key       string
			count     int64
		)
		if err := statRows.Scan(&linkID, &dimension, &key, &count); err != nil {
			return nil, fmt.Errorf("failed to scan link stat: %w", err)
		}
		i, ok := index[linkID]
		if !ok {
			continue
		}
		setStat(&links[i], dimension, key, count)
	}
	if err := statRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating link stats: %w", err)
	}

	return links, nil
}

// ApplyVisit применяет пять инкрементов одного визита как независимые
// коммутативные сложения: конкурентные визиты никогда не затирают друг друга
func (r *linkRepository) ApplyVisit(ctx context.Context, code string, visit models.Visit) error {
	var linkID int64
	err := r.db.Pool.QueryRow(ctx,
		`UPDATE links SET clicks = clicks + 1 WHERE short_code = $1 RETURNING id`,
		code,
	).Scan(&linkID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLinkNotFound
		}
		return fmt.Errorf("failed to increment clicks: %w", err)
	}

	upsert := `
		INSERT INTO link_stats (link_id, dimension, key, count)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (link_id, dimension, key) DO UPDATE SET count = link_stats.count + 1
	`

	batch := &pgx.Batch{}
	batch.Queue(upsert, linkID, models.DimensionDevice, visit.DeviceCategory)
	batch.Queue(upsert, linkID, models.DimensionBrowser, visit.BrowserName)
	batch.Queue(upsert, linkID, models.DimensionGeo, visit.Location)
	batch.Queue(upsert, linkID, models.DimensionReferer, visit.Referer)

	results := r.db.Pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < 4; i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to increment stat counters: %w", err)
		}
	}

	return nil
}

// scanLink читает одну строку links в модель
func scanLink(row pgx.Row) (*models.Link, error) {
	link := &models.Link{}
	err := row.Scan(
		&link.ID,
		&link.ShortCode,
		&link.OriginalURL,
		&link.NameURL,
		&link.Description,
		&link.Category,
		&link.Price,
		&link.ShowToPortal,
		&link.UseMultiple,
		&link.MultipleURLs,
		&link.ShowConfirmationPage,
		&link.ConfirmationPageSettings.CustomMessage,
		&link.Clicks,
		&link.CreatedAt,
		&link.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return link, nil
}

func setStat(link *models.Link, dimension, key string, count int64) {
	switch dimension {
	case models.DimensionDevice:
		if link.DeviceStats == nil {
			link.DeviceStats = make(map[string]int64)
		}
		link.DeviceStats[key] = count
	case models.DimensionBrowser:
		if link.BrowserStats == nil {
			link.BrowserStats = make(map[string]int64)
		}
		link.BrowserStats[key] = count
	case models.DimensionGeo:
		if link.GeoStats == nil {
			link.GeoStats = make(map[string]int64)
		}
		link.GeoStats[key] = count
	case models.DimensionReferer:
		if link.RefererStats == nil {
			link.RefererStats = make(map[string]int64)
		}
		link.RefererStats[key] = count
	}
}

// Проверка на нарушение уникальности (короткий код занят)
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
