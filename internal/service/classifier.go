package service

import (
	"net/url"
	"strings"

	ua "github.com/mileusna/useragent"
	"github.com/oktaamyid/oktaa-links/internal/geo"
	"github.com/oktaamyid/oktaa-links/internal/models"
	"go.uber.org/zap"
)

// VisitClassifier выводит измерения визита из сырых метаданных запроса
type VisitClassifier interface {
	Classify(meta models.RequestMeta) models.Visit
}

// visitClassifier классификация не делает I/O кроме инжектированного
// geo-резолвера и целиком никогда не падает: каждое измерение деградирует
// до своего сентинела независимо
type visitClassifier struct {
	geo        geo.Resolver
	fallbackIP string
	logger     *zap.Logger
}

func NewVisitClassifier(geoResolver geo.Resolver, fallbackIP string, logger *zap.Logger) VisitClassifier {
	return &visitClassifier{
		geo:        geoResolver,
		fallbackIP: fallbackIP,
		logger:     logger,
	}
}

func (c *visitClassifier) Classify(meta models.RequestMeta) models.Visit {
	parsed := ua.Parse(meta.UserAgent)

	return models.Visit{
		DeviceCategory: deviceCategory(parsed),
		BrowserName:    browserName(parsed),
		Location:       c.location(meta),
		Referer:        refererKey(meta.Referer),
	}
}

// deviceCategory трёхкорзинная эвристика по строке ОС: "mobile" -> Mobile,
// "tablet" -> Tablet, иначе Desktop. Парсеры Go называют мобильные ОС без
// слова "mobile" (напр. "Android"), поэтому проверка подстроки дополнена
// флагами парсера; корзины и их порядок не меняются
func deviceCategory(parsed ua.UserAgent) string {
	os := strings.ToLower(parsed.OS)
	switch {
	case strings.Contains(os, "mobile") || parsed.Mobile:
		return models.DeviceMobile
	case strings.Contains(os, "tablet") || parsed.Tablet:
		return models.DeviceTablet
	default:
		return models.DeviceDesktop
	}
}

func browserName(parsed ua.UserAgent) string {
	if parsed.Name == "" {
		return models.BrowserUnknown
	}
	return parsed.Name
}

// location берёт первый адрес из X-Forwarded-For (ближайший к источнику
// hop), при его отсутствии - сконфигурированный fallback. Ошибки geo-поиска
// деградируют до "Unknown" и не прерывают классификацию
func (c *visitClassifier) location(meta models.RequestMeta) string {
	ip := clientIP(meta, c.fallbackIP)

	loc, err := c.geo.Lookup(ip)
	if err != nil {
		c.logger.Debug("Geo lookup degraded",
			zap.String("ip", ip),
			zap.Error(err),
		)
		return models.LocationUnknown
	}
	if loc.Country == "" {
		return models.LocationUnknown
	}
	if loc.City != "" {
		return loc.City + ", " + loc.Country
	}
	return loc.Country
}

// clientIP выбирает IP клиента: первый элемент X-Forwarded-For, иначе
// RemoteIP, иначе fallback
func clientIP(meta models.RequestMeta, fallback string) string {
	if meta.ForwardedFor != "" {
		first := meta.ForwardedFor
		if i := strings.IndexByte(first, ','); i >= 0 {
			first = first[:i]
		}
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if meta.RemoteIP != "" {
		return meta.RemoteIP
	}
	return fallback
}

// refererKey нормализует Referer до ключа карты: hostname с точками,
// заменёнными на подчёркивания, либо "Direct" при отсутствии заголовка
func refererKey(referer string) string {
	if referer == "" {
		return models.RefererDirect
	}

	parsed, err := url.Parse(referer)
	if err != nil || parsed.Hostname() == "" {
		return models.RefererDirect
	}

	return NormalizeReferer(parsed.Hostname())
}

// NormalizeReferer replaces dots with underscores so a hostname can be used
// as a counter key. Valid hostnames never contain underscores, so
// DenormalizeReferer is an exact inverse. "Direct" and "Unknown" pass
// through unchanged.
func NormalizeReferer(hostname string) string {
	if hostname == models.RefererDirect || hostname == models.LocationUnknown {
		return hostname
	}
	return strings.ReplaceAll(hostname, ".", "_")
}

// DenormalizeReferer restores dotted hostnames for display.
func DenormalizeReferer(key string) string {
	if key == models.RefererDirect || key == models.LocationUnknown {
		return key
	}
	return strings.ReplaceAll(key, "_", ".")
}
