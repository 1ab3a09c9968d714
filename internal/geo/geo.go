// Package geo выполняет геолокацию IP-адресов по локальной базе GeoLite2.
package geo

import (
	"errors"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

var ErrInvalidIP = errors.New("invalid IP address")

// Location результат геолокации. Country пустая, если адрес не найден в базе
type Location struct {
	Country string
	City    string
}

// Resolver ищет страну и город по IP-адресу
type Resolver interface {
	Lookup(ip string) (Location, error)
	Close() error
}

type maxmindResolver struct {
	reader *geoip2.Reader
}

// NewResolver открывает локальный .mmdb файл (GeoLite2 City) один раз на
// старте процесса
func NewResolver(databasePath string) (Resolver, error) {
	reader, err := geoip2.Open(databasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open geo database: %w", err)
	}
	return &maxmindResolver{reader: reader}, nil
}

func (r *maxmindResolver) Lookup(ip string) (Location, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return Location{}, ErrInvalidIP
	}

	record, err := r.reader.City(parsed)
	if err != nil {
		return Location{}, fmt.Errorf("geo lookup failed: %w", err)
	}

	return Location{
		Country: record.Country.Names["en"],
		City:    record.City.Names["en"],
	}, nil
}

func (r *maxmindResolver) Close() error {
	return r.reader.Close()
}

type noopResolver struct{}

// NewNoopResolver возвращает резолвер-заглушку для деплоев без geo-базы:
// каждый визит получает локацию "Unknown"
func NewNoopResolver() Resolver {
	return noopResolver{}
}

func (noopResolver) Lookup(ip string) (Location, error) {
	return Location{}, nil
}

func (noopResolver) Close() error {
	return nil
}
