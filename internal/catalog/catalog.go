package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrInvalidDuration = errors.New("service duration must be positive")
)

// Service is one bookable offering. Duration is in minutes.
type Service struct {
	Key         string          `json:"-"`
	Name        string          `json:"name"`
	Duration    int             `json:"duration"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
}

// Catalog maps service keys to services. It is a read-only snapshot once built.
type Catalog map[string]Service

// New builds a catalog and stamps every service with its key.
func New(services map[string]Service) Catalog {
	c := make(Catalog, len(services))
	for k, s := range services {
		s.Key = k
		c[k] = s
	}
	return c
}

func (c Catalog) Lookup(key string) (Service, error) {
	s, ok := c[key]
	if !ok {
		return Service{}, fmt.Errorf("%w: %q", ErrServiceNotFound, key)
	}
	return s, nil
}

// Keys returns the service keys in a stable order.
func (c Catalog) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c Catalog) Validate() error {
	var errs []error
	for _, k := range c.Keys() {
		if c[k].Duration <= 0 {
			errs = append(errs, fmt.Errorf("%w: %s has %d", ErrInvalidDuration, k, c[k].Duration))
		}
	}
	return errors.Join(errs...)
}

// Default is the car wash menu served by the booking API.
func Default() Catalog {
	return New(map[string]Service{
		"car_spa": {
			Name:     "CAR SPA®",
			Price:    decimal.NewFromInt(24),
			Duration: 30,
			Description: "Schnelle, günstige und schonende textile Außenwäsche. " +
				"Manuelle Vorreinigung – Aktivschaum – Shampoowäsche – " +
				"Radwäsche – maschinelles Trocknen.",
		},
		"car_soft": {
			Name:     "CAR SOFT",
			Price:    decimal.NewFromInt(36),
			Duration: 30,
			Description: "Intensive, schonende textile Außenwäsche mit Felgenreinigung extra. " +
				"Manuelle Vorreinigung – händische Felgenreinigung – Aktivschaum – " +
				"Shampoowäsche – Radwäsche – maschinelle Trocknung & zusätzliche " +
				"manuelle Nachtrocknung.",
		},
		"car_easy": {
			Name:     "CAR EASY",
			Price:    decimal.NewFromInt(74),
			Duration: 90,
			Description: "Einfache Außen- und Innenreinigung (ohne Kofferraum oder Ladefläche). " +
				"Manuelle Vorreinigung – händische Felgenreinigung – Aktivschaum – " +
				"Shampoowäsche – Radwäsche – maschinelle Trocknung & zusätzliche " +
				"manuelle Nachtrocknung – Reinigung von Fußmatten, Innenflächen " +
				"(nur glatte Flächen) und Armaturen – Saugen von Teppichen, Sitzen, " +
				"Seitenverkleidungen – Reinigung von Scheiben und Spiegeln – " +
				"fachgerechte Endkontrolle.",
		},
		"car_wellness": {
			Name:     "CAR WELLNESS",
			Price:    decimal.NewFromInt(86),
			Duration: 120,
			Description: "Intensive Außen- und Innenreinigung (mit Kofferraum oder Ladefläche). " +
				"Manuelle Vorreinigung – händische Felgenreinigung – Aktivschaum – " +
				"Shampoowäsche – Radwäsche – maschinelle Trocknung & zusätzliche " +
				"manuelle Nachtrocknung – Reinigung von Fußmatten, Innenflächen " +
				"(nur glatte Flächen) und Armaturen – Saugen von Teppichen, Sitzen, " +
				"Seitenverkleidungen – Reinigung von Scheiben und Spiegeln – " +
				"fachgerechte Endkontrolle.",
		},
		"car_intense": {
			Name:     "CAR INTENSE (Innen)",
			Price:    decimal.NewFromInt(68),
			Duration: 90,
			Description: "Intensive Innenreinigung (mit Kofferraum oder Ladefläche). " +
				"Reinigung von Fußmatten, Innenflächen (nur glatte Flächen) " +
				"und Armaturen – Saugen von Teppichen, Sitzen, Seitenverkleidungen – " +
				"Reinigung von Scheiben und Spiegeln – fachgerechte Endkontrolle.",
		},
	})
}
