// Package geo provides city reference data for the event generator.
package geo

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hervehildenbrand/threat-radar/pkg/models"
)

// Catalog provides city lookups.
type Catalog interface {
	// Cities returns every known city.
	Cities() []models.Location
	// Lookup returns the city with the given name.
	Lookup(name string) (models.Location, bool)
	// Count returns the number of cities.
	Count() int
}

// StaticCatalog is an in-memory catalog.
type StaticCatalog struct {
	cities []models.Location
	byName map[string]int
	mu     sync.RWMutex
}

// NewStaticCatalog creates a catalog from a fixed list. Later duplicates of
// a name are ignored.
func NewStaticCatalog(cities []models.Location) *StaticCatalog {
	c := &StaticCatalog{byName: make(map[string]int, len(cities))}
	for _, city := range cities {
		c.add(city)
	}
	return c
}

// NewBuiltinCatalog returns the catalog of well-known cities.
func NewBuiltinCatalog() *StaticCatalog {
	return NewStaticCatalog(BuiltinCities)
}

func (c *StaticCatalog) add(city models.Location) {
	if _, ok := c.byName[city.Name]; ok {
		return
	}
	c.byName[city.Name] = len(c.cities)
	c.cities = append(c.cities, city)
}

func (c *StaticCatalog) Cities() []models.Location {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Location, len(c.cities))
	copy(out, c.cities)
	return out
}

func (c *StaticCatalog) Lookup(name string) (models.Location, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byName[name]
	if !ok {
		return models.Location{}, false
	}
	return c.cities[i], true
}

func (c *StaticCatalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cities)
}

// NewFileCatalog loads cities from a CSV file.
// Expected format: name,country,region,lat,lng (e.g., "Lagos,Nigeria,AF,6.52,3.37").
// A header row is detected and skipped; malformed rows are skipped.
func NewFileCatalog(filePath string, logger *zap.Logger) (*StaticCatalog, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open city catalog: %w", err)
	}
	defer file.Close()

	c, skipped, err := readCatalog(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("read city catalog %s: %w", filePath, err)
	}
	if c.Count() < 2 {
		return nil, fmt.Errorf("city catalog %s: need at least 2 cities, got %d", filePath, c.Count())
	}

	logger.Info("city catalog loaded",
		zap.String("path", filePath),
		zap.Int("cities", c.Count()),
		zap.Int("skipped", skipped))
	return c, nil
}

func readCatalog(r io.Reader) (*StaticCatalog, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	c := NewStaticCatalog(nil)
	skipped := 0
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if first {
				return nil, 0, err
			}
			skipped++
			continue
		}

		city, ok := parseRecord(record)
		if !ok {
			// First row that does not parse is treated as a header
			if !first {
				skipped++
			}
			first = false
			continue
		}
		first = false
		c.add(city)
	}
	return c, skipped, nil
}

func parseRecord(record []string) (models.Location, bool) {
	if len(record) < 5 {
		return models.Location{}, false
	}
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}

	region := models.Region(strings.ToUpper(record[2]))
	if record[0] == "" || record[1] == "" || !region.Valid() {
		return models.Location{}, false
	}
	lat, err := strconv.ParseFloat(record[3], 64)
	if err != nil || lat < -90 || lat > 90 {
		return models.Location{}, false
	}
	lng, err := strconv.ParseFloat(record[4], 64)
	if err != nil || lng < -180 || lng > 180 {
		return models.Location{}, false
	}

	return models.Location{
		Name:    record[0],
		Country: record[1],
		Region:  region,
		Lat:     lat,
		Lng:     lng,
	}, true
}
