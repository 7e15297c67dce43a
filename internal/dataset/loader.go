package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"backend-dtg/internal/telemetry"
)

const timestampLayout = "2006-01-02 15:04:05"

// LoadDir loads every *.csv file under dir into the store. A file that fails
// to open or parse is logged and skipped; the remaining files still load.
// Returns the number of vehicle datasets loaded.
func LoadDir(store *Store, dir string) int {
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		log.Printf("dataset: scan %s failed: %v", dir, err)
		return 0
	}
	if len(files) == 0 {
		log.Printf("dataset: no csv files found in %s", dir)
		return 0
	}

	loaded := 0
	for _, f := range files {
		vehicleID, samples, err := LoadFile(f)
		if err != nil {
			log.Printf("dataset: load %s failed: %v", f, err)
			continue
		}
		if len(samples) == 0 {
			log.Printf("dataset: %s has no usable rows, skipped", f)
			continue
		}
		store.Load(vehicleID, samples)
		loaded++
		log.Printf("dataset: loaded %s (vehicle=%s, samples=%d)", f, vehicleID, len(samples))
	}
	log.Printf("dataset: %d vehicle dataset(s) loaded", loaded)
	return loaded
}

// LoadFile parses a single CSV file. The vehicle id is taken from the first
// usable record.
func LoadFile(path string) (string, []telemetry.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	samples, err := Parse(f)
	if err != nil {
		return "", nil, err
	}
	if len(samples) == 0 {
		return "", nil, nil
	}
	return samples[0].VehicleID, samples, nil
}

// Parse reads telemetry rows from header-mapped CSV. Rows without a vehicle
// id are skipped; an unparseable timestamp keeps the row with the recorded
// time left unset.
func Parse(r io.Reader) ([]telemetry.Sample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var samples []telemetry.Sample
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return samples, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++

		get := func(key string) string {
			if i, ok := idx[key]; ok && i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}

		vehicleID := get("vehicleid")
		if vehicleID == "" {
			log.Printf("dataset: line %d: missing vehicleId, row skipped", line)
			continue
		}

		sample := telemetry.Sample{
			VehicleID:        vehicleID,
			VehicleName:      get("vehiclename"),
			EngineStatus:     get("enginestatus"),
			Status:           get("status"),
			RoadCondition:    get("roadcondition"),
			TrafficCondition: get("trafficcondition"),
			RouteName:        get("routename"),
		}
		sample.Latitude, _ = strconv.ParseFloat(get("latitude"), 64)
		sample.Longitude, _ = strconv.ParseFloat(get("longitude"), 64)
		sample.Speed, _ = strconv.ParseFloat(get("speed"), 64)
		sample.Heading, _ = strconv.ParseFloat(get("heading"), 64)
		sample.FuelLevel, _ = strconv.ParseFloat(get("fuellevel"), 64)

		if ts := get("timestamp"); ts != "" {
			recorded, err := time.ParseInLocation(timestampLayout, ts, time.Local)
			if err != nil {
				log.Printf("dataset: line %d: bad timestamp %q, row kept without it", line, ts)
			} else {
				sample.RecordedAt = recorded
			}
		}

		samples = append(samples, sample)
	}
	return samples, nil
}
