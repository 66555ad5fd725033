package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"safetyintel/internal/domain"
)

// DefaultPath is where the setup command looks for incident records.
const DefaultPath = "sample_data/crime_reports.json"

// flexFloat accepts a JSON number or a numeric string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s, err := unquote(data)
	if err != nil || s == "" {
		return err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}

// flexInt accepts a JSON integer or a numeric string.
type flexInt int64

func (i *flexInt) UnmarshalJSON(data []byte) error {
	s, err := unquote(data)
	if err != nil || s == "" {
		return err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("invalid integer %q: %w", s, err)
		}
		v = int64(f)
	}
	*i = flexInt(v)
	return nil
}

// flexString accepts a JSON string or a bare number.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	v, err := unquote(data)
	if err != nil {
		return err
	}
	*s = flexString(v)
	return nil
}

func unquote(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	return string(data), nil
}

type record struct {
	IncidentID  flexString `json:"incident_id"`
	Description string     `json:"description"`
	CrimeType   string     `json:"crime_type"`
	Area        string     `json:"area"`
	Location    struct {
		Lat flexFloat `json:"lat"`
		Lon flexFloat `json:"lon"`
	} `json:"location"`
	Timestamp flexInt `json:"timestamp"`
	Severity  string  `json:"severity"`
}

// Load decodes a JSON array of incident records.
func Load(r io.Reader) ([]domain.Incident, error) {
	var records []record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode incidents: %w", err)
	}
	incidents := make([]domain.Incident, 0, len(records))
	for _, rec := range records {
		incidents = append(incidents, domain.Incident{
			ID:          string(rec.IncidentID),
			Description: rec.Description,
			CrimeType:   rec.CrimeType,
			Area:        rec.Area,
			Location:    domain.Location{Lat: float64(rec.Location.Lat), Lon: float64(rec.Location.Lon)},
			Timestamp:   int64(rec.Timestamp),
			Severity:    domain.Severity(rec.Severity),
		})
	}
	return incidents, nil
}

// LoadFile opens path and decodes it with Load.
func LoadFile(path string) ([]domain.Incident, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	incidents, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return incidents, nil
}
