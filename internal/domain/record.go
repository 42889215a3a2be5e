package domain

// RawRestaurantRow is a restaurant row as read from the CSV source, before any
// type normalization. Coordinates are kept as text because the source may
// contain empty or malformed values.
type RawRestaurantRow struct {
	ID            string `csv:"id"`
	FranchiseName string `csv:"franchise_name"`
	City          string `csv:"city"`
	Country       string `csv:"country"`
	Lat           string `csv:"lat"`
	Lng           string `csv:"lng"`
}

// RestaurantRecord is a restaurant location. Lat and Lng are nil when missing
// or malformed; Geohash is nil until derived, and stays nil when either
// coordinate is missing.
type RestaurantRecord struct {
	ID            string   `json:"id"`
	FranchiseName string   `json:"franchise_name"`
	City          string   `json:"city"`
	Country       string   `json:"country"`
	Lat           *float64 `json:"lat"`
	Lng           *float64 `json:"lng"`
	Geohash       *string  `json:"geohash"`
}

// HasCoordinates reports whether both coordinates are present.
func (r RestaurantRecord) HasCoordinates() bool {
	return r.Lat != nil && r.Lng != nil
}

// WeatherRecord is a single weather observation. Extra carries every source
// column that is not interpreted by the pipeline.
type WeatherRecord struct {
	Lat      *float64       `json:"lat"`
	Lng      *float64       `json:"lng"`
	AvgTmprC *float64       `json:"avg_tmpr_c"`
	AvgTmprF *float64       `json:"avg_tmpr_f"`
	Geohash  *string        `json:"geohash"`
	Extra    map[string]any `json:"-"`
}

// AggregatedWeather is the mean temperature of every observation sharing a
// geohash. A nil average means no observation in the bucket had that metric.
type AggregatedWeather struct {
	Geohash         string   `json:"geohash"`
	AvgTemperatureC *float64 `json:"avg_temperature_c"`
	AvgTemperatureF *float64 `json:"avg_temperature_f"`
}

// EnrichedRecord is a restaurant joined with the weather aggregate of its
// geohash. The temperature fields are nil when no aggregate matched.
type EnrichedRecord struct {
	ID              string   `json:"id"`
	FranchiseName   string   `json:"franchise_name"`
	City            string   `json:"city"`
	Country         string   `json:"country"`
	Lat             *float64 `json:"lat"`
	Lng             *float64 `json:"lng"`
	Geohash         *string  `json:"geohash"`
	AvgTemperatureC *float64 `json:"avg_temperature_c"`
	AvgTemperatureF *float64 `json:"avg_temperature_f"`
}

// Matched reports whether the row received weather data.
func (e EnrichedRecord) Matched() bool {
	return e.AvgTemperatureC != nil || e.AvgTemperatureF != nil
}

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RestaurantTemperature is a row of the per-restaurant mean temperature view.
type RestaurantTemperature struct {
	ID                  string   `json:"id"`
	FranchiseName       string   `json:"franchise_name"`
	City                string   `json:"city"`
	AverageTemperatureC *float64 `json:"average_temperature_c"`
}

func float64Ptr(v float64) *float64 { return &v }

func stringPtr(v string) *string { return &v }
