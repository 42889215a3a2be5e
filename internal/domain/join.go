package domain

import "sort"

// JoinWeather left-joins restaurants to aggregated weather on geohash. Every
// restaurant appears exactly once in the output, in input order. Restaurants
// without a geohash or without a matching aggregate get nil temperatures.
func JoinWeather(restaurants []RestaurantRecord, aggregated []AggregatedWeather) []EnrichedRecord {
	lookup := make(map[string]AggregatedWeather, len(aggregated))
	for _, a := range aggregated {
		lookup[a.Geohash] = a
	}

	out := make([]EnrichedRecord, len(restaurants))
	for i, r := range restaurants {
		row := EnrichedRecord{
			ID:            r.ID,
			FranchiseName: r.FranchiseName,
			City:          r.City,
			Country:       r.Country,
			Lat:           r.Lat,
			Lng:           r.Lng,
			Geohash:       r.Geohash,
		}
		if r.Geohash != nil {
			if w, ok := lookup[*r.Geohash]; ok {
				row.AvgTemperatureC = w.AvgTemperatureC
				row.AvgTemperatureF = w.AvgTemperatureF
			}
		}
		out[i] = row
	}
	return out
}

// nullableFloat and nullableString make pointer fields comparable by value.
type nullableFloat struct {
	valid bool
	v     float64
}

type nullableString struct {
	valid bool
	v     string
}

func nf(p *float64) nullableFloat {
	if p == nil {
		return nullableFloat{}
	}
	return nullableFloat{valid: true, v: *p}
}

func ns(p *string) nullableString {
	if p == nil {
		return nullableString{}
	}
	return nullableString{valid: true, v: *p}
}

type rowKey struct {
	id, franchise, city, country string
	lat, lng, tempC, tempF       nullableFloat
	geohash                      nullableString
}

func keyOf(e EnrichedRecord) rowKey {
	return rowKey{
		id:        e.ID,
		franchise: e.FranchiseName,
		city:      e.City,
		country:   e.Country,
		lat:       nf(e.Lat),
		lng:       nf(e.Lng),
		tempC:     nf(e.AvgTemperatureC),
		tempF:     nf(e.AvgTemperatureF),
		geohash:   ns(e.Geohash),
	}
}

// Deduplicate drops rows that are identical to an earlier row in every field.
// Nil fields compare equal to each other. The first occurrence is kept.
func Deduplicate(rows []EnrichedRecord) []EnrichedRecord {
	seen := make(map[rowKey]struct{}, len(rows))
	out := make([]EnrichedRecord, 0, len(rows))
	for _, r := range rows {
		k := keyOf(r)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

type restaurantGroup struct {
	id, franchise, city string
}

// MeanTemperatureByRestaurant averages avg_temperature_c per (id, franchise
// name, city) over non-null values. Groups are returned in order of first
// appearance.
func MeanTemperatureByRestaurant(rows []EnrichedRecord) []RestaurantTemperature {
	accs := make(map[restaurantGroup]*meanAccumulator)
	var order []restaurantGroup
	for _, r := range rows {
		k := restaurantGroup{id: r.ID, franchise: r.FranchiseName, city: r.City}
		acc, ok := accs[k]
		if !ok {
			acc = &meanAccumulator{}
			accs[k] = acc
			order = append(order, k)
		}
		acc.add(r.AvgTemperatureC)
	}

	out := make([]RestaurantTemperature, len(order))
	for i, k := range order {
		out[i] = RestaurantTemperature{
			ID:                  k.id,
			FranchiseName:       k.franchise,
			City:                k.city,
			AverageTemperatureC: accs[k].mean(),
		}
	}
	return out
}

// RankByTemperature returns a copy of rows ordered by avg_temperature_c
// descending with nil temperatures last. Ties keep their input order.
func RankByTemperature(rows []EnrichedRecord) []EnrichedRecord {
	out := make([]EnrichedRecord, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].AvgTemperatureC, out[j].AvgTemperatureC
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
	return out
}
