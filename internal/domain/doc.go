// Package domain models restaurant locations, weather observations and the
// enrichment that joins them.
//
// # Data Sources
//
// Restaurants arrive as CSV rows with textual coordinates:
//
//	id,franchise_id,franchise_name,restaurant_franchise_id,country,city,lat,lng
//	85899345920,1,Savoria,18952,US,Dillon,,
//
// Weather arrives as parquet rows with one observation per point and day:
//
//	lng, lat, avg_tmpr_f, avg_tmpr_c, wthr_date, ...
//
// Coordinates that are empty, "null", or otherwise not a finite number are
// treated as missing rather than rejected. See [ParseCoordinate].
//
// # Spatial Keys
//
// Both datasets are bucketed by geohash at a single precision chosen for the
// whole run (4 characters by default, roughly 39km x 19km cells). The join is
// only correct when both sides use the same [SpatialKeyEncoder]. A record with a
// missing coordinate has no key and never matches a weather bucket.
//
// # Coordinate Repair
//
// Before keys are derived, restaurant coordinates are corrected in two ways:
//
//  1. Explicit overrides keyed by restaurant id always win.
//  2. Records still missing a coordinate are resolved through a [Geocoder]
//     by (city, country). Each distinct pair is looked up once per run.
//
// A missing geocoder credential aborts the run ([ErrMissingCredential]). A
// lookup that finds nothing leaves the record without coordinates.
//
// # Aggregation and Join
//
// Weather is reduced to mean Celsius and Fahrenheit per geohash using
// mergeable sum/count accumulators, so partial aggregates computed on any
// partitioning merge to the same result. Restaurants are left-joined to the
// aggregates, exact duplicate rows are dropped, and two read-only views are
// offered: mean temperature per restaurant and a ranking by temperature.
package domain
