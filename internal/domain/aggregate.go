package domain

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// meanAccumulator is a running sum/count pair. Merging is commutative and
// associative, so partial accumulators can be combined in any order.
type meanAccumulator struct {
	sum   float64
	count int
}

func (a *meanAccumulator) add(v *float64) {
	if v == nil {
		return
	}
	a.sum += *v
	a.count++
}

func (a *meanAccumulator) merge(b meanAccumulator) {
	a.sum += b.sum
	a.count += b.count
}

func (a meanAccumulator) mean() *float64 {
	if a.count == 0 {
		return nil
	}
	return float64Ptr(a.sum / float64(a.count))
}

type temperatureAccumulator struct {
	celsius    meanAccumulator
	fahrenheit meanAccumulator
}

// partialAggregate maps geohash to the accumulators of one partition.
type partialAggregate map[string]*temperatureAccumulator

func accumulate(records []WeatherRecord) partialAggregate {
	p := make(partialAggregate)
	for i := range records {
		if records[i].Geohash == nil {
			continue
		}
		acc, ok := p[*records[i].Geohash]
		if !ok {
			acc = &temperatureAccumulator{}
			p[*records[i].Geohash] = acc
		}
		acc.celsius.add(records[i].AvgTmprC)
		acc.fahrenheit.add(records[i].AvgTmprF)
	}
	return p
}

func (p partialAggregate) merge(other partialAggregate) {
	for key, acc := range other {
		dst, ok := p[key]
		if !ok {
			p[key] = acc
			continue
		}
		dst.celsius.merge(acc.celsius)
		dst.fahrenheit.merge(acc.fahrenheit)
	}
}

func (p partialAggregate) finish() []AggregatedWeather {
	out := make([]AggregatedWeather, 0, len(p))
	for key, acc := range p {
		out = append(out, AggregatedWeather{
			Geohash:         key,
			AvgTemperatureC: acc.celsius.mean(),
			AvgTemperatureF: acc.fahrenheit.mean(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Geohash < out[j].Geohash })
	return out
}

// AggregateWeather groups observations by geohash and averages each
// temperature metric over its non-null values. Observations without a
// geohash are ignored. The result has one row per geohash, sorted by key.
func AggregateWeather(records []WeatherRecord) []AggregatedWeather {
	return accumulate(records).finish()
}

// AggregateWeatherPartitioned computes the same result as AggregateWeather by
// splitting records into partitions, accumulating them concurrently, and
// merging the partial sums.
func AggregateWeatherPartitioned(ctx context.Context, records []WeatherRecord, partitions int) ([]AggregatedWeather, error) {
	chunks := Partition(len(records), partitions)
	partials := make([]partialAggregate, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			partials[i] = accumulate(records[c.Start:c.End])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(partialAggregate)
	for _, p := range partials {
		merged.merge(p)
	}
	return merged.finish(), nil
}

// Range is a half-open index interval [Start, End).
type Range struct {
	Start int
	End   int
}

// Partition splits n items into at most parts contiguous, non-empty ranges.
func Partition(n, parts int) []Range {
	if n == 0 {
		return nil
	}
	if parts < 1 {
		parts = 1
	}
	if parts > n {
		parts = n
	}
	size := (n + parts - 1) / parts
	out := make([]Range, 0, parts)
	for start := 0; start < n; start += size {
		out = append(out, Range{Start: start, End: min(start+size, n)})
	}
	return out
}
