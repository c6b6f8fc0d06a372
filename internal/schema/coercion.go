package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Policy names the columns that get an explicit kind. Columns outside Types
// keep the kind their source gave them; raw columns are inferred from the
// first batch when Infer is set and loaded as text otherwise.
type Policy struct {
	Types      map[string]Kind
	ParseDates []string
	Infer      bool
}

// CSVTripPolicy is the cast set for the yellow trip CSV files.
var CSVTripPolicy = Policy{
	Types: map[string]Kind{
		"VendorID":              KindInt,
		"passenger_count":       KindInt,
		"trip_distance":         KindFloat,
		"RatecodeID":            KindInt,
		"store_and_fwd_flag":    KindText,
		"PULocationID":          KindInt,
		"DOLocationID":          KindInt,
		"payment_type":          KindInt,
		"fare_amount":           KindFloat,
		"extra":                 KindFloat,
		"mta_tax":               KindFloat,
		"tip_amount":            KindFloat,
		"tolls_amount":          KindFloat,
		"improvement_surcharge": KindFloat,
		"total_amount":          KindFloat,
		"congestion_surcharge":  KindFloat,
	},
	ParseDates: []string{
		"tpep_pickup_datetime",
		"tpep_dropoff_datetime",
	},
	Infer: true,
}

// ParquetTripPolicy only fixes passenger_count, which the trip parquet files
// store as a double.
var ParquetTripPolicy = Policy{
	Types: map[string]Kind{
		"passenger_count": KindInt,
	},
}

// KindFor returns the kind the policy assigns to a column.
func (p Policy) KindFor(name string) (Kind, bool) {
	for _, d := range p.ParseDates {
		if d == name {
			return KindTimestamp, true
		}
	}
	k, ok := p.Types[name]
	return k, ok
}

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999",
	"01/02/2006 03:04:05 PM",
	"2006-01-02",
}

// ParseTime parses the timestamp layouts found in the trip files.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// Cast converts v to kind k. Empty strings and NaN become NULL.
func Cast(v any, k Kind) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return castString(x, k)
	case int64:
		return castInt(x, k)
	case float64:
		return castFloat(x, k)
	case time.Time:
		switch k {
		case KindTimestamp, KindUnknown:
			return x, nil
		case KindText:
			return x.Format(time.RFC3339Nano), nil
		}
	case bool:
		switch k {
		case KindBool, KindUnknown:
			return x, nil
		case KindInt:
			if x {
				return int64(1), nil
			}
			return int64(0), nil
		case KindText:
			return strconv.FormatBool(x), nil
		}
	}
	return nil, fmt.Errorf("cannot cast %T %v to %s", v, v, k)
}

func castString(s string, k Kind) (any, error) {
	if s == "" {
		return nil, nil
	}
	switch k {
	case KindText, KindUnknown:
		return s, nil
	case KindInt:
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("cannot cast %q to int", s)
		}
		return castFloat(f, KindInt)
	case KindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("cannot cast %q to float", s)
		}
		return f, nil
	case KindTimestamp:
		return ParseTime(strings.TrimSpace(s))
	case KindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("cannot cast %q to bool", s)
		}
		return b, nil
	}
	return nil, fmt.Errorf("cannot cast %q to %s", s, k)
}

func castInt(n int64, k Kind) (any, error) {
	switch k {
	case KindInt, KindUnknown:
		return n, nil
	case KindFloat:
		return float64(n), nil
	case KindText:
		return strconv.FormatInt(n, 10), nil
	case KindBool:
		return n != 0, nil
	}
	return nil, fmt.Errorf("cannot cast int %d to %s", n, k)
}

func castFloat(f float64, k Kind) (any, error) {
	if math.IsNaN(f) {
		return nil, nil
	}
	switch k {
	case KindFloat, KindUnknown:
		return f, nil
	case KindInt:
		if math.IsInf(f, 0) || f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
			return nil, fmt.Errorf("cannot safely cast non-integral float %v to int", f)
		}
		return int64(f), nil
	case KindText:
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	}
	return nil, fmt.Errorf("cannot cast float %v to %s", f, k)
}
