package source

import (
	"fmt"
	"strings"
)

// TripDataHost serves the monthly TLC trip files.
const TripDataHost = "https://d37ci6vzurychx.cloudfront.net"

// Colors are the trip datasets published per month.
var Colors = []string{"green", "yellow", "fhv", "fhvhv"}

// TripDataURL is the parquet URL for one month of a trip dataset.
func TripDataURL(color string, year, month int) string {
	if color == "" {
		color = "green"
	}
	return fmt.Sprintf("%s/trip-data/%s_tripdata_%d-%02d.parquet", TripDataHost, strings.ToLower(color), year, month)
}
