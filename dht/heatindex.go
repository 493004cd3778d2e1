package dht

import (
	"math"
)

// HeatIndex returns the heat index for temperature and relative humidity in percent.
// temperature and the result are in unit.
//
// Uses Steadman's simple formula and switches to the Rothfusz regression
// when that is above 79°F, see
// https://www.wpc.ncep.noaa.gov/html/heatindex_equation.shtml
func HeatIndex(temperature float64, humidity float64, unit TemperatureUnit) float64 {
	t := temperature
	if unit == Celsius {
		t = temperature*1.8 + 32.0
	}
	rh := humidity

	hi := 0.5 * (t + 61.0 + ((t - 68.0) * 1.2) + (rh * 0.094))

	if hi > 79.0 {
		hi = -42.379 +
			2.04901523*t +
			10.14333127*rh -
			0.22475541*t*rh -
			0.00683783*t*t -
			0.05481717*rh*rh +
			0.00122874*t*t*rh +
			0.00085282*t*rh*rh -
			0.00000199*t*t*rh*rh

		switch {
		case rh < 13.0 && t >= 80.0 && t <= 112.0:
			hi -= ((13.0 - rh) * 0.25) * math.Sqrt((17.0-math.Abs(t-95.0))/17.0)
		case rh > 85.0 && t >= 80.0 && t <= 87.0:
			hi += ((rh - 85.0) * 0.1) * ((87.0 - t) * 0.2)
		}
	}

	if unit == Celsius {
		return (hi - 32.0) / 1.8
	}
	return hi
}
