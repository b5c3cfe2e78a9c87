package simserver

import "github.com/evopti/chargepilot/core/model"

// DefaultBaseLoad is a winter household profile in kW with morning and
// evening peaks.
var DefaultBaseLoad = model.HourlyProfile{
	1.2, 1.1, 1.0, 1.0, 1.1, 1.4, // 00-05
	2.2, 3.6, 4.1, 3.0, 2.3, 2.1, // 06-11
	2.4, 2.2, 2.0, 2.3, 3.1, 4.6, // 12-17
	5.2, 4.8, 3.9, 2.8, 2.0, 1.5, // 18-23
}

// DefaultPrices is a spot price profile in öre/kWh, cheap at night and
// peaking in the evening.
var DefaultPrices = model.HourlyProfile{
	48, 45, 44, 43, 46, 55,     // 00-05
	88, 112, 128, 118, 102, 96, // 06-11
	94, 91, 93, 104, 126, 148,  // 12-17
	158, 142, 118, 96, 74, 58,  // 18-23
}
