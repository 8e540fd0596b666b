package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type EarningsCalculationDTO struct {
	DeliveryID        string  `json:"delivery_id"`
	CourierID         string  `json:"courier_id"`
	BaseEarning       int64   `json:"base_earning"`
	DistanceEarning   int64   `json:"distance_earning"`
	PeakHourBonus     int64   `json:"peak_hour_bonus"`
	VehicleBonus      int64   `json:"vehicle_bonus"`
	TotalEarning      int64   `json:"total_earning"`
	Currency          string  `json:"currency"`
	DistanceKm        float64 `json:"distance_km"`
	PeakHourApplied   bool    `json:"peak_hour_applied"`
	VehicleMultiplier float64 `json:"vehicle_multiplier"`
	TariffName        string  `json:"tariff_name"`
	CalculatedAt      string  `json:"calculated_at"`
}

type EarningsHistoryRequest struct {
	CourierID string
	Start     string
	End       string
}

type EarningsHistoryResponse struct {
	Status string                   `json:"status"`
	Data   []EarningsCalculationDTO `json:"data"`
}

type EarningsStatisticsResponse struct {
	Status string `json:"status"`
	Data   struct {
		CourierID          string  `json:"courier_id"`
		PeriodStart        string  `json:"period_start"`
		PeriodEnd          string  `json:"period_end"`
		TotalDeliveries    int     `json:"total_deliveries"`
		TotalDistanceKm    float64 `json:"total_distance_km"`
		TotalEarnings      int64   `json:"total_earnings"`
		AveragePerDelivery int64   `json:"average_per_delivery"`
		AveragePerKm       int64   `json:"average_per_km"`
		PeakHourDeliveries int     `json:"peak_hour_deliveries"`
		PeakHourEarnings   int64   `json:"peak_hour_earnings"`
		Currency           string  `json:"currency"`
	} `json:"data"`
}
