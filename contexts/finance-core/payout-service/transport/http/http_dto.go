package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CourierPayoutDTO struct {
	PayoutID           string  `json:"payout_id"`
	CourierID          string  `json:"courier_id"`
	PeriodStart        string  `json:"period_start"`
	PeriodEnd          string  `json:"period_end"`
	WeekNumber         int     `json:"week_number"`
	Year               int     `json:"year"`
	TotalEarnings      int64   `json:"total_earnings"`
	Currency           string  `json:"currency"`
	TotalDeliveries    int     `json:"total_deliveries"`
	TotalDistanceKm    float64 `json:"total_distance_km"`
	PeakHourDeliveries int     `json:"peak_hour_deliveries"`
	Status             string  `json:"status"`
	ReportPath         string  `json:"report_path,omitempty"`
	GeneratedAt        string  `json:"generated_at"`
	ProcessedAt        string  `json:"processed_at,omitempty"`
}

type GenerateWeeklyRequest struct {
	CourierID string `json:"courier_id"`
	WeekDate  string `json:"week_date"`
}

type GenerateWeeklyResponse struct {
	Status string           `json:"status"`
	Data   CourierPayoutDTO `json:"data"`
}

type GenerateBulkRequest struct {
	WeekDate   string   `json:"week_date"`
	CourierIDs []string `json:"courier_ids,omitempty"`
}

type GenerateBulkResponse struct {
	Status string             `json:"status"`
	Failed int                `json:"failed"`
	Data   []CourierPayoutDTO `json:"data"`
}

type PayoutListResponse struct {
	Status string             `json:"status"`
	Data   []CourierPayoutDTO `json:"data"`
}

type PayoutResponse struct {
	Status string           `json:"status"`
	Data   CourierPayoutDTO `json:"data"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type UpdateStatusResponse struct {
	Status string `json:"status"`
}
