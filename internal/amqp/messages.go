package amqp

import (
	"encoding/json"
	"time"

	"kpiboard/internal/core"
)

// SiteBuiltType is set as the AMQP message type.
const SiteBuiltType = "kpiboard.site_built"

// MonthPayload is one bucket as carried on the wire.
type MonthPayload struct {
	Month            string `json:"month"`
	ProductionLoss   int64  `json:"production_loss"`
	SoldComponents   int64  `json:"sold_components"`
	DevelopmentLoss  int64  `json:"development_loss"`
	DevelopmentGates int64  `json:"development_gates"`
}

// TotalsPayload mirrors core.Totals.
type TotalsPayload struct {
	ProductionLoss   int64 `json:"production_loss"`
	SoldComponents   int64 `json:"sold_components"`
	DevelopmentLoss  int64 `json:"development_loss"`
	DevelopmentGates int64 `json:"development_gates"`
}

// SiteBuiltMessage is published after every successful render.
type SiteBuiltMessage struct {
	GeneratedAt      time.Time      `json:"generated_at"`
	OutputPath       string         `json:"output_path"`
	CurrentMonthName string         `json:"current_month_name"`
	Months           []MonthPayload `json:"months"`
	Total            TotalsPayload  `json:"total"`
	CurrentMonth     TotalsPayload  `json:"current_month"`
}

func totalsPayload(t core.Totals) TotalsPayload {
	return TotalsPayload{
		ProductionLoss:   t.ProductionLoss,
		SoldComponents:   t.SoldComponents,
		DevelopmentLoss:  t.DevelopmentLoss,
		DevelopmentGates: t.DevelopmentGates,
	}
}

// NewSiteBuiltMessage builds the notification for a rendered summary.
func NewSiteBuiltMessage(s core.Summary, outputPath string) *SiteBuiltMessage {
	months := make([]MonthPayload, 0, len(s.Months))
	for _, b := range s.Months {
		months = append(months, MonthPayload{
			Month:            b.Month,
			ProductionLoss:   b.ProductionLoss,
			SoldComponents:   b.SoldComponents,
			DevelopmentLoss:  b.DevelopmentLoss,
			DevelopmentGates: b.DevelopmentGates,
		})
	}
	return &SiteBuiltMessage{
		GeneratedAt:      s.GeneratedAt.UTC(),
		OutputPath:       outputPath,
		CurrentMonthName: s.CurrentMonthName,
		Months:           months,
		Total:            totalsPayload(s.Total),
		CurrentMonth:     totalsPayload(s.CurrentMonth),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SiteBuiltMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SiteBuiltMessageFromJSON decodes a message body.
func SiteBuiltMessageFromJSON(data []byte) (*SiteBuiltMessage, error) {
	var msg SiteBuiltMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
