package dashboard

import "sprouthub/pkg/domain"

type Level string

const (
	LevelNone     Level = "none"
	LevelGood     Level = "good"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
)

const NoData = "No Data"

type Status struct {
	Label string `json:"label"`
	Level Level  `json:"level"`
}

var noData = Status{Label: NoData, Level: LevelNone}

// Classification uses fixed default ranges. Crop thresholds from the
// knowledge library are displayed separately and do not affect it.

func ClassifyMoisture(v float64) Status {
	switch {
	case v == 0:
		return noData
	case v < 30:
		return Status{Label: "Critical", Level: LevelCritical}
	case v > 80:
		return Status{Label: "Too Wet", Level: LevelWarning}
	default:
		return Status{Label: "Optimal", Level: LevelGood}
	}
}

func ClassifySoilTemperature(v float64) Status {
	switch {
	case v == 0:
		return noData
	case v > 35:
		return Status{Label: "Too Hot", Level: LevelCritical}
	case v < 15:
		return Status{Label: "Too Cold", Level: LevelWarning}
	default:
		return Status{Label: "Normal", Level: LevelGood}
	}
}

func ClassifyPH(v float64) Status {
	switch {
	case v == 0:
		return noData
	case v < 5.5:
		return Status{Label: "Too Acidic", Level: LevelWarning}
	case v > 7.5:
		return Status{Label: "Too Alkaline", Level: LevelWarning}
	default:
		return Status{Label: "Neutral", Level: LevelGood}
	}
}

func ClassifyAirTemperature(v float64) Status {
	switch {
	case v == 0:
		return noData
	case v > 35:
		return Status{Label: "Very Hot", Level: LevelCritical}
	case v < 18:
		return Status{Label: "Cool", Level: LevelWarning}
	default:
		return Status{Label: "Comfortable", Level: LevelGood}
	}
}

func ClassifyHumidity(v float64) Status {
	switch {
	case v == 0:
		return noData
	case v < 40:
		return Status{Label: "Dry", Level: LevelWarning}
	case v > 80:
		return Status{Label: "Very Humid", Level: LevelWarning}
	default:
		return Status{Label: "Normal", Level: LevelGood}
	}
}

type SensorStatuses struct {
	Moisture       Status `json:"moisture"`
	Temperature    Status `json:"temperature"`
	PH             Status `json:"ph"`
	AirTemperature Status `json:"air_temperature"`
	Humidity       Status `json:"humidity"`
}

func ClassifyReadings(r domain.SensorReadings) SensorStatuses {
	return SensorStatuses{
		Moisture:       ClassifyMoisture(r.Moisture),
		Temperature:    ClassifySoilTemperature(r.Temperature),
		PH:             ClassifyPH(r.PH),
		AirTemperature: ClassifyAirTemperature(r.AirTemperature),
		Humidity:       ClassifyHumidity(r.Humidity),
	}
}

func BatteryLevel(percentage float64) Level {
	switch {
	case percentage > 60:
		return LevelGood
	case percentage > 20:
		return LevelWarning
	default:
		return LevelCritical
	}
}

const (
	ConnectionOnline  = "Online"
	ConnectionOffline = "Offline"
	ConnectionUnknown = "Unknown"
)

func ConnectionStatus(node *domain.Node) string {
	if node == nil {
		return ConnectionUnknown
	}
	if node.Status == domain.NodeOnline {
		return ConnectionOnline
	}
	return ConnectionOffline
}
