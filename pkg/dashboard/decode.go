package dashboard

import (
	"encoding/json"
	"strconv"
	"time"

	"sprouthub/pkg/domain"
)

const fieldLatestReadings = "latest_readings"

func DecodeNodes(snap domain.Snapshot) NodeSet {
	nodes := make([]domain.Node, 0, len(snap.Documents))
	for _, doc := range snap.Documents {
		nodes = append(nodes, DecodeNode(doc))
	}
	return NewNodeSet(nodes...)
}

// DecodeNode never fails: missing or malformed fields become zero values and
// a missing node_id falls back to the document id.
func DecodeNode(doc domain.Document) domain.Node {
	n := domain.Node{
		DocID:    doc.ID,
		NodeID:   toString(doc.Data[domain.FieldNodeID]),
		NodeName: toString(doc.Data["node_name"]),
		Status:   domain.ParseNodeStatus(toString(doc.Data[domain.FieldStatus])),
		CropType: toString(doc.Data["crop_type"]),
	}
	if n.NodeID == "" {
		n.NodeID = doc.ID
	}
	if ts, ok := toTime(doc.Data["last_seen"]); ok {
		n.LastSeen = &ts
	}
	if latest, ok := doc.Data[fieldLatestReadings].(map[string]any); ok {
		n.Latest = decodeSensorReadings(latest)
	}
	return n
}

func DecodeAlerts(snap domain.Snapshot) []domain.Alert {
	alerts := make([]domain.Alert, 0, len(snap.Documents))
	for _, doc := range snap.Documents {
		alerts = append(alerts, DecodeAlert(doc))
	}
	return alerts
}

func DecodeAlert(doc domain.Document) domain.Alert {
	a := domain.Alert{
		ID:        doc.ID,
		NodeID:    toString(doc.Data[domain.FieldNodeID]),
		AlertType: toString(doc.Data["alert_type"]),
		Message:   toString(doc.Data["message"]),
		Severity:  toString(doc.Data["severity"]),
		Status:    toString(doc.Data[domain.FieldStatus]),
		Parameter: toString(doc.Data["parameter"]),
	}
	if ts, ok := toTime(doc.Data[domain.FieldCreatedAt]); ok {
		a.CreatedAt = &ts
	}
	return a
}

func DecodeReading(doc domain.Document, loc *time.Location) domain.Reading {
	r := domain.Reading{
		ID:             doc.ID,
		TimeLabel:      domain.MissingTimeLabel,
		SensorReadings: decodeSensorReadings(doc.Data),
	}
	if ts, ok := toTime(doc.Data[domain.FieldTimestamp]); ok {
		r.Timestamp = &ts
		r.TimeLabel = FormatTimeLabel(ts, loc)
	}
	return r
}

func FormatTimeLabel(ts time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return ts.In(loc).Format(domain.DefaultTimeLabelLayout)
}

func decodeSensorReadings(data map[string]any) domain.SensorReadings {
	return domain.SensorReadings{
		Moisture:          toFloat(data["moisture"]),
		Temperature:       toFloat(data["temperature"]),
		PH:                toFloat(data["ph"]),
		AirTemperature:    toFloat(data["air_temperature"]),
		Humidity:          toFloat(data["humidity"]),
		Nitrogen:          toFloat(data["nitrogen"]),
		Phosphorus:        toFloat(data["phosphorus"]),
		Potassium:         toFloat(data["potassium"]),
		BatteryPercentage: toFloat(data["battery_percentage"]),
	}
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return ""
	}
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case json.Number:
		f, _ := x.Float64()
		return f
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// toTime accepts native times, RFC3339 strings, epoch seconds and the
// {"seconds": n, "nanoseconds": n} shape of serialized store timestamps.
func toTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case *time.Time:
		if x == nil || x.IsZero() {
			return time.Time{}, false
		}
		return *x, true
	case string:
		if x == "" {
			return time.Time{}, false
		}
		ts, err := time.Parse(time.RFC3339Nano, x)
		return ts, err == nil
	case float64, int, int64, json.Number:
		secs := toFloat(x)
		if secs <= 0 {
			return time.Time{}, false
		}
		return time.Unix(int64(secs), int64((secs-float64(int64(secs)))*1e9)), true
	case map[string]any:
		secs, ok := x["seconds"]
		if !ok {
			secs, ok = x["_seconds"]
		}
		if !ok {
			return time.Time{}, false
		}
		s := int64(toFloat(secs))
		if s <= 0 {
			return time.Time{}, false
		}
		nanos := x["nanoseconds"]
		if nanos == nil {
			nanos = x["_nanoseconds"]
		}
		return time.Unix(s, int64(toFloat(nanos))), true
	default:
		return time.Time{}, false
	}
}
